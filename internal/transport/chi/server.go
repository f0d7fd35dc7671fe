// Package chi exposes the HTTP API: hybrid search, recommendations,
// catalog reads, and index administration.
package chi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bookfinder-io/bookfinder/internal/domain"
	"github.com/bookfinder-io/bookfinder/internal/domain/search/request"
	"github.com/bookfinder-io/bookfinder/internal/domain/search/result"
	"github.com/bookfinder-io/bookfinder/internal/ingest"
	cataloguc "github.com/bookfinder-io/bookfinder/internal/usecase/catalog"
	healthuc "github.com/bookfinder-io/bookfinder/internal/usecase/health"
	indexeruc "github.com/bookfinder-io/bookfinder/internal/usecase/indexer"
	searchuc "github.com/bookfinder-io/bookfinder/internal/usecase/search"
)

// Machine-readable error codes returned alongside HTTP statuses.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeBookNotFound     = "book_not_found"
	codeEmbeddingError   = "embedding_provider_error"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the use case services to HTTP routes.
type Server struct {
	search        *searchuc.Service
	catalog       *cataloguc.Service
	indexer       *indexeruc.Service
	pipeline      *ingest.Pipeline
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	catalog *cataloguc.Service,
	indexer *indexeruc.Service,
	pipeline *ingest.Pipeline,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		catalog:  catalog,
		indexer:  indexer,
		pipeline: pipeline,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrBookNotFound, http.StatusNotFound, codeBookNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingError),
		sentinelHandler(domain.ErrInconsistentIndex, http.StatusInternalServerError, codeInternalError),
	}
	return s
}

// RegisterRoutes mounts all API routes on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.SearchBooks)
		r.Get("/books", s.ListBooks)
		r.Get("/books/{isbn}", s.GetBook)
		r.Get("/books/{isbn}/similar", s.RecommendSimilar)
		r.Post("/rebuild-index", s.RebuildIndex)
		r.Post("/sync", s.SyncCatalog)
		r.Get("/stats", s.GetStats)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type searchRequestBody struct {
	Query          string   `json:"query"`
	TopK           int      `json:"top_k"`
	SemanticWeight float64  `json:"semantic_weight"`
	KeywordWeight  float64  `json:"keyword_weight"`
	GenreFilter    []string `json:"genre_filter"`
}

type bookResponse struct {
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Authors     string `json:"authors,omitempty"`
	Genres      string `json:"genres,omitempty"`
	PublishDate string `json:"publish_date,omitempty"`
}

type searchResultItem struct {
	bookResponse
	Score         float64 `json:"score"`
	SemanticScore float64 `json:"semantic_score"`
	KeywordScore  float64 `json:"keyword_score"`
}

type searchResponse struct {
	Query        string             `json:"query"`
	Count        int                `json:"count"`
	Results      []searchResultItem `json:"results"`
	SearchTimeMS float64            `json:"search_time_ms"`
}

// SearchBooks handles POST /api/search.
func (s *Server) SearchBooks(w http.ResponseWriter, r *http.Request) {
	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := request.New(
		body.Query, body.TopK, body.SemanticWeight, body.KeywordWeight, body.GenreFilter,
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	start := time.Now()
	results, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToItem(&results[i])
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:        req.Query(),
		Count:        len(items),
		Results:      items,
		SearchTimeMS: float64(time.Since(start).Microseconds()) / 1000,
	})
}

type similarResultItem struct {
	bookResponse
	Similarity float64 `json:"similarity"`
}

type similarResponse struct {
	ISBN            string              `json:"isbn"`
	Count           int                 `json:"count"`
	Recommendations []similarResultItem `json:"recommendations"`
}

// RecommendSimilar handles GET /api/books/{isbn}/similar.
func (s *Server) RecommendSimilar(w http.ResponseWriter, r *http.Request) {
	isbn := chi.URLParam(r, "isbn")

	topK := 0
	if v := r.URL.Query().Get("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must be an integer")
			return
		}
		topK = n
	}

	req, err := request.NewSimilar(isbn, topK)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	results, err := s.search.RecommendSimilar(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if len(results) == 0 {
		// Either the record is unknown or it has no positive neighbors;
		// both read as "nothing similar here" for the caller.
		writeError(w, http.StatusNotFound, codeBookNotFound, "book not found in index")
		return
	}

	items := make([]similarResultItem, len(results))
	for i := range results {
		items[i] = similarResultItem{
			bookResponse: bookToResponse(results[i].Book()),
			Similarity:   results[i].Similarity(),
		}
	}

	writeJSON(w, http.StatusOK, similarResponse{
		ISBN:            req.ISBN(),
		Count:           len(items),
		Recommendations: items,
	})
}

type bookListResponse struct {
	Count int            `json:"count"`
	Books []bookResponse `json:"books"`
}

// ListBooks handles GET /api/books.
func (s *Server) ListBooks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be an integer")
			return
		}
		limit = n
	}

	listed, err := s.catalog.List(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]bookResponse, len(listed))
	for i, b := range listed {
		items[i] = bookToResponse(b)
	}

	writeJSON(w, http.StatusOK, bookListResponse{Count: len(items), Books: items})
}

// GetBook handles GET /api/books/{isbn}.
func (s *Server) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.catalog.Get(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bookToResponse(book))
}

// RebuildIndex handles POST /api/rebuild-index.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	report, err := s.indexer.Rebuild(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// SyncCatalog handles POST /api/sync: re-reads the CSV drop directory into
// the catalog. It does not rebuild the index; call rebuild-index after.
func (s *Server) SyncCatalog(w http.ResponseWriter, r *http.Request) {
	report, err := s.pipeline.Run(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type statsResponse struct {
	Index    any `json:"index"`
	Database any `json:"database"`
}

// GetStats handles GET /api/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	dbStats, err := s.catalog.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Index:    s.indexer.Stats(),
		Database: dbStats,
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func bookToResponse(b domain.Book) bookResponse {
	return bookResponse{
		ISBN:        b.ISBN,
		Title:       b.Title,
		Description: b.Description,
		Authors:     b.Authors,
		Genres:      b.Genres,
		PublishDate: b.PublishDate,
	}
}

func searchResultToItem(r *result.Result) searchResultItem {
	return searchResultItem{
		bookResponse:  bookToResponse(r.Book()),
		Score:         r.Combined(),
		SemanticScore: r.Semantic(),
		KeywordScore:  r.Keyword(),
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrBookNotFound,
		domain.ErrAlreadyIndexed,
		domain.ErrNotIndexed,
		domain.ErrInconsistentIndex,
		domain.ErrEmbeddingProviderError,
		domain.ErrNoValidRecords,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
