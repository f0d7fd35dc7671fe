package request

import "fmt"

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 20
	MaxTopK        = 50
)

// Request is a validated hybrid search query.
type Request struct {
	query          string
	topK           int
	semanticWeight float64
	keywordWeight  float64
	genreFilter    []string
}

// New validates and normalizes search parameters.
// Defaults: topK=20, semanticWeight=0.7, keywordWeight=0.3 when both
// weights are zero-valued. Weights are otherwise taken as given; they
// are not required to sum to 1 and are never normalized.
func New(
	query string,
	topK int,
	semanticWeight, keywordWeight float64,
	genreFilter []string,
) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if semanticWeight < 0 || keywordWeight < 0 {
		return Request{}, fmt.Errorf("weights must be non-negative")
	}
	if semanticWeight == 0 && keywordWeight == 0 {
		semanticWeight = 0.7
		keywordWeight = 0.3
	}

	return Request{
		query:          query,
		topK:           topK,
		semanticWeight: semanticWeight,
		keywordWeight:  keywordWeight,
		genreFilter:    genreFilter,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// TopK returns the maximum number of results.
func (r *Request) TopK() int { return r.topK }

// SemanticWeight returns the weight of the embedding similarity component.
func (r *Request) SemanticWeight() float64 { return r.semanticWeight }

// KeywordWeight returns the weight of the TF-IDF similarity component.
func (r *Request) KeywordWeight() float64 { return r.keywordWeight }

// GenreFilter returns the case-insensitive genre substring terms (may be empty).
func (r *Request) GenreFilter() []string { return r.genreFilter }
