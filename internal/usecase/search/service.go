// Package search ranks the indexed catalog against free-text queries and
// reference records. The service is stateless: every call is a pure
// function of the corpus snapshot and the request parameters.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/bookfinder-io/bookfinder/internal/domain/search/request"
	"github.com/bookfinder-io/bookfinder/internal/domain/search/result"
	"github.com/bookfinder-io/bookfinder/internal/vectorizer/tfidf"
)

// Service scores and ranks books by blended semantic and keyword similarity.
type Service struct {
	corpus CorpusProvider
	embed  Embedder
}

// New creates a search service.
func New(corpus CorpusProvider, embed Embedder) *Service {
	return &Service{corpus: corpus, embed: embed}
}

// Search embeds the query, transforms it in the corpus's fitted keyword
// space, and scores every record:
//
//	combined = semanticWeight*cos(query, embedding) + keywordWeight*cos(query, keywords)
//
// A genre filter zeroes the combined score of non-matching records without
// touching the component scores. Results are ordered by combined score
// descending (ties keep corpus order), only strictly positive scores are
// kept, and at most TopK are returned. An empty corpus yields empty
// results, not an error.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	corpus := s.corpus.Corpus()
	if corpus == nil || corpus.Len() == 0 {
		return nil, nil
	}

	embRes, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	queryKeywords := corpus.KeywordSpace().Transform(req.Query())

	n := corpus.Len()
	semantic := make([]float64, n)
	keyword := make([]float64, n)
	combined := make([]float64, n)
	for i := 0; i < n; i++ {
		semantic[i] = cosine(embRes.Embedding, corpus.Embedding(i))
		keyword[i] = tfidf.Cosine(queryKeywords, corpus.Keyword(i))
		combined[i] = req.SemanticWeight()*semantic[i] + req.KeywordWeight()*keyword[i]
	}

	if filter := req.GenreFilter(); len(filter) > 0 {
		for i := 0; i < n; i++ {
			book := corpus.Book(i)
			if !book.MatchesGenres(filter) {
				combined[i] = 0
			}
		}
	}

	order := rankDescending(combined)

	results := make([]result.Result, 0, req.TopK())
	for _, i := range order {
		if combined[i] <= 0 {
			break // sorted descending, nothing positive remains
		}
		results = append(results, result.New(corpus.Book(i), combined[i], semantic[i], keyword[i]))
		if len(results) == req.TopK() {
			break
		}
	}
	return results, nil
}

// RecommendSimilar ranks every other record by embedding similarity to the
// reference. An unknown ISBN or an empty corpus yields empty results; the
// transport layer surfaces that as not-found. The reference's own slot is
// forced below the keep threshold so a book never recommends itself.
func (s *Service) RecommendSimilar(
	ctx context.Context, req *request.SimilarRequest,
) ([]result.Similar, error) {
	_ = ctx

	corpus := s.corpus.Corpus()
	if corpus == nil || corpus.Len() == 0 {
		return nil, nil
	}

	ref, ok := corpus.IndexOf(req.ISBN())
	if !ok {
		return nil, nil
	}

	n := corpus.Len()
	sims := make([]float64, n)
	for i := 0; i < n; i++ {
		sims[i] = cosine(corpus.Embedding(ref), corpus.Embedding(i))
	}
	sims[ref] = -1

	order := rankDescending(sims)

	results := make([]result.Similar, 0, req.TopK())
	for _, i := range order {
		if sims[i] <= 0 {
			break
		}
		results = append(results, result.NewSimilar(corpus.Book(i), sims[i]))
		if len(results) == req.TopK() {
			break
		}
	}
	return results, nil
}

// rankDescending returns record positions ordered by score descending,
// ties keeping the original corpus order.
func rankDescending(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

// cosine computes cosine similarity between two dense vectors.
// Mismatched lengths or a zero vector yield 0.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
