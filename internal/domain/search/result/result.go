package result

import "github.com/bookfinder-io/bookfinder/internal/domain"

// Result is a single hybrid search hit. Combined is the weighted sum used
// for filtering and ordering; Semantic and Keyword are the raw cosine
// components reported as-is (cosine may be negative for general vectors).
type Result struct {
	book     domain.Book
	combined float64
	semantic float64
	keyword  float64
}

// New creates a search result.
func New(book domain.Book, combined, semantic, keyword float64) Result {
	return Result{book: book, combined: combined, semantic: semantic, keyword: keyword}
}

// Book returns the matched record.
func (r *Result) Book() domain.Book { return r.book }

// Combined returns the weighted hybrid score.
func (r *Result) Combined() float64 { return r.combined }

// Semantic returns the embedding cosine similarity.
func (r *Result) Semantic() float64 { return r.semantic }

// Keyword returns the TF-IDF cosine similarity.
func (r *Result) Keyword() float64 { return r.keyword }

// Similar is a single "recommend similar" hit with one similarity score.
type Similar struct {
	book       domain.Book
	similarity float64
}

// NewSimilar creates a recommendation result.
func NewSimilar(book domain.Book, similarity float64) Similar {
	return Similar{book: book, similarity: similarity}
}

// Book returns the recommended record.
func (s *Similar) Book() domain.Book { return s.book }

// Similarity returns the embedding cosine similarity to the reference.
func (s *Similar) Similarity() float64 { return s.similarity }
