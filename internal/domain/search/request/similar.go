package request

import "fmt"

// Similar parameter limits.
const (
	DefaultSimilarTopK = 5
	MaxSimilarTopK     = 20
)

// SimilarRequest is a validated "recommend similar" query keyed off an
// existing record.
type SimilarRequest struct {
	isbn string
	topK int
}

// NewSimilar validates and normalizes similar request parameters.
func NewSimilar(isbn string, topK int) (SimilarRequest, error) {
	if isbn == "" {
		return SimilarRequest{}, fmt.Errorf("isbn is required")
	}
	if topK <= 0 {
		topK = DefaultSimilarTopK
	}
	if topK > MaxSimilarTopK {
		topK = MaxSimilarTopK
	}
	return SimilarRequest{isbn: isbn, topK: topK}, nil
}

// ISBN returns the reference record identifier.
func (r *SimilarRequest) ISBN() string { return r.isbn }

// TopK returns the maximum number of recommendations.
func (r *SimilarRequest) TopK() int { return r.topK }
