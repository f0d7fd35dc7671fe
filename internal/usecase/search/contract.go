package search

import (
	"context"

	"github.com/bookfinder-io/bookfinder/internal/domain"
	"github.com/bookfinder-io/bookfinder/internal/index"
)

// CorpusProvider hands out the active corpus snapshot (index.Holder).
type CorpusProvider interface {
	Corpus() *index.Corpus
}

// Embedder vectorizes query text into an embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
