package indexer

import (
	"context"

	"github.com/bookfinder-io/bookfinder/internal/domain"
	"github.com/bookfinder-io/bookfinder/internal/index"
)

// BookSource supplies the records that get indexed.
type BookSource interface {
	Recent(ctx context.Context, limit int) ([]domain.Book, error)
}

// CorpusBuilder vectorizes records and publishes the resulting corpus.
type CorpusBuilder interface {
	Build(ctx context.Context, books []domain.Book, force bool) (index.BuildReport, error)
	Stats() index.Statistics
}
