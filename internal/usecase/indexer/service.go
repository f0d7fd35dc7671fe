// Package indexer coordinates index lifecycle: warm start from the disk
// cache, full rebuilds from the catalog, and persistence of the result.
package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bookfinder-io/bookfinder/internal/index"
)

// rebuildFetchLimit caps how many catalog records one rebuild considers.
const rebuildFetchLimit = 100000

// Service manages the search index lifecycle.
type Service struct {
	books     BookSource
	builder   CorpusBuilder
	holder    *index.Holder
	indexDir  string
	precision string
	logger    *zap.Logger
}

// New creates an indexer service.
func New(
	books BookSource,
	builder CorpusBuilder,
	holder *index.Holder,
	indexDir, precision string,
	logger *zap.Logger,
) *Service {
	return &Service{
		books:     books,
		builder:   builder,
		holder:    holder,
		indexDir:  indexDir,
		precision: precision,
		logger:    logger,
	}
}

// Bootstrap loads the persisted index, if any, and publishes it. A missing
// or inconsistent cache is not fatal: the service starts with an empty
// index and logs why.
func (s *Service) Bootstrap(ctx context.Context) {
	_ = ctx

	corpus, err := index.Load(s.indexDir)
	if err != nil {
		s.logger.Warn("No usable index cache, starting empty",
			zap.String("dir", s.indexDir),
			zap.Error(err),
		)
		return
	}

	s.holder.Swap(corpus)
	s.logger.Info("Index cache loaded",
		zap.Int("books", corpus.Len()),
		zap.Int("dimensions", corpus.Dimensions()),
	)
}

// Rebuild re-vectorizes the catalog, swaps the new corpus in, and persists
// it. A failure at any stage leaves the previous corpus active.
func (s *Service) Rebuild(ctx context.Context) (index.BuildReport, error) {
	books, err := s.books.Recent(ctx, rebuildFetchLimit)
	if err != nil {
		return index.BuildReport{}, fmt.Errorf("load catalog: %w", err)
	}

	report, err := s.builder.Build(ctx, books, true)
	if err != nil {
		return index.BuildReport{}, err
	}

	if corpus := s.holder.Corpus(); corpus != nil && corpus.Len() > 0 {
		if err := index.Save(corpus, s.indexDir, s.precision); err != nil {
			// The in-memory index is live; losing the cache only costs
			// the next cold start a rebuild.
			s.logger.Error("Failed to persist index cache", zap.Error(err))
		}
	}
	return report, nil
}

// Stats describes the active index.
func (s *Service) Stats() index.Statistics {
	return s.builder.Stats()
}
