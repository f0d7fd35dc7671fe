// Package catalog exposes read access to the stored book catalog.
package catalog

import (
	"context"
	"fmt"

	"github.com/bookfinder-io/bookfinder/internal/domain"
	"github.com/bookfinder-io/bookfinder/internal/repository/books"
)

// Listing page size limits.
const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// Service handles catalog reads.
type Service struct {
	repo Repository
}

// New creates a catalog service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the most recently added books. The limit is clamped to
// [1, 100]; zero and negatives fall back to the default.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Book, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	listed, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return listed, nil
}

// Get returns a single book by ISBN.
func (s *Service) Get(ctx context.Context, isbn string) (domain.Book, error) {
	book, err := s.repo.GetByISBN(ctx, isbn)
	if err != nil {
		return domain.Book{}, fmt.Errorf("get book %s: %w", isbn, err)
	}
	return book, nil
}

// Stats returns catalog statistics.
func (s *Service) Stats(ctx context.Context) (books.Statistics, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return books.Statistics{}, fmt.Errorf("catalog stats: %w", err)
	}
	return stats, nil
}
