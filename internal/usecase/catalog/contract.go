package catalog

import (
	"context"

	"github.com/bookfinder-io/bookfinder/internal/domain"
	"github.com/bookfinder-io/bookfinder/internal/repository/books"
)

// Repository defines the storage contract for the catalog.
type Repository interface {
	Recent(ctx context.Context, limit int) ([]domain.Book, error)
	GetByISBN(ctx context.Context, isbn string) (domain.Book, error)
	Stats(ctx context.Context) (books.Statistics, error)
}
