package cache

import (
	"context"
	"errors"

	"github.com/safar/bookstore/internal/models"
)

// CatalogCache stores catalog reads. Implementations must be safe for
// concurrent use.
type CatalogCache interface {
	GetBooks(ctx context.Context) ([]models.Book, error)
	SetBooks(ctx context.Context, books []models.Book) error
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	SetBook(ctx context.Context, book *models.Book) error
	Invalidate(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")
