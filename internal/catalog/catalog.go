// Package catalog serves book reads through an optional read-through cache.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/safar/bookstore/internal/cache"
	"github.com/safar/bookstore/internal/models"
	"golang.org/x/sync/singleflight"
)

// flightTimeout bounds a shared read once it no longer follows a caller's
// deadline.
const flightTimeout = 10 * time.Second

// Source is the authoritative book storage.
type Source interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
}

type Service struct {
	source Source
	cache  cache.CatalogCache
	logger *slog.Logger
	sfg    singleflight.Group
}

// NewService builds a catalog over source. c may be nil, in which case every
// read goes to source.
func NewService(source Source, c cache.CatalogCache, logger *slog.Logger) *Service {
	return &Service{
		source: source,
		cache:  c,
		logger: logger,
	}
}

func (s *Service) ListBooks(ctx context.Context) ([]models.Book, error) {
	if s.cache == nil {
		return s.source.ListBooks(ctx)
	}

	v, err := s.share(ctx, "books", func(ctx context.Context) (any, error) {
		books, err := s.cache.GetBooks(ctx)
		if err == nil {
			return books, nil
		}
		s.logCacheError("get books", err)

		books, err = s.source.ListBooks(ctx)
		if err != nil {
			return nil, err
		}

		if err := s.cache.SetBooks(ctx, books); err != nil {
			s.logger.Warn("catalog cache set failed", "op", "set books", "error", err)
		}
		return books, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]models.Book), nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	if s.cache == nil {
		return s.source.GetBook(ctx, id)
	}

	v, err := s.share(ctx, "book:"+strconv.FormatInt(id, 10), func(ctx context.Context) (any, error) {
		book, err := s.cache.GetBook(ctx, id)
		if err == nil {
			return book, nil
		}
		s.logCacheError("get book", err)

		book, err = s.source.GetBook(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := s.cache.SetBook(ctx, book); err != nil {
			s.logger.Warn("catalog cache set failed", "op", "set book", "book_id", id, "error", err)
		}
		return book, nil
	})
	if err != nil {
		return nil, err
	}

	book := *v.(*models.Book)
	return &book, nil
}

// share runs fn once per key for all concurrent callers. The flight runs on a
// context detached from any single caller, so one caller giving up does not
// fail the others; each caller still stops waiting when its own ctx is done.
func (s *Service) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := s.sfg.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return fn(flightCtx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops cached catalog data after the books table changed.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

func (s *Service) logCacheError(op string, err error) {
	if errors.Is(err, cache.ErrCacheMiss) {
		return
	}
	s.logger.Warn("catalog cache read failed, falling back to database", "op", op, "error", err)
}
