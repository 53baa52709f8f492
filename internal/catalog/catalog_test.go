package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/safar/bookstore/internal/cache"
	"github.com/safar/bookstore/internal/database"
	"github.com/safar/bookstore/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	books     []models.Book
	listCalls atomic.Int32
	getCalls  atomic.Int32
	delay     time.Duration
}

func (f *fakeSource) ListBooks(ctx context.Context) ([]models.Book, error) {
	f.listCalls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.books, nil
}

func (f *fakeSource) GetBook(_ context.Context, id int64) (*models.Book, error) {
	f.getCalls.Add(1)
	for _, b := range f.books {
		if b.ID == id {
			book := b
			return &book, nil
		}
	}
	return nil, database.ErrBookNotFound
}

func newSource() *fakeSource {
	return &fakeSource{books: []models.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", Price: decimal.RequireFromString("9.99")},
		{ID: 2, Title: "Emma", Author: "Jane Austen", Price: decimal.RequireFromString("5.00")},
	}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRedisCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewRedisCache(client, time.Minute), mr
}

func TestListBooks_NoCache(t *testing.T) {
	src := newSource()
	svc := NewService(src, nil, discardLogger())

	for i := 0; i < 3; i++ {
		books, err := svc.ListBooks(context.Background())
		require.NoError(t, err)
		assert.Len(t, books, 2)
	}
	assert.Equal(t, int32(3), src.listCalls.Load())
}

func TestListBooks_ServedFromCache(t *testing.T) {
	src := newSource()
	c, _ := newRedisCache(t)
	svc := NewService(src, c, discardLogger())
	ctx := context.Background()

	first, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	second, err := svc.ListBooks(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), src.listCalls.Load())
	require.Len(t, second, len(first))
	assert.Equal(t, first[0].Title, second[0].Title)
}

func TestListBooks_ConcurrentMissesCoalesce(t *testing.T) {
	src := newSource()
	src.delay = 50 * time.Millisecond
	c, _ := newRedisCache(t)
	svc := NewService(src, c, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ListBooks(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.listCalls.Load())
}

func TestListBooks_CancelledCallerDoesNotFailOthers(t *testing.T) {
	src := newSource()
	src.delay = 200 * time.Millisecond
	c, _ := newRedisCache(t)
	svc := NewService(src, c, discardLogger())

	firstCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.ListBooks(firstCtx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return src.listCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		books []models.Book
		err   error
	}
	second := make(chan result, 1)
	go func() {
		books, err := svc.ListBooks(context.Background())
		second <- result{books, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-firstErr, context.Canceled)

	res := <-second
	require.NoError(t, res.err)
	assert.Len(t, res.books, 2)
	assert.Equal(t, int32(1), src.listCalls.Load())
}

func TestGetBook_CachesHitsButNotMisses(t *testing.T) {
	src := newSource()
	c, mr := newRedisCache(t)
	svc := NewService(src, c, discardLogger())
	ctx := context.Background()

	book, err := svc.GetBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.True(t, mr.Exists("catalog:book:1"))

	_, err = svc.GetBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.getCalls.Load())

	_, err = svc.GetBook(ctx, 42)
	assert.ErrorIs(t, err, database.ErrBookNotFound)
	assert.False(t, mr.Exists("catalog:book:42"))
}

func TestCacheOutageFallsBackToSource(t *testing.T) {
	src := newSource()
	c, mr := newRedisCache(t)
	svc := NewService(src, c, discardLogger())
	mr.Close()

	books, err := svc.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 2)

	book, err := svc.GetBook(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Emma", book.Title)
}

func TestInvalidate(t *testing.T) {
	src := newSource()
	c, _ := newRedisCache(t)
	svc := NewService(src, c, discardLogger())
	ctx := context.Background()

	_, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.ListBooks(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.listCalls.Load())
	assert.NoError(t, NewService(src, nil, discardLogger()).Invalidate(ctx))
}

func TestSourceErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(failingSource{err: boom}, nil, discardLogger())

	_, err := svc.ListBooks(context.Background())
	assert.ErrorIs(t, err, boom)
}

type failingSource struct{ err error }

func (f failingSource) ListBooks(context.Context) ([]models.Book, error) { return nil, f.err }
func (f failingSource) GetBook(context.Context, int64) (*models.Book, error) {
	return nil, f.err
}
