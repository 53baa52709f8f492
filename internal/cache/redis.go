package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safar/bookstore/internal/models"
)

const (
	booksKey      = "catalog:books"
	bookKeyPrefix = "catalog:book:"
)

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = 15 * time.Minute
	}
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

func (r *RedisCache) GetBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := r.get(ctx, booksKey, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *RedisCache) SetBooks(ctx context.Context, books []models.Book) error {
	return r.set(ctx, booksKey, books)
}

func (r *RedisCache) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	if err := r.get(ctx, bookKey(id), &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *RedisCache) SetBook(ctx context.Context, book *models.Book) error {
	return r.set(ctx, bookKey(book.ID), book)
}

// Invalidate drops every catalog key.
func (r *RedisCache) Invalidate(ctx context.Context) error {
	keys := []string{booksKey}
	iter := r.client.Scan(ctx, 0, bookKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) get(ctx context.Context, key string, dst any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisCache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// ttl spreads expiry over a few minutes so keys written together do not
// expire together.
func (r *RedisCache) ttl() time.Duration {
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	return r.baseTTL + jitter
}

func bookKey(id int64) string {
	return fmt.Sprintf("%s%d", bookKeyPrefix, id)
}
