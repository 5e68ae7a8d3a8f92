package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safar/vintagebikes/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, userID int64) ([]models.CartLine, error)
	Set(ctx context.Context, userID int64, lines []models.CartLine) error
	Delete(ctx context.Context, userID int64) error
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisCache{client: client, baseTTL: ttl}
}

func (r *RedisCache) Get(ctx context.Context, userID int64) ([]models.CartLine, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var lines []models.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return lines, nil
}

// Set stores lines with the base TTL plus up to a fifth of it as jitter.
func (r *RedisCache) Set(ctx context.Context, userID int64, lines []models.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	jitter := time.Duration(rand.Int63n(int64(r.baseTTL/5) + 1))
	if err := r.client.Set(ctx, cacheKey(userID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("cart:%d", userID)
}

// NopCache always misses.
type NopCache struct{}

func (NopCache) Get(context.Context, int64) ([]models.CartLine, error) { return nil, ErrCacheMiss }
func (NopCache) Set(context.Context, int64, []models.CartLine) error   { return nil }
func (NopCache) Delete(context.Context, int64) error                   { return nil }
