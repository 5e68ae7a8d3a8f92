package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/safar/vintagebikes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, 10*time.Minute), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	lines := []models.CartLine{
		{ID: 1, UserID: 7, ProductID: 3, Quantity: 2, Product: &models.ProductSummary{ID: 3, Name: "Frame"}},
	}
	require.NoError(t, cache.Set(ctx, 7, lines))
	assert.True(t, mr.Exists("cart:7"))

	ttl := mr.TTL("cart:7")
	assert.GreaterOrEqual(t, ttl, 10*time.Minute)
	assert.LessOrEqual(t, ttl, 12*time.Minute)

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Frame", got[0].Product.Name)

	require.NoError(t, cache.Delete(ctx, 7))
	_, err = cache.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheExpiry(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 1, []models.CartLine{}))
	mr.FastForward(13 * time.Minute)

	_, err := cache.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheInvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Set("cart:5", "{not json")

	_, err := cache.Get(context.Background(), 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
