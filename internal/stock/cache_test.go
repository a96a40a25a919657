package stock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheFetchPopulatesAndHits(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "stock", "levels", "WIDGET")
	require.NoError(t, err)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"in_stock": 10}, nil
	}

	var first map[string]int
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	require.Equal(t, 10, first["in_stock"])
	require.Equal(t, 1, calls)

	var second map[string]int
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))
	require.Equal(t, 10, second["in_stock"])
	require.Equal(t, 1, calls, "second read must come from cache")
}

func TestCacheInvalidateBumpsVersion(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "stock", "levels")
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx))

	after, err := cache.BuildKey(ctx, "stock", "levels")
	require.NoError(t, err)
	require.NotEqual(t, before, after, "invalidation must orphan old keys")
}

func TestCacheNilClientFallsThrough(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "stock", "levels")
	require.NoError(t, err)
	require.Equal(t, "stock:levels", key)

	calls := 0
	var out map[string]int
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"n": 1}, nil
	}
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	require.Equal(t, 2, calls, "without redis every read hits the loader")
	require.NoError(t, cache.Invalidate(ctx))
}
