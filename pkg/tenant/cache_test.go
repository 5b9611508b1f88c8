package tenant_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenauthkit/tenauth/pkg/tenant"
)

func TestInMemoryCache(t *testing.T) {
	t.Parallel()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewInMemoryCache()
		defer cache.Close()

		acme := newTestTenant("acme", nil)
		ctx := context.Background()

		cache.Set(ctx, tenant.CacheKey(tenant.ColumnSubdomain, "acme"), acme, time.Minute)

		got, ok := cache.Get(ctx, tenant.CacheKey(tenant.ColumnSubdomain, "acme"))
		require.True(t, ok)
		assert.Equal(t, acme.ID, got.ID)
	})

	t.Run("expired entries are misses", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewInMemoryCache()
		defer cache.Close()

		ctx := context.Background()
		cache.Set(ctx, "tenant:id:x", newTestTenant("x", nil), 10*time.Millisecond)

		time.Sleep(25 * time.Millisecond)

		_, ok := cache.Get(ctx, "tenant:id:x")
		assert.False(t, ok)
	})

	t.Run("delete prefix clears the namespace", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewInMemoryCache()
		defer cache.Close()

		ctx := context.Background()
		cache.Set(ctx, tenant.CacheKey(tenant.ColumnSlug, "a"), newTestTenant("a", nil), time.Minute)
		cache.Set(ctx, tenant.CacheKey(tenant.ColumnSlug, "b"), newTestTenant("b", nil), time.Minute)
		cache.Set(ctx, "other:key", newTestTenant("c", nil), time.Minute)

		cache.DeletePrefix(ctx, tenant.CacheKeyPrefix)

		_, ok := cache.Get(ctx, tenant.CacheKey(tenant.ColumnSlug, "a"))
		assert.False(t, ok)
		_, ok = cache.Get(ctx, tenant.CacheKey(tenant.ColumnSlug, "b"))
		assert.False(t, ok)
		_, ok = cache.Get(ctx, "other:key")
		assert.True(t, ok, "entries outside the prefix survive")
	})

	t.Run("evicts least recently used at capacity", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewInMemoryCacheWithSize(2)
		defer cache.Close()

		ctx := context.Background()
		cache.Set(ctx, "k1", newTestTenant("t1", nil), time.Minute)
		cache.Set(ctx, "k2", newTestTenant("t2", nil), time.Minute)

		// Touch k1 so k2 becomes the eviction candidate.
		_, ok := cache.Get(ctx, "k1")
		require.True(t, ok)

		cache.Set(ctx, "k3", newTestTenant("t3", nil), time.Minute)

		_, ok = cache.Get(ctx, "k2")
		assert.False(t, ok, "least recently used entry evicted")
		_, ok = cache.Get(ctx, "k1")
		assert.True(t, ok)
		_, ok = cache.Get(ctx, "k3")
		assert.True(t, ok)
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewInMemoryCache()
		defer cache.Close()

		ctx := context.Background()
		acme := newTestTenant("acme", nil)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				cache.Set(ctx, "shared", acme, time.Minute)
			}()
			go func() {
				defer wg.Done()
				cache.Get(ctx, "shared")
			}()
		}
		wg.Wait()
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewInMemoryCache()
		require.NoError(t, cache.Close())
		require.NoError(t, cache.Close())
	})
}

func TestNoopCache(t *testing.T) {
	t.Parallel()

	cache := tenant.NewNoopCache()
	ctx := context.Background()

	cache.Set(ctx, "k", newTestTenant("t", nil), time.Minute)
	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok, "noop cache never stores")
	assert.NoError(t, cache.Close())
}
