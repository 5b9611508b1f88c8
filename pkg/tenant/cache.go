package tenant

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Cache keys are namespaced by lookup column and value so that related
// entries can be invalidated together with DeletePrefix.
const (
	// CacheKeyPrefix namespaces every tenant lookup entry.
	CacheKeyPrefix = "tenant:"

	// CacheKeyCurrent memoizes the last tenant resolved for the active request.
	CacheKeyCurrent = CacheKeyPrefix + "current"
)

// CacheKey builds the cache key for a column lookup, e.g. "tenant:subdomain:acme".
func CacheKey(column Column, value string) string {
	return CacheKeyPrefix + string(column) + ":" + value
}

// Cache memoizes tenant lookups. Implementations must tolerate concurrent
// reads and writes from multiple in-flight resolutions; last write wins.
//
// The cache provides no strong consistency: a deactivated tenant may be
// served as active for up to the configured TTL. Callers that cannot accept
// the staleness window should disable caching.
type Cache interface {
	// Get retrieves a cached tenant by key.
	Get(ctx context.Context, key string) (*Tenant, bool)

	// Set stores a tenant under key with the given TTL.
	Set(ctx context.Context, key string, tenant *Tenant, ttl time.Duration)

	// Delete removes a single entry.
	Delete(ctx context.Context, key string)

	// DeletePrefix removes every entry whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string)

	// Close releases resources held by the cache.
	Close() error
}

// inMemoryCache is the default process-local cache with TTL expiry and
// LRU eviction.
type inMemoryCache struct {
	mu      sync.Mutex
	items   map[string]cacheItem
	lru     []string
	maxSize int
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

type cacheItem struct {
	tenant    *Tenant
	expiresAt time.Time
}

// DefaultCacheSize is the default maximum number of cached entries.
const DefaultCacheSize = 1000

// NewInMemoryCache creates an in-memory cache with background cleanup of
// expired entries.
func NewInMemoryCache() Cache {
	return NewInMemoryCacheWithSize(DefaultCacheSize)
}

// NewInMemoryCacheWithSize creates an in-memory cache bounded to maxSize entries.
func NewInMemoryCacheWithSize(maxSize int) Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}

	c := &inMemoryCache{
		items:   make(map[string]cacheItem),
		lru:     make([]string, 0, maxSize),
		maxSize: maxSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go c.cleanup()

	return c
}

func (c *inMemoryCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}

	if time.Now().After(item.expiresAt) {
		delete(c.items, key)
		c.removeLRU(key)
		return nil, false
	}

	c.touchLRU(key)

	return item.tenant, true
}

func (c *inMemoryCache) Set(ctx context.Context, key string, tenant *Tenant, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		if len(c.lru) > 0 {
			evict := c.lru[0]
			delete(c.items, evict)
			c.lru = c.lru[1:]
		}
	}

	c.items[key] = cacheItem{
		tenant:    tenant,
		expiresAt: time.Now().Add(ttl),
	}
	c.touchLRU(key)
}

func (c *inMemoryCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	c.removeLRU(key)
}

func (c *inMemoryCache) DeletePrefix(ctx context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			c.removeLRU(key)
		}
	}
}

func (c *inMemoryCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *inMemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			c.removeLRU(key)
		}
	}
}

// touchLRU moves the key to the most-recently-used end of the queue.
func (c *inMemoryCache) touchLRU(key string) {
	c.removeLRU(key)
	c.lru = append(c.lru, key)
}

func (c *inMemoryCache) removeLRU(key string) {
	for i, k := range c.lru {
		if k == key {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			return
		}
	}
}

func (c *inMemoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

// noopCache disables caching: every lookup is a passthrough to the store.
type noopCache struct{}

// NewNoopCache returns a cache that never stores anything. Used when
// caching is disabled by configuration.
func NewNoopCache() Cache {
	return noopCache{}
}

func (noopCache) Get(ctx context.Context, key string) (*Tenant, bool) { return nil, false }

func (noopCache) Set(ctx context.Context, key string, tenant *Tenant, ttl time.Duration) {}

func (noopCache) Delete(ctx context.Context, key string) {}

func (noopCache) DeletePrefix(ctx context.Context, prefix string) {}

func (noopCache) Close() error { return nil }
