package rediscache

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tenauthkit/tenauth/pkg/tenant"
)

// scanBatch bounds how many keys a single SCAN iteration returns during
// prefix invalidation.
const scanBatch = 100

// Cache implements tenant.Cache on Redis so cache invalidations are seen
// by every instance.
type Cache struct {
	client *redis.Client
	log    *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache logger. Cache failures are logged and treated
// as misses, never surfaced to resolution.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a Redis-backed tenant cache.
func New(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a cached tenant by key.
func (c *Cache) Get(ctx context.Context, key string) (*tenant.Tenant, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WarnContext(ctx, "tenant cache get failed",
				slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}

	var t tenant.Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		// Unreadable entries are dropped so they stop shadowing the store.
		_ = c.client.Del(ctx, key).Err()
		return nil, false
	}
	return &t, true
}

// Set stores a tenant under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, t *tenant.Tenant, ttl time.Duration) {
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "tenant cache set failed",
			slog.String("key", key), slog.Any("error", err))
	}
}

// Delete removes a single entry.
func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.WarnContext(ctx, "tenant cache delete failed",
			slog.String("key", key), slog.Any("error", err))
	}
}

// DeletePrefix removes every entry whose key starts with prefix, using
// SCAN to avoid blocking the server.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			c.log.WarnContext(ctx, "tenant cache scan failed",
				slog.String("prefix", prefix), slog.Any("error", err))
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.log.WarnContext(ctx, "tenant cache prefix delete failed",
					slog.String("prefix", prefix), slog.Any("error", err))
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
