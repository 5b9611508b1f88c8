// Package rediscache provides a Redis-backed tenant lookup cache for
// multi-instance deployments, where every instance must see tenant cache
// invalidations.
//
//	client, err := rediscache.Connect(ctx, cfg)
//	cache := rediscache.New(client)
//
//	resolver := tenant.NewResolver(store, tenant.WithResolverCache(cache))
//
// Tenants are stored as JSON under their lookup key with the TTL the
// resolver asks for; DeletePrefix walks matching keys with SCAN so it
// never blocks the server the way KEYS would.
package rediscache
