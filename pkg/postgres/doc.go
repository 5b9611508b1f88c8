// Package postgres provides the PostgreSQL-backed implementations of the
// storage interfaces: tenant and membership lookups, API token records,
// sessions and the bcrypt identity provider.
//
// Connect establishes a pgxpool with retry and health checking; each store
// wraps the pool:
//
//	pool, err := postgres.Connect(ctx, cfg)
//	tenants := postgres.NewTenantStore(pool)
//	tokens := postgres.NewTokenStore(pool)
//
// EnsureSchema applies the embedded schema for fresh databases and tests.
package postgres
