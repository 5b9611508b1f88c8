// Package tenant provides multi-tenant identification and request-scoped
// tenant context management.
//
// The package is built around three concepts:
//
//  1. Resolver determines the tenant for an inbound request using an
//     ordered, pluggable strategy chain (subdomain, header, domain, path,
//     custom), consulting a TTL cache in front of the Store.
//  2. Context holds the current tenant for one logical unit of work, with
//     idempotent identification, explicit switching and nested temporary
//     rebinding that always restores on exit.
//  3. Middleware wires both into an HTTP pipeline and carries the tenant
//     through context.Context for explicit propagation.
//
// # Resolution
//
// Strategies are tried strictly in configured order; the first strategy
// yielding an active tenant wins. Inactive tenants are invisible on every
// path. Absence of a match is a nil tenant, never an error, so the caller
// (middleware, typically) decides whether a missing tenant is fatal.
//
//	store := mytenants.NewStore(pool)
//	resolver := tenant.NewResolver(store,
//		tenant.WithStrategies(tenant.StrategySubdomain, tenant.StrategyHeader),
//		tenant.WithCentralDomains("example.com"),
//		tenant.WithCacheTTL(10*time.Minute),
//	)
//
// Custom strategies are registered by name; built-in names are reserved:
//
//	resolver.RegisterStrategy("query", func(r *http.Request, res *tenant.Resolver) (*tenant.Tenant, error) {
//		return res.FindBy(r.Context(), tenant.ColumnSlug, r.URL.Query().Get("tenant"))
//	})
//
// # Context lifecycle
//
// Create one Context per request or task; it is a single-writer state
// machine, not a shared concurrent structure.
//
//	tc := tenant.NewContext(resolver)
//	t, err := tc.Identify(ctx, req)   // idempotent per request
//
//	err = tc.ExecuteInTenant(ctx, otherID, func(ctx context.Context) error {
//		// tenant temporarily rebound; restored on return or panic
//		return doWork(ctx)
//	})
//
// # Caching
//
// Lookups are memoized under namespaced keys ("tenant:subdomain:acme").
// The cache is an optional accelerator with a documented staleness window:
// a deactivation may be served stale for up to the TTL. Disable with
// NewNoopCache, or plug a shared backend such as rediscache.
package tenant
