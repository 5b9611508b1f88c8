// Package guard authenticates requests against the tenant they were
// resolved to.
//
// Two guards are provided. SessionGuard authenticates via server-side
// sessions and rejects sessions bound to a tenant other than the one
// carried in the request context. TokenGuard authenticates via API tokens
// extracted from the query string, form body, bearer header or basic-auth
// password, and rejects tokens scoped to a foreign tenant unless
// cross-tenant use is explicitly enabled.
//
// Identities are opaque to the guards; applications implement Identity
// and, when identities belong to tenants, the TenantAware capability:
//
//	type User struct{ ... }
//
//	func (u *User) AuthID() uuid.UUID                  { return u.ID }
//	func (u *User) BelongsToTenant(id uuid.UUID) bool  { return u.TenantID == id }
//
// Identities that do not implement TenantAware are denied tenant access
// unless the guard is configured with WithAllowUnscopedIdentities.
//
// Guards are long-lived; per-request state (the memoized identity, the
// logout flag) lives in the scope returned by WithRequest:
//
//	scope := sessionGuard.WithRequest(w, r)
//	user, err := scope.User(r.Context())
package guard
