// Package tenantauth ties tenant resolution, sessions and guards together
// behind a single Manager facade.
//
// The Manager answers the questions applications ask most: which tenant is
// current, which user is acting (honoring impersonation), may this user
// act in this tenant, and how to switch tenants safely. Switching
// re-checks access before any state changes, so a denied switch leaves the
// previous tenant bound.
//
//	m := tenantauth.New(tenantCtx, sessions, provider, memberships,
//		tenantauth.WithConfig(cfg),
//	)
//
//	if !m.HasAccess(ctx, user) { ... }
//	ctx, err := m.SwitchTenant(ctx, user, "acme")
//	err = m.ExecuteInTenant(ctx, otherTenantID, func(ctx context.Context) error { ... })
//
// Impersonation is an overlay on the acting user only: the session keeps
// the impersonator's identity, User returns the impersonated one, and
// stopping restores the original without rebinding the tenant.
package tenantauth
