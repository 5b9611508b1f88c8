// Package session provides server-side sessions with pluggable storage and
// token transports.
//
// A session optionally carries an authenticated user id and a tenant
// binding. The tenant binding records which tenant the user authenticated
// into; authentication guards compare it against the tenant resolved for
// the current request and reject mismatches.
//
//	mgr := session.New(session.WithStore(store), session.WithTransport(session.NewHeaderTransport("")))
//
//	sess, err := mgr.Ensure(ctx, w, r)
//	err = mgr.Authenticate(ctx, w, r, userID, &tenantID) // rotates the token
//	err = mgr.Destroy(ctx, w, r)
//
// Tokens are rotated on authentication so a pre-authentication token never
// identifies an authenticated session. Arbitrary request-scoped state
// (impersonation bookkeeping, flash data) lives in the Data map.
package session
