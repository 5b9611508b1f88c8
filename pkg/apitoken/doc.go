// Package apitoken manages tenant-scoped opaque bearer tokens: creation,
// lookup, ability checks and revocation.
//
// A token's plaintext is a 64-character random string returned exactly once
// at creation time; only its SHA-256 digest is persisted. The external
// "composite" form "{id}|{plaintext}" lets the resolver load the exact
// record by id before a constant-time hash comparison, avoiding a
// full-table scan. Plain (non-composite) strings are looked up by digest
// directly.
//
//	svc := apitoken.NewService(store)
//
//	tok, plaintext, err := svc.Create(ctx, owner, "ci-deploy",
//		apitoken.WithAbilities("read", "write"),
//		apitoken.WithTenantID(tenantID),
//	)
//	// hand plaintext to the caller; it cannot be recovered later
//
// Lookup returns a typed Resolution instead of raising, so callers choose
// which outcomes are fatal:
//
//	res, err := svc.Find(ctx, presented)
//	res = res.ForTenant(boundTenantID, allowCrossTenant)
//	switch res.Status {
//	case apitoken.StatusValid:
//		// res.Token.Can("deploy") etc.
//	case apitoken.StatusWrongTenant:
//		// active policy violation, surface as an error
//	default:
//		// absent credentials
//	}
//
// Abilities are matched with the ability package; a token created with
// ["*"] satisfies every ability check.
package apitoken
