package apitoken

import "errors"

var (
	// ErrTokenNotFound is returned by Store implementations when no record
	// matches the lookup.
	ErrTokenNotFound = errors.New("api token not found")

	// ErrTokenExpired indicates the token exists but its expiration time has
	// passed.
	ErrTokenExpired = errors.New("api token expired")

	// ErrTokenRevoked indicates the token was revoked. Revocation is final
	// for authentication purposes; a revoked token never authenticates even
	// if later restored for auditing.
	ErrTokenRevoked = errors.New("api token revoked")

	// ErrWrongTenant indicates a valid token was presented against a tenant
	// it is not bound to while cross-tenant use is disabled.
	ErrWrongTenant = errors.New("api token bound to a different tenant")

	// ErrInvalidAbility is returned when a token is created with an ability
	// outside the configured vocabulary.
	ErrInvalidAbility = errors.New("invalid token ability")

	// ErrEmptyName is returned when a token is created without a name.
	ErrEmptyName = errors.New("token name is required")
)
