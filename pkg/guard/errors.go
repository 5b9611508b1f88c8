package guard

import "errors"

var (
	// ErrUnauthenticated indicates the request carries no valid identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidCredentials indicates a credential check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccessDenied indicates an authenticated identity does not belong
	// to the tenant it tried to act in.
	ErrAccessDenied = errors.New("identity has no access to tenant")

	// ErrTenantMismatch indicates a session bound to one tenant was
	// presented against another.
	ErrTenantMismatch = errors.New("session bound to a different tenant")

	// ErrIdentityNotFound is returned by IdentityProvider implementations
	// when no identity matches the lookup.
	ErrIdentityNotFound = errors.New("identity not found")
)
