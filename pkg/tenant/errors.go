package tenant

import (
	"errors"
	"fmt"
)

var (
	// ErrTenantNotFound is returned when no active tenant matches a lookup.
	// Inactive tenants are reported as not found on every lookup path.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrNotResolved is returned when a tenant is required but none could be
	// resolved for the current request or operation.
	ErrNotResolved = errors.New("tenant could not be resolved")

	// ErrTenantForbidden is returned when a route must be accessed without a
	// tenant context but one is bound.
	ErrTenantForbidden = errors.New("route cannot be accessed with a tenant context")

	// ErrNoTenantInContext is returned when no tenant is carried in the
	// request context.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrMembershipNotFound is returned when a user has no membership record
	// for a tenant.
	ErrMembershipNotFound = errors.New("tenant membership not found")

	// ErrReservedStrategy is returned when a custom strategy tries to shadow
	// a built-in resolution strategy name.
	ErrReservedStrategy = errors.New("cannot override built-in resolution strategy")

	// ErrInvalidIdentifier is returned when a tenant reference has an
	// unsupported type or format.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")
)

// NotResolvedByIDError wraps ErrNotResolved with the identifier that failed
// to resolve, so callers can render an actionable message.
type NotResolvedByIDError struct {
	ID string
}

func (e *NotResolvedByIDError) Error() string {
	return fmt.Sprintf("tenant %q could not be resolved", e.ID)
}

func (e *NotResolvedByIDError) Unwrap() error { return ErrNotResolved }
