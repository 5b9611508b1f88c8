package tenantauth

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tenauthkit/tenauth/pkg/guard"
)

var (
	// ErrNotImpersonating indicates StopImpersonating was called while no
	// impersonation was active.
	ErrNotImpersonating = errors.New("not impersonating")

	// ErrAlreadyImpersonating indicates a nested impersonation attempt.
	ErrAlreadyImpersonating = errors.New("already impersonating")

	// ErrNoSession indicates an operation that needs an authenticated
	// session was called without one.
	ErrNoSession = errors.New("no authenticated session")

	// ErrImpersonationDisabled indicates impersonation is turned off by
	// configuration.
	ErrImpersonationDisabled = errors.New("impersonation disabled")
)

// AccessDeniedError reports which identity was denied which tenant. It
// matches guard.ErrAccessDenied under errors.Is.
type AccessDeniedError struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("user %s has no access to tenant %s", e.UserID, e.TenantID)
}

func (e *AccessDeniedError) Unwrap() error { return guard.ErrAccessDenied }
