package guard

import (
	"context"

	"github.com/google/uuid"

	"github.com/tenauthkit/tenauth/pkg/tenant"
)

// Identity is an authenticatable principal.
type Identity interface {
	AuthID() uuid.UUID
}

// TenantAware is implemented by identities that belong to tenants. Guards
// use it to decide whether an identity may act in a given tenant; an
// identity without it is treated as unscoped.
type TenantAware interface {
	Identity
	BelongsToTenant(tenantID uuid.UUID) bool
}

// Credentials are the inputs to a credential-based login attempt.
type Credentials struct {
	Email    string
	Password string
}

// IdentityProvider loads identities for the guards. Implementations return
// ErrIdentityNotFound when no identity matches.
type IdentityProvider interface {
	// FindByID loads an identity by its id.
	FindByID(ctx context.Context, id uuid.UUID) (Identity, error)

	// FindByEmail loads an identity by email without checking credentials.
	FindByEmail(ctx context.Context, email string) (Identity, error)

	// ValidateCredentials reports whether password matches the identity's
	// stored credentials.
	ValidateCredentials(ctx context.Context, identity Identity, password string) bool
}

// AllowedForTenant reports whether identity may act in t. A nil tenant
// imposes no restriction. Identities without the TenantAware capability
// are allowed only when allowUnscoped is set.
func AllowedForTenant(identity Identity, t *tenant.Tenant, allowUnscoped bool) bool {
	if identity == nil {
		return false
	}
	if t == nil {
		return true
	}
	aware, ok := identity.(TenantAware)
	if !ok {
		return allowUnscoped
	}
	return aware.BelongsToTenant(t.ID)
}
