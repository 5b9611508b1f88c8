package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tenauthkit/tenauth/pkg/ability"
)

// Tenant represents an isolated customer/organization context that scopes
// data and access.
type Tenant struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	Domain    string         `json:"domain"`
	Subdomain string         `json:"subdomain"`
	Active    bool           `json:"active"`
	Settings  map[string]any `json:"settings,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsActive reports whether the tenant accepts requests.
func (t *Tenant) IsActive() bool {
	return t != nil && t.Active
}

// Setting returns a settings value or the provided default when absent.
func (t *Tenant) Setting(key string, def any) any {
	if t == nil || t.Settings == nil {
		return def
	}
	if v, ok := t.Settings[key]; ok {
		return v
	}
	return def
}

// Meta returns a metadata value or the provided default when absent.
func (t *Tenant) Meta(key string, def any) any {
	if t == nil || t.Metadata == nil {
		return def
	}
	if v, ok := t.Metadata[key]; ok {
		return v
	}
	return def
}

// Membership associates a user with a tenant. A user has at most one
// membership per tenant, and at most one membership marked as default.
type Membership struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	UserID      uuid.UUID `json:"user_id"`
	Role        *string   `json:"role,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasPermission reports whether the membership grants the permission,
// honoring the "*" wildcard.
func (m *Membership) HasPermission(permission string) bool {
	if m == nil {
		return false
	}
	return ability.Has(m.Permissions, permission)
}

// HasRole reports whether the membership carries the exact role.
func (m *Membership) HasRole(role string) bool {
	return m != nil && m.Role != nil && *m.Role == role
}

// Column identifies a lookup column for tenant resolution.
type Column string

const (
	ColumnID        Column = "id"
	ColumnSlug      Column = "slug"
	ColumnDomain    Column = "domain"
	ColumnSubdomain Column = "subdomain"
)

// Store loads tenants from a data source. Implementations must only return
// active tenants: an inactive tenant is reported as ErrTenantNotFound on
// every lookup path, never as an error.
type Store interface {
	// FindByColumn retrieves an active tenant by an exact column match.
	// Returns ErrTenantNotFound when no active tenant matches.
	FindByColumn(ctx context.Context, column Column, value string) (*Tenant, error)

	// FindByID retrieves an active tenant by id.
	// Returns ErrTenantNotFound when no active tenant matches.
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
}

// MembershipStore provides read access to user-tenant associations.
type MembershipStore interface {
	// Membership returns the membership record for the (tenant, user) pair.
	// Returns ErrMembershipNotFound when the user does not belong to the tenant.
	Membership(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error)

	// MembershipsForUser lists all memberships of a user.
	MembershipsForUser(ctx context.Context, userID uuid.UUID) ([]Membership, error)
}
