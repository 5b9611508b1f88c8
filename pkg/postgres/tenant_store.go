package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenauthkit/tenauth/pkg/tenant"
)

// TenantStore implements tenant.Store and tenant.MembershipStore on
// PostgreSQL.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore creates a tenant store backed by pool.
func NewTenantStore(pool *pgxpool.Pool) *TenantStore {
	return &TenantStore{pool: pool}
}

const tenantColumns = `id, name, slug, COALESCE(domain, ''), COALESCE(subdomain, ''), active, settings, metadata, created_at, updated_at`

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Domain, &t.Subdomain, &t.Active,
		&t.Settings, &t.Metadata, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	return &t, nil
}

// FindByID looks up an active tenant by id.
func (s *TenantStore) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1 AND active`, id)
	return scanTenant(row)
}

// FindByColumn looks up an active tenant by the given identifying column.
func (s *TenantStore) FindByColumn(ctx context.Context, column tenant.Column, value string) (*tenant.Tenant, error) {
	var where string
	switch column {
	case tenant.ColumnID:
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, tenant.ErrTenantNotFound
		}
		return s.FindByID(ctx, id)
	case tenant.ColumnSlug:
		where = "slug = $1"
	case tenant.ColumnDomain:
		where = "domain = $1"
	case tenant.ColumnSubdomain:
		where = "subdomain = $1"
	default:
		return nil, tenant.ErrInvalidIdentifier
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE `+where+` AND active`, value)
	return scanTenant(row)
}

// Create persists a tenant.
func (s *TenantStore) Create(ctx context.Context, t *tenant.Tenant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, slug, domain, subdomain, active, settings, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10)`,
		t.ID, t.Name, t.Slug, t.Domain, t.Subdomain, t.Active, t.Settings, t.Metadata, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

// SetActive toggles a tenant's active flag.
func (s *TenantStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set tenant active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// Membership loads a user's membership in a tenant.
func (s *TenantStore) Membership(ctx context.Context, tenantID, userID uuid.UUID) (*tenant.Membership, error) {
	var m tenant.Membership
	err := s.pool.QueryRow(ctx, `
		SELECT tenant_id, user_id, role, permissions, is_default
		FROM tenant_users WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, userID).
		Scan(&m.TenantID, &m.UserID, &m.Role, &m.Permissions, &m.IsDefault)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, tenant.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("load membership: %w", err)
	}
	return &m, nil
}

// MembershipsForUser lists every tenant membership a user holds.
func (s *TenantStore) MembershipsForUser(ctx context.Context, userID uuid.UUID) ([]tenant.Membership, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tenant_id, user_id, role, permissions, is_default
		FROM tenant_users WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var out []tenant.Membership
	for rows.Next() {
		var m tenant.Membership
		if err := rows.Scan(&m.TenantID, &m.UserID, &m.Role, &m.Permissions, &m.IsDefault); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddMembership persists a membership, replacing an existing one for the
// same tenant and user.
func (s *TenantStore) AddMembership(ctx context.Context, m *tenant.Membership) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenant_users (tenant_id, user_id, role, permissions, is_default)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, user_id)
		DO UPDATE SET role = EXCLUDED.role, permissions = EXCLUDED.permissions, is_default = EXCLUDED.is_default`,
		m.TenantID, m.UserID, m.Role, m.Permissions, m.IsDefault)
	if err != nil {
		return fmt.Errorf("add membership: %w", err)
	}
	return nil
}

// RemoveMembership deletes a membership.
func (s *TenantStore) RemoveMembership(ctx context.Context, tenantID, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM tenant_users WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)
	if err != nil {
		return fmt.Errorf("remove membership: %w", err)
	}
	return nil
}
