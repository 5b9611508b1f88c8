package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/tenauthkit/tenauth/pkg/guard"
)

// User is the persisted identity. It satisfies guard.Identity, the
// guard.TenantAware capability through its home tenant and memberships,
// and apitoken.Owner.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	TenantID     *uuid.UUID `json:"tenant_id,omitempty"`
	TenantIDs    []uuid.UUID `json:"tenant_ids,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) AuthID() uuid.UUID { return u.ID }

// BelongsToTenant reports whether tenantID is the user's home tenant or
// one of their memberships.
func (u *User) BelongsToTenant(tenantID uuid.UUID) bool {
	if u.TenantID != nil && *u.TenantID == tenantID {
		return true
	}
	return slices.Contains(u.TenantIDs, tenantID)
}

func (u *User) TokenOwnerType() string { return "user" }

func (u *User) TokenOwnerID() uuid.UUID { return u.ID }

// IdentityProvider implements guard.IdentityProvider on PostgreSQL with
// bcrypt password hashing.
type IdentityProvider struct {
	pool *pgxpool.Pool
	cost int
}

// NewIdentityProvider creates an identity provider backed by pool.
func NewIdentityProvider(pool *pgxpool.Pool) *IdentityProvider {
	return &IdentityProvider{pool: pool, cost: bcrypt.DefaultCost}
}

const userQuery = `
	SELECT u.id, u.email, u.password_hash, u.tenant_id, u.created_at, u.updated_at,
	       COALESCE(array_agg(tu.tenant_id) FILTER (WHERE tu.tenant_id IS NOT NULL), '{}')
	FROM users u
	LEFT JOIN tenant_users tu ON tu.user_id = u.id
	WHERE %s
	GROUP BY u.id`

func (p *IdentityProvider) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.TenantID,
		&u.CreatedAt, &u.UpdatedAt, &u.TenantIDs)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, guard.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// FindByID implements guard.IdentityProvider.
func (p *IdentityProvider) FindByID(ctx context.Context, id uuid.UUID) (guard.Identity, error) {
	return p.scanUser(p.pool.QueryRow(ctx, fmt.Sprintf(userQuery, "u.id = $1"), id))
}

// FindByEmail implements guard.IdentityProvider.
func (p *IdentityProvider) FindByEmail(ctx context.Context, email string) (guard.Identity, error) {
	return p.scanUser(p.pool.QueryRow(ctx, fmt.Sprintf(userQuery, "u.email = $1"), email))
}

// ValidateCredentials implements guard.IdentityProvider using bcrypt.
func (p *IdentityProvider) ValidateCredentials(_ context.Context, identity guard.Identity, password string) bool {
	user, ok := identity.(*User)
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// CreateUser persists a new user with a bcrypt-hashed password.
func (p *IdentityProvider) CreateUser(ctx context.Context, email, password string, tenantID *uuid.UUID) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		TenantID:     tenantID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, tenant_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.PasswordHash, u.TenantID, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}
