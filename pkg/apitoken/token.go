package apitoken

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tenauthkit/tenauth/pkg/ability"
)

// Token is a persisted API token record. The plaintext is never stored;
// Hash holds its hex SHA-256 digest and is excluded from JSON output.
type Token struct {
	ID         uuid.UUID  `json:"id"`
	OwnerType  string     `json:"owner_type"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	TenantID   *uuid.UUID `json:"tenant_id,omitempty"`
	Name       string     `json:"name"`
	Hash       string     `json:"-"`
	Abilities  []string   `json:"abilities"`
	Revoked    bool       `json:"revoked"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsExpired reports whether the token's expiration time has passed. Tokens
// without an expiration never expire.
func (t *Token) IsExpired() bool {
	return t.ExpiresAt != nil && time.Now().After(*t.ExpiresAt)
}

// IsRevoked reports whether the token has been revoked.
func (t *Token) IsRevoked() bool { return t.Revoked }

// IsValid reports whether the token is neither revoked nor expired.
func (t *Token) IsValid() bool { return !t.IsRevoked() && !t.IsExpired() }

// Can reports whether the token grants the named ability, honoring the
// wildcard grant.
func (t *Token) Can(name string) bool {
	return ability.Has(t.Abilities, name)
}

// Cannot is the negation of Can.
func (t *Token) Cannot(name string) bool { return !t.Can(name) }

// BelongsToTenant reports whether the token is bound to the given tenant.
// Unscoped tokens belong to no tenant.
func (t *Token) BelongsToTenant(tenantID uuid.UUID) bool {
	return t.TenantID != nil && *t.TenantID == tenantID
}

// Owner is implemented by entities that can own API tokens.
type Owner interface {
	TokenOwnerType() string
	TokenOwnerID() uuid.UUID
}

// Store persists token records. Implementations return ErrTokenNotFound
// when no record matches; revoked and expired records are still returned
// so the service can report the precise resolution status.
type Store interface {
	Create(ctx context.Context, token *Token) error
	FindByID(ctx context.Context, id uuid.UUID) (*Token, error)
	FindByHash(ctx context.Context, hash string) (*Token, error)
	Update(ctx context.Context, token *Token) error
	UpdateLastUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error
	ListByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) ([]Token, error)
	RevokeByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)
}
