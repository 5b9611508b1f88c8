package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenauthkit/tenauth/pkg/apitoken"
)

// TokenStore implements apitoken.Store on PostgreSQL.
type TokenStore struct {
	pool *pgxpool.Pool
}

// NewTokenStore creates a token store backed by pool.
func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

const tokenColumns = `id, owner_type, owner_id, tenant_id, name, hash, abilities, revoked, last_used_at, expires_at, created_at, updated_at`

func scanToken(row pgx.Row) (*apitoken.Token, error) {
	var t apitoken.Token
	err := row.Scan(&t.ID, &t.OwnerType, &t.OwnerID, &t.TenantID, &t.Name, &t.Hash,
		&t.Abilities, &t.Revoked, &t.LastUsedAt, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, apitoken.ErrTokenNotFound
		}
		return nil, fmt.Errorf("scan api token: %w", err)
	}
	return &t, nil
}

func (s *TokenStore) Create(ctx context.Context, token *apitoken.Token) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO api_tokens (id, owner_type, owner_id, tenant_id, name, hash, abilities, revoked, last_used_at, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		token.ID, token.OwnerType, token.OwnerID, token.TenantID, token.Name, token.Hash,
		token.Abilities, token.Revoked, token.LastUsedAt, token.ExpiresAt, token.CreatedAt, token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert api token: %w", err)
	}
	return nil
}

func (s *TokenStore) FindByID(ctx context.Context, id uuid.UUID) (*apitoken.Token, error) {
	return scanToken(s.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM api_tokens WHERE id = $1`, id))
}

func (s *TokenStore) FindByHash(ctx context.Context, hash string) (*apitoken.Token, error) {
	return scanToken(s.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM api_tokens WHERE hash = $1`, hash))
}

func (s *TokenStore) Update(ctx context.Context, token *apitoken.Token) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE api_tokens
		SET name = $2, abilities = $3, revoked = $4, expires_at = $5, updated_at = $6
		WHERE id = $1`,
		token.ID, token.Name, token.Abilities, token.Revoked, token.ExpiresAt, token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update api token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apitoken.ErrTokenNotFound
	}
	return nil
}

func (s *TokenStore) UpdateLastUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_tokens SET last_used_at = $2 WHERE id = $1`, id, usedAt)
	if err != nil {
		return fmt.Errorf("update api token last used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apitoken.ErrTokenNotFound
	}
	return nil
}

func (s *TokenStore) ListByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) ([]apitoken.Token, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tokenColumns+` FROM api_tokens WHERE owner_type = $1 AND owner_id = $2 ORDER BY created_at`,
		ownerType, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list api tokens: %w", err)
	}
	defer rows.Close()

	var out []apitoken.Token
	for rows.Next() {
		var t apitoken.Token
		if err := rows.Scan(&t.ID, &t.OwnerType, &t.OwnerID, &t.TenantID, &t.Name, &t.Hash,
			&t.Abilities, &t.Revoked, &t.LastUsedAt, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api token: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *TokenStore) RevokeByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE api_tokens SET revoked = TRUE, updated_at = now()
		WHERE owner_type = $1 AND owner_id = $2 AND NOT revoked`,
		ownerType, ownerID)
	if err != nil {
		return 0, fmt.Errorf("revoke api tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *TokenStore) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM api_tokens WHERE expires_at IS NOT NULL AND expires_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("delete expired api tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
