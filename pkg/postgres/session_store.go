package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenauthkit/tenauth/pkg/session"
)

// SessionStore implements session.Store on PostgreSQL, for deployments
// where sessions must survive restarts.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a session store backed by pool.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.Token == "" {
		return session.ErrInvalidSession
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (token, id, user_id, tenant_id, data, expires_at, last_activity_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.Token, sess.ID, sess.UserID, sess.TenantID, sess.Data,
		sess.ExpiresAt, sess.LastActivityAt, sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*session.Session, error) {
	var sess session.Session
	err := s.pool.QueryRow(ctx, `
		SELECT token, id, user_id, tenant_id, data, expires_at, last_activity_at, created_at
		FROM sessions WHERE token = $1`, token).
		Scan(&sess.Token, &sess.ID, &sess.UserID, &sess.TenantID, &sess.Data,
			&sess.ExpiresAt, &sess.LastActivityAt, &sess.CreatedAt)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.IsExpired() {
		_ = s.Delete(ctx, token)
		return nil, session.ErrSessionExpired
	}
	return &sess, nil
}

func (s *SessionStore) Update(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.Token == "" {
		return session.ErrInvalidSession
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET user_id = $2, tenant_id = $3, data = $4, expires_at = $5, last_activity_at = $6
		WHERE token = $1`,
		sess.Token, sess.UserID, sess.TenantID, sess.Data, sess.ExpiresAt, sess.LastActivityAt)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) UpdateActivity(ctx context.Context, token string, lastActivity time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET last_activity_at = $2 WHERE token = $1`, token, lastActivity)
	if err != nil {
		return fmt.Errorf("update session activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`); err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}

// DeleteByUserID removes all sessions for a specific user.
func (s *SessionStore) DeleteByUserID(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, uid); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}
