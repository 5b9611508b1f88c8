package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTTL is the lifetime of anonymous sessions.
	DefaultTTL = 24 * time.Hour

	// DefaultAuthenticatedTTL is the lifetime of authenticated sessions.
	DefaultAuthenticatedTTL = 7 * 24 * time.Hour

	// DefaultCleanupInterval is how often the default memory store evicts
	// expired sessions.
	DefaultCleanupInterval = 5 * time.Minute
)

// Manager handles session lifecycle over a Store and a Transport.
type Manager struct {
	store            Store
	transport        Transport
	ttl              time.Duration
	authenticatedTTL time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the session store.
func WithStore(store Store) Option {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithTransport sets the token transport.
func WithTransport(t Transport) Option {
	return func(m *Manager) {
		if t != nil {
			m.transport = t
		}
	}
}

// WithTTL sets the anonymous session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithAuthenticatedTTL sets the authenticated session lifetime.
func WithAuthenticatedTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.authenticatedTTL = ttl
		}
	}
}

// New creates a session manager. Without options it uses an in-memory
// store and the cookie transport.
func New(opts ...Option) *Manager {
	m := &Manager{
		ttl:              DefaultTTL,
		authenticatedTTL: DefaultAuthenticatedTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = NewMemoryStore(DefaultCleanupInterval)
	}
	if m.transport == nil {
		m.transport = NewCookieTransport("", true)
	}
	return m
}

// Ensure retrieves the request's session, creating an anonymous one when
// the request carries no valid token.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	sess, err := m.Get(ctx, r)
	if err == nil {
		return sess, nil
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	sess = NewSession(token, m.ttl)
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	if err := m.transport.SetToken(w, sess.Token, m.ttl); err != nil {
		_ = m.store.Delete(ctx, sess.Token)
		return nil, err
	}
	return sess, nil
}

// Get retrieves the request's existing session.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}
	return m.store.Get(ctx, token)
}

// Authenticate binds userID and an optional tenant to the request's
// session, rotating the token so pre-authentication tokens stop working.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID, tenantID *uuid.UUID) (*Session, error) {
	sess, err := m.Ensure(ctx, w, r)
	if err != nil {
		return nil, err
	}

	newToken, err := generateToken()
	if err != nil {
		return nil, err
	}
	_ = m.store.Delete(ctx, sess.Token)

	sess.Token = newToken
	sess.UserID = &userID
	sess.TenantID = tenantID
	sess.ExpiresAt = time.Now().Add(m.authenticatedTTL)
	sess.Touch()

	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	if err := m.transport.SetToken(w, sess.Token, m.authenticatedTTL); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save persists changes made to a session's data.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	return m.store.Update(ctx, sess)
}

// Destroy deletes the request's session and clears the client token.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	token, err := m.transport.GetToken(r)
	if err == nil && token != "" {
		_ = m.store.Delete(ctx, token)
	}
	return m.transport.ClearToken(w)
}

// Store exposes the underlying store.
func (m *Manager) Store() Store { return m.store }

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
