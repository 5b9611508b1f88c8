package guard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/tenauthkit/tenauth/pkg/session"
	"github.com/tenauthkit/tenauth/pkg/tenant"
)

// SessionGuard authenticates requests via server-side sessions. It is
// long-lived; per-request state lives in the SessionScope returned by
// WithRequest.
type SessionGuard struct {
	sessions      *session.Manager
	provider      IdentityProvider
	events        tenant.Publisher
	log           *slog.Logger
	allowUnscoped bool
}

// SessionGuardOption configures a SessionGuard.
type SessionGuardOption func(*SessionGuard)

// WithSessionGuardPublisher sets the event publisher.
func WithSessionGuardPublisher(p tenant.Publisher) SessionGuardOption {
	return func(g *SessionGuard) {
		if p != nil {
			g.events = p
		}
	}
}

// WithSessionGuardLogger sets the guard logger.
func WithSessionGuardLogger(log *slog.Logger) SessionGuardOption {
	return func(g *SessionGuard) {
		if log != nil {
			g.log = log
		}
	}
}

// WithAllowUnscopedIdentities lets identities without the TenantAware
// capability authenticate into tenants. Off by default; unscoped
// identities are denied tenant access.
func WithAllowUnscopedIdentities(allow bool) SessionGuardOption {
	return func(g *SessionGuard) { g.allowUnscoped = allow }
}

// NewSessionGuard creates a session guard.
func NewSessionGuard(sessions *session.Manager, provider IdentityProvider, opts ...SessionGuardOption) *SessionGuard {
	g := &SessionGuard{
		sessions: sessions,
		provider: provider,
		events:   tenant.NoopPublisher{},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Validate checks credentials without touching any session or guard
// state.
func (g *SessionGuard) Validate(ctx context.Context, creds Credentials) bool {
	identity, err := g.provider.FindByEmail(ctx, creds.Email)
	if err != nil {
		return false
	}
	return g.provider.ValidateCredentials(ctx, identity, creds.Password)
}

// WithRequest returns the request-scoped view of the guard.
func (g *SessionGuard) WithRequest(w http.ResponseWriter, r *http.Request) *SessionScope {
	return &SessionScope{guard: g, w: w, r: r}
}

// SessionScope is the per-request state of a SessionGuard: the memoized
// identity and the logout flag. Not safe for concurrent use; create one
// per request.
type SessionScope struct {
	guard     *SessionGuard
	w         http.ResponseWriter
	r         *http.Request
	sess      *session.Session
	user      Identity
	userErr   error
	loaded    bool
	loggedOut bool
}

// User returns the authenticated identity for the request. The first call
// resolves the session and cross-checks it against the tenant carried in
// ctx; the result is memoized. After Logout it reports ErrUnauthenticated
// for the rest of the request regardless of the session token presented.
func (s *SessionScope) User(ctx context.Context) (Identity, error) {
	if s.loggedOut {
		return nil, ErrUnauthenticated
	}
	if s.loaded {
		return s.user, s.userErr
	}
	s.loaded = true
	s.user, s.userErr = s.resolveUser(ctx)
	return s.user, s.userErr
}

func (s *SessionScope) resolveUser(ctx context.Context) (Identity, error) {
	sess, err := s.guard.sessions.Get(ctx, s.r)
	if err != nil || !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	s.sess = sess

	bound, _ := tenant.FromContext(ctx)
	if bound != nil && sess.TenantID != nil && *sess.TenantID != bound.ID {
		return nil, ErrTenantMismatch
	}

	identity, err := s.guard.provider.FindByID(ctx, *sess.UserID)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if bound != nil && !AllowedForTenant(identity, bound, s.guard.allowUnscoped) {
		s.guard.events.Publish(ctx, tenant.AccessDenied{UserID: identity.AuthID(), TenantID: bound.ID})
		return nil, ErrAccessDenied
	}

	return identity, nil
}

// Check reports whether the request is authenticated.
func (s *SessionScope) Check(ctx context.Context) bool {
	user, err := s.User(ctx)
	return err == nil && user != nil
}

// Guest is the negation of Check.
func (s *SessionScope) Guest(ctx context.Context) bool {
	return !s.Check(ctx)
}

// Session returns the session the identity was resolved from, if any.
func (s *SessionScope) Session() *session.Session { return s.sess }

// Attempt checks the credentials and, when they match an identity allowed
// in the bound tenant, logs it in. A failed attempt returns false with a
// nil error; the error is reserved for infrastructure failures.
func (s *SessionScope) Attempt(ctx context.Context, creds Credentials) (bool, error) {
	identity, err := s.guard.provider.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return false, nil
		}
		return false, err
	}
	if !s.guard.provider.ValidateCredentials(ctx, identity, creds.Password) {
		return false, nil
	}

	bound, _ := tenant.FromContext(ctx)
	if bound != nil && !AllowedForTenant(identity, bound, s.guard.allowUnscoped) {
		s.guard.events.Publish(ctx, tenant.AccessDenied{UserID: identity.AuthID(), TenantID: bound.ID})
		return false, nil
	}

	if err := s.Login(ctx, identity); err != nil {
		return false, err
	}
	return true, nil
}

// Login binds identity to the request's session, re-validating tenant
// access first. The session token is rotated.
func (s *SessionScope) Login(ctx context.Context, identity Identity) error {
	bound, _ := tenant.FromContext(ctx)
	if bound != nil && !AllowedForTenant(identity, bound, s.guard.allowUnscoped) {
		s.guard.events.Publish(ctx, tenant.AccessDenied{UserID: identity.AuthID(), TenantID: bound.ID})
		return ErrAccessDenied
	}

	var tenantID *uuid.UUID
	if bound != nil {
		id := bound.ID
		tenantID = &id
	}

	sess, err := s.guard.sessions.Authenticate(ctx, s.w, s.r, identity.AuthID(), tenantID)
	if err != nil {
		return err
	}

	s.sess = sess
	s.user = identity
	s.userErr = nil
	s.loaded = true
	s.loggedOut = false

	if bound != nil {
		s.guard.events.Publish(ctx, tenant.Authenticated{Tenant: bound, UserID: identity.AuthID()})
	}
	s.guard.log.InfoContext(ctx, "user logged in",
		slog.String("user_id", identity.AuthID().String()))
	return nil
}

// LoginByID loads an identity by id and logs it in.
func (s *SessionScope) LoginByID(ctx context.Context, id uuid.UUID) (Identity, error) {
	identity, err := s.guard.provider.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Login(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// Logout destroys the request's session. The scope reports
// ErrUnauthenticated for the rest of the request.
func (s *SessionScope) Logout(ctx context.Context) error {
	if s.sess != nil {
		_ = s.guard.sessions.Store().Delete(ctx, s.sess.Token)
	}
	err := s.guard.sessions.Destroy(ctx, s.w, s.r)

	s.sess = nil
	s.user = nil
	s.userErr = nil
	s.loaded = true
	s.loggedOut = true
	return err
}
