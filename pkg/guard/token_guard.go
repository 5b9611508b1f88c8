package guard

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tenauthkit/tenauth/pkg/apitoken"
	"github.com/tenauthkit/tenauth/pkg/tenant"
)

// TokenInputKey is the query and form parameter checked for API tokens.
const TokenInputKey = "api_token"

// TokenGuard authenticates requests via API tokens. Long-lived; per-request
// state lives in the TokenScope returned by WithRequest.
type TokenGuard struct {
	tokens           *apitoken.Service
	provider         IdentityProvider
	log              *slog.Logger
	allowCrossTenant bool
	allowUnscoped    bool
}

// TokenGuardOption configures a TokenGuard.
type TokenGuardOption func(*TokenGuard)

// WithTokenGuardLogger sets the guard logger.
func WithTokenGuardLogger(log *slog.Logger) TokenGuardOption {
	return func(g *TokenGuard) {
		if log != nil {
			g.log = log
		}
	}
}

// WithAllowCrossTenantTokens lets tokens scoped to one tenant authenticate
// requests bound to another. Off by default.
func WithAllowCrossTenantTokens(allow bool) TokenGuardOption {
	return func(g *TokenGuard) { g.allowCrossTenant = allow }
}

// WithTokenGuardAllowUnscopedIdentities lets token owners without the
// TenantAware capability act in tenants. Off by default.
func WithTokenGuardAllowUnscopedIdentities(allow bool) TokenGuardOption {
	return func(g *TokenGuard) { g.allowUnscoped = allow }
}

// NewTokenGuard creates a token guard.
func NewTokenGuard(tokens *apitoken.Service, provider IdentityProvider, opts ...TokenGuardOption) *TokenGuard {
	g := &TokenGuard{
		tokens:   tokens,
		provider: provider,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ExtractToken pulls the API token from a request, checking the query
// string, the form body, the bearer header and the basic-auth password in
// that order.
func ExtractToken(r *http.Request) string {
	if v := r.URL.Query().Get(TokenInputKey); v != "" {
		return v
	}
	if v := r.PostFormValue(TokenInputKey); v != "" {
		return v
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token != "" {
			return token
		}
	}
	if _, password, ok := r.BasicAuth(); ok && password != "" {
		return password
	}
	return ""
}

// Validate reports whether the presented token string authenticates
// against the tenant carried in ctx. It sets no guard state and does not
// record token usage.
func (g *TokenGuard) Validate(ctx context.Context, presented string) bool {
	res, err := g.tokens.Inspect(ctx, presented)
	if err != nil {
		return false
	}
	res = res.ForTenant(boundTenantID(ctx), g.allowCrossTenant)
	return res.Valid()
}

// WithRequest returns the request-scoped view of the guard.
func (g *TokenGuard) WithRequest(r *http.Request) *TokenScope {
	return &TokenScope{guard: g, r: r}
}

// TokenScope is the per-request state of a TokenGuard. Not safe for
// concurrent use; create one per request.
type TokenScope struct {
	guard   *TokenGuard
	r       *http.Request
	token   *apitoken.Token
	user    Identity
	userErr error
	loaded  bool
}

// User returns the identity owning the presented token. A valid token
// bound to a foreign tenant yields apitoken.ErrWrongTenant rather than
// plain ErrUnauthenticated, so callers can tell an active policy
// violation from absent credentials. The result is memoized.
func (s *TokenScope) User(ctx context.Context) (Identity, error) {
	if s.loaded {
		return s.user, s.userErr
	}
	s.loaded = true
	s.user, s.userErr = s.resolveUser(ctx)
	return s.user, s.userErr
}

func (s *TokenScope) resolveUser(ctx context.Context) (Identity, error) {
	presented := ExtractToken(s.r)
	if presented == "" {
		return nil, ErrUnauthenticated
	}

	res, err := s.guard.tokens.Find(ctx, presented)
	if err != nil {
		return nil, err
	}

	bound, _ := tenant.FromContext(ctx)
	res = res.ForTenant(boundTenantID(ctx), s.guard.allowCrossTenant)

	switch res.Status {
	case apitoken.StatusValid:
	case apitoken.StatusWrongTenant:
		s.guard.log.WarnContext(ctx, "cross-tenant token rejected",
			slog.String("token_id", res.Token.ID.String()))
		return nil, apitoken.ErrWrongTenant
	default:
		return nil, ErrUnauthenticated
	}

	identity, err := s.guard.provider.FindByID(ctx, res.Token.OwnerID)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if bound != nil && !AllowedForTenant(identity, bound, s.guard.allowUnscoped) {
		return nil, ErrAccessDenied
	}

	s.token = res.Token
	return identity, nil
}

// Check reports whether the request is authenticated.
func (s *TokenScope) Check(ctx context.Context) bool {
	user, err := s.User(ctx)
	return err == nil && user != nil
}

// CurrentToken returns the token the identity was resolved from, for
// ability checks on the authenticated credential.
func (s *TokenScope) CurrentToken() *apitoken.Token { return s.token }

// TokenCan reports whether the authenticated token grants the named
// ability. False when the request is unauthenticated.
func (s *TokenScope) TokenCan(ability string) bool {
	return s.token != nil && s.token.Can(ability)
}

func boundTenantID(ctx context.Context) *uuid.UUID {
	bound, ok := tenant.FromContext(ctx)
	if !ok {
		return nil
	}
	id := bound.ID
	return &id
}
