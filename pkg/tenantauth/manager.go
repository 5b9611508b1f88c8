package tenantauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tenauthkit/tenauth/pkg/guard"
	"github.com/tenauthkit/tenauth/pkg/session"
	"github.com/tenauthkit/tenauth/pkg/tenant"
)

// Session data keys for impersonation bookkeeping. UUIDs are stored as
// strings so the session survives JSON serialization.
const (
	impersonatorKey = "impersonator_id"
	impersonatedKey = "impersonated_id"
)

// Manager is the facade over tenant context, sessions and guards.
type Manager struct {
	tenants     *tenant.Context
	sessions    *session.Manager
	provider    guard.IdentityProvider
	memberships tenant.MembershipStore
	events      tenant.Publisher
	log         *slog.Logger
	cfg         Config
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig sets the policy configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// WithMemberships enables role checks backed by a membership store.
func WithMemberships(store tenant.MembershipStore) Option {
	return func(m *Manager) { m.memberships = store }
}

// WithPublisher sets the event publisher.
func WithPublisher(p tenant.Publisher) Option {
	return func(m *Manager) {
		if p != nil {
			m.events = p
		}
	}
}

// WithLogger sets the manager logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// New creates the facade.
func New(tenants *tenant.Context, sessions *session.Manager, provider guard.IdentityProvider, opts ...Option) *Manager {
	m := &Manager{
		tenants:  tenants,
		sessions: sessions,
		provider: provider,
		events:   tenant.NoopPublisher{},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Tenant returns the current tenant: the one carried in ctx when present,
// otherwise the one bound to the tenant context. Nil when neither holds a
// tenant.
func (m *Manager) Tenant(ctx context.Context) *tenant.Tenant {
	if t, ok := tenant.FromContext(ctx); ok {
		return t
	}
	return m.tenants.Tenant()
}

// TenantOrFail returns the current tenant or tenant.ErrNotResolved.
func (m *Manager) TenantOrFail(ctx context.Context) (*tenant.Tenant, error) {
	if t := m.Tenant(ctx); t != nil {
		return t, nil
	}
	return nil, tenant.ErrNotResolved
}

// HasAccess reports whether identity may act in the current tenant.
// Without a current tenant there is nothing to restrict and access is
// granted.
func (m *Manager) HasAccess(ctx context.Context, identity guard.Identity) bool {
	return guard.AllowedForTenant(identity, m.Tenant(ctx), m.cfg.AllowUnscopedIdentities)
}

// CheckAccess is HasAccess with a descriptive error on denial.
func (m *Manager) CheckAccess(ctx context.Context, identity guard.Identity) error {
	if identity == nil {
		return guard.ErrUnauthenticated
	}
	t := m.Tenant(ctx)
	if guard.AllowedForTenant(identity, t, m.cfg.AllowUnscopedIdentities) {
		return nil
	}
	m.events.Publish(ctx, tenant.AccessDenied{UserID: identity.AuthID(), TenantID: t.ID})
	return &AccessDeniedError{UserID: identity.AuthID(), TenantID: t.ID}
}

// SwitchTenant rebinds the current tenant to the one ref names, after
// verifying identity may act there. The access check runs before any
// mutation: a denied switch leaves the previous tenant bound. The returned
// context carries the new tenant.
func (m *Manager) SwitchTenant(ctx context.Context, identity guard.Identity, ref any) (context.Context, error) {
	if identity == nil {
		return ctx, guard.ErrUnauthenticated
	}

	target, err := m.resolveRef(ctx, ref)
	if err != nil {
		return ctx, err
	}

	if !guard.AllowedForTenant(identity, target, m.cfg.AllowUnscopedIdentities) {
		m.events.Publish(ctx, tenant.AccessDenied{UserID: identity.AuthID(), TenantID: target.ID})
		return ctx, &AccessDeniedError{UserID: identity.AuthID(), TenantID: target.ID}
	}

	m.tenants.Switch(ctx, target)
	m.log.InfoContext(ctx, "tenant switched",
		slog.String("tenant_id", target.ID.String()),
		slog.String("user_id", identity.AuthID().String()))

	return tenant.WithTenant(ctx, target), nil
}

// ExecuteInTenant runs fn with the tenant ref names bound, restoring the
// previous tenant afterwards even when fn fails or panics.
func (m *Manager) ExecuteInTenant(ctx context.Context, ref any, fn func(ctx context.Context) error) error {
	return m.tenants.ExecuteInTenant(ctx, ref, fn)
}

// HasRole reports whether identity holds any of the roles in the current
// tenant. Requires a membership store; without one every role check fails.
func (m *Manager) HasRole(ctx context.Context, identity guard.Identity, roles ...string) (bool, error) {
	t := m.Tenant(ctx)
	if identity == nil || t == nil || m.memberships == nil {
		return false, nil
	}
	membership, err := m.memberships.Membership(ctx, t.ID, identity.AuthID())
	if err != nil {
		if errors.Is(err, tenant.ErrMembershipNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load membership: %w", err)
	}
	for _, role := range roles {
		if membership.HasRole(role) {
			return true, nil
		}
	}
	return false, nil
}

// User returns the acting identity for the request: the impersonated user
// while impersonation is active, otherwise the session's own user.
func (m *Manager) User(ctx context.Context, scope *guard.SessionScope) (guard.Identity, error) {
	actual, err := scope.User(ctx)
	if err != nil {
		return nil, err
	}
	sess := scope.Session()
	if sess == nil {
		return actual, nil
	}
	if impersonated, ok := sess.GetUUID(impersonatedKey); ok {
		return m.provider.FindByID(ctx, impersonated)
	}
	return actual, nil
}

// OriginalUser returns the session's own identity, ignoring any active
// impersonation.
func (m *Manager) OriginalUser(ctx context.Context, scope *guard.SessionScope) (guard.Identity, error) {
	return scope.User(ctx)
}

// IsImpersonating reports whether the session carries an active
// impersonation.
func (m *Manager) IsImpersonating(scope *guard.SessionScope) bool {
	sess := scope.Session()
	if sess == nil {
		return false
	}
	_, ok := sess.GetUUID(impersonatedKey)
	return ok
}

// Impersonate makes targetID the acting user for the session. The real
// identity stays on the session; the target must exist and must have
// access to the current tenant. Nested impersonation is rejected.
func (m *Manager) Impersonate(ctx context.Context, scope *guard.SessionScope, targetID uuid.UUID) error {
	if m.cfg.DisableImpersonation {
		return ErrImpersonationDisabled
	}
	actual, err := scope.User(ctx)
	if err != nil {
		return ErrNoSession
	}
	sess := scope.Session()
	if sess == nil {
		return ErrNoSession
	}
	if m.IsImpersonating(scope) {
		return ErrAlreadyImpersonating
	}

	target, err := m.provider.FindByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("impersonate: %w", err)
	}
	if err := m.CheckAccess(ctx, target); err != nil {
		return err
	}

	sess.Set(impersonatorKey, actual.AuthID().String())
	sess.Set(impersonatedKey, target.AuthID().String())
	if err := m.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("impersonate: %w", err)
	}

	m.log.InfoContext(ctx, "impersonation started",
		slog.String("impersonator_id", actual.AuthID().String()),
		slog.String("impersonated_id", target.AuthID().String()))
	return nil
}

// StopImpersonating restores the session's own identity as the acting
// user. The tenant binding is left untouched.
func (m *Manager) StopImpersonating(ctx context.Context, scope *guard.SessionScope) error {
	sess := scope.Session()
	if sess == nil {
		return ErrNoSession
	}
	if !m.IsImpersonating(scope) {
		return ErrNotImpersonating
	}

	sess.Delete(impersonatorKey)
	sess.Delete(impersonatedKey)
	if err := m.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("stop impersonating: %w", err)
	}
	return nil
}

func (m *Manager) resolveRef(ctx context.Context, ref any) (*tenant.Tenant, error) {
	switch v := ref.(type) {
	case *tenant.Tenant:
		if v == nil {
			return nil, tenant.ErrInvalidIdentifier
		}
		return v, nil
	case tenant.Tenant:
		return &v, nil
	case uuid.UUID:
		return m.resolveRefID(ctx, v)
	case string:
		if id, err := uuid.Parse(v); err == nil {
			return m.resolveRefID(ctx, id)
		}
		t, err := m.tenants.Resolver().FindBy(ctx, tenant.ColumnSlug, v)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, &tenant.NotResolvedByIDError{ID: v}
		}
		return t, nil
	default:
		return nil, tenant.ErrInvalidIdentifier
	}
}

func (m *Manager) resolveRefID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	t, err := m.tenants.Resolver().ResolveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &tenant.NotResolvedByIDError{ID: id.String()}
	}
	return t, nil
}
