package tenantauth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenauthkit/tenauth/pkg/guard"
	"github.com/tenauthkit/tenauth/pkg/session"
	"github.com/tenauthkit/tenauth/pkg/tenant"
	"github.com/tenauthkit/tenauth/pkg/tenantauth"
)

type testUser struct {
	id      uuid.UUID
	tenants map[uuid.UUID]bool
}

func (u *testUser) AuthID() uuid.UUID { return u.id }

func (u *testUser) BelongsToTenant(tenantID uuid.UUID) bool { return u.tenants[tenantID] }

type unscopedUser struct {
	id uuid.UUID
}

func (u *unscopedUser) AuthID() uuid.UUID { return u.id }

type stubProvider struct {
	byID      map[uuid.UUID]guard.Identity
	byEmail   map[string]guard.Identity
	passwords map[uuid.UUID]string
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		byID:      make(map[uuid.UUID]guard.Identity),
		byEmail:   make(map[string]guard.Identity),
		passwords: make(map[uuid.UUID]string),
	}
}

func (p *stubProvider) add(identity guard.Identity, email, password string) {
	p.byID[identity.AuthID()] = identity
	p.byEmail[email] = identity
	p.passwords[identity.AuthID()] = password
}

func (p *stubProvider) FindByID(_ context.Context, id uuid.UUID) (guard.Identity, error) {
	identity, ok := p.byID[id]
	if !ok {
		return nil, guard.ErrIdentityNotFound
	}
	return identity, nil
}

func (p *stubProvider) FindByEmail(_ context.Context, email string) (guard.Identity, error) {
	identity, ok := p.byEmail[email]
	if !ok {
		return nil, guard.ErrIdentityNotFound
	}
	return identity, nil
}

func (p *stubProvider) ValidateCredentials(_ context.Context, identity guard.Identity, password string) bool {
	return p.passwords[identity.AuthID()] == password
}

type stubTenantStore struct {
	tenants map[uuid.UUID]*tenant.Tenant
}

func newStubTenantStore(tenants ...*tenant.Tenant) *stubTenantStore {
	s := &stubTenantStore{tenants: make(map[uuid.UUID]*tenant.Tenant)}
	for _, t := range tenants {
		s.tenants[t.ID] = t
	}
	return s
}

func (s *stubTenantStore) FindByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	t, ok := s.tenants[id]
	if !ok || !t.Active {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (s *stubTenantStore) FindByColumn(_ context.Context, column tenant.Column, value string) (*tenant.Tenant, error) {
	for _, t := range s.tenants {
		if !t.Active {
			continue
		}
		switch column {
		case tenant.ColumnSlug:
			if t.Slug == value {
				return t, nil
			}
		case tenant.ColumnSubdomain:
			if t.Subdomain == value {
				return t, nil
			}
		case tenant.ColumnDomain:
			if t.Domain == value {
				return t, nil
			}
		case tenant.ColumnID:
			if t.ID.String() == value {
				return t, nil
			}
		}
	}
	return nil, tenant.ErrTenantNotFound
}

type stubMembershipStore struct {
	memberships map[uuid.UUID]map[uuid.UUID]*tenant.Membership
}

func newStubMembershipStore() *stubMembershipStore {
	return &stubMembershipStore{memberships: make(map[uuid.UUID]map[uuid.UUID]*tenant.Membership)}
}

func (s *stubMembershipStore) add(m *tenant.Membership) {
	if s.memberships[m.TenantID] == nil {
		s.memberships[m.TenantID] = make(map[uuid.UUID]*tenant.Membership)
	}
	s.memberships[m.TenantID][m.UserID] = m
}

func (s *stubMembershipStore) Membership(_ context.Context, tenantID, userID uuid.UUID) (*tenant.Membership, error) {
	if m, ok := s.memberships[tenantID][userID]; ok {
		return m, nil
	}
	return nil, tenant.ErrMembershipNotFound
}

func (s *stubMembershipStore) MembershipsForUser(_ context.Context, userID uuid.UUID) ([]tenant.Membership, error) {
	var out []tenant.Membership
	for _, byUser := range s.memberships {
		if m, ok := byUser[userID]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func newActiveTenant(slug string) *tenant.Tenant {
	now := time.Now()
	return &tenant.Tenant{
		ID:        uuid.New(),
		Name:      slug,
		Slug:      slug,
		Subdomain: slug,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type fixture struct {
	acme     *tenant.Tenant
	globex   *tenant.Tenant
	tenants  *tenant.Context
	sessions *session.Manager
	provider *stubProvider
	manager  *tenantauth.Manager
	sguard   *guard.SessionGuard
}

func newFixture(t *testing.T, opts ...tenantauth.Option) *fixture {
	t.Helper()

	acme := newActiveTenant("acme")
	globex := newActiveTenant("globex")

	resolver := tenant.NewResolver(
		newStubTenantStore(acme, globex),
		tenant.WithCentralDomains("example.com"),
		tenant.WithResolverCache(tenant.NewNoopCache()),
	)
	tenants := tenant.NewContext(resolver)

	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	sessions := session.New(
		session.WithStore(store),
		session.WithTransport(session.NewHeaderTransport("")),
	)

	provider := newStubProvider()

	return &fixture{
		acme:     acme,
		globex:   globex,
		tenants:  tenants,
		sessions: sessions,
		provider: provider,
		manager:  tenantauth.New(tenants, sessions, provider, opts...),
		sguard:   guard.NewSessionGuard(sessions, provider),
	}
}

func (f *fixture) login(t *testing.T, ctx context.Context, user guard.Identity) *guard.SessionScope {
	t.Helper()
	scope := f.sguard.WithRequest(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, scope.Login(ctx, user))
	return scope
}

func TestManager_Tenant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	t.Run("from context", func(t *testing.T) {
		ctx := tenant.WithTenant(context.Background(), f.acme)
		assert.Equal(t, f.acme.ID, f.manager.Tenant(ctx).ID)

		got, err := f.manager.TenantOrFail(ctx)
		require.NoError(t, err)
		assert.Equal(t, f.acme.ID, got.ID)
	})

	t.Run("none bound", func(t *testing.T) {
		assert.Nil(t, f.manager.Tenant(context.Background()))

		_, err := f.manager.TenantOrFail(context.Background())
		assert.ErrorIs(t, err, tenant.ErrNotResolved)
	})
}

func TestManager_HasAccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := tenant.WithTenant(context.Background(), f.acme)

	member := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{f.acme.ID: true}}
	outsider := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{}}
	plain := &unscopedUser{id: uuid.New()}

	assert.True(t, f.manager.HasAccess(ctx, member))
	assert.False(t, f.manager.HasAccess(ctx, outsider))
	assert.False(t, f.manager.HasAccess(ctx, plain))

	// no tenant bound imposes no restriction
	assert.True(t, f.manager.HasAccess(context.Background(), outsider))

	// CheckAccess names who was denied what
	err := f.manager.CheckAccess(ctx, outsider)
	require.Error(t, err)
	assert.ErrorIs(t, err, guard.ErrAccessDenied)
	var denied *tenantauth.AccessDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, outsider.id, denied.UserID)
	assert.Equal(t, f.acme.ID, denied.TenantID)
}

func TestManager_HasAccess_Unscoped(t *testing.T) {
	t.Parallel()

	f := newFixture(t, tenantauth.WithConfig(tenantauth.Config{AllowUnscopedIdentities: true}))
	ctx := tenant.WithTenant(context.Background(), f.acme)

	plain := &unscopedUser{id: uuid.New()}
	assert.True(t, f.manager.HasAccess(ctx, plain))
}

func TestManager_SwitchTenant(t *testing.T) {
	t.Parallel()

	t.Run("allowed switch rebinds", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{f.acme.ID: true, f.globex.ID: true}}

		ctx := tenant.WithTenant(context.Background(), f.acme)
		f.tenants.SetTenant(f.acme)

		newCtx, err := f.manager.SwitchTenant(ctx, user, f.globex.ID)
		require.NoError(t, err)

		bound, ok := tenant.FromContext(newCtx)
		require.True(t, ok)
		assert.Equal(t, f.globex.ID, bound.ID)
		assert.Equal(t, f.globex.ID, f.tenants.Tenant().ID)
	})

	t.Run("by slug", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{f.acme.ID: true, f.globex.ID: true}}

		newCtx, err := f.manager.SwitchTenant(context.Background(), user, "globex")
		require.NoError(t, err)
		bound, _ := tenant.FromContext(newCtx)
		assert.Equal(t, f.globex.ID, bound.ID)
	})

	t.Run("denied switch leaves binding intact", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{f.acme.ID: true}}

		ctx := tenant.WithTenant(context.Background(), f.acme)
		f.tenants.SetTenant(f.acme)

		sameCtx, err := f.manager.SwitchTenant(ctx, user, f.globex.ID)
		assert.ErrorIs(t, err, guard.ErrAccessDenied)

		bound, _ := tenant.FromContext(sameCtx)
		assert.Equal(t, f.acme.ID, bound.ID)
		assert.Equal(t, f.acme.ID, f.tenants.Tenant().ID)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{}}

		_, err := f.manager.SwitchTenant(context.Background(), user, uuid.New())
		assert.ErrorIs(t, err, tenant.ErrNotResolved)
	})

	t.Run("unauthenticated switch denied", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		ctx := tenant.WithTenant(context.Background(), f.acme)
		f.tenants.SetTenant(f.acme)

		sameCtx, err := f.manager.SwitchTenant(ctx, nil, f.globex.ID)
		assert.ErrorIs(t, err, guard.ErrUnauthenticated)

		bound, _ := tenant.FromContext(sameCtx)
		assert.Equal(t, f.acme.ID, bound.ID)
		assert.Equal(t, f.acme.ID, f.tenants.Tenant().ID)
	})
}

func TestManager_ExecuteInTenant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.tenants.SetTenant(f.acme)

	var inside uuid.UUID
	err := f.manager.ExecuteInTenant(context.Background(), f.globex.ID, func(ctx context.Context) error {
		bound, _ := tenant.FromContext(ctx)
		inside = bound.ID
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, f.globex.ID, inside)
	assert.Equal(t, f.acme.ID, f.tenants.Tenant().ID)
}

func TestManager_HasRole(t *testing.T) {
	t.Parallel()

	memberships := newStubMembershipStore()
	f := newFixture(t, tenantauth.WithMemberships(memberships))
	ctx := tenant.WithTenant(context.Background(), f.acme)

	admin := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{f.acme.ID: true}}
	role := "admin"
	memberships.add(&tenant.Membership{TenantID: f.acme.ID, UserID: admin.id, Role: &role})

	ok, err := f.manager.HasRole(ctx, admin, "admin", "owner")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.manager.HasRole(ctx, admin, "owner")
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("non-member has no role", func(t *testing.T) {
		t.Parallel()

		outsider := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{}}
		ok, err := f.manager.HasRole(ctx, outsider, "admin")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nil identity has no role", func(t *testing.T) {
		t.Parallel()

		ok, err := f.manager.HasRole(ctx, nil, "admin")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestManager_Impersonation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := tenant.WithTenant(context.Background(), f.acme)

	admin := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{f.acme.ID: true}}
	target := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{f.acme.ID: true}}
	outsider := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{}}
	f.provider.add(admin, "admin@acme.test", "secret")
	f.provider.add(target, "target@acme.test", "secret")
	f.provider.add(outsider, "outsider@test", "secret")

	scope := f.login(t, ctx, admin)

	t.Run("overlay changes acting user only", func(t *testing.T) {
		require.NoError(t, f.manager.Impersonate(ctx, scope, target.id))
		assert.True(t, f.manager.IsImpersonating(scope))

		acting, err := f.manager.User(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, target.id, acting.AuthID())

		original, err := f.manager.OriginalUser(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, admin.id, original.AuthID())
	})

	t.Run("nested impersonation rejected", func(t *testing.T) {
		err := f.manager.Impersonate(ctx, scope, outsider.id)
		assert.ErrorIs(t, err, tenantauth.ErrAlreadyImpersonating)
	})

	t.Run("stop restores the original", func(t *testing.T) {
		require.NoError(t, f.manager.StopImpersonating(ctx, scope))
		assert.False(t, f.manager.IsImpersonating(scope))

		acting, err := f.manager.User(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, admin.id, acting.AuthID())

		assert.ErrorIs(t, f.manager.StopImpersonating(ctx, scope), tenantauth.ErrNotImpersonating)
	})

	t.Run("target outside tenant rejected", func(t *testing.T) {
		err := f.manager.Impersonate(ctx, scope, outsider.id)
		assert.ErrorIs(t, err, guard.ErrAccessDenied)
		assert.False(t, f.manager.IsImpersonating(scope))
	})

	t.Run("unknown target rejected", func(t *testing.T) {
		err := f.manager.Impersonate(ctx, scope, uuid.New())
		assert.ErrorIs(t, err, guard.ErrIdentityNotFound)
	})

	t.Run("disabled by config", func(t *testing.T) {
		disabled := newFixture(t, tenantauth.WithConfig(tenantauth.Config{DisableImpersonation: true}))
		dctx := tenant.WithTenant(context.Background(), disabled.acme)
		user := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{disabled.acme.ID: true}}
		disabled.provider.add(user, "user@acme.test", "secret")
		dscope := disabled.login(t, dctx, user)

		err := disabled.manager.Impersonate(dctx, dscope, user.id)
		assert.ErrorIs(t, err, tenantauth.ErrImpersonationDisabled)
	})
}

func TestManager_Impersonation_SurvivesRequests(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := tenant.WithTenant(context.Background(), f.acme)

	admin := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{f.acme.ID: true}}
	target := &testUser{id: uuid.New(), tenants: map[uuid.UUID]bool{f.acme.ID: true}}
	f.provider.add(admin, "admin@acme.test", "secret")
	f.provider.add(target, "target@acme.test", "secret")

	scope := f.login(t, ctx, admin)
	require.NoError(t, f.manager.Impersonate(ctx, scope, target.id))
	token := scope.Session().Token

	// a later request with the same session token still sees the overlay
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(session.DefaultHeaderName, token)
	later := f.sguard.WithRequest(httptest.NewRecorder(), r)

	acting, err := f.manager.User(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, target.id, acting.AuthID())
}
