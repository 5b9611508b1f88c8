package guard_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tenauthkit/tenauth/pkg/apitoken"
	"github.com/tenauthkit/tenauth/pkg/guard"
	"github.com/tenauthkit/tenauth/pkg/tenant"
)

// memberUser is a tenant-scoped identity.
type memberUser struct {
	id      uuid.UUID
	tenants map[uuid.UUID]bool
}

func (u *memberUser) AuthID() uuid.UUID { return u.id }

func (u *memberUser) BelongsToTenant(tenantID uuid.UUID) bool { return u.tenants[tenantID] }

func (u *memberUser) TokenOwnerType() string { return "user" }

func (u *memberUser) TokenOwnerID() uuid.UUID { return u.id }

// plainUser carries no tenant association.
type plainUser struct {
	id uuid.UUID
}

func (u *plainUser) AuthID() uuid.UUID { return u.id }

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

// stubTokenStore is an in-memory apitoken.Store.
type stubTokenStore struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]apitoken.Token
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{tokens: make(map[uuid.UUID]apitoken.Token)}
}

func (s *stubTokenStore) Create(_ context.Context, token *apitoken.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ID] = *token
	return nil
}

func (s *stubTokenStore) FindByID(_ context.Context, id uuid.UUID) (*apitoken.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok {
		return nil, apitoken.ErrTokenNotFound
	}
	return &t, nil
}

func (s *stubTokenStore) FindByHash(_ context.Context, hash string) (*apitoken.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.Hash == hash {
			tt := t
			return &tt, nil
		}
	}
	return nil, apitoken.ErrTokenNotFound
}

func (s *stubTokenStore) Update(_ context.Context, token *apitoken.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ID] = *token
	return nil
}

func (s *stubTokenStore) UpdateLastUsed(_ context.Context, id uuid.UUID, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok {
		return apitoken.ErrTokenNotFound
	}
	t.LastUsedAt = &usedAt
	s.tokens[id] = t
	return nil
}

func (s *stubTokenStore) ListByOwner(_ context.Context, ownerType string, ownerID uuid.UUID) ([]apitoken.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []apitoken.Token
	for _, t := range s.tokens {
		if t.OwnerType == ownerType && t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubTokenStore) RevokeByOwner(_ context.Context, ownerType string, ownerID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.tokens {
		if t.OwnerType == ownerType && t.OwnerID == ownerID && !t.Revoked {
			t.Revoked = true
			s.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (s *stubTokenStore) DeleteExpired(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.tokens {
		if t.ExpiresAt != nil && t.ExpiresAt.Before(olderThan) {
			delete(s.tokens, id)
			n++
		}
	}
	return n, nil
}

func newGuardTenant() *tenant.Tenant {
	now := time.Now()
	return &tenant.Tenant{
		ID:        uuid.New(),
		Name:      "Acme",
		Slug:      "acme",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func tenantCtx(t *tenant.Tenant) context.Context {
	return tenant.WithTenant(context.Background(), t)
}
