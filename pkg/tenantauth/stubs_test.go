package tenantauth_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tenauthkit/tenauth/pkg/apitoken"
)

// tokenOwnerUser is a tenant member that can own API tokens.
type tokenOwnerUser struct {
	id      uuid.UUID
	tenants map[uuid.UUID]bool
}

func (u *tokenOwnerUser) AuthID() uuid.UUID { return u.id }

func (u *tokenOwnerUser) BelongsToTenant(tenantID uuid.UUID) bool { return u.tenants[tenantID] }

func (u *tokenOwnerUser) TokenOwnerType() string { return "user" }

func (u *tokenOwnerUser) TokenOwnerID() uuid.UUID { return u.id }

// memTokenStore is an in-memory apitoken.Store.
type memTokenStore struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]apitoken.Token
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[uuid.UUID]apitoken.Token)}
}

func (s *memTokenStore) Create(_ context.Context, token *apitoken.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ID] = *token
	return nil
}

func (s *memTokenStore) FindByID(_ context.Context, id uuid.UUID) (*apitoken.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok {
		return nil, apitoken.ErrTokenNotFound
	}
	return &t, nil
}

func (s *memTokenStore) FindByHash(_ context.Context, hash string) (*apitoken.Token, error) {
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

func (s *memTokenStore) Update(_ context.Context, token *apitoken.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ID] = *token
	return nil
}

func (s *memTokenStore) UpdateLastUsed(_ context.Context, id uuid.UUID, usedAt time.Time) error {
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

func (s *memTokenStore) ListByOwner(_ context.Context, ownerType string, ownerID uuid.UUID) ([]apitoken.Token, error) {
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

func (s *memTokenStore) RevokeByOwner(_ context.Context, ownerType string, ownerID uuid.UUID) (int64, error) {
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

func (s *memTokenStore) DeleteExpired(_ context.Context, olderThan time.Time) (int64, error) {
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
