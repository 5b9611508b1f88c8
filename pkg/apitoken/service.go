package apitoken

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tenauthkit/tenauth/pkg/ability"
)

// Service implements the token lifecycle on top of a Store.
type Service struct {
	store      Store
	events     Publisher
	log        *slog.Logger
	defaultTTL time.Duration
	vocabulary []string
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithDefaultTTL sets the expiration applied to tokens created without an
// explicit one. Zero means tokens never expire by default.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Service) { s.defaultTTL = ttl }
}

// WithVocabulary restricts the abilities tokens may be created with. The
// wildcard is always permitted.
func WithVocabulary(abilities ...string) Option {
	return func(s *Service) { s.vocabulary = abilities }
}

// NewService creates a token service backed by store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		events: NoopPublisher{},
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOption configures a single token creation.
type CreateOption func(*createParams)

type createParams struct {
	abilities []string
	tenantID  *uuid.UUID
	expiresAt *time.Time
}

// WithAbilities sets the token's abilities. Without it the token is
// created with the wildcard grant.
func WithAbilities(abilities ...string) CreateOption {
	return func(p *createParams) { p.abilities = abilities }
}

// WithTenantID binds the token to a tenant.
func WithTenantID(tenantID uuid.UUID) CreateOption {
	return func(p *createParams) { p.tenantID = &tenantID }
}

// WithExpiresAt sets an explicit expiration, overriding the service
// default.
func WithExpiresAt(t time.Time) CreateOption {
	return func(p *createParams) { p.expiresAt = &t }
}

// Create persists a new token for owner and returns the record together
// with its composite plaintext form "{id}|{plaintext}". The plaintext
// cannot be recovered afterwards.
func (s *Service) Create(ctx context.Context, owner Owner, name string, opts ...CreateOption) (*Token, string, error) {
	if name == "" {
		return nil, "", ErrEmptyName
	}

	params := createParams{abilities: []string{ability.Wildcard}}
	for _, opt := range opts {
		opt(&params)
	}

	abilities := ability.Normalize(params.abilities)
	if len(abilities) == 0 {
		abilities = []string{ability.Wildcard}
	}
	if len(s.vocabulary) > 0 {
		for _, a := range abilities {
			if a == ability.Wildcard {
				continue
			}
			if !ability.Has(s.vocabulary, a) {
				return nil, "", fmt.Errorf("%w: %s", ErrInvalidAbility, a)
			}
		}
	}

	plaintext, err := GeneratePlaintext()
	if err != nil {
		return nil, "", err
	}

	nowAt := s.now()
	expiresAt := params.expiresAt
	if expiresAt == nil && s.defaultTTL > 0 {
		t := nowAt.Add(s.defaultTTL)
		expiresAt = &t
	}

	token := &Token{
		ID:        uuid.New(),
		OwnerType: owner.TokenOwnerType(),
		OwnerID:   owner.TokenOwnerID(),
		TenantID:  params.tenantID,
		Name:      name,
		Hash:      HashPlaintext(plaintext),
		Abilities: abilities,
		ExpiresAt: expiresAt,
		CreatedAt: nowAt,
		UpdatedAt: nowAt,
	}
	if err := s.store.Create(ctx, token); err != nil {
		return nil, "", fmt.Errorf("create api token: %w", err)
	}

	composite := FormatComposite(token.ID, plaintext)
	s.events.Publish(ctx, Created{Token: token, Plaintext: composite})
	s.log.InfoContext(ctx, "api token created",
		slog.String("token_id", token.ID.String()),
		slog.String("owner_type", token.OwnerType),
		slog.String("owner_id", token.OwnerID.String()))

	return token, composite, nil
}

// Find resolves a presented token string to a Resolution. Composite tokens
// are loaded by record id and verified in constant time against the stored
// digest; plain strings are looked up by digest. A valid resolution updates
// the record's last-used timestamp. Lookup misses are reported through the
// Resolution, not the error.
func (s *Service) Find(ctx context.Context, presented string) (Resolution, error) {
	res, err := s.resolve(ctx, presented)
	if err != nil || !res.Valid() {
		return res, err
	}

	usedAt := s.now()
	if err := s.store.UpdateLastUsed(ctx, res.Token.ID, usedAt); err != nil {
		s.log.WarnContext(ctx, "failed to update token last used",
			slog.String("token_id", res.Token.ID.String()),
			slog.Any("error", err))
	} else {
		res.Token.LastUsedAt = &usedAt
	}

	return res, nil
}

// Inspect resolves a presented token string without recording usage. It is
// the read-only counterpart of Find for validity probes.
func (s *Service) Inspect(ctx context.Context, presented string) (Resolution, error) {
	return s.resolve(ctx, presented)
}

func (s *Service) resolve(ctx context.Context, presented string) (Resolution, error) {
	if presented == "" {
		return Resolution{Status: StatusNotFound}, nil
	}

	var (
		token *Token
		err   error
	)
	if id, plaintext, ok := SplitComposite(presented); ok {
		token, err = s.store.FindByID(ctx, id)
		if err == nil && !VerifyPlaintext(plaintext, token.Hash) {
			token = nil
		}
	} else {
		token, err = s.store.FindByHash(ctx, HashPlaintext(presented))
	}
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return Resolution{Status: StatusNotFound}, nil
		}
		return Resolution{}, fmt.Errorf("find api token: %w", err)
	}
	if token == nil {
		return Resolution{Status: StatusNotFound}, nil
	}

	if token.IsRevoked() {
		return Resolution{Status: StatusRevoked, Token: token}, nil
	}
	if token.IsExpired() {
		return Resolution{Status: StatusExpired, Token: token}, nil
	}

	return Resolution{Status: StatusValid, Token: token}, nil
}

// Revoke marks a token revoked. Revoking an already revoked token is a
// no-op.
func (s *Service) Revoke(ctx context.Context, id uuid.UUID) error {
	token, err := s.store.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("revoke api token: %w", err)
	}
	if token.Revoked {
		return nil
	}
	token.Revoked = true
	token.UpdatedAt = s.now()
	if err := s.store.Update(ctx, token); err != nil {
		return fmt.Errorf("revoke api token: %w", err)
	}
	s.events.Publish(ctx, Revoked{Token: token})
	return nil
}

// Restore clears a token's revoked flag for auditing workflows. A restored
// token authenticates again only if it has not expired.
func (s *Service) Restore(ctx context.Context, id uuid.UUID) error {
	token, err := s.store.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("restore api token: %w", err)
	}
	if !token.Revoked {
		return nil
	}
	token.Revoked = false
	token.UpdatedAt = s.now()
	if err := s.store.Update(ctx, token); err != nil {
		return fmt.Errorf("restore api token: %w", err)
	}
	return nil
}

// ExtendExpiration pushes a token's expiration d further from now.
func (s *Service) ExtendExpiration(ctx context.Context, id uuid.UUID, d time.Duration) (*Token, error) {
	token, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("extend api token: %w", err)
	}
	t := s.now().Add(d)
	token.ExpiresAt = &t
	token.UpdatedAt = s.now()
	if err := s.store.Update(ctx, token); err != nil {
		return nil, fmt.Errorf("extend api token: %w", err)
	}
	return token, nil
}

// ListForOwner returns all tokens owned by owner, including revoked and
// expired ones.
func (s *Service) ListForOwner(ctx context.Context, owner Owner) ([]Token, error) {
	tokens, err := s.store.ListByOwner(ctx, owner.TokenOwnerType(), owner.TokenOwnerID())
	if err != nil {
		return nil, fmt.Errorf("list api tokens: %w", err)
	}
	return tokens, nil
}

// RevokeAllForOwner revokes every active token owned by owner and returns
// the number affected.
func (s *Service) RevokeAllForOwner(ctx context.Context, owner Owner) (int64, error) {
	n, err := s.store.RevokeByOwner(ctx, owner.TokenOwnerType(), owner.TokenOwnerID())
	if err != nil {
		return 0, fmt.Errorf("revoke api tokens: %w", err)
	}
	return n, nil
}

// DeleteExpired removes tokens that expired before now. Intended for
// periodic cleanup jobs.
func (s *Service) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired api tokens: %w", err)
	}
	if n > 0 {
		s.log.InfoContext(ctx, "expired api tokens deleted", slog.Int64("count", n))
	}
	return n, nil
}
