package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tenauthkit/tenauth/pkg/postgres"
)

func TestUser_BelongsToTenant(t *testing.T) {
	t.Parallel()

	home := uuid.New()
	member := uuid.New()
	stranger := uuid.New()

	u := &postgres.User{
		ID:        uuid.New(),
		TenantID:  &home,
		TenantIDs: []uuid.UUID{member},
	}

	assert.True(t, u.BelongsToTenant(home))
	assert.True(t, u.BelongsToTenant(member))
	assert.False(t, u.BelongsToTenant(stranger))

	orphan := &postgres.User{ID: uuid.New()}
	assert.False(t, orphan.BelongsToTenant(home))
}

func TestIdentityProvider_ValidateCredentials(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &postgres.User{ID: uuid.New(), PasswordHash: string(hash)}
	provider := postgres.NewIdentityProvider(nil)

	ctx := context.Background()
	assert.True(t, provider.ValidateCredentials(ctx, user, "secret"))
	assert.False(t, provider.ValidateCredentials(ctx, user, "wrong"))
}
