package apitoken_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenauthkit/tenauth/pkg/apitoken"
)

func TestGeneratePlaintext(t *testing.T) {
	t.Parallel()

	t.Run("length and alphabet", func(t *testing.T) {
		t.Parallel()

		plaintext, err := apitoken.GeneratePlaintext()
		require.NoError(t, err)
		assert.Len(t, plaintext, apitoken.PlaintextLength)
		for _, r := range plaintext {
			assert.True(t, (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
				"unexpected character %q", r)
		}
	})

	t.Run("unique", func(t *testing.T) {
		t.Parallel()

		a, err := apitoken.GeneratePlaintext()
		require.NoError(t, err)
		b, err := apitoken.GeneratePlaintext()
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestVerifyPlaintext(t *testing.T) {
	t.Parallel()

	plaintext, err := apitoken.GeneratePlaintext()
	require.NoError(t, err)
	hash := apitoken.HashPlaintext(plaintext)

	assert.True(t, apitoken.VerifyPlaintext(plaintext, hash))
	assert.False(t, apitoken.VerifyPlaintext(plaintext+"x", hash))
	assert.False(t, apitoken.VerifyPlaintext("", hash))
	assert.NotContains(t, hash, plaintext)
}

func TestSplitComposite(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		id := uuid.New()
		composite := apitoken.FormatComposite(id, "secret")
		gotID, plaintext, ok := apitoken.SplitComposite(composite)
		require.True(t, ok)
		assert.Equal(t, id, gotID)
		assert.Equal(t, "secret", plaintext)
	})

	t.Run("plaintext containing separator", func(t *testing.T) {
		t.Parallel()

		id := uuid.New()
		gotID, plaintext, ok := apitoken.SplitComposite(apitoken.FormatComposite(id, "a|b"))
		require.True(t, ok)
		assert.Equal(t, id, gotID)
		assert.Equal(t, "a|b", plaintext)
	})

	t.Run("plain token", func(t *testing.T) {
		t.Parallel()

		_, _, ok := apitoken.SplitComposite(strings.Repeat("a", 64))
		assert.False(t, ok)
	})

	t.Run("non uuid prefix", func(t *testing.T) {
		t.Parallel()

		_, _, ok := apitoken.SplitComposite("42|secret")
		assert.False(t, ok)
	})
}
