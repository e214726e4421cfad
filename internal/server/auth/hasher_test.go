package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *BcryptHasher {
	t.Helper()
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestBcryptHasher_RoundTrip(t *testing.T) {
	t.Parallel()
	h := newTestHasher(t)

	for _, plain := range []string{"secret1", "correct horse battery staple", "пароль", " "} {
		digest, err := h.Hash(plain)
		require.NoError(t, err)
		assert.NotEqual(t, plain, digest)
		assert.True(t, h.Verify(plain, digest), "plain %q must verify", plain)
		assert.False(t, h.Verify(plain+"x", digest))
		assert.False(t, h.Verify("", digest))
	}
}

func TestBcryptHasher_SaltedDigestsDiffer(t *testing.T) {
	t.Parallel()
	h := newTestHasher(t)

	a, err := h.Hash("secret1")
	require.NoError(t, err)
	b, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_UsesConfiguredCost(t *testing.T) {
	t.Parallel()
	h, err := NewBcryptHasher(DefaultBcryptCost)
	require.NoError(t, err)

	digest, err := h.Hash("secret1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, 12, cost)
}

func TestBcryptHasher_VerifyMalformedDigest(t *testing.T) {
	t.Parallel()
	h := newTestHasher(t)

	assert.False(t, h.Verify("secret1", "not-a-bcrypt-digest"))
	assert.False(t, h.Verify("secret1", ""))
}

func TestBcryptHasher_TooLong(t *testing.T) {
	t.Parallel()
	h := newTestHasher(t)

	_, err := h.Hash(strings.Repeat("a", 73))
	require.Error(t, err)
	assert.True(t, IsPasswordTooLong(err))
}

func TestNewBcryptHasher_CostBounds(t *testing.T) {
	t.Parallel()

	_, err := NewBcryptHasher(bcrypt.MinCost - 1)
	assert.Error(t, err)
	_, err = NewBcryptHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}
