package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)

	token, err := issuer.GenerateToken("user-1", "a@b.test", 3)
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.test", claims.Email)
	assert.Equal(t, 3, claims.Version)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt.Time, 2*time.Second)
}

func TestIssuer_RejectsExpired(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := issuer.GenerateToken("user-1", "a@b.test", 0)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.ValidateToken(token)
	assert.Error(t, err)
}

func TestIssuer_RejectsOtherSecret(t *testing.T) {
	token, err := NewIssuer("one", time.Minute).GenerateToken("user-1", "a@b.test", 0)
	require.NoError(t, err)

	_, err = NewIssuer("two", time.Minute).ValidateToken(token)
	assert.Error(t, err)
}

func TestIssuer_RequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Minute).GenerateToken("user-1", "a@b.test", 0)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword("hunter22", hash))
	assert.Error(t, VerifyPassword("hunter23", hash))
}

func TestOpaqueToken(t *testing.T) {
	a, err := NewOpaqueToken()
	require.NoError(t, err)
	b, err := NewOpaqueToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, HashToken(a), HashToken(a))
	assert.NotEqual(t, a, HashToken(a))
}
