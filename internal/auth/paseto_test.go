package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return []byte("01234567890123456789012345678901")
}

func TestNewPasetoService(t *testing.T) {
	t.Run("accepts a 32-byte key", func(t *testing.T) {
		_, err := NewPasetoService(testKey())
		assert.NoError(t, err)
	})

	t.Run("rejects a short key", func(t *testing.T) {
		_, err := NewPasetoService([]byte("too-short"))
		assert.Error(t, err)
	})
}

func TestPasetoRoundTrip(t *testing.T) {
	svc, err := NewPasetoService(testKey())
	require.NoError(t, err)

	token, err := svc.CreateToken("U-000001", "user", 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "U-000001", claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt, 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt, 5*time.Second)
}

func TestPasetoCarriesRole(t *testing.T) {
	svc, err := NewPasetoService(testKey())
	require.NoError(t, err)

	token, err := svc.CreateToken("U-000007", "admin", time.Minute)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
}

func TestPasetoRejectsExpiredToken(t *testing.T) {
	svc, err := NewPasetoService(testKey())
	require.NoError(t, err)

	token, err := svc.CreateToken("U-000001", "user", -time.Minute)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestPasetoRejectsForeignToken(t *testing.T) {
	svc, err := NewPasetoService(testKey())
	require.NoError(t, err)

	other, err := NewPasetoService([]byte("another-key-entirely-32-bytes-ok"))
	require.NoError(t, err)

	token, err := other.CreateToken("U-000001", "user", time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasetoRejectsGarbage(t *testing.T) {
	svc, err := NewPasetoService(testKey())
	require.NoError(t, err)

	_, err = svc.VerifyToken("v4.local.not-a-real-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
