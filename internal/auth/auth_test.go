package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret, subject string, expires time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

type fakeRoles struct {
	roles map[string]string
	err   error
}

func (f *fakeRoles) GetRole(_ context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.roles[id], nil
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "", BearerToken(""))
	assert.Equal(t, "", BearerToken("abc"))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("Bearer "))
}

func TestJWTResolver_Resolve(t *testing.T) {
	resolver := NewJWTResolver(testSecret)
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		token := mintToken(t, testSecret, "user-42", time.Now().Add(time.Hour))
		principal, err := resolver.Resolve(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-42", principal.ID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := mintToken(t, "other-secret", "user-42", time.Now().Add(time.Hour))
		_, err := resolver.Resolve(ctx, token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("expired token", func(t *testing.T) {
		token := mintToken(t, testSecret, "user-42", time.Now().Add(-time.Hour))
		_, err := resolver.Resolve(ctx, token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := mintToken(t, testSecret, "", time.Now().Add(time.Hour))
		_, err := resolver.Resolve(ctx, token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestGate_RequireAdmin(t *testing.T) {
	resolver := NewJWTResolver(testSecret)
	ctx := context.Background()

	adminToken := mintToken(t, testSecret, "admin-1", time.Now().Add(time.Hour))
	playerToken := mintToken(t, testSecret, "player-1", time.Now().Add(time.Hour))
	unknownToken := mintToken(t, testSecret, "stranger", time.Now().Add(time.Hour))

	roles := &fakeRoles{roles: map[string]string{
		"admin-1":  "admin",
		"player-1": "player",
	}}
	gate := NewGate(resolver, roles)

	t.Run("admin passes", func(t *testing.T) {
		principal, err := gate.RequireAdmin(ctx, adminToken)
		require.NoError(t, err)
		assert.Equal(t, "admin-1", principal.ID)
	})

	t.Run("standard member forbidden", func(t *testing.T) {
		_, err := gate.RequireAdmin(ctx, playerToken)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.NotErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("missing role row treated as standard", func(t *testing.T) {
		_, err := gate.RequireAdmin(ctx, unknownToken)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("empty token unauthenticated", func(t *testing.T) {
		_, err := gate.RequireAdmin(ctx, "")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("role store failure", func(t *testing.T) {
		broken := NewGate(resolver, &fakeRoles{err: errors.New("timeout")})
		_, err := broken.RequireAdmin(ctx, adminToken)
		assert.ErrorIs(t, err, ErrRoleLookup)
		assert.Contains(t, err.Error(), "timeout")
	})
}
