package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"storefront-be/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("testsecret", time.Hour)

	token, err := issuer.Issue("user-1", "a@x.com", true)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.True(t, claims.IsAdmin)
}

func TestTokenIssuer_NoSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour).Issue("user-1", "a@x.com", false)
	assert.EqualError(t, err, "JWT_SECRET is not set")
}

func TestTokenIssuer_Parse(t *testing.T) {
	issuer := NewTokenIssuer("secret1", time.Hour)
	token, err := issuer.Issue("user-1", "a@x.com", false)
	require.NoError(t, err)

	t.Run("Empty", func(t *testing.T) {
		_, err := issuer.Parse("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := issuer.Parse("invalid-token-string")
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	})

	t.Run("WrongSecret", func(t *testing.T) {
		_, err := NewTokenIssuer("secret2", time.Hour).Parse(token)
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
		assert.Contains(t, err.Error(), "signature is invalid")
	})

	t.Run("Expired", func(t *testing.T) {
		late := NewTokenIssuer("secret1", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err := late.Parse(token)
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("WrongAlgorithm", func(t *testing.T) {
		claims := Claims{
			UserID: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret1"))
		require.NoError(t, err)

		_, err = issuer.Parse(raw)
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	})
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	assert.True(t, CheckPasswordHash("secret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("secret", ""))

	_, err = HashPassword(strings.Repeat("p", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = HashPassword(strings.Repeat("p", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestIdentity(t *testing.T) {
	ctx := context.Background()

	_, ok := IdentityFrom(ctx)
	assert.False(t, ok)

	id := Identity{UserID: "u1", Name: "A"}
	got, ok := IdentityFrom(WithIdentity(ctx, id))
	assert.True(t, ok)
	assert.Equal(t, id, got)

	assert.True(t, id.CanAccess("u1"))
	assert.False(t, id.CanAccess("u2"))
	assert.True(t, Identity{UserID: "admin", IsAdmin: true}.CanAccess("u2"))
	assert.False(t, Identity{}.CanAccess(""))
}
