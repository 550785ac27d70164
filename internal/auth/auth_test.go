package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.GenerateToken("u1", "a@b.com", "recruiter")
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "recruiter", claims.Role)
}

func TestValidateToken_Expired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	issuer.now = func() time.Time { return issued }

	token, err := issuer.GenerateToken("u1", "a@b.com", "student")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.ValidateToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("one", time.Hour).GenerateToken("u1", "a@b.com", "student")
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenIssuer_NoSecret(t *testing.T) {
	issuer := NewTokenIssuer("", time.Hour)

	_, err := issuer.GenerateToken("u1", "a@b.com", "student")
	assert.ErrorIs(t, err, ErrSecretNotSet)

	_, err = issuer.ValidateToken("x.y.z")
	assert.ErrorIs(t, err, ErrSecretNotSet)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.NoError(t, VerifyPassword("hunter22", hash))
	assert.Error(t, VerifyPassword("hunter23", hash))
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	require.NoError(t, err)
	b, err := GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
