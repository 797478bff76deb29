package utils

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("s3cret", "editor", "workflow", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "editor", claims.Subject)
	assert.Equal(t, "workflow", claims.Scope)
	assert.Equal(t, "postpipe", claims.Issuer)
}

func TestValidateTokenRejects(t *testing.T) {
	token, err := GenerateToken("s3cret", "editor", "workflow", time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken("other", token)
	assert.Error(t, err)

	expired, err := GenerateToken("s3cret", "editor", "workflow", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken("s3cret", expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "someone-else"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = ValidateToken("s3cret", foreign)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	_, err = GenerateToken("", "editor", "workflow", time.Hour)
	assert.Error(t, err)
}

func TestGenerateRandomKey(t *testing.T) {
	key, err := GenerateRandomKey(24)
	require.NoError(t, err)
	raw, err := base64.URLEncoding.DecodeString(key)
	require.NoError(t, err)
	assert.Len(t, raw, 24)

	other, _ := GenerateRandomKey(24)
	assert.NotEqual(t, key, other)
}

func TestMatchKey(t *testing.T) {
	assert.True(t, MatchKey("abc", "abc"))
	assert.False(t, MatchKey("abc", "abd"))
	assert.False(t, MatchKey("abc", ""))
	assert.False(t, MatchKey("", ""))
}
