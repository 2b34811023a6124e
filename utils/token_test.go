package authUtils

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", "64f1c2a9e4b0a1b2c3d4e5f6", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := ParseToken("secret", token)
	assert.NoError(t, err)
	assert.Equal(t, "64f1c2a9e4b0a1b2c3d4e5f6", userID)
}

func TestGenerateTokenWithoutSecret(t *testing.T) {
	_, err := GenerateToken("", "user", time.Hour)
	assert.Error(t, err)
}

func TestParseTokenInvalid(t *testing.T) {
	_, err := ParseToken("secret", "invalid.token.string")
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", "user", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", "user", time.Hour)

	_, err := ParseToken("secret2", token)
	assert.Error(t, err)
}

func TestParseTokenInvalidSigningMethod(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.MapClaims{
		"user_id": "user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	tokenString, _ := token.SignedString([]byte("secret"))

	_, err := ParseToken("secret", tokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected signing method")
}

func TestParseTokenMissingUserID(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tokenString, _ := token.SignedString([]byte("secret"))

	_, err := ParseToken("secret", tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
