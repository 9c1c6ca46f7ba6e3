package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT("42", "ADMIN", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("one")
	token, err := GenerateJWT("1", "ADMIN", time.Hour)
	require.NoError(t, err)

	SetJWTSecret("two")
	_, err = ParseJWT(token)
	assert.Error(t, err)
}

func TestParseJWTRejectsExpired(t *testing.T) {
	SetJWTSecret("test-secret")
	token, err := GenerateJWT("1", "ADMIN", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token)
	assert.Error(t, err)
}
