package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libtrack/internal/pkg/jwt"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	token, err := jwt.GenerateAccessToken("u_1", "STU-001", "aarav", "student", "secret", 15)
	require.NoError(t, err)

	claims, err := jwt.ValidateAccessToken(token, "secret")

	require.NoError(t, err)
	assert.Equal(t, "u_1", claims.UserID)
	assert.Equal(t, "STU-001", claims.StudentID)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, jwt.Issuer, claims.Issuer)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	token, err := jwt.GenerateAccessToken("u_1", "", "admin", "admin", "secret", 15)
	require.NoError(t, err)

	_, err = jwt.ValidateAccessToken(token, "other")

	assert.ErrorIs(t, err, jwt.ErrTokenInvalid)
}

func TestAccessToken_Expired(t *testing.T) {
	token, err := jwt.GenerateAccessToken("u_1", "", "admin", "admin", "secret", -1)
	require.NoError(t, err)

	_, err = jwt.ValidateAccessToken(token, "secret")

	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRefreshToken_NotAcceptedAsAccessToken(t *testing.T) {
	refresh, err := jwt.GenerateRefreshToken("u_1", "tok-1", "refresh-secret", 7)
	require.NoError(t, err)

	claims, err := jwt.ValidateRefreshToken(refresh, "refresh-secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", claims.TokenID)

	_, err = jwt.ValidateAccessToken(refresh, "secret")
	assert.Error(t, err)
}
