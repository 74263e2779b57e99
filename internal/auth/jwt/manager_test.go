package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentiq/dentiq-backend/pkg/config"
	apperrors "github.com/dentiq/dentiq-backend/pkg/errors"
)

func testManager(accessExpiry time.Duration) *Manager {
	return NewManager(&config.JWTConfig{
		Secret:        "unit-test-secret",
		AccessExpiry:  accessExpiry,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "dentiq-test",
	})
}

func testUser() *UserInfo {
	return &UserInfo{
		ID:          "9a1e9c70-0f6a-4a54-9f2e-6f0a6a2b7c11",
		Email:       "dentist@test.dentiq.io",
		Name:        "Ana Ruiz",
		Role:        "dentist",
		Permissions: []string{"inventory:read", "appointments:write"},
	}
}

func TestGenerateTokenPair(t *testing.T) {
	m := testManager(15 * time.Minute)

	pair, err := m.GenerateTokenPair(testUser(), "session-1")
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.ExpiresAt, 5*time.Second)
}

func TestValidateAccessToken(t *testing.T) {
	m := testManager(15 * time.Minute)
	user := testUser()

	pair, err := m.GenerateTokenPair(user, "session-1")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Role, claims.Role)
	assert.Equal(t, user.Permissions, claims.Permissions)
	assert.Equal(t, "dentiq-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateAccessTokenWrongSecret(t *testing.T) {
	m := testManager(15 * time.Minute)
	pair, err := m.GenerateTokenPair(testUser(), "session-1")
	require.NoError(t, err)

	other := NewManager(&config.JWTConfig{
		Secret:        "a-different-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "dentiq-test",
	})

	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrTokenInvalid))
}

func TestValidateExpiredAccessToken(t *testing.T) {
	m := testManager(-time.Minute)
	pair, err := m.GenerateTokenPair(testUser(), "session-1")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrTokenExpired))
}

func TestValidateRefreshToken(t *testing.T) {
	m := testManager(15 * time.Minute)
	user := testUser()

	pair, err := m.GenerateTokenPair(user, "session-42")
	require.NoError(t, err)

	claims, err := m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "session-42", claims.SessionID)

	_, err = m.ValidateRefreshToken("garbage")
	assert.True(t, apperrors.Is(err, apperrors.ErrTokenInvalid))
}
