package services

import (
	"context"
	"testing"

	"neurocards/config"
	"neurocards/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()

	db := setupTestDB(t)
	cfg := &config.Config{
		AccessTokenSecret:   "test-access-secret",
		RefreshTokenSecret:  "test-refresh-secret",
		AccessTokenMinutes:  30,
		RefreshTokenMinutes: 60,
	}
	return NewAuthService(db, cfg)
}

func registerTestUser(t *testing.T, svc *AuthService) uint {
	t.Helper()

	id, err := svc.Register(context.Background(), &RegisterRequest{
		Username:        "ivan",
		Email:           "ivan@example.com",
		Password:        "correct horse",
		ConfirmPassword: "correct horse",
	})
	require.NoError(t, err)
	return id
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	userID := registerTestUser(t, svc)

	// the stored password is hashed
	var user models.User
	require.NoError(t, svc.db.First(&user, userID).Error)
	assert.NotEqual(t, "correct horse", user.Password)

	tokens, err := svc.Login(ctx, &LoginRequest{Username: "ivan", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)

	parsed, err := svc.ParseAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestRegisterRejectsMismatchedPasswords(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Username:        "ivan",
		Email:           "ivan@example.com",
		Password:        "one password",
		ConfirmPassword: "another password",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc := newAuthService(t)
	registerTestUser(t, svc)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Username:        "ivan",
		Email:           "other@example.com",
		Password:        "correct horse",
		ConfirmPassword: "correct horse",
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newAuthService(t)
	registerTestUser(t, svc)

	_, err := svc.Login(context.Background(), &LoginRequest{Username: "ivan", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &LoginRequest{Username: "nobody", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	registerTestUser(t, svc)

	tokens, err := svc.Login(ctx, &LoginRequest{Username: "ivan", Password: "correct horse"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// the old refresh token is burned; replaying it invalidates the rest
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken,
		"token reuse invalidates every refresh token of the user")
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	registerTestUser(t, svc)

	tokens, err := svc.Login(ctx, &LoginRequest{Username: "ivan", Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokens.RefreshToken))

	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	registerTestUser(t, svc)

	tokens, err := svc.Login(ctx, &LoginRequest{Username: "ivan", Password: "correct horse"})
	require.NoError(t, err)

	// signed with the wrong secret for this endpoint
	_, err = svc.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetProfile(t *testing.T) {
	svc := newAuthService(t)
	userID := registerTestUser(t, svc)

	user, err := svc.GetProfile(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "ivan", user.Username)

	_, err = svc.GetProfile(context.Background(), userID+1)
	assert.ErrorIs(t, err, ErrNotFound)
}
