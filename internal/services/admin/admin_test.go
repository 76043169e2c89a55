package admin_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/3Eeeecho/go-divelog/internal/config"
	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/3Eeeecho/go-divelog/internal/pkg/utils"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/3Eeeecho/go-divelog/internal/repositories"
	"github.com/3Eeeecho/go-divelog/internal/services/admin"
	"github.com/3Eeeecho/go-divelog/internal/setup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var jwtCfg = &config.JWTConfig{SecretKey: "test-secret", ExpiresIn: time.Hour, Issuer: "go-divelog-test"}

func init() {
	logger.SetLogger(zap.NewNop())
}

func newServices(t *testing.T) (admin.AuthService, admin.UserService) {
	t.Helper()
	db, err := setup.InitDB(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { setup.CloseDB(db) })
	users := repositories.NewUserRepository(db)
	return admin.NewAuthService(users, jwtCfg), admin.NewUserService(users)
}

func TestRegisterAndLogin(t *testing.T) {
	auth, _ := newServices(t)
	ctx := context.Background()

	user, err := auth.RegisterUser(ctx, "alice", "s3cret!", "alice@example.com")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "s3cret!", user.PasswordHash)

	_, err = auth.RegisterUser(ctx, "alice", "other", "else@example.com")
	assert.ErrorIs(t, err, xerr.ErrUserAlreadyExists)
	_, err = auth.RegisterUser(ctx, "alice2", "other", "alice@example.com")
	assert.ErrorIs(t, err, xerr.ErrEmailAlreadyExists)
	_, err = auth.RegisterUser(ctx, "a@b", "other", "ab@example.com")
	assert.ErrorIs(t, err, xerr.ErrValidationFailed)

	for _, identifier := range []string{"alice", "alice@example.com"} {
		token, got, err := auth.LoginUser(ctx, identifier, "s3cret!")
		require.NoError(t, err, identifier)
		assert.Equal(t, user.ID, got.ID)

		claims, err := utils.ParseToken(token, jwtCfg.SecretKey, jwtCfg.Issuer)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	}

	_, _, err = auth.LoginUser(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, xerr.ErrInvalidCredentials)
	_, _, err = auth.LoginUser(ctx, "nobody", "s3cret!")
	assert.ErrorIs(t, err, xerr.ErrInvalidCredentials)
}

func TestProfileAndDeactivation(t *testing.T) {
	auth, users := newServices(t)
	ctx := context.Background()

	user, err := auth.RegisterUser(ctx, "bob", "hunter22", "bob@example.com")
	require.NoError(t, err)

	bio := "cave diver"
	updated, err := users.UpdateProfile(ctx, user.ID, admin.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "cave diver", updated.Bio)

	profile, err := users.GetUserProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cave diver", profile.Bio)

	_, err = users.GetUserProfile(ctx, 999)
	assert.ErrorIs(t, err, xerr.ErrUserNotFound)

	require.NoError(t, users.DeactivateUser(ctx, user.ID))
	require.NoError(t, users.DeactivateUser(ctx, user.ID), "deactivation is idempotent")

	_, _, err = auth.LoginUser(ctx, "bob", "hunter22")
	assert.ErrorIs(t, err, xerr.ErrAccountDeactivated)
}

func TestSearchUsers(t *testing.T) {
	auth, users := newServices(t)
	ctx := context.Background()

	me, err := auth.RegisterUser(ctx, "diver", "pw123456", "diver@example.com")
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		_, err := auth.RegisterUser(ctx, fmt.Sprintf("buddy%02d", i), "pw123456", fmt.Sprintf("buddy%02d@example.com", i))
		require.NoError(t, err)
	}

	got, err := users.SearchUsers(ctx, me.ID, "buddy")
	require.NoError(t, err)
	assert.Len(t, got, 10, "results are capped")

	got, err = users.SearchUsers(ctx, me.ID, "  b ")
	require.NoError(t, err)
	assert.Empty(t, got, "a one-character query returns nothing")

	got, err = users.SearchUsers(ctx, me.ID, "diver")
	require.NoError(t, err)
	assert.Empty(t, got, "the caller never finds themselves")

	got, err = users.SearchUsers(ctx, me.ID, "buddy07@")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "buddy07", got[0].Username)
}
