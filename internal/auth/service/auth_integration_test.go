package service_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentiq/dentiq-backend/internal/auth/jwt"
	"github.com/dentiq/dentiq-backend/internal/auth/repository"
	"github.com/dentiq/dentiq-backend/internal/auth/service"
	"github.com/dentiq/dentiq-backend/pkg/config"
	apperrors "github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	suite.MustMigrate(ctx, testutil.AuthMigrations())
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

func newAuthService() *service.AuthService {
	jwtManager := jwt.NewManager(&config.JWTConfig{
		Secret:        "integration-test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "dentiq-test",
	})

	return service.NewAuthService(
		repository.NewUserRepository(suite.DB),
		repository.NewSessionRepository(suite.DB),
		jwtManager,
		suite.Logger,
	)
}

func seedUser(t *testing.T, ctx context.Context, opts ...func(*testutil.UserFixture)) *repository.User {
	t.Helper()

	fx := suite.Fixtures.User(opts...)
	user := &repository.User{
		ID:           fx.ID,
		Email:        fx.Email,
		PasswordHash: fx.PasswordHash,
		FirstName:    fx.FirstName,
		LastName:     fx.LastName,
		Role:         fx.Role,
		Status:       fx.Status,
	}
	require.NoError(t, repository.NewUserRepository(suite.DB).Create(ctx, user))
	return user
}

func TestLogin(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newAuthService()

	user := seedUser(t, ctx, testutil.WithRole("dentist"))

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(ctx, &service.LoginRequest{
			Email:    user.Email,
			Password: "password123",
		}, "go-test", "127.0.0.1")
		require.NoError(t, err)

		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, user.ID, resp.User.ID)
		assert.Equal(t, "dentist", resp.User.Role)
		assert.NotEmpty(t, resp.User.Permissions)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &service.LoginRequest{
			Email:    user.Email,
			Password: "not-the-password",
		}, "go-test", "127.0.0.1")
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredentials))
	})

	t.Run("unknown email looks like wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &service.LoginRequest{
			Email:    "nobody@test.dentiq.io",
			Password: "password123",
		}, "go-test", "127.0.0.1")
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredentials))
	})

	t.Run("deactivated account", func(t *testing.T) {
		inactive := seedUser(t, ctx, testutil.WithStatus("inactive"))

		_, err := svc.Login(ctx, &service.LoginRequest{
			Email:    inactive.Email,
			Password: "password123",
		}, "go-test", "127.0.0.1")
		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})
}

func TestRefreshRotatesToken(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newAuthService()

	user := seedUser(t, ctx)
	resp, err := svc.Login(ctx, &service.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	}, "go-test", "127.0.0.1")
	require.NoError(t, err)

	tokens, err := svc.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEqual(t, resp.RefreshToken, tokens.RefreshToken)

	// The pre-rotation token no longer matches the stored hash
	_, err = svc.Refresh(ctx, resp.RefreshToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	// The rotated token keeps working
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newAuthService()

	_, err := svc.Refresh(ctx, "not-a-jwt")
	assert.True(t, apperrors.Is(err, apperrors.ErrTokenInvalid))
}

func TestLogoutRevokesSession(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newAuthService()

	user := seedUser(t, ctx)
	resp, err := svc.Login(ctx, &service.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	}, "go-test", "127.0.0.1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, resp.RefreshToken))

	_, err = svc.Refresh(ctx, resp.RefreshToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestChangePassword(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newAuthService()

	user := seedUser(t, ctx)
	resp, err := svc.Login(ctx, &service.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	}, "go-test", "127.0.0.1")
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, &service.ChangePasswordRequest{
			CurrentPassword: "not-the-password",
			NewPassword:     "another-password",
		})
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	})

	t.Run("change revokes open sessions", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, &service.ChangePasswordRequest{
			CurrentPassword: "password123",
			NewPassword:     "brand-new-password",
		})
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, resp.RefreshToken)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

		_, err = svc.Login(ctx, &service.LoginRequest{
			Email:    user.Email,
			Password: "password123",
		}, "go-test", "127.0.0.1")
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredentials))

		_, err = svc.Login(ctx, &service.LoginRequest{
			Email:    user.Email,
			Password: "brand-new-password",
		}, "go-test", "127.0.0.1")
		require.NoError(t, err)
	})
}

func TestRegister(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newAuthService()

	req := &service.RegisterRequest{
		Email:     "new.hire@test.dentiq.io",
		Password:  "initial-password",
		FirstName: "Nora",
		LastName:  "Hale",
		Role:      "receptionist",
	}

	info, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Nora Hale", info.Name)
	assert.Equal(t, "active", info.Status)
	assert.NotEmpty(t, info.Permissions)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.Register(ctx, req)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	})

	t.Run("new account can log in", func(t *testing.T) {
		resp, err := svc.Login(ctx, &service.LoginRequest{
			Email:    req.Email,
			Password: req.Password,
		}, "go-test", "127.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, info.ID, resp.User.ID)
	})
}

func TestGetCurrentUser(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newAuthService()

	user := seedUser(t, ctx, testutil.WithName("Iris", "Vance"))

	info, err := svc.GetCurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Iris Vance", info.Name)
	assert.Equal(t, user.Email, info.Email)

	_, err = svc.GetCurrentUser(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
