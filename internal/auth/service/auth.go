package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dentiq/dentiq-backend/internal/auth/jwt"
	"github.com/dentiq/dentiq-backend/internal/auth/repository"
	"github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/logger"
	"github.com/dentiq/dentiq-backend/pkg/permissions"
)

// AuthService handles authentication logic
type AuthService struct {
	users      *repository.UserRepository
	sessions   *repository.SessionRepository
	jwtManager *jwt.Manager
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, sessions *repository.SessionRepository, jwtManager *jwt.Manager, log *logger.Logger) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtManager: jwtManager,
		logger:     log,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterRequest represents an account registration request
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=patient dentist receptionist radiologist lab admin"`
	Phone     string `json:"phone,omitempty"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
	User         *UserInfo `json:"user"`
}

// UserInfo represents user information returned to clients
type UserInfo struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Status      string   `json:"status"`
}

func userInfo(u *repository.User) *UserInfo {
	return &UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.FullName(),
		Role:        u.Role,
		Permissions: permissions.ForRole(u.Role),
		Status:      u.Status,
	}
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, userAgent, ipAddress string) (*LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		// Do not reveal whether the account exists
		return nil, errors.InvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	if !user.IsActive() {
		return nil, errors.Forbidden("account is deactivated")
	}

	expiresAt := time.Now().Add(s.jwtManager.GetRefreshExpiry())

	tokenInfo := &jwt.UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.FullName(),
		Role:        user.Role,
		Permissions: permissions.ForRole(user.Role),
	}

	// Generate a session ID first, then tokens bound to it
	sessionID := uuid.New().String()

	tokens, err := s.jwtManager.GenerateTokenPair(tokenInfo, sessionID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	_, err = s.sessions.CreateWithID(ctx, sessionID, user.ID, tokens.RefreshToken, expiresAt, userAgent, ipAddress)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create session")
		return nil, errors.Internal("failed to create session")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}

	return &LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		TokenType:    tokens.TokenType,
		User:         userInfo(user),
	}, nil
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*UserInfo, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &repository.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Status:       "active",
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return userInfo(user), nil
}

// Logout invalidates a session and blacklists the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err == nil {
		if err := s.sessions.BlacklistToken(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time); err != nil {
			s.logger.Warn().Err(err).Msg("failed to blacklist token")
		}
	}

	if err := s.sessions.RevokeByRefreshToken(ctx, refreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke session")
	}
	return nil
}

// Refresh rotates the refresh token and returns a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	blacklisted, err := s.sessions.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check token blacklist")
		return nil, errors.Internal("failed to refresh session")
	}
	if blacklisted {
		return nil, errors.Unauthorized("token revoked")
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, errors.Unauthorized("invalid session")
	}

	if session.RevokedAt != nil {
		return nil, errors.Unauthorized("session revoked")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.Unauthorized("invalid session")
	}
	if !user.IsActive() {
		return nil, errors.Forbidden("account is deactivated")
	}

	tokenInfo := &jwt.UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.FullName(),
		Role:        user.Role,
		Permissions: permissions.ForRole(user.Role),
	}

	tokens, err := s.jwtManager.GenerateTokenPair(tokenInfo, session.ID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	// Rotate: the old refresh token stops working once the hash is replaced
	if err := s.sessions.UpdateRefreshTokenHash(ctx, session.ID, tokens.RefreshToken); err != nil {
		s.logger.Error().Err(err).Msg("failed to rotate refresh token")
		return nil, errors.Internal("failed to refresh session")
	}

	return tokens, nil
}

// GetCurrentUser gets the current user by ID
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*UserInfo, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return userInfo(user), nil
}

// ChangePassword verifies the current password and sets a new one,
// revoking every other session for the user.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return errors.Unauthorized("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("failed to hash password")
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to revoke sessions after password change")
	}

	return nil
}
