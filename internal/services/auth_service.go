package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserStore persists user accounts
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash, role string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, username, passwordHash string) (bool, error)
	UpdateUserRole(ctx context.Context, username, role string) (bool, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, username string) (bool, error)
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateAccessToken(username, role string) (string, error)
	AccessTokenExpiry() time.Duration
}

// AuthService handles registration, login and account administration
type AuthService struct {
	users      UserStore
	tokens     TokenIssuer
	bcryptCost int
	logger     *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens TokenIssuer, bcryptCost int, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

var errInvalidCredentials = models.NewUnauthorized("invalid username or password")

// Register creates a USER account and returns an access token for it
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, models.NewInvalidInput("username and password are required")
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, username, hash, models.RoleUser)
	if err != nil {
		return nil, storeError(s.logger, "create user", err)
	}

	s.logger.WithField("username", user.Username).Info("User registered")
	return s.issue(user)
}

// Login verifies credentials and returns an access token
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, storeError(s.logger, "get user", err)
	}
	if user == nil {
		return nil, errInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.WithField("username", username).Warn("Failed login attempt")
		return nil, errInvalidCredentials
	}

	return s.issue(user)
}

// ChangePassword replaces the password of username after checking the
// current one
func (s *AuthService) ChangePassword(ctx context.Context, username string, req models.ChangePasswordRequest) error {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return storeError(s.logger, "get user", err)
	}
	if user == nil {
		return models.NewNotFound("user %s not found", username)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return models.NewUnauthorized("current password is incorrect")
	}

	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	found, err := s.users.UpdatePasswordHash(ctx, username, hash)
	if err != nil {
		return storeError(s.logger, "update password", err)
	}
	if !found {
		return models.NewNotFound("user %s not found", username)
	}

	s.logger.WithField("username", username).Info("Password changed")
	return nil
}

// ListUsers returns every account
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list users", err)
	}
	return users, nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *AuthService) DeleteUser(ctx context.Context, actor, username string) error {
	if actor == username {
		return models.NewForbidden("cannot delete your own account")
	}

	found, err := s.users.DeleteUser(ctx, username)
	if err != nil {
		return storeError(s.logger, "delete user", err)
	}
	if !found {
		return models.NewNotFound("user %s not found", username)
	}

	s.logger.WithFields(logrus.Fields{
		"username":   username,
		"deleted_by": actor,
	}).Info("User deleted")
	return nil
}

// EnsureAdmin creates the bootstrap admin account or promotes an existing
// account of that name. Existing passwords are left unchanged.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return storeError(s.logger, "get user", err)
	}

	if user == nil {
		hash, err := s.hashPassword(password)
		if err != nil {
			return err
		}
		if _, err := s.users.CreateUser(ctx, username, hash, models.RoleAdmin); err != nil {
			if models.IsKind(err, models.ErrConflict) {
				return nil
			}
			return storeError(s.logger, "create admin", err)
		}
		s.logger.WithField("username", username).Info("Bootstrap admin created")
		return nil
	}

	if user.Role != models.RoleAdmin {
		if _, err := s.users.UpdateUserRole(ctx, username, models.RoleAdmin); err != nil {
			return storeError(s.logger, "promote admin", err)
		}
		s.logger.WithField("username", username).Info("Bootstrap admin promoted")
	}
	return nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", models.NewInvalidInput("password is too long")
		}
		return "", models.NewStoreUnavailable("failed to hash password", err)
	}
	return string(hash), nil
}

func (s *AuthService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.GenerateAccessToken(user.Username, user.Role)
	if err != nil {
		s.logger.WithError(err).Error("Failed to generate access token")
		return nil, models.NewStoreUnavailable("failed to generate token", err)
	}
	return &models.AuthResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.AccessTokenExpiry().Seconds()),
		Username:  user.Username,
		Role:      user.Role,
	}, nil
}
