package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/securedesk/visitor-backend/internal/models"
	"github.com/securedesk/visitor-backend/pkg/jwt"
)

// ErrInvalidCredentials is returned for bad email/password combinations and
// suspended accounts alike, so login responses never leak which one it was.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the persistence surface the auth service needs
type UserStore interface {
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uuid.UUID) (*models.User, error)
}

// AuthService handles staff login and token refresh
type AuthService struct {
	users  UserStore
	tokens *jwt.Service
	logger *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens *jwt.Service, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Login verifies credentials and issues an access/refresh token pair
func (s *AuthService) Login(req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.GetUserByEmail(req.Email)
	if err != nil {
		s.logger.WithField("email", req.Email).Warn("Login attempt for unknown email")
		return nil, ErrInvalidCredentials
	}

	if user.Status != "active" {
		s.logger.WithField("user_id", user.ID).Warn("Login attempt on inactive account")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.WithField("user_id", user.ID).Warn("Login attempt with wrong password")
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a fresh token pair
func (s *AuthService) Refresh(refreshToken string) (*models.LoginResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != "active" {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *models.User) (*models.LoginResponse, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTokenExpiry().Seconds()),
		User:         user,
	}, nil
}
