package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"recipeapp/internal/auth"
	apperrors "recipeapp/internal/errors"
	"recipeapp/internal/logger"
	"recipeapp/internal/metrics"
	"recipeapp/internal/model"
	"recipeapp/internal/repository"
)

// AuthService handles authentication operations.
type AuthService interface {
	Login(ctx context.Context, username, password string) (token string, user *model.User, err error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Verify(ctx context.Context, token string) (*auth.Claims, error)
	IsRevoked(ctx context.Context, claims *auth.Claims) bool
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	sessions   auth.SessionStoreInterface
	log        logger.Logger
	metrics    *metrics.Metrics
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	sessions auth.SessionStoreInterface,
	log logger.Logger,
	m *metrics.Metrics,
) AuthService {
	if log == nil {
		log = logger.Nop()
	}
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		sessions:   sessions,
		log:        log.With(logger.Fields{"component": "auth_service"}),
		metrics:    m,
	}
}

// Login checks the credentials and issues a signed session token.
func (s *authService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		s.metrics.Login(false)
		return "", nil, apperrors.ErrNotAuthenticated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.metrics.Login(false)
		return "", nil, apperrors.ErrNotAuthenticated
	}

	_, token, err := s.jwtService.GenerateSessionToken(user.Username, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}

	s.metrics.Login(true)
	s.log.Info("user logged in", logger.Fields{"username": user.Username, "role": user.Role})
	return token, user, nil
}

// Logout revokes the session for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	ttl := auth.RemainingTTL(claims)
	if ttl <= 0 {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.ID, ttl); err != nil {
		s.log.Warn("session revoke failed", logger.Fields{"username": claims.Username, "error": err.Error()})
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Verify parses a session token and rejects revoked sessions.
func (s *authService) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	if s.IsRevoked(ctx, claims) {
		return nil, apperrors.ErrNotAuthenticated
	}
	return claims, nil
}

// IsRevoked reports whether the session was logged out. Lookup failures count as not revoked.
func (s *authService) IsRevoked(ctx context.Context, claims *auth.Claims) bool {
	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.log.Warn("session revocation lookup failed", logger.Fields{"username": claims.Username, "error": err.Error()})
		return false
	}
	return revoked
}
