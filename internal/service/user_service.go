package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "recipeapp/internal/errors"
	"recipeapp/internal/logger"
	"recipeapp/internal/model"
	"recipeapp/internal/repository"
)

const (
	bcryptCost        = 10
	minUsernameLen    = 3
	maxUsernameLen    = 20
	minPasswordLen    = 6
	maxPasswordBytes  = 72
	DefaultAdminName  = "admin"
	DefaultMemberName = "user"
)

// UserService exposes account operations.
type UserService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	Bootstrap(ctx context.Context, password string) ([]string, error)
}

type userService struct {
	repo repository.UserRepository
	log  logger.Logger
}

// NewUserService builds a UserService on top of the user repository.
func NewUserService(repo repository.UserRepository, log logger.Logger) UserService {
	if log == nil {
		log = logger.Nop()
	}
	return &userService{repo: repo, log: log.With(logger.Fields{"component": "user_service"})}
}

// Register creates a ROLE_USER account. The username is stored trimmed and the password bcrypt hashed.
func (s *userService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, apperrors.Invalid("username must be between %d and %d characters", minUsernameLen, maxUsernameLen)
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, apperrors.Invalid("password must be at least %d characters", minPasswordLen)
	}
	if len(password) > maxPasswordBytes {
		return nil, apperrors.Invalid("password must be at most %d bytes", maxPasswordBytes)
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, apperrors.ErrDuplicateUsername
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	user, err := s.create(ctx, username, password, model.RoleUser)
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", logger.Fields{"user_id": user.ID, "username": user.Username})
	return user, nil
}

func (s *userService) create(ctx context.Context, username, password, role string) (*model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username: username,
		Password: string(hashedPassword),
		Role:     role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateUsername
		}
		return nil, apperrors.Persistence("create user", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// Bootstrap creates the default admin and user accounts when they are missing and
// returns the names it created. Running it again performs no writes.
func (s *userService) Bootstrap(ctx context.Context, password string) ([]string, error) {
	defaults := []struct {
		username string
		role     string
	}{
		{DefaultAdminName, model.RoleAdmin},
		{DefaultMemberName, model.RoleUser},
	}

	created := make([]string, 0, len(defaults))
	for _, d := range defaults {
		_, err := s.repo.FindByUsername(ctx, d.username)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("look up %s: %w", d.username, err)
		}

		if _, err := s.create(ctx, d.username, password, d.role); err != nil {
			return created, fmt.Errorf("bootstrap %s: %w", d.username, err)
		}
		s.log.Warn("default account created, rotate its password", logger.Fields{"username": d.username, "role": d.role})
		created = append(created, d.username)
	}
	return created, nil
}

// FormatUserListing renders users as the plain-text admin listing.
func FormatUserListing(users []model.User) string {
	var sb strings.Builder
	sb.WriteString("Registered users:\n")
	for _, u := range users {
		fmt.Fprintf(&sb, "ID: %d, Username: %s, Role: %s\n", u.ID, u.Username, u.Role)
	}
	return sb.String()
}
