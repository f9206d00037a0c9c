package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"recipeapp/internal/auth"
	apperrors "recipeapp/internal/errors"
	"recipeapp/internal/model"
)

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful registration trims username",
			username: "  alice ",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.Username == "alice" && u.Role == model.RoleUser && u.Password != "secret1"
				})).Return(nil)
			},
		},
		{
			name:     "username already taken",
			username: "alice",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{Username: "alice"}, nil)
			},
			expectedError: apperrors.ErrDuplicateUsername,
		},
		{
			name:          "username too short after trim",
			username:      "  ab  ",
			password:      "secret1",
			setupMock:     func(*MockUserRepository) {},
			expectedError: apperrors.ErrInvalidInput,
		},
		{
			name:          "username too long",
			username:      strings.Repeat("a", 21),
			password:      "secret1",
			setupMock:     func(*MockUserRepository) {},
			expectedError: apperrors.ErrInvalidInput,
		},
		{
			name:          "password too short",
			username:      "alice",
			password:      "12345",
			setupMock:     func(*MockUserRepository) {},
			expectedError: apperrors.ErrInvalidInput,
		},
		{
			name:     "unique constraint race",
			username: "alice",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: apperrors.ErrDuplicateUsername,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc := NewUserService(mockRepo, nil)
			user, err := svc.Register(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(tt.password)))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_Bootstrap(t *testing.T) {
	t.Run("creates missing accounts", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByUsername", mock.Anything, "admin").Return(nil, gorm.ErrRecordNotFound)
		mockRepo.On("FindByUsername", mock.Anything, "user").Return(&model.User{Username: "user"}, nil)
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Username == "admin" && u.Role == model.RoleAdmin
		})).Return(nil)

		created, err := NewUserService(mockRepo, nil).Bootstrap(context.Background(), "password")
		require.NoError(t, err)
		assert.Equal(t, []string{"admin"}, created)
		mockRepo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("second run writes nothing", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByUsername", mock.Anything, mock.Anything).Return(&model.User{}, nil)

		created, err := NewUserService(mockRepo, nil).Bootstrap(context.Background(), "password")
		require.NoError(t, err)
		assert.Empty(t, created)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure aborts", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByUsername", mock.Anything, "admin").Return(nil, errors.New("connection refused"))

		_, err := NewUserService(mockRepo, nil).Bootstrap(context.Background(), "password")
		assert.Error(t, err)
	})
}

func TestFormatUserListing(t *testing.T) {
	out := FormatUserListing([]model.User{
		{ID: 1, Username: "admin", Role: model.RoleAdmin},
		{ID: 2, Username: "user", Role: model.RoleUser},
	})

	assert.Equal(t, "Registered users:\n"+
		"ID: 1, Username: admin, Role: ROLE_ADMIN\n"+
		"ID: 2, Username: user, Role: ROLE_USER\n", out)
}

func TestAuthService_Login(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			username: "alice",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
					ID: 1, Username: "alice", Password: string(hashed), Role: model.RoleAdmin,
				}, nil)
			},
		},
		{
			name:     "unknown user",
			username: "nobody",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "nobody").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrNotAuthenticated,
		},
		{
			name:     "wrong password",
			username: "alice",
			password: "nope",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{Username: "alice", Password: string(hashed)}, nil)
			},
			expectedError: apperrors.ErrNotAuthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)
			jwtService := auth.NewJWTService("test-secret", time.Hour)

			svc := NewAuthService(mockRepo, jwtService, new(MockSessionStore), nil, nil)
			token, user, err := svc.Login(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				claims, err := jwtService.ValidateToken(token)
				require.NoError(t, err)
				assert.Equal(t, tt.username, claims.Username)
				assert.Equal(t, model.RoleAdmin, claims.Role)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_LogoutRevokesSession(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	sessions := new(MockSessionStore)
	svc := NewAuthService(new(MockUserRepository), jwtService, sessions, nil, nil)

	tokenID, token, err := jwtService.GenerateSessionToken("alice", model.RoleUser)
	require.NoError(t, err)

	sessions.On("IsRevoked", mock.Anything, tokenID).Return(false, nil).Once()
	claims, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)

	sessions.On("Revoke", mock.Anything, tokenID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 0 && ttl <= time.Hour
	})).Return(nil)
	require.NoError(t, svc.Logout(context.Background(), claims))

	sessions.On("IsRevoked", mock.Anything, tokenID).Return(true, nil)
	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	sessions.AssertExpectations(t)
}

func TestAuthService_VerifyRejectsGarbage(t *testing.T) {
	svc := NewAuthService(new(MockUserRepository), auth.NewJWTService("test-secret", time.Hour), new(MockSessionStore), nil, nil)

	_, err := svc.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}
