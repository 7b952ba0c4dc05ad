package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coachly/coachly/internal/domain"
	"github.com/coachly/coachly/internal/security"
)

func newTestJWTManager() *security.JWTManager {
	return security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, 7*24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("EmailExists", ctx, "new@example.com").Return(false, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

		svc := NewAuthService(repo, newTestJWTManager())

		user, err := svc.Register(ctx, domain.UserCreate{Email: "new@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", user.Email)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("EmailExists", ctx, "taken@example.com").Return(true, nil)

		svc := NewAuthService(repo, newTestJWTManager())

		_, err := svc.Register(ctx, domain.UserCreate{Email: "taken@example.com", Password: "password123"})
		assert.Error(t, err)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &domain.User{Email: "user@example.com", PasswordHash: string(hash)}

	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", ctx, "user@example.com").Return(user, nil)

		svc := NewAuthService(repo, newTestJWTManager())

		tokens, err := svc.Login(ctx, domain.UserLogin{Email: "user@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", ctx, "user@example.com").Return(user, nil)

		svc := NewAuthService(repo, newTestJWTManager())

		_, err := svc.Login(ctx, domain.UserLogin{Email: "user@example.com", Password: "wrong"})
		assert.EqualError(t, err, "invalid credentials")
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, nil)

		svc := NewAuthService(repo, newTestJWTManager())

		_, err := svc.Login(ctx, domain.UserLogin{Email: "nobody@example.com", Password: "password123"})
		assert.EqualError(t, err, "invalid credentials")
	})
}
