package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a platform user
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserCreate represents user registration data
type UserCreate struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair represents a JWT token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// Identity is the capability "get the current user id, or fail if absent".
// The session core consumes authentication only through this interface.
type Identity interface {
	CurrentUserID(ctx context.Context) (uuid.UUID, error)
}

// IdentityFunc adapts a function to the Identity interface.
type IdentityFunc func(ctx context.Context) (uuid.UUID, error)

func (f IdentityFunc) CurrentUserID(ctx context.Context) (uuid.UUID, error) {
	return f(ctx)
}

// StaticIdentity returns an Identity bound to a fixed user, as resolved by
// the API layer for one request. A nil user yields ErrUnauthenticated.
func StaticIdentity(userID uuid.UUID) Identity {
	return IdentityFunc(func(context.Context) (uuid.UUID, error) {
		if userID == uuid.Nil {
			return uuid.Nil, ErrUnauthenticated
		}
		return userID, nil
	})
}
