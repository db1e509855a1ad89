package repository

import (
	"context"
	"errors"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
)

// ErrUserNotFound indicates the user does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the interface for user data storage operations
type UserRepository interface {
	// CreateUser creates a new user
	CreateUser(ctx context.Context, user *domain.User) error

	// GetUserByEmail retrieves a user by email (without companies)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetUserByID retrieves a user with the companies they belong to
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}
