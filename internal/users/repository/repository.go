package repository

import (
	"context"
	"errors"

	"github.com/imamhossain-git/e-commerce/internal/users/domain"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	// LinkSession binds a session token to a user; re-linking a session
	// replaces the previous binding.
	LinkSession(ctx context.Context, sessionID string, userID int64) error
	GetUserBySession(ctx context.Context, sessionID string) (*domain.User, error)
	Close() error
}
