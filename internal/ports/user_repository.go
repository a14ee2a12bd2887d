package ports

import (
	"context"
	"time"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsEditor     bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserCreate struct {
	Email        string
	PasswordHash string
	IsEditor     bool
	IsAdmin      bool
}

// UserUpdate changes only the non-nil fields.
type UserUpdate struct {
	Email    *string
	IsEditor *bool
	IsAdmin  *bool
}

// UserRepository returns account.ErrUserNotFound for unknown users and
// account.ErrEmailTaken on a duplicate email.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	CreateUser(ctx context.Context, input UserCreate) (User, error)
	UpdateUser(ctx context.Context, id string, input UserUpdate) (User, error)
	SetPasswordHash(ctx context.Context, id string, hash string) error
}
