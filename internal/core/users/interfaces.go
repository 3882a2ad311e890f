package users

import (
	"context"

	"Spillit/internal/core/identity"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data persistence
type UserRepository interface {
	// Create inserts user and returns the stored row. Unique violations map to
	// ErrUsernameTaken and ErrExternalIDTaken.
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	IncrementLoginCount(ctx context.Context, id uuid.UUID) error
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error)
}

// UserService defines the interface for user business logic
type UserService interface {
	// FindOrCreateFromIdentity returns the user linked to the external identity,
	// creating one with a derived username on first login.
	FindOrCreateFromIdentity(ctx context.Context, ident *identity.ExternalIdentity) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error)
	IncrementLoginCount(ctx context.Context, id uuid.UUID) error
}
