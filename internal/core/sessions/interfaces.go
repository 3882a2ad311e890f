package sessions

import (
	"context"
	"time"

	"Spillit/internal/core/identity"
	"Spillit/internal/core/users"

	"github.com/google/uuid"
)

// SessionRepository defines the interface for session persistence
type SessionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// GetLiveByUserID returns the user's session if it has not expired at now.
	GetLiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (*Session, error)

	// CreateOrGetLive stores session unless the user already holds a live one,
	// in which case the live one is returned untouched. An expired row for the
	// user is replaced.
	CreateOrGetLive(ctx context.Context, session *Session, now time.Time) (*Session, error)

	Delete(ctx context.Context, id uuid.UUID) error

	ExpiredDeleter
}

// Service issues and validates sessions
type Service interface {
	// IssueForIdentity logs in a verified external identity and returns the
	// authorization header value the client presents from now on.
	IssueForIdentity(ctx context.Context, ident *identity.ExternalIdentity) (*Issued, error)

	// ResolveFromHeaderAuth authenticates an APPSESS header value.
	ResolveFromHeaderAuth(ctx context.Context, value string) (*users.User, *Session, error)

	// Revoke deletes a session. Revoking an unknown session is not an error.
	Revoke(ctx context.Context, id uuid.UUID) error
}
