package follows

import (
	"context"

	"Spillit/internal/core/users"
	"Spillit/internal/core/visibility"

	"github.com/google/uuid"
)

// FollowRepository defines the interface for follow persistence
type FollowRepository interface {
	FindBetween(ctx context.Context, followerID, followingID uuid.UUID) (*Follow, error)
	Create(ctx context.Context, follow *Follow) (*Follow, error)
	Accept(ctx context.Context, id uuid.UUID) (*Follow, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ListFollowers returns the users following userID, newest first.
	// With acceptedOnly false, pending requesters are included.
	ListFollowers(ctx context.Context, userID uuid.UUID, acceptedOnly bool) ([]*users.User, error)
	// ListFollowing returns the users userID follows with an accepted follow.
	ListFollowing(ctx context.Context, userID uuid.UUID) ([]*users.User, error)
	// ListPendingRequests returns the users waiting for userID to accept them.
	ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]*users.User, error)
}

// Service defines follow business logic. It is also the visibility
// package's FollowLookup.
type Service interface {
	visibility.FollowLookup

	Follow(ctx context.Context, requesterID uuid.UUID, targetUsername string) (*Follow, error)
	// Unfollow removes a follow or withdraws a pending request.
	Unfollow(ctx context.Context, requesterID uuid.UUID, targetUsername string) error
	AcceptRequest(ctx context.Context, ownerID uuid.UUID, requesterUsername string) (*Follow, error)
	DeclineRequest(ctx context.Context, ownerID uuid.UUID, requesterUsername string) error
	PendingRequests(ctx context.Context, ownerID uuid.UUID) ([]*users.User, error)

	// Followers and Following list a user's accepted relationships when the
	// requester may see them. A nil requester is anonymous.
	Followers(ctx context.Context, requester *uuid.UUID, username string) ([]*users.User, error)
	Following(ctx context.Context, requester *uuid.UUID, username string) ([]*users.User, error)
}
