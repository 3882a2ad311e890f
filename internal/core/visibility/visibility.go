// Package visibility decides whether a requester may see a user's
// follower-gated content: posts, followers and following lists.
package visibility

import (
	"context"
	"errors"
	"fmt"

	"Spillit/internal/core/users"

	"github.com/google/uuid"
)

var (
	// ErrUnauthenticated is returned for denials a login could fix
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the requester is known but not an
	// accepted follower
	ErrForbidden = errors.New("forbidden")
)

// Reason explains a denial.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonNotFollowing    Reason = "not_following"
	ReasonRequestPending  Reason = "request_pending"
)

// FollowState is the relationship from a follower to a followed user.
type FollowState int

const (
	NotFollowing FollowState = iota
	Pending
	Accepted
)

func (s FollowState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Accepted:
		return "accepted"
	default:
		return "none"
	}
}

// FollowLookup reports the follow relationship between two users.
type FollowLookup interface {
	FollowState(ctx context.Context, followerID, followingID uuid.UUID) (FollowState, error)
}

// Decision is the outcome of CanView.
type Decision struct {
	Reason  Reason
	Allowed bool
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err returns nil for an allowed decision and a *DeniedError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason}
}

// DeniedError carries the denial reason. It matches ErrUnauthenticated or
// ErrForbidden under errors.Is.
type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Unwrap(), e.Reason)
}

func (e *DeniedError) Unwrap() error {
	if e.Reason == ReasonUnauthenticated {
		return ErrUnauthenticated
	}
	return ErrForbidden
}

// CanView decides whether requester may see owner's gated content. A nil
// requester is an anonymous caller. The checks run in a fixed order:
//
//	owner is public            -> allow
//	requester is anonymous     -> deny(unauthenticated)
//	requester is owner         -> allow
//	no follow                  -> deny(not_following)
//	follow not yet accepted    -> deny(request_pending)
//	otherwise                  -> allow
//
// Lookup errors are returned as is; no decision is made on a store failure.
func CanView(ctx context.Context, requester *uuid.UUID, owner *users.User, lookup FollowLookup) (Decision, error) {
	if !owner.IsPrivate {
		return Allow, nil
	}
	if requester == nil {
		return deny(ReasonUnauthenticated), nil
	}
	if *requester == owner.ID {
		return Allow, nil
	}

	state, err := lookup.FollowState(ctx, *requester, owner.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to look up follow state: %w", err)
	}

	switch state {
	case NotFollowing:
		return deny(ReasonNotFollowing), nil
	case Pending:
		return deny(ReasonRequestPending), nil
	default:
		return Allow, nil
	}
}
