package follows

import "errors"

var (
	// ErrFollowNotFound is returned when no follow exists between two users
	ErrFollowNotFound = errors.New("follow not found")

	// ErrFollowAlreadyExists is returned when the requester already follows or
	// has requested to follow the target
	ErrFollowAlreadyExists = errors.New("already following or requested")

	// ErrCannotFollowSelf is returned when a user tries to follow themselves
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)
