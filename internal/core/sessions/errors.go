package sessions

import (
	"errors"

	"Spillit/internal/core/store"
)

var (
	// ErrSessionNotFound is returned by the repository when no row matches
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnauthorized covers every way a presented credential can be wrong:
	// malformed header, bad signature, unknown or expired session. Callers
	// must not tell the client which check failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStoreUnavailable is returned when the session or user store fails.
	// It is the repository-wide store.ErrUnavailable.
	ErrStoreUnavailable = store.ErrUnavailable

	// ErrInvariantViolation is returned when the store contradicts itself,
	// e.g. an upserted session cannot be read back
	ErrInvariantViolation = errors.New("session invariant violated")
)
