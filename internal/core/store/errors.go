// Package store holds the failure sentinel shared by every repository.
package store

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks a failed read or write against the backing store.
// Not-found and constraint errors are domain errors and never carry it.
var ErrUnavailable = errors.New("store unavailable")

// Unavailable wraps err as a store failure. Both ErrUnavailable and err stay
// reachable through errors.Is and errors.As.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
