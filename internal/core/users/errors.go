package users

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned when a user lookup finds no matching record
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned by the repository when the username unique
	// constraint rejects an insert
	ErrUsernameTaken = errors.New("username already taken")

	// ErrExternalIDTaken is returned by the repository when another user already
	// carries the external id, usually a concurrent first login
	ErrExternalIDTaken = errors.New("external id already linked to a user")

	// ErrUsernameAllocationFailed is returned when no free username was found
	// within MaxUsernameAttempts
	ErrUsernameAllocationFailed = errors.New("username allocation failed")
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}
