// Package common defines shared constants and sentinel errors used across
// client and server layers of Internship Tracker. Callers should use errors.Is
// to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Input errors.
	ErrValidation     = errors.New("validation error")
	ErrDuplicateEmail = errors.New("email already registered")

	// Credential errors. Unknown email and wrong password share one value.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Auth errors (missing, invalid or malformed token).
	ErrMissingToken = errors.New("missing token")
	ErrTokenInvalid = errors.New("invalid token")
	ErrUserNotFound = errors.New("user not found")

	// Ownership errors.
	ErrForbidden = errors.New("not authorized")
)

// ValidationError reports a malformed or missing input field.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError is a shorthand for &ValidationError{Field: field, Message: msg}.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
