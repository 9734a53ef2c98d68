// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is / errors.As to match them.
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
	ErrConflict   = errors.New("conflict")

	// Registration policy.
	ErrNotSchoolEmail = errors.New("school email required")
	ErrEmailInUse     = errors.New("email already in use")

	// Credential checks. Deliberately the same error for unknown email and
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many attempts")

	// Token lifecycle errors.
	ErrMissingToken          = errors.New("missing token")
	ErrInvalidToken          = errors.New("invalid token")
	ErrTokenExpired          = errors.New("token expired")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// Identity / authorization.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// ValidationError reports a malformed request field. Code is a stable,
// machine-readable identifier such as "BAD_EMAIL".
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError builds a *ValidationError.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// IsTokenError reports whether err is one of the token verification
// failures that transports collapse into a single generic message.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrInvalidOrExpiredToken)
}
