package errors

import (
	"errors"
	"fmt"
)

// Common error types for the admin dashboard client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAccessDenied       = errors.New("access denied: administrator role required")

	// Credential errors
	ErrNoCredentials   = errors.New("no stored credentials")
	ErrNoRefreshToken  = errors.New("no stored refresh token")
	ErrSessionExpired  = errors.New("session expired")
	ErrRefreshRejected = errors.New("refresh token rejected")

	// Request errors
	ErrRetryExhausted = errors.New("request unauthorized after token refresh")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
