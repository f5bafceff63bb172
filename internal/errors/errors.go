package errors

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// Common error types for the session auth server
var (
	// Authentication errors
	ErrAuthentication = errors.New("invalid credentials")
	ErrUserExists     = errors.New("user already exists")

	// Session errors
	ErrSessionLimitExceeded = errors.New("number of active sessions exceeded")
	ErrSessionNotFound      = errors.New("session not found")
	ErrInvalidSession       = errors.New("session is not active")

	// Token errors
	ErrTokenExpired = errors.New("token has expired")
	ErrInvalidToken = errors.New("invalid token")
	ErrSigning      = errors.New("token signing failed")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
)

// Wrapf annotates err with a formatted message: "<message>: <err>".
// The result still matches err with Is.
func Wrapf(err error, format string, args ...interface{}) error {
	return pkgerrors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
