package auth

import (
	"strings"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/pkg/errors"
)

// maxPasswordBytes is the longest password bcrypt accepts
const maxPasswordBytes = 72

// Validator checks caller input before it reaches the stores.
// Every failure wraps errors.ErrInvalidRequest.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateUserCredentials validates sign up credentials
func (v *Validator) ValidateUserCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.Wrap(autherrors.ErrInvalidRequest, "email is required")
	}

	// Basic email format validation
	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") || strings.ContainsAny(email, " \t\r\n") {
		return errors.Wrap(autherrors.ErrInvalidRequest, "invalid email format")
	}

	if password == "" {
		return errors.Wrap(autherrors.ErrInvalidRequest, "password is required")
	}
	if len(password) > maxPasswordBytes {
		return errors.Wrap(autherrors.ErrInvalidRequest, "password too long")
	}
	return nil
}

// ValidateSessionRequest validates the (token, userID) pair naming a session
func (v *Validator) ValidateSessionRequest(token, userID string) error {
	if strings.TrimSpace(token) == "" {
		return errors.Wrap(autherrors.ErrInvalidRequest, "token is required")
	}
	if strings.TrimSpace(userID) == "" {
		return errors.Wrap(autherrors.ErrInvalidRequest, "user id is required")
	}
	return nil
}
