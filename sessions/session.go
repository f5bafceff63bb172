package sessions

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrIllegalTransition is returned by stores asked to move an ENDED session back to ACTIVE.
var ErrIllegalTransition = errors.New("ended session cannot be reactivated")

// Status is the lifecycle state of a session. ENDED is terminal.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusEnded  Status = "ENDED"
)

func (s Status) String() string {
	return string(s)
}

// CanBecome reports whether a session in status s may be saved with status next.
func (s Status) CanBecome(next Status) bool {
	return s == next || (s == StatusActive && next == StatusEnded)
}

// Session binds one issued token to its validity window.
type Session struct {
	ID        string    `json:"id"`         // Unique session identifier (UUID)
	UserID    string    `json:"user_id"`    // User this session authenticates
	Token     string    `json:"token"`      // Signed token returned to the caller
	Status    Status    `json:"status"`     // ACTIVE or ENDED
	ExpiresAt time.Time `json:"expires_at"` // Authoritative expiry, checked by Validate
	CreatedAt time.Time `json:"created_at"` // When the session was created
}

// New returns an ACTIVE session for userID that expires ttl after now.
func New(userID, token string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     token,
		Status:    StatusActive,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

func (s *Session) IsActive() bool {
	return s.Status == StatusActive
}

// IsExpired reports whether now is strictly after the session's expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// End moves the session to ENDED. It reports whether the status changed.
func (s *Session) End() bool {
	if s.Status == StatusEnded {
		return false
	}
	s.Status = StatusEnded
	return true
}
