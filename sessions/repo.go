package sessions

import (
	"context"
	"time"
)

// Repo defines the session store operations the session manager relies on.
type Repo interface {
	// CreateCapped stores a new session only if the user has fewer than limit
	// ACTIVE sessions. The count and the insert happen atomically. When the cap
	// is reached it returns errors.ErrSessionLimitExceeded and stores nothing.
	CreateCapped(ctx context.Context, session *Session, limit int) error

	// FindByTokenAndUserID returns the session issued with token to userID,
	// or errors.ErrNotFound.
	FindByTokenAndUserID(ctx context.Context, token, userID string) (*Session, error)

	// CountActiveByUserID returns how many of the user's sessions are ACTIVE.
	CountActiveByUserID(ctx context.Context, userID string) (int, error)

	// Save persists status and expiry changes to an existing session
	Save(ctx context.Context, session *Session) error

	// EndExpired moves every ACTIVE session that expired before now to ENDED
	// and returns how many were changed.
	EndExpired(ctx context.Context, now time.Time) (int, error)
}
