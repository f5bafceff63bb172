package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Reaper periodically ends ACTIVE sessions whose expiry has passed. Validate
// already expires sessions lazily; the reaper only keeps the store tidy for
// tokens that are never presented again.
type Reaper struct {
	sessions sessions.Repo
	interval time.Duration
	nowTime  func() time.Time
}

type ReaperOption func(*Reaper)

func WithReaperNowTime(nowFunc func() time.Time) ReaperOption {
	return func(r *Reaper) {
		r.nowTime = nowFunc
	}
}

func NewReaper(repo sessions.Repo, interval time.Duration, options ...ReaperOption) *Reaper {
	r := &Reaper{
		sessions: repo,
		interval: interval,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Sweep runs a single pass and returns how many sessions were ended.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	ended, err := r.sessions.EndExpired(ctx, r.nowTime())
	if err != nil {
		return 0, errors.Wrap(err, "[Reaper.Sweep] Sessions.EndExpired")
	}
	if ended > 0 {
		log.Info().Int("ended", ended).Msg("reaper ended expired sessions")
	}
	return ended, nil
}

// Run sweeps every interval until ctx is cancelled. Sweep failures are logged and retried on the next tick.
func (r *Reaper) Run(ctx context.Context) error {
	if r.interval <= 0 {
		return errors.New("[Reaper.Run] interval must be positive")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				log.Err(err).Msg("session sweep failed")
			}
		}
	}
}
