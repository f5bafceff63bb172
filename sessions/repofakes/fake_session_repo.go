package fakesessionrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/pkg/errors"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	sessions map[string]*sessions.Session
	tokens   map[tokenKey]string // (user, token) to session ID
	lock     sync.RWMutex
}

type tokenKey struct {
	userID string
	token  string
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]*sessions.Session),
		tokens:   make(map[tokenKey]string),
	}
}

func (sr *FakeSessionRepo) CreateCapped(_ context.Context, session *sessions.Session, limit int) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if sr.countActive(session.UserID) >= limit {
		return autherrors.ErrSessionLimitExceeded
	}

	key := tokenKey{userID: session.UserID, token: session.Token}
	if _, ok := sr.tokens[key]; ok {
		return errors.New("[FakeSessionRepo.CreateCapped] token already in use")
	}

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	stored := *session
	sr.sessions[session.ID] = &stored
	sr.tokens[key] = session.ID
	return nil
}

func (sr *FakeSessionRepo) FindByTokenAndUserID(_ context.Context, token, userID string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	id, ok := sr.tokens[tokenKey{userID: userID, token: token}]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	session := *sr.sessions[id]
	return &session, nil
}

func (sr *FakeSessionRepo) CountActiveByUserID(_ context.Context, userID string) (int, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	return sr.countActive(userID), nil
}

func (sr *FakeSessionRepo) Save(_ context.Context, session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	existing, ok := sr.sessions[session.ID]
	if !ok {
		return autherrors.ErrNotFound
	}
	if !existing.Status.CanBecome(session.Status) {
		return sessions.ErrIllegalTransition
	}
	existing.Status = session.Status
	existing.ExpiresAt = session.ExpiresAt
	return nil
}

func (sr *FakeSessionRepo) EndExpired(_ context.Context, now time.Time) (int, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	ended := 0
	for _, session := range sr.sessions {
		if session.IsActive() && session.IsExpired(now) {
			session.End()
			ended++
		}
	}
	return ended, nil
}

// All returns a copy of every stored session, for assertions in tests.
func (sr *FakeSessionRepo) All() []sessions.Session {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	all := make([]sessions.Session, 0, len(sr.sessions))
	for _, s := range sr.sessions {
		all = append(all, *s)
	}
	return all
}

// countActive must be called with the lock held
func (sr *FakeSessionRepo) countActive(userID string) int {
	count := 0
	for _, s := range sr.sessions {
		if s.UserID == userID && s.IsActive() {
			count++
		}
	}
	return count
}
