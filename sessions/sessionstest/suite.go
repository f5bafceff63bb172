// Package sessionstest holds the behaviour every sessions.Repo implementation must share.
package sessionstest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLimit = 2

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// RunRepoSuite runs the shared session store tests against repos built by newRepo.
// newRepo must return an empty store.
func RunRepoSuite(t *testing.T, newRepo func(t *testing.T) sessions.Repo) {
	t.Run("CreateAndFind", func(t *testing.T) { testCreateAndFind(t, newRepo(t)) })
	t.Run("FindMissing", func(t *testing.T) { testFindMissing(t, newRepo(t)) })
	t.Run("CapEnforced", func(t *testing.T) { testCapEnforced(t, newRepo(t)) })
	t.Run("CapIsPerUser", func(t *testing.T) { testCapIsPerUser(t, newRepo(t)) })
	t.Run("SaveEndsSession", func(t *testing.T) { testSaveEndsSession(t, newRepo(t)) })
	t.Run("SaveCannotReactivate", func(t *testing.T) { testSaveCannotReactivate(t, newRepo(t)) })
	t.Run("SaveMissing", func(t *testing.T) { testSaveMissing(t, newRepo(t)) })
	t.Run("EndExpired", func(t *testing.T) { testEndExpired(t, newRepo(t)) })
	t.Run("ConcurrentCreateCapped", func(t *testing.T) { testConcurrentCreateCapped(t, newRepo(t)) })
}

func newSession(userID string, n int, ttl time.Duration) *sessions.Session {
	return sessions.New(userID, fmt.Sprintf("token-%s-%d", userID, n), testNow, ttl)
}

func testCreateAndFind(t *testing.T, repo sessions.Repo) {
	ctx := context.Background()
	s := newSession("user-1", 1, 2*time.Minute)

	require.NoError(t, repo.CreateCapped(ctx, s, testLimit))

	found, err := repo.FindByTokenAndUserID(ctx, s.Token, "user-1")
	require.NoError(t, err)
	require.Equal(t, s.ID, found.ID)
	require.Equal(t, s.UserID, found.UserID)
	require.Equal(t, s.Token, found.Token)
	require.Equal(t, sessions.StatusActive, found.Status)
	require.True(t, s.ExpiresAt.Equal(found.ExpiresAt), "expires at %s, got %s", s.ExpiresAt, found.ExpiresAt)
	require.True(t, s.CreatedAt.Equal(found.CreatedAt))

	count, err := repo.CountActiveByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func testFindMissing(t *testing.T, repo sessions.Repo) {
	ctx := context.Background()
	s := newSession("user-1", 1, time.Minute)
	require.NoError(t, repo.CreateCapped(ctx, s, testLimit))

	_, err := repo.FindByTokenAndUserID(ctx, s.Token, "user-2")
	require.ErrorIs(t, err, autherrors.ErrNotFound)

	_, err = repo.FindByTokenAndUserID(ctx, "other-token", "user-1")
	require.ErrorIs(t, err, autherrors.ErrNotFound)

	count, err := repo.CountActiveByUserID(ctx, "user-2")
	require.NoError(t, err)
	require.Zero(t, count)
}

func testCapEnforced(t *testing.T, repo sessions.Repo) {
	ctx := context.Background()
	require.NoError(t, repo.CreateCapped(ctx, newSession("user-1", 1, time.Minute), testLimit))
	require.NoError(t, repo.CreateCapped(ctx, newSession("user-1", 2, time.Minute), testLimit))

	third := newSession("user-1", 3, time.Minute)
	err := repo.CreateCapped(ctx, third, testLimit)
	require.ErrorIs(t, err, autherrors.ErrSessionLimitExceeded)

	_, err = repo.FindByTokenAndUserID(ctx, third.Token, "user-1")
	require.ErrorIs(t, err, autherrors.ErrNotFound, "rejected session must not be stored")

	count, err := repo.CountActiveByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, testLimit, count)
}

func testCapIsPerUser(t *testing.T, repo sessions.Repo) {
	ctx := context.Background()
	require.NoError(t, repo.CreateCapped(ctx, newSession("user-1", 1, time.Minute), testLimit))
	require.NoError(t, repo.CreateCapped(ctx, newSession("user-1", 2, time.Minute), testLimit))

	require.NoError(t, repo.CreateCapped(ctx, newSession("user-2", 1, time.Minute), testLimit))
}

func testSaveEndsSession(t *testing.T, repo sessions.Repo) {
	ctx := context.Background()
	first := newSession("user-1", 1, time.Minute)
	require.NoError(t, repo.CreateCapped(ctx, first, testLimit))
	require.NoError(t, repo.CreateCapped(ctx, newSession("user-1", 2, time.Minute), testLimit))

	first.End()
	require.NoError(t, repo.Save(ctx, first))

	found, err := repo.FindByTokenAndUserID(ctx, first.Token, "user-1")
	require.NoError(t, err)
	require.Equal(t, sessions.StatusEnded, found.Status)

	count, err := repo.CountActiveByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// Ending a session frees a slot
	require.NoError(t, repo.CreateCapped(ctx, newSession("user-1", 3, time.Minute), testLimit))
}

func testSaveCannotReactivate(t *testing.T, repo sessions.Repo) {
	ctx := context.Background()
	s := newSession("user-1", 1, time.Minute)
	require.NoError(t, repo.CreateCapped(ctx, s, testLimit))
	s.End()
	require.NoError(t, repo.Save(ctx, s))

	s.Status = sessions.StatusActive
	require.ErrorIs(t, repo.Save(ctx, s), sessions.ErrIllegalTransition)

	found, err := repo.FindByTokenAndUserID(ctx, s.Token, "user-1")
	require.NoError(t, err)
	require.Equal(t, sessions.StatusEnded, found.Status)
}

func testSaveMissing(t *testing.T, repo sessions.Repo) {
	err := repo.Save(context.Background(), newSession("user-1", 1, time.Minute))

	require.ErrorIs(t, err, autherrors.ErrNotFound)
}

func testEndExpired(t *testing.T, repo sessions.Repo) {
	ctx := context.Background()
	short := newSession("user-1", 1, time.Minute)
	long := newSession("user-1", 2, time.Hour)
	other := newSession("user-2", 1, time.Minute)
	for _, s := range []*sessions.Session{short, long, other} {
		require.NoError(t, repo.CreateCapped(ctx, s, testLimit))
	}

	ended, err := repo.EndExpired(ctx, testNow.Add(2*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 2, ended)

	found, err := repo.FindByTokenAndUserID(ctx, short.Token, "user-1")
	require.NoError(t, err)
	require.Equal(t, sessions.StatusEnded, found.Status)

	found, err = repo.FindByTokenAndUserID(ctx, long.Token, "user-1")
	require.NoError(t, err)
	require.Equal(t, sessions.StatusActive, found.Status)

	ended, err = repo.EndExpired(ctx, testNow.Add(2*time.Minute))
	require.NoError(t, err)
	require.Zero(t, ended, "already ended sessions are not counted again")
}

func testConcurrentCreateCapped(t *testing.T, repo sessions.Repo) {
	ctx := context.Background()
	const attempts = 10

	var (
		wg      conc.WaitGroup
		lock    sync.Mutex
		created int
	)
	for i := 0; i < attempts; i++ {
		i := i
		wg.Go(func() {
			err := repo.CreateCapped(ctx, newSession("alice", i, time.Minute), testLimit)
			if err != nil {
				assert.ErrorIs(t, err, autherrors.ErrSessionLimitExceeded)
				return
			}
			lock.Lock()
			created++
			lock.Unlock()
		})
	}
	wg.Wait()

	require.Equal(t, testLimit, created)
	count, err := repo.CountActiveByUserID(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, testLimit, count)
}
