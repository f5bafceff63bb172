package redisrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/sessions/redisrepo"
	"github.com/jrsteele09/go-session-auth/sessions/sessionstest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T) (*redisrepo.RedisRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return redisrepo.NewRedisRepo(rdb, "test"), mr
}

func TestRedisRepo(t *testing.T) {
	sessionstest.RunRepoSuite(t, func(t *testing.T) sessions.Repo {
		repo, _ := newRedisRepo(t)
		return repo
	})
}

func TestRedisRepo_TokenIsNotUsedAsKey(t *testing.T) {
	repo, mr := newRedisRepo(t)
	s := sessions.New("user-1", "header.payload.signature", time.Now(), time.Minute)

	require.NoError(t, repo.CreateCapped(context.Background(), s, 2))

	for _, key := range mr.Keys() {
		require.NotContains(t, key, s.Token)
	}
}

func TestRedisRepo_UnavailableServer(t *testing.T) {
	repo, mr := newRedisRepo(t)
	mr.Close()

	_, err := repo.CountActiveByUserID(context.Background(), "user-1")

	require.Error(t, err)
}
