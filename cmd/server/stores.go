package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/internal/db"
	"github.com/jrsteele09/go-session-auth/sessions/redisrepo"
	fakesessionrepo "github.com/jrsteele09/go-session-auth/sessions/repofakes"
	sessionsqlite "github.com/jrsteele09/go-session-auth/sessions/sqliterepo"
	fakeuserrepo "github.com/jrsteele09/go-session-auth/users/repofake"
	usersqlite "github.com/jrsteele09/go-session-auth/users/sqliterepo"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// openStores builds the repositories for the configured backend.
// Credentials live in SQLite for the sqlite and redis backends and in memory otherwise.
func openStores(c config.StoreConfig) (auth.Repos, func(), error) {
	switch c.GetStore() {
	case config.StoreSQLite:
		conn, err := db.OpenAndMigrate(c.GetSQLitePath())
		if err != nil {
			return auth.Repos{}, nil, err
		}
		log.Info().Str("path", c.GetSQLitePath()).Msg("using sqlite store")
		return auth.Repos{
			Users:    usersqlite.NewSQLiteRepo(conn),
			Sessions: sessionsqlite.NewSQLiteRepo(conn),
		}, func() { _ = conn.Close() }, nil

	case config.StoreRedis:
		conn, err := db.OpenAndMigrate(c.GetSQLitePath())
		if err != nil {
			return auth.Repos{}, nil, err
		}
		client := redis.NewClient(&redis.Options{Addr: c.GetRedisAddr()})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			_ = conn.Close()
			return auth.Repos{}, nil, fmt.Errorf("redis ping %s: %w", c.GetRedisAddr(), err)
		}
		log.Info().Str("addr", c.GetRedisAddr()).Str("prefix", c.GetRedisPrefix()).Msg("using redis session store")
		closer := func() {
			_ = client.Close()
			_ = conn.Close()
		}
		return auth.Repos{
			Users:    usersqlite.NewSQLiteRepo(conn),
			Sessions: redisrepo.NewRedisRepo(client, c.GetRedisPrefix()),
		}, closer, nil

	default:
		log.Warn().Msg("using in-memory stores; all users and sessions are lost on restart")
		return auth.Repos{
			Users:    fakeuserrepo.NewFakeUserRepo(),
			Sessions: fakesessionrepo.NewFakeSessionRepo(),
		}, func() {}, nil
	}
}
