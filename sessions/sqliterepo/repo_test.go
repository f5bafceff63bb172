package sqliterepo_test

import (
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-session-auth/internal/db"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/sessions/sessionstest"
	"github.com/jrsteele09/go-session-auth/sessions/sqliterepo"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRepo(t *testing.T) {
	sessionstest.RunRepoSuite(t, func(t *testing.T) sessions.Repo {
		conn, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "sessions.db"))
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return sqliterepo.NewSQLiteRepo(conn)
	})
}
