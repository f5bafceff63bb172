package fakesessionrepo_test

import (
	"testing"

	"github.com/jrsteele09/go-session-auth/sessions"
	fakesessionrepo "github.com/jrsteele09/go-session-auth/sessions/repofakes"
	"github.com/jrsteele09/go-session-auth/sessions/sessionstest"
)

func TestFakeSessionRepo(t *testing.T) {
	sessionstest.RunRepoSuite(t, func(t *testing.T) sessions.Repo {
		return fakesessionrepo.NewFakeSessionRepo()
	})
}
