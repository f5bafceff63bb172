// Package userstest holds the behaviour every users.UserRepo implementation must share.
package userstest

import (
	"context"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/stretchr/testify/require"
)

var joined = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// RunRepoSuite runs the shared credential store tests against repos built by newRepo.
func RunRepoSuite(t *testing.T, newRepo func(t *testing.T) users.UserRepo) {
	t.Run("UpsertAssignsID", func(t *testing.T) { testUpsertAssignsID(t, newRepo(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newRepo(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newRepo(t)) })
	t.Run("UpdateExisting", func(t *testing.T) { testUpdateExisting(t, newRepo(t)) })
}

func newUser(email string) *users.User {
	return &users.User{
		Email:        email,
		PasswordHash: "$2a$04$notarealhash",
		Roles:        []users.RoleType{users.RoleUser, users.RoleAdmin},
		DateJoined:   joined,
	}
}

func testUpsertAssignsID(t *testing.T, repo users.UserRepo) {
	ctx := context.Background()
	u := newUser("alice@example.com")

	require.NoError(t, repo.Upsert(ctx, u))
	require.NotEmpty(t, u.ID)

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, u.PasswordHash, byEmail.PasswordHash)
	require.Equal(t, u.Roles, byEmail.Roles)
	require.True(t, joined.Equal(byEmail.DateJoined))

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", byID.Email)
}

func testGetMissing(t *testing.T, repo users.UserRepo) {
	ctx := context.Background()

	_, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, autherrors.ErrNotFound)

	_, err = repo.GetByID(ctx, "missing-id")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
}

func testDuplicateEmail(t *testing.T, repo users.UserRepo) {
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, newUser("alice@example.com")))

	err := repo.Upsert(ctx, newUser("alice@example.com"))

	require.ErrorIs(t, err, autherrors.ErrUserExists)
}

func testUpdateExisting(t *testing.T, repo users.UserRepo) {
	ctx := context.Background()
	u := newUser("alice@example.com")
	require.NoError(t, repo.Upsert(ctx, u))

	u.PasswordHash = "$2a$04$anotherhash"
	u.Roles = []users.RoleType{users.RoleUser}
	require.NoError(t, repo.Upsert(ctx, u))

	stored, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, stored.ID)
	require.Equal(t, "$2a$04$anotherhash", stored.PasswordHash)
	require.Equal(t, []users.RoleType{users.RoleUser}, stored.Roles)
}
