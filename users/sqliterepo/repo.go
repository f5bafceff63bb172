package sqliterepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var _ users.UserRepo = (*SQLiteRepo)(nil)

// SQLiteRepo stores users in the users table created by internal/db migrations.
type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db}
}

func (r *SQLiteRepo) Upsert(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	roles, err := json.Marshal(user.Roles)
	if err != nil {
		return errors.Wrap(err, "[SQLiteRepo.Upsert] marshal roles")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, roles, date_joined)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			password_hash = excluded.password_hash,
			roles = excluded.roles`,
		user.ID, user.Email, user.PasswordHash, string(roles), user.DateJoined.UnixNano(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return autherrors.ErrUserExists
		}
		return errors.Wrap(err, "[SQLiteRepo.Upsert]")
	}
	return nil
}

func (r *SQLiteRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.get(ctx, `email = ?`, email)
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.get(ctx, `id = ?`, id)
}

func (r *SQLiteRepo) get(ctx context.Context, where string, arg string) (*users.User, error) {
	var (
		u          users.User
		roles      string
		dateJoined int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, roles, date_joined FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &roles, &dateJoined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, autherrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[SQLiteRepo.get]")
	}

	if err := json.Unmarshal([]byte(roles), &u.Roles); err != nil {
		return nil, errors.Wrap(err, "[SQLiteRepo.get] unmarshal roles")
	}
	u.DateJoined = time.Unix(0, dateJoined).UTC()
	return &u, nil
}
