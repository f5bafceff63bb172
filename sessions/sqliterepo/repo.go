package sqliterepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/pkg/errors"
)

var _ sessions.Repo = (*SQLiteRepo)(nil)

// SQLiteRepo stores sessions in the sessions table created by internal/db migrations.
// Timestamps are stored as unix nanoseconds.
type SQLiteRepo struct {
	db *sql.DB
}

// NewSQLiteRepo returns a session repository over db. The database must be opened with
// internal/db.Open so write transactions lock on BEGIN.
func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db}
}

const sessionColumns = `id, user_id, token, status, expires_at, created_at`

func (r *SQLiteRepo) CreateCapped(ctx context.Context, session *sessions.Session, limit int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "[SQLiteRepo.CreateCapped] begin")
	}
	defer func() { _ = tx.Rollback() }()

	var active int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE user_id = ? AND status = ?`,
		session.UserID, sessions.StatusActive,
	).Scan(&active); err != nil {
		return errors.Wrap(err, "[SQLiteRepo.CreateCapped] count")
	}
	if active >= limit {
		return autherrors.ErrSessionLimitExceeded
	}

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.Token, session.Status,
		session.ExpiresAt.UnixNano(), session.CreatedAt.UnixNano(),
	); err != nil {
		return errors.Wrap(err, "[SQLiteRepo.CreateCapped] insert")
	}

	return errors.Wrap(tx.Commit(), "[SQLiteRepo.CreateCapped] commit")
}

func (r *SQLiteRepo) FindByTokenAndUserID(ctx context.Context, token, userID string) (*sessions.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = ? AND user_id = ?`,
		token, userID,
	)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, autherrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "[SQLiteRepo.FindByTokenAndUserID] scan")
	}
	return session, nil
}

func (r *SQLiteRepo) CountActiveByUserID(ctx context.Context, userID string) (int, error) {
	var active int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE user_id = ? AND status = ?`,
		userID, sessions.StatusActive,
	).Scan(&active)
	if err != nil {
		return 0, errors.Wrap(err, "[SQLiteRepo.CountActiveByUserID]")
	}
	return active, nil
}

func (r *SQLiteRepo) Save(ctx context.Context, session *sessions.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "[SQLiteRepo.Save] begin")
	}
	defer func() { _ = tx.Rollback() }()

	var current sessions.Status
	err = tx.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id = ?`, session.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return autherrors.ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "[SQLiteRepo.Save] select")
	}
	if !current.CanBecome(session.Status) {
		return sessions.ErrIllegalTransition
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET status = ?, expires_at = ? WHERE id = ?`,
		session.Status, session.ExpiresAt.UnixNano(), session.ID,
	); err != nil {
		return errors.Wrap(err, "[SQLiteRepo.Save] update")
	}

	return errors.Wrap(tx.Commit(), "[SQLiteRepo.Save] commit")
}

func (r *SQLiteRepo) EndExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = ? WHERE status = ? AND expires_at < ?`,
		sessions.StatusEnded, sessions.StatusActive, now.UnixNano(),
	)
	if err != nil {
		return 0, errors.Wrap(err, "[SQLiteRepo.EndExpired] update")
	}
	ended, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "[SQLiteRepo.EndExpired] rows affected")
	}
	return int(ended), nil
}

func scanSession(row *sql.Row) (*sessions.Session, error) {
	var (
		s                    sessions.Session
		expiresAt, createdAt int64
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.Status, &expiresAt, &createdAt); err != nil {
		return nil, err
	}
	s.ExpiresAt = time.Unix(0, expiresAt).UTC()
	s.CreatedAt = time.Unix(0, createdAt).UTC()
	return &s, nil
}
