package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jrsteele09/go-control-plane/auth/sessions"
	"github.com/jrsteele09/go-control-plane/internal/ids"
)

// SessionRepo implements sessions.Repo.
type SessionRepo struct {
	db  *sql.DB
	now func() time.Time
}

var _ sessions.Repo = (*SessionRepo)(nil)

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db, now: time.Now}
}

func (r *SessionRepo) Create(ctx context.Context, s *sessions.Session) error {
	if s.ID == "" {
		s.ID = ids.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.now()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO sessions (id, user_id, token, expires_at, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, s.Token, s.ExpiresAt, s.IsActive, s.CreatedAt, s.UpdatedAt)
	return mapError(err, "session for user "+s.UserID)
}

func (r *SessionRepo) FindActive(ctx context.Context, token string, now time.Time) (*sessions.Session, error) {
	var s sessions.Session
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, token, expires_at, is_active, created_at, updated_at
		FROM sessions WHERE token = $1 AND is_active = TRUE AND expires_at > $2
		ORDER BY id LIMIT 1`, token, now).
		Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "active session")
	}
	return &s, nil
}

func (r *SessionRepo) DeactivateByToken(ctx context.Context, token string) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET is_active = FALSE, updated_at = $2
		WHERE token = $1 AND is_active = TRUE`, token, r.now())
	if err != nil {
		return 0, mapError(err, "deactivating sessions")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err, "deactivating sessions")
	}
	return int(n), nil
}

func (r *SessionRepo) UpdateToken(ctx context.Context, id, token string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET token = $2, updated_at = $3 WHERE id = $1`, id, token, r.now())
	if err != nil {
		return mapError(err, "updating session "+id)
	}
	return expectOne(res, "session "+id)
}
