package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-control-plane/users"
)

const userColumns = `id, organization_id, email, password_hash, first_name, last_name, role,
	is_active, two_factor_secret, two_factor_enabled, last_login, created_at, updated_at`

// UserRepo implements users.Repo.
type UserRepo struct {
	db  *sql.DB
	now func() time.Time
}

var _ users.Repo = (*UserRepo)(nil)

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db, now: time.Now}
}

func (r *UserRepo) Create(ctx context.Context, u *users.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		u.ID, nullString(u.OrganizationID), u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role),
		u.IsActive, nullString(u.TwoFactorSecret), u.TwoFactorEnabled, nullTime(u.LastLogin), u.CreatedAt, u.UpdatedAt)
	return mapError(err, "user "+u.Email)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	return u, mapError(err, "user "+email)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	return u, mapError(err, "user "+id)
}

func (r *UserRepo) List(ctx context.Context, organizationID string, offset, limit int) ([]*users.User, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users
		WHERE ($1 = '' OR organization_id = $1)
		ORDER BY email LIMIT $2 OFFSET $3`, organizationID, limit, offset)
	if err != nil {
		return nil, mapError(err, "listing users")
	}
	defer rows.Close()

	list := make([]*users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapError(err, "scanning user")
		}
		list = append(list, u)
	}
	return list, mapError(rows.Err(), "listing users")
}

func (r *UserRepo) SetTwoFactorSecret(ctx context.Context, id, secret string) error {
	return r.exec(ctx, id, `UPDATE users SET two_factor_secret = $2, updated_at = $3 WHERE id = $1`, id, secret, r.now())
}

func (r *UserRepo) SetTwoFactorEnabled(ctx context.Context, id string, enabled bool) error {
	return r.exec(ctx, id, `UPDATE users SET two_factor_enabled = $2, updated_at = $3 WHERE id = $1`, id, enabled, r.now())
}

func (r *UserRepo) DisableTwoFactor(ctx context.Context, id string) error {
	return r.exec(ctx, id, `UPDATE users SET two_factor_enabled = FALSE, two_factor_secret = NULL, updated_at = $2 WHERE id = $1`, id, r.now())
}

func (r *UserRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, id, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
}

func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, id, `UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, r.now())
}

func (r *UserRepo) exec(ctx context.Context, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "updating user "+id)
	}
	return expectOne(res, "user "+id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*users.User, error) {
	var (
		u         users.User
		orgID     sql.NullString
		role      string
		secret    sql.NullString
		lastLogin sql.NullTime
	)
	err := s.Scan(&u.ID, &orgID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &role,
		&u.IsActive, &secret, &u.TwoFactorEnabled, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.OrganizationID = orgID.String
	u.Role = users.Role(role)
	u.TwoFactorSecret = secret.String
	u.LastLogin = timePtr(lastLogin)
	return &u, nil
}
