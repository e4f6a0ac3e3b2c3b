package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jrsteele09/go-control-plane/auth/sessions"
	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/organizations"
	"github.com/jrsteele09/go-control-plane/store/postgres"
	"github.com/jrsteele09/go-control-plane/users"
	"github.com/stretchr/testify/require"
)

var (
	userCols = []string{"id", "organization_id", "email", "password_hash", "first_name", "last_name", "role",
		"is_active", "two_factor_secret", "two_factor_enabled", "last_login", "created_at", "updated_at"}
	orgCols = []string{"id", "name", "slug", "domain", "is_active", "license_key", "license_tier",
		"license_expires_at", "created_at", "updated_at"}
	sessionCols = []string{"id", "user_id", "token", "expires_at", "is_active", "created_at", "updated_at"}
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestUserRepoCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewUserRepo(db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), sql.NullString{}, "jane@acme.io", "hash", "Jane", "Doe", "ADMIN",
			true, sql.NullString{}, false, sql.NullTime{}, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &users.User{Email: "jane@acme.io", PasswordHash: "hash", FirstName: "Jane", LastName: "Doe", Role: users.RoleAdmin, IsActive: true}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pgconn.PgError{Code: "23505"})
	err := repo.Create(ctx, &users.User{Email: "jane@acme.io", Role: users.RoleClient})
	require.ErrorIs(t, err, errors.ErrConflict)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "users_organization_id_fkey"})
	err = repo.Create(ctx, &users.User{Email: "joe@acme.io", Role: users.RoleClient, OrganizationID: "missing-org"})
	require.ErrorIs(t, err, errors.ErrInvalidInput)
	require.NotErrorIs(t, err, errors.ErrConflict)
}

func TestUserRepoGetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewUserRepo(db)
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lastLogin := created.Add(time.Hour)

	mock.ExpectQuery("SELECT .* FROM users WHERE email = \\$1").
		WithArgs("jane@acme.io").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(
			"user-1", "org-1", "jane@acme.io", "hash", "Jane", "Doe", "OWNER",
			true, "JBSWY3DPEHPK3PXP", true, lastLogin, created, created))

	u, err := repo.GetByEmail(ctx, "jane@acme.io")
	require.NoError(t, err)
	require.Equal(t, "user-1", u.ID)
	require.Equal(t, "org-1", u.OrganizationID)
	require.Equal(t, users.RoleOwner, u.Role)
	require.Equal(t, "JBSWY3DPEHPK3PXP", u.TwoFactorSecret)
	require.True(t, u.TwoFactorEnabled)
	require.NotNil(t, u.LastLogin)
	require.True(t, u.LastLogin.Equal(lastLogin))

	mock.ExpectQuery("SELECT .* FROM users WHERE email = \\$1").
		WithArgs("ghost@acme.io").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err = repo.GetByEmail(ctx, "ghost@acme.io")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestUserRepoUpdates(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewUserRepo(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE users SET two_factor_secret = \\$2").
		WithArgs("user-1", "SECRET", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetTwoFactorSecret(ctx, "user-1", "SECRET"))

	mock.ExpectExec("UPDATE users SET two_factor_enabled = FALSE, two_factor_secret = NULL").
		WithArgs("user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DisableTwoFactor(ctx, "user-1"))

	mock.ExpectExec("UPDATE users SET is_active = \\$2").
		WithArgs("ghost", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.SetActive(ctx, "ghost", false), errors.ErrNotFound)

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE users SET last_login = \\$2").
		WithArgs("user-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetLastLogin(ctx, "user-1", at))
}

func TestUserRepoList(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewUserRepo(db)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .* FROM users").
		WithArgs("org-1", 100, 0).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "org-1", "a@acme.io", "h", "", "", "CLIENT", true, nil, false, nil, created, created).
			AddRow("u2", "org-1", "b@acme.io", "h", "", "", "ADMIN", false, nil, false, nil, created, created))

	list, err := repo.List(context.Background(), "org-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Nil(t, list[0].LastLogin)
	require.False(t, list[1].IsActive)
}

func TestOrganizationRepo(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewOrganizationRepo(db)
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	expires := created.Add(30 * 24 * time.Hour)

	mock.ExpectExec("INSERT INTO organizations").
		WithArgs(sqlmock.AnyArg(), "Acme", "acme", sql.NullString{String: "acme.io", Valid: true}, true,
			sql.NullString{}, sql.NullString{}, sql.NullTime{}, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(ctx, &organizations.Organization{Name: "Acme", Slug: "acme", Domain: "acme.io", IsActive: true}))

	mock.ExpectExec("UPDATE organizations\\s+SET license_key = \\$2, license_tier = \\$3, license_expires_at = \\$4").
		WithArgs("acme", "token", "PREMIUM", expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateLicense(ctx, "acme", organizations.LicenseUpdate{Key: "token", Tier: "PREMIUM", ExpiresAt: expires}))

	mock.ExpectExec("UPDATE organizations").
		WithArgs("ghost", "token", "PREMIUM", expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateLicense(ctx, "ghost", organizations.LicenseUpdate{Key: "token", Tier: "PREMIUM", ExpiresAt: expires})
	require.ErrorIs(t, err, errors.ErrNotFound)

	mock.ExpectQuery("SELECT .* FROM organizations WHERE id = \\$1").
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows(orgCols).AddRow("acme", "Acme", "acme", nil, true, "token", "PREMIUM", expires, created, created))
	org, err := repo.Get(ctx, "acme")
	require.NoError(t, err)
	require.True(t, org.HasLicense())
	require.Equal(t, "PREMIUM", org.LicenseTier)
	require.True(t, org.LicenseExpiresAt.Equal(expires))
	require.Empty(t, org.Domain)

	mock.ExpectQuery("SELECT .* FROM organizations WHERE slug = \\$1").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetBySlug(ctx, "ghost")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestSessionRepo(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewSessionRepo(db)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	expires := now.Add(sessions.Lifetime)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), "user-1", "cred", expires, true, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s := &sessions.Session{UserID: "user-1", Token: "cred", ExpiresAt: expires, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, s))
	require.Len(t, s.ID, 26)

	mock.ExpectQuery("FROM sessions WHERE token = \\$1 AND is_active = TRUE AND expires_at > \\$2").
		WithArgs("cred", now).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(s.ID, "user-1", "cred", expires, true, now, now))
	found, err := repo.FindActive(ctx, "cred", now)
	require.NoError(t, err)
	require.Equal(t, s.ID, found.ID)

	mock.ExpectQuery("FROM sessions WHERE token").
		WithArgs("cred", expires).
		WillReturnRows(sqlmock.NewRows(sessionCols))
	_, err = repo.FindActive(ctx, "cred", expires)
	require.ErrorIs(t, err, errors.ErrNotFound)

	mock.ExpectExec("UPDATE sessions SET token = \\$2").
		WithArgs(s.ID, "cred-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateToken(ctx, s.ID, "cred-2"))

	mock.ExpectExec("UPDATE sessions SET is_active = FALSE").
		WithArgs("cred-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err := repo.DeactivateByToken(ctx, "cred-2")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	mock.ExpectExec("UPDATE sessions SET is_active = FALSE").
		WithArgs("cred-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	n, err = repo.DeactivateByToken(ctx, "cred-2")
	require.NoError(t, err)
	require.Zero(t, n)
}
