package main

import (
	"context"
	"database/sql"

	"github.com/jrsteele09/go-control-plane/auth"
	"github.com/jrsteele09/go-control-plane/auth/sessions"
	fakesessionrepo "github.com/jrsteele09/go-control-plane/auth/sessions/repofakes"
	"github.com/jrsteele09/go-control-plane/internal/config"
	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/licensing"
	"github.com/jrsteele09/go-control-plane/organizations"
	orgrepofakes "github.com/jrsteele09/go-control-plane/organizations/repofakes"
	"github.com/jrsteele09/go-control-plane/store/postgres"
	"github.com/jrsteele09/go-control-plane/token"
	"github.com/jrsteele09/go-control-plane/token/keys"
	"github.com/jrsteele09/go-control-plane/users"
	fakeuserrepo "github.com/jrsteele09/go-control-plane/users/repofake"
	"github.com/rs/zerolog/log"
)

// app holds the repositories and key material shared by the commands.
type app struct {
	cfg      config.Config
	secrets  config.SecretSource
	db       *sql.DB
	users    users.Repo
	sessions sessions.Repo
	orgs     organizations.Repo
}

// newApp connects the repositories: PostgreSQL when a database URL is
// configured, in-memory otherwise (DEV only).
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	secrets, err := config.NewSecretSource(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, secrets: secrets}

	url := cfg.GetDatabaseURL()
	if url == "" {
		if !cfg.IsDev() {
			return nil, errors.Wrapf(errors.ErrConfiguration, "DATABASE_URL is required outside DEV")
		}
		log.Warn().Msg("no DATABASE_URL set, using in-memory repositories")
		a.users = fakeuserrepo.NewFakeUserRepo()
		a.sessions = fakesessionrepo.NewFakeSessionRepo()
		a.orgs = orgrepofakes.NewFakeOrganizationRepo()
		return a, nil
	}

	db, err := postgres.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("connected to database")
	a.db = db
	a.users = postgres.NewUserRepo(db)
	a.sessions = postgres.NewSessionRepo(db)
	a.orgs = postgres.NewOrganizationRepo(db)
	return a, nil
}

func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *app) ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *app) authService(ctx context.Context, opts ...auth.ServiceOption) (*auth.Service, error) {
	sessionKey, err := config.LoadSessionKeyPair(ctx, a.secrets, a.cfg.IsDev())
	if err != nil {
		return nil, err
	}
	tokens := token.NewManager(keys.NewKeyPairSigner(sessionKey), token.WithIssuer(a.cfg.GetAppName()))
	return auth.NewService(auth.Repos{Users: a.users, Sessions: a.sessions}, tokens, opts...)
}

// loadCodec builds the license codec from the configured key material.
func loadCodec(ctx context.Context, cfg config.Config, secrets config.SecretSource) (*licensing.Codec, error) {
	kp, err := config.LoadLicenseKeyPair(ctx, secrets, cfg.GetLicenseKeyID())
	if err != nil {
		return nil, err
	}
	return licensing.NewCodec(kp), nil
}
