package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-control-plane/auth/sessions"
	apperrors "github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/token"
	"github.com/jrsteele09/go-control-plane/users"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users    users.Repo
	Sessions sessions.Repo
}

// CredentialIssuer signs and verifies session credentials.
type CredentialIssuer interface {
	Create(user *users.User, expiresAt time.Time) (string, error)
	Parse(raw string) (*token.Claims, error)
}

// OutcomeObserver is told the result of every authentication attempt.
type OutcomeObserver func(operation, outcome string)

// Result is the outcome of a login or refresh. When RequiresTwoFactor is set
// nothing else is populated and no session exists.
type Result struct {
	RequiresTwoFactor bool
	AccessToken       string
	User              *users.User
	Session           *sessions.Session
}

// Principal is the authenticated actor behind a request.
type Principal struct {
	UserID         string
	Email          string
	Role           users.Role
	OrganizationID string
	SessionID      string
	Token          string
}

// Registration is the input for creating an account.
type Registration struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	OrganizationID string
	Role           users.Role
}

// Service authenticates users and manages their sessions and second factor.
type Service struct {
	repos   Repos
	tokens  CredentialIssuer
	nowTime func() time.Time
	observe OutcomeObserver
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithOutcomeObserver registers fn to receive authentication outcomes.
func WithOutcomeObserver(fn OutcomeObserver) ServiceOption {
	return func(s *Service) {
		s.observe = fn
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, tokens CredentialIssuer, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] tokens is required")
	}

	s := &Service{
		repos:   repos,
		tokens:  tokens,
		nowTime: time.Now,
		observe: func(string, string) {},
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equalizeTiming burns one bcrypt comparison so that an unknown email costs
// the same as a wrong password.
func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = users.HashPassword("control-plane-timing-equalizer")
	})
	users.CheckPasswordHash(password, dummyHash)
}

// Authenticate checks credentials and, when they pass, issues a session.
// Accounts with two-factor enabled and no code supplied get a Result with
// RequiresTwoFactor set instead.
func (s *Service) Authenticate(ctx context.Context, email, password, totpCode string) (*Result, error) {
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrapf(err, "[Service.Authenticate] user lookup")
		}
		equalizeTiming(password)
		s.observe("login", "invalid_credentials")
		return nil, apperrors.ErrInvalidCredentials
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		s.observe("login", "invalid_credentials")
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.observe("login", "deactivated")
		return nil, apperrors.ErrAccountDeactivated
	}

	if user.TwoFactorEnabled {
		if strings.TrimSpace(totpCode) == "" {
			s.observe("login", "two_factor_required")
			return &Result{RequiresTwoFactor: true}, nil
		}
		if !VerifyTOTP(user.TwoFactorSecret, totpCode, s.nowTime()) {
			s.observe("login", "invalid_two_factor")
			return nil, apperrors.ErrInvalidTwoFactorCode
		}
	}

	now := s.nowTime()
	if err := s.repos.Users.SetLastLogin(ctx, user.ID, now); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	} else {
		user.LastLogin = &now
	}

	session, err := s.issueSession(ctx, user, now)
	if err != nil {
		return nil, err
	}

	s.observe("login", "success")
	return &Result{
		AccessToken: session.Token,
		User:        user,
		Session:     session,
	}, nil
}

func (s *Service) issueSession(ctx context.Context, user *users.User, now time.Time) (*sessions.Session, error) {
	expiresAt := now.Add(sessions.Lifetime)
	credential, err := s.tokens.Create(user, expiresAt)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Service.issueSession] creating credential")
	}

	session := &sessions.Session{
		UserID:    user.ID,
		Token:     credential,
		ExpiresAt: expiresAt,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.Sessions.Create(ctx, session); err != nil {
		return nil, apperrors.Wrapf(err, "[Service.issueSession] storing session")
	}
	return session, nil
}

// Register creates an active account. An empty role defaults to CLIENT.
func (s *Service) Register(ctx context.Context, reg Registration) (*users.User, error) {
	if reg.Role == "" {
		reg.Role = users.RoleClient
	}
	if !reg.Role.Valid() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown role %q", reg.Role)
	}

	if _, err := s.repos.Users.GetByEmail(ctx, reg.Email); err == nil {
		return nil, apperrors.Wrapf(apperrors.ErrConflict, "user with this email already exists")
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Wrapf(err, "[Service.Register] user lookup")
	}

	hash, err := users.HashPassword(reg.Password)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Service.Register] hashing password")
	}

	now := s.nowTime()
	user := &users.User{
		Email:          reg.Email,
		PasswordHash:   hash,
		FirstName:      reg.FirstName,
		LastName:       reg.LastName,
		OrganizationID: reg.OrganizationID,
		Role:           reg.Role,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, apperrors.Wrapf(err, "[Service.Register] storing user")
	}
	return user, nil
}

// Logout deactivates every active session holding credential. Unknown
// credentials are not an error.
func (s *Service) Logout(ctx context.Context, credential string) error {
	n, err := s.repos.Sessions.DeactivateByToken(ctx, credential)
	if err != nil {
		return apperrors.Wrapf(err, "[Service.Logout] deactivating sessions")
	}
	log.Debug().Int("sessions", n).Msg("logout")
	return nil
}

// Refresh swaps credential for a new one on the same session row. The
// session's expiry is left untouched.
func (s *Service) Refresh(ctx context.Context, credential string) (*Result, error) {
	now := s.nowTime()
	session, err := s.repos.Sessions.FindActive(ctx, credential, now)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		s.observe("refresh", "invalid_session")
		return nil, apperrors.ErrInvalidOrExpiredSession
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Service.Refresh] session lookup")
	}

	user, err := s.repos.Users.GetByID(ctx, session.UserID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrInvalidOrExpiredSession
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Service.Refresh] user lookup")
	}
	if !user.IsActive {
		s.observe("refresh", "deactivated")
		return nil, apperrors.ErrAccountDeactivated
	}

	fresh, err := s.tokens.Create(user, session.ExpiresAt)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Service.Refresh] creating credential")
	}
	if err := s.repos.Sessions.UpdateToken(ctx, session.ID, fresh); err != nil {
		return nil, apperrors.Wrapf(err, "[Service.Refresh] updating session")
	}
	session.Token = fresh

	s.observe("refresh", "success")
	return &Result{AccessToken: fresh, User: user, Session: session}, nil
}

// Principal resolves a bearer credential into the acting user. The credential
// must verify and belong to an active, unexpired session of an active user.
func (s *Service) Principal(ctx context.Context, credential string) (*Principal, error) {
	claims, err := s.tokens.Parse(credential)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidOrExpiredSession, "%v", err)
	}

	session, err := s.repos.Sessions.FindActive(ctx, credential, s.nowTime())
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrInvalidOrExpiredSession
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Service.Principal] session lookup")
	}

	user, err := s.repos.Users.GetByID(ctx, claims.Subject)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrInvalidOrExpiredSession
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Service.Principal] user lookup")
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDeactivated
	}

	return &Principal{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		SessionID:      session.ID,
		Token:          credential,
	}, nil
}

// GetUser returns the account with id.
func (s *Service) GetUser(ctx context.Context, userID string) (*users.User, error) {
	return s.repos.Users.GetByID(ctx, userID)
}

// ListUsers pages through accounts ordered by email. An empty
// organizationID lists every organization.
func (s *Service) ListUsers(ctx context.Context, organizationID string, offset, limit int) ([]*users.User, error) {
	list, err := s.repos.Users.List(ctx, organizationID, offset, limit)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Service.ListUsers] listing users")
	}
	return list, nil
}

// SetActive activates or deactivates an account. Deactivated accounts cannot
// log in and their existing sessions stop resolving to a principal.
func (s *Service) SetActive(ctx context.Context, userID string, active bool) (*users.User, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Users.SetActive(ctx, userID, active); err != nil {
		return nil, apperrors.Wrapf(err, "[Service.SetActive] updating user")
	}
	user.IsActive = active
	log.Info().Str("user_id", userID).Bool("active", active).Msg("user activation changed")
	return user, nil
}
