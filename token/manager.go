// Package token issues and parses the signed session credentials handed to
// authenticated users.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-control-plane/token/keys"
	"github.com/jrsteele09/go-control-plane/users"
)

// Claims is the payload of a session credential.
type Claims struct {
	Email string     `json:"email"`
	Role  users.Role `json:"role"`
	jwt.RegisteredClaims
}

type ManagerOption func(*Manager)

// WithNowFunc overrides the clock used for issuing and parsing.
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIssuer sets the iss claim.
func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

// Manager signs and verifies session credentials.
type Manager struct {
	signer keys.Signer
	issuer string
	now    func() time.Time
}

func NewManager(signer keys.Signer, opts ...ManagerOption) *Manager {
	m := &Manager{
		signer: signer,
		issuer: "control-plane",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create signs a credential for user that expires at expiresAt.
func (m *Manager) Create(user *users.User, expiresAt time.Time) (string, error) {
	now := m.now()
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("signing session credential: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns its claims.
func (m *Manager) Parse(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, m.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{keys.RS256}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(m.issuer),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("credential has no subject")
	}
	return &claims, nil
}
