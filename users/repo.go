package users

import (
	"context"
	"time"
)

// Repo persists users. Lookups of a missing user return errors.ErrNotFound and
// Create of an existing email returns errors.ErrConflict.
type Repo interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, organizationID string, offset, limit int) ([]*User, error)

	SetTwoFactorSecret(ctx context.Context, id, secret string) error
	SetTwoFactorEnabled(ctx context.Context, id string, enabled bool) error
	// DisableTwoFactor clears the secret and the enabled flag in one write.
	DisableTwoFactor(ctx context.Context, id string) error
	SetLastLogin(ctx context.Context, id string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
}
