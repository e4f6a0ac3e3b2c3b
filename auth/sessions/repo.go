package sessions

import (
	"context"
	"time"
)

// Repo defines the interface for session storage operations.
type Repo interface {
	// Create stores a new session row
	Create(ctx context.Context, session *Session) error

	// FindActive returns the active session holding token that is unexpired at
	// now, or errors.ErrNotFound
	FindActive(ctx context.Context, token string, now time.Time) (*Session, error)

	// DeactivateByToken marks every active session holding token inactive and
	// returns how many rows changed
	DeactivateByToken(ctx context.Context, token string) (int, error)

	// UpdateToken replaces the stored credential on the row with id
	UpdateToken(ctx context.Context, id, token string) error
}
