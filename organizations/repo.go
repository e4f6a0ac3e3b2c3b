package organizations

import (
	"context"
	"time"
)

// LicenseUpdate is the set of license fields written together.
type LicenseUpdate struct {
	Key       string
	Tier      string
	ExpiresAt time.Time
}

// Repo persists organizations. Lookups of a missing organization return
// errors.ErrNotFound and Create with a taken slug returns errors.ErrConflict.
type Repo interface {
	Create(ctx context.Context, org *Organization) error
	Get(ctx context.Context, id string) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	List(ctx context.Context, offset, limit int) ([]*Organization, error)
	// UpdateLicense overwrites key, tier and expiry in a single write.
	UpdateLicense(ctx context.Context, id string, license LicenseUpdate) error
}
