package organizations

import (
	"regexp"
	"time"

	"github.com/jrsteele09/go-control-plane/internal/errors"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Organization is a tenant of the control panel. The License* fields are a
// snapshot written by the entitlement store; LicenseKey is the source of truth.
type Organization struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	Domain           string     `json:"domain,omitempty"`
	IsActive         bool       `json:"isActive"`
	LicenseKey       string     `json:"-"`
	LicenseTier      string     `json:"licenseTier,omitempty"`
	LicenseExpiresAt *time.Time `json:"licenseExpiresAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// HasLicense reports whether a license token has been assigned.
func (o *Organization) HasLicense() bool {
	return o.LicenseKey != ""
}

// ValidateSlug checks that slug only holds lowercase letters, digits and hyphens.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return errors.Wrapf(errors.ErrInvalidInput, "slug must contain only lowercase letters, numbers, and hyphens")
	}
	return nil
}
