// Package entitlements binds license tokens to organizations and answers
// feature queries against them.
package entitlements

import (
	"context"
	"errors"

	apperrors "github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/licensing"
	"github.com/jrsteele09/go-control-plane/organizations"
	"github.com/rs/zerolog/log"
)

// Verifier checks a license token.
type Verifier interface {
	Verify(token string) (*licensing.Payload, error)
}

// CheckObserver receives the outcome of every feature or validity check.
type CheckObserver func(kind string, granted bool)

type StoreOption func(*Store)

func WithCheckObserver(fn CheckObserver) StoreOption {
	return func(s *Store) {
		s.observe = fn
	}
}

type Store struct {
	orgs     organizations.Repo
	verifier Verifier
	observe  CheckObserver
}

func NewStore(orgs organizations.Repo, verifier Verifier, opts ...StoreOption) (*Store, error) {
	if orgs == nil {
		return nil, errors.New("[NewStore] Organizations repo is required")
	}
	if verifier == nil {
		return nil, errors.New("[NewStore] License verifier is required")
	}
	s := &Store{
		orgs:     orgs,
		verifier: verifier,
		observe:  func(string, bool) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Assign verifies token and stores it against the organization. A token bound
// to a different organization is rejected. Nothing is written unless the
// token verifies.
func (s *Store) Assign(ctx context.Context, organizationID, token string) (*licensing.Payload, error) {
	if _, err := s.orgs.Get(ctx, organizationID); err != nil {
		return nil, apperrors.Wrapf(err, "organization %s", organizationID)
	}

	payload, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	if payload.OrganizationID != "" && payload.OrganizationID != organizationID {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidLicense, "license is bound to another organization")
	}

	err = s.orgs.UpdateLicense(ctx, organizationID, organizations.LicenseUpdate{
		Key:       token,
		Tier:      string(payload.Tier),
		ExpiresAt: payload.ExpiresAt,
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Store.Assign] updating license")
	}

	log.Info().Str("organization_id", organizationID).Str("tier", string(payload.Tier)).Time("expires_at", payload.ExpiresAt).Msg("license assigned")
	return payload, nil
}

// HasFeature reports whether the organization's stored license is currently
// valid and grants feature. Absent, expired and tampered licenses all read as
// false.
func (s *Store) HasFeature(ctx context.Context, organizationID, feature string) (bool, error) {
	payload, err := s.License(ctx, organizationID)
	if err != nil {
		return false, err
	}
	granted := payload != nil && payload.HasFeature(feature)
	s.observe("feature", granted)
	return granted, nil
}

// IsValid reports whether the organization holds a currently valid license.
func (s *Store) IsValid(ctx context.Context, organizationID string) (bool, error) {
	payload, err := s.License(ctx, organizationID)
	if err != nil {
		return false, err
	}
	s.observe("validity", payload != nil)
	return payload != nil, nil
}

// License re-verifies and returns the organization's stored license, or nil
// when it has none or it no longer verifies.
func (s *Store) License(ctx context.Context, organizationID string) (*licensing.Payload, error) {
	org, err := s.orgs.Get(ctx, organizationID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "organization %s", organizationID)
	}
	if !org.HasLicense() {
		return nil, nil
	}

	payload, err := s.verifier.Verify(org.LicenseKey)
	if apperrors.Is(err, apperrors.ErrConfiguration) {
		return nil, err
	}
	if err != nil {
		log.Debug().Err(err).Str("organization_id", organizationID).Msg("stored license does not verify")
		return nil, nil
	}
	return payload, nil
}
