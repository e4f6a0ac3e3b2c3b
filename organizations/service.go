package organizations

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-control-plane/internal/errors"
)

type ServiceOption func(*Service)

func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// Service creates and looks up organizations.
type Service struct {
	repo Repo
	now  func() time.Time
}

func NewService(repo Repo, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[NewService] Organizations repo is required")
	}
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create validates and stores a new active organization.
func (s *Service) Create(ctx context.Context, name, slug, domain string) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "name is required")
	}
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return nil, apperrors.Wrapf(apperrors.ErrConflict, "organization with slug %q already exists", slug)
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Wrapf(err, "[Service.Create] slug lookup")
	}

	now := s.now()
	org := &Organization{
		Name:      name,
		Slug:      slug,
		Domain:    strings.TrimSpace(domain),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, apperrors.Wrapf(err, "[Service.Create] storing organization")
	}
	return org, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Organization, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]*Organization, error) {
	return s.repo.List(ctx, offset, limit)
}
