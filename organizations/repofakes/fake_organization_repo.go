package orgrepofakes

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/organizations"
)

var _ organizations.Repo = (*FakeOrganizationRepo)(nil)

type FakeOrganizationRepo struct {
	orgs  map[string]*organizations.Organization
	slugs map[string]string // slug to organization id
	lock  sync.RWMutex

	// LicenseWrites counts UpdateLicense calls.
	LicenseWrites int
}

func NewFakeOrganizationRepo() *FakeOrganizationRepo {
	return &FakeOrganizationRepo{
		orgs:  make(map[string]*organizations.Organization),
		slugs: make(map[string]string),
	}
}

func (or *FakeOrganizationRepo) Create(_ context.Context, org *organizations.Organization) error {
	or.lock.Lock()
	defer or.lock.Unlock()

	if _, ok := or.slugs[org.Slug]; ok {
		return errors.Wrapf(errors.ErrConflict, "organization slug %s", org.Slug)
	}
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	stored := *org
	or.orgs[org.ID] = &stored
	or.slugs[org.Slug] = org.ID
	return nil
}

func (or *FakeOrganizationRepo) Get(_ context.Context, id string) (*organizations.Organization, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()

	stored, ok := or.orgs[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	org := *stored
	return &org, nil
}

func (or *FakeOrganizationRepo) GetBySlug(ctx context.Context, slug string) (*organizations.Organization, error) {
	or.lock.RLock()
	id, ok := or.slugs[slug]
	or.lock.RUnlock()
	if !ok {
		return nil, errors.ErrNotFound
	}
	return or.Get(ctx, id)
}

func (or *FakeOrganizationRepo) List(_ context.Context, offset, limit int) ([]*organizations.Organization, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()

	list := make([]*organizations.Organization, 0, len(or.orgs))
	for _, o := range or.orgs {
		org := *o
		list = append(list, &org)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Slug < list[j].Slug
	})

	if offset >= len(list) {
		return []*organizations.Organization{}, nil
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end], nil
}

func (or *FakeOrganizationRepo) UpdateLicense(_ context.Context, id string, license organizations.LicenseUpdate) error {
	or.lock.Lock()
	defer or.lock.Unlock()

	org, ok := or.orgs[id]
	if !ok {
		return errors.ErrNotFound
	}
	expiresAt := license.ExpiresAt
	org.LicenseKey = license.Key
	org.LicenseTier = license.Tier
	org.LicenseExpiresAt = &expiresAt
	or.LicenseWrites++
	return nil
}
