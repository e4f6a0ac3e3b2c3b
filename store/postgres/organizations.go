package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-control-plane/organizations"
)

const organizationColumns = `id, name, slug, domain, is_active, license_key, license_tier,
	license_expires_at, created_at, updated_at`

// OrganizationRepo implements organizations.Repo.
type OrganizationRepo struct {
	db  *sql.DB
	now func() time.Time
}

var _ organizations.Repo = (*OrganizationRepo)(nil)

func NewOrganizationRepo(db *sql.DB) *OrganizationRepo {
	return &OrganizationRepo{db: db, now: time.Now}
}

func (r *OrganizationRepo) Create(ctx context.Context, o *organizations.Organization) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = r.now()
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO organizations (`+organizationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.Name, o.Slug, nullString(o.Domain), o.IsActive, nullString(o.LicenseKey), nullString(o.LicenseTier),
		nullTime(o.LicenseExpiresAt), o.CreatedAt, o.UpdatedAt)
	return mapError(err, "organization "+o.Slug)
}

func (r *OrganizationRepo) Get(ctx context.Context, id string) (*organizations.Organization, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
	o, err := scanOrganization(row)
	return o, mapError(err, "organization "+id)
}

func (r *OrganizationRepo) GetBySlug(ctx context.Context, slug string) (*organizations.Organization, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE slug = $1`, slug)
	o, err := scanOrganization(row)
	return o, mapError(err, "organization "+slug)
}

func (r *OrganizationRepo) List(ctx context.Context, offset, limit int) ([]*organizations.Organization, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+organizationColumns+` FROM organizations
		ORDER BY slug LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, mapError(err, "listing organizations")
	}
	defer rows.Close()

	list := make([]*organizations.Organization, 0)
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, mapError(err, "scanning organization")
		}
		list = append(list, o)
	}
	return list, mapError(rows.Err(), "listing organizations")
}

// UpdateLicense writes the three license columns in one statement.
func (r *OrganizationRepo) UpdateLicense(ctx context.Context, id string, license organizations.LicenseUpdate) error {
	res, err := r.db.ExecContext(ctx, `UPDATE organizations
		SET license_key = $2, license_tier = $3, license_expires_at = $4, updated_at = $5
		WHERE id = $1`, id, license.Key, license.Tier, license.ExpiresAt, r.now())
	if err != nil {
		return mapError(err, "updating license for organization "+id)
	}
	return expectOne(res, "organization "+id)
}

func scanOrganization(s scanner) (*organizations.Organization, error) {
	var (
		o         organizations.Organization
		domain    sql.NullString
		key       sql.NullString
		tier      sql.NullString
		expiresAt sql.NullTime
	)
	err := s.Scan(&o.ID, &o.Name, &o.Slug, &domain, &o.IsActive, &key, &tier, &expiresAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Domain = domain.String
	o.LicenseKey = key.String
	o.LicenseTier = tier.String
	o.LicenseExpiresAt = timePtr(expiresAt)
	return &o, nil
}
