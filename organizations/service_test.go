package organizations_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/organizations"
	orgrepofakes "github.com/jrsteele09/go-control-plane/organizations/repofakes"
	"github.com/stretchr/testify/require"
)

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := organizations.NewService(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Organizations repo is required")
}

func TestCreateOrganization(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := orgrepofakes.NewFakeOrganizationRepo()
	svc, err := organizations.NewService(repo, organizations.WithNowFunc(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	org, err := svc.Create(ctx, "Acme Corporation", "acme-corp", "https://acme.com")
	require.NoError(t, err)
	require.NotEmpty(t, org.ID)
	require.True(t, org.IsActive)
	require.Equal(t, now, org.CreatedAt)
	require.False(t, org.HasLicense())

	got, err := svc.Get(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, "acme-corp", got.Slug)

	t.Run("duplicate slug", func(t *testing.T) {
		_, err := svc.Create(ctx, "Other", "acme-corp", "")
		require.ErrorIs(t, err, errors.ErrConflict)
	})

	t.Run("invalid slug", func(t *testing.T) {
		for _, slug := range []string{"Acme", "acme corp", "acme_corp", ""} {
			_, err := svc.Create(ctx, "Acme", slug, "")
			require.ErrorIs(t, err, errors.ErrInvalidInput, slug)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := svc.Create(ctx, "  ", "blank", "")
		require.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Get(ctx, "missing")
		require.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestListOrganizations(t *testing.T) {
	repo := orgrepofakes.NewFakeOrganizationRepo()
	svc, err := organizations.NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	for _, slug := range []string{"charlie", "alpha", "bravo"} {
		_, err := svc.Create(ctx, slug, slug, "")
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "alpha", list[0].Slug)
	require.Equal(t, "bravo", list[1].Slug)

	list, err = svc.List(ctx, 5, 2)
	require.NoError(t, err)
	require.Empty(t, list)
}
