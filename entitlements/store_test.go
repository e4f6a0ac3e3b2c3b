package entitlements_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-control-plane/entitlements"
	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/licensing"
	"github.com/jrsteele09/go-control-plane/organizations"
	orgrepofakes "github.com/jrsteele09/go-control-plane/organizations/repofakes"
	"github.com/jrsteele09/go-control-plane/token/keys"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	now   time.Time
	codec *licensing.Codec
	orgs  *orgrepofakes.FakeOrganizationRepo
	store *entitlements.Store
	ctx   context.Context
}

func setupTestFixture(t *testing.T, orgIDs ...string) *testFixture {
	t.Helper()
	kp, err := keys.GenerateRSAKeyPair("", 2048)
	require.NoError(t, err)

	f := &testFixture{
		now:  time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		orgs: orgrepofakes.NewFakeOrganizationRepo(),
		ctx:  context.Background(),
	}
	f.codec = licensing.NewCodec(kp, licensing.WithNowFunc(func() time.Time { return f.now }))
	f.store, err = entitlements.NewStore(f.orgs, f.codec)
	require.NoError(t, err)

	for _, id := range orgIDs {
		require.NoError(t, f.orgs.Create(f.ctx, &organizations.Organization{ID: id, Name: id, Slug: id, IsActive: true}))
	}
	return f
}

func (f *testFixture) issue(t *testing.T, tier licensing.Tier, org string, days int) string {
	t.Helper()
	token, err := f.codec.Issue(tier, org, days)
	require.NoError(t, err)
	return token
}

func TestNewStoreValidation(t *testing.T) {
	_, err := entitlements.NewStore(nil, licensing.NewCodec(nil))
	require.Error(t, err)
	_, err = entitlements.NewStore(orgrepofakes.NewFakeOrganizationRepo(), nil)
	require.Error(t, err)
}

func TestAcmePremiumScenario(t *testing.T) {
	f := setupTestFixture(t, "acme")

	token := f.issue(t, licensing.TierPremium, "acme", 30)
	payload, err := f.store.Assign(f.ctx, "acme", token)
	require.NoError(t, err)
	require.Equal(t, licensing.TierPremium, payload.Tier)

	ok, err := f.store.HasFeature(f.ctx, "acme", "ssl:wildcard")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.store.HasFeature(f.ctx, "acme", "white-label")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.store.IsValid(f.ctx, "acme")
	require.NoError(t, err)
	require.True(t, ok)

	f.now = f.now.Add(31 * 24 * time.Hour)

	ok, err = f.store.IsValid(f.ctx, "acme")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.store.HasFeature(f.ctx, "acme", "ssl:wildcard")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBackupsS3ByTier(t *testing.T) {
	cases := map[licensing.Tier]bool{
		licensing.TierCommunity:  false,
		licensing.TierPremium:    true,
		licensing.TierEnterprise: true,
	}
	for tier, want := range cases {
		t.Run(string(tier), func(t *testing.T) {
			f := setupTestFixture(t, "acme")
			_, err := f.store.Assign(f.ctx, "acme", f.issue(t, tier, "acme", 30))
			require.NoError(t, err)

			ok, err := f.store.HasFeature(f.ctx, "acme", "backups:s3")
			require.NoError(t, err)
			require.Equal(t, want, ok)
		})
	}
}

func TestAssignInvalidLicenseDoesNotMutate(t *testing.T) {
	f := setupTestFixture(t, "acme")

	valid := f.issue(t, licensing.TierCommunity, "acme", 30)
	_, err := f.store.Assign(f.ctx, "acme", valid)
	require.NoError(t, err)
	require.Equal(t, 1, f.orgs.LicenseWrites)

	t.Run("expired", func(t *testing.T) {
		_, err := f.store.Assign(f.ctx, "acme", f.issue(t, licensing.TierEnterprise, "acme", -1))
		require.ErrorIs(t, err, errors.ErrInvalidLicense)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := f.store.Assign(f.ctx, "acme", "not-a-license")
		require.ErrorIs(t, err, errors.ErrInvalidLicense)
	})

	t.Run("bound to another organization", func(t *testing.T) {
		_, err := f.store.Assign(f.ctx, "acme", f.issue(t, licensing.TierEnterprise, "globex", 30))
		require.ErrorIs(t, err, errors.ErrInvalidLicense)
	})

	require.Equal(t, 1, f.orgs.LicenseWrites)
	org, err := f.orgs.Get(f.ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, valid, org.LicenseKey)
	require.Equal(t, "COMMUNITY", org.LicenseTier)
}

func TestAssignUnboundLicense(t *testing.T) {
	f := setupTestFixture(t, "acme")

	_, err := f.store.Assign(f.ctx, "acme", f.issue(t, licensing.TierEnterprise, "", 30))
	require.NoError(t, err)

	ok, err := f.store.HasFeature(f.ctx, "acme", "white-label")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAssignStoresSnapshot(t *testing.T) {
	f := setupTestFixture(t, "acme")

	_, err := f.store.Assign(f.ctx, "acme", f.issue(t, licensing.TierPremium, "acme", 30))
	require.NoError(t, err)

	org, err := f.orgs.Get(f.ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, "PREMIUM", org.LicenseTier)
	require.NotNil(t, org.LicenseExpiresAt)
	require.True(t, org.LicenseExpiresAt.Equal(f.now.Add(30*24*time.Hour)))
}

func TestNoLicenseIsFalseNotError(t *testing.T) {
	f := setupTestFixture(t, "acme")

	ok, err := f.store.HasFeature(f.ctx, "acme", "sites:create")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.store.IsValid(f.ctx, "acme")
	require.NoError(t, err)
	require.False(t, ok)

	payload, err := f.store.License(f.ctx, "acme")
	require.NoError(t, err)
	require.Nil(t, payload)
}

func TestUnknownOrganization(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.store.HasFeature(f.ctx, "ghost", "sites:create")
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = f.store.IsValid(f.ctx, "ghost")
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = f.store.Assign(f.ctx, "ghost", "token")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestTamperedStoredLicenseReadsFalse(t *testing.T) {
	f := setupTestFixture(t, "acme")

	require.NoError(t, f.orgs.UpdateLicense(f.ctx, "acme", organizations.LicenseUpdate{
		Key:       "eyJhbGciOiJSUzI1NiJ9.eyJ0aWVyIjoiRU5URVJQUklTRSJ9.c2ln",
		Tier:      "ENTERPRISE",
		ExpiresAt: f.now.Add(time.Hour),
	}))

	ok, err := f.store.HasFeature(f.ctx, "acme", "white-label")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMissingVerificationKeyIsHardFailure(t *testing.T) {
	f := setupTestFixture(t, "acme")
	_, err := f.store.Assign(f.ctx, "acme", f.issue(t, licensing.TierPremium, "acme", 30))
	require.NoError(t, err)

	unconfigured, err := entitlements.NewStore(f.orgs, licensing.NewCodec(nil))
	require.NoError(t, err)

	_, err = unconfigured.HasFeature(f.ctx, "acme", "ssl:wildcard")
	require.ErrorIs(t, err, errors.ErrConfiguration)

	_, err = unconfigured.IsValid(f.ctx, "acme")
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestCheckObserver(t *testing.T) {
	kp, err := keys.GenerateRSAKeyPair("", 2048)
	require.NoError(t, err)
	codec := licensing.NewCodec(kp)
	orgs := orgrepofakes.NewFakeOrganizationRepo()
	ctx := context.Background()
	require.NoError(t, orgs.Create(ctx, &organizations.Organization{ID: "acme", Slug: "acme"}))

	var seen []string
	store, err := entitlements.NewStore(orgs, codec, entitlements.WithCheckObserver(func(kind string, granted bool) {
		if granted {
			seen = append(seen, kind+":granted")
		} else {
			seen = append(seen, kind+":denied")
		}
	}))
	require.NoError(t, err)

	_, err = store.HasFeature(ctx, "acme", "sites:create")
	require.NoError(t, err)
	token, err := codec.Issue(licensing.TierCommunity, "acme", 1)
	require.NoError(t, err)
	_, err = store.Assign(ctx, "acme", token)
	require.NoError(t, err)
	_, err = store.IsValid(ctx, "acme")
	require.NoError(t, err)

	require.Equal(t, []string{"feature:denied", "validity:granted"}, seen)
}
