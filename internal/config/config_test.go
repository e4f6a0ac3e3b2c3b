package config

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/token/keys"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := New()

	require.Equal(t, ":8080", cfg.GetPort())
	require.True(t, cfg.IsDev())
	require.Equal(t, 10, cfg.GetLoginRateLimit())
	require.Equal(t, time.Minute, cfg.GetLoginRateWindow())
	require.Equal(t, 365, cfg.GetDefaultLicenseDays())
	require.Equal(t, SecretsProviderEnv, cfg.GetSecretsProvider())
	require.Equal(t, "file://migrations", cfg.GetMigrationsSource())
}

func TestLoadFileWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
  env: prod
database:
  url: postgres://cp@db/cp
cors:
  allowed_origins: ["https://panel.example.com"]
security:
  login_rate_limit: 5
  login_rate_window: 30s
  trusted_proxies: ["10.0.0.0/8"]
licensing:
  key_id: lic-2026
  default_days: 30
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("LICENSE_DEFAULT_DAYS", "90")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9100", cfg.GetPort())
	require.False(t, cfg.IsDev())
	require.Equal(t, "postgres://cp@db/cp", cfg.GetDatabaseURL())
	require.Equal(t, "postgres://cp@db/cp?sslmode=disable", cfg.GetDatabaseURLForMigrate())
	require.True(t, cfg.GetAllowedOrigins().IsAllowedOrigin("https://panel.example.com"))
	require.False(t, cfg.GetAllowedOrigins().IsAllowedOrigin("https://evil.example.com"))
	require.Equal(t, 5, cfg.GetLoginRateLimit())
	require.Equal(t, 30*time.Second, cfg.GetLoginRateWindow())
	require.Equal(t, []string{"10.0.0.0/8"}, cfg.GetTrustedProxies())
	require.Equal(t, "lic-2026", cfg.GetLicenseKeyID())
	require.Equal(t, 90, cfg.GetDefaultLicenseDays())
}

func TestTrustedProxiesFromEnv(t *testing.T) {
	require.Empty(t, New().GetTrustedProxies())

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,192.0.2.1")
	require.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, New().GetTrustedProxies())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestNewSecretSource(t *testing.T) {
	src, err := NewSecretSource(New())
	require.NoError(t, err)
	require.IsType(t, EnvSecretSource{}, src)

	t.Setenv("SECRETS_PROVIDER", "vault9000")
	_, err = NewSecretSource(New())
	require.ErrorIs(t, err, errors.ErrConfiguration)

	t.Setenv("SECRETS_PROVIDER", SecretsProviderKeyVault)
	_, err = NewSecretSource(New())
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

type fakeVault struct {
	secrets map[string]string
	asked   []string
}

func (f *fakeVault) GetSecret(_ context.Context, name, _ string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.asked = append(f.asked, name)
	v, ok := f.secrets[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "SecretNotFound"}
	}
	return azsecrets.GetSecretResponse{Secret: azsecrets.Secret{Value: &v}}, nil
}

func TestKeyVaultSecretSource(t *testing.T) {
	vault := &fakeVault{secrets: map[string]string{"LICENSE-PUBLIC-KEY": "pem"}}
	src := newKeyVaultSecretSource(vault)

	v, err := src.Get(context.Background(), LicensePublicKeySecret)
	require.NoError(t, err)
	require.Equal(t, "pem", v)

	_, err = src.Get(context.Background(), LicensePrivateKeySecret)
	require.ErrorIs(t, err, errors.ErrNotFound)
	require.Equal(t, []string{"LICENSE-PUBLIC-KEY", "LICENSE-PRIVATE-KEY"}, vault.asked)
}

type mapSource map[string]string

func (m mapSource) Get(_ context.Context, name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", errors.ErrNotFound
	}
	return v, nil
}

func TestLoadLicenseKeyPair(t *testing.T) {
	kp, err := keys.GenerateRSAKeyPair("lic", 2048)
	require.NoError(t, err)
	privPEM, err := kp.ExportPrivateKeyPEM()
	require.NoError(t, err)
	pubPEM, err := kp.ExportPublicKeyPEM()
	require.NoError(t, err)

	t.Run("none", func(t *testing.T) {
		loaded, err := LoadLicenseKeyPair(context.Background(), mapSource{}, "lic")
		require.NoError(t, err)
		require.Nil(t, loaded)
	})

	t.Run("public only", func(t *testing.T) {
		loaded, err := LoadLicenseKeyPair(context.Background(), mapSource{LicensePublicKeySecret: pubPEM}, "lic")
		require.NoError(t, err)
		require.False(t, loaded.CanSign())
		require.Equal(t, "lic", loaded.KeyID)
	})

	t.Run("both", func(t *testing.T) {
		loaded, err := LoadLicenseKeyPair(context.Background(), mapSource{
			LicensePrivateKeySecret: privPEM,
			LicensePublicKeySecret:  pubPEM,
		}, "lic")
		require.NoError(t, err)
		require.True(t, loaded.CanSign())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := LoadLicenseKeyPair(context.Background(), mapSource{LicensePublicKeySecret: "nope"}, "lic")
		require.ErrorIs(t, err, errors.ErrConfiguration)
	})
}

func TestLoadSessionKeyPair(t *testing.T) {
	kp, err := LoadSessionKeyPair(context.Background(), mapSource{}, true)
	require.NoError(t, err)
	require.True(t, kp.CanSign())

	_, err = LoadSessionKeyPair(context.Background(), mapSource{}, false)
	require.ErrorIs(t, err, errors.ErrConfiguration)
}
