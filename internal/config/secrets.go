package config

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	SecretsProviderEnv      = "env"
	SecretsProviderKeyVault = "azure-keyvault"

	LicensePrivateKeySecret = "LICENSE_PRIVATE_KEY"
	LicensePublicKeySecret  = "LICENSE_PUBLIC_KEY"
	SessionPrivateKeySecret = "SESSION_PRIVATE_KEY"
)

type SecretsConfig interface {
	GetSecretsProvider() string
	GetVaultURL() string
}

type Secrets struct {
	file *fileConfig
}

var _ SecretsConfig = Secrets{}

func (s Secrets) GetSecretsProvider() string {
	return strings.ToLower(GetEnv("SECRETS_PROVIDER", orDefault(s.file.Secrets.Provider, SecretsProviderEnv)))
}

func (s Secrets) GetVaultURL() string {
	return GetEnv("AZURE_KEYVAULT_URL", s.file.Secrets.VaultURL)
}

// SecretSource resolves key material by name. A secret that does not exist
// is reported as errors.ErrNotFound.
type SecretSource interface {
	Get(ctx context.Context, name string) (string, error)
}

// NewSecretSource returns the source selected by the secrets provider setting.
func NewSecretSource(cfg SecretsConfig) (SecretSource, error) {
	switch provider := cfg.GetSecretsProvider(); provider {
	case SecretsProviderEnv, "":
		return EnvSecretSource{}, nil
	case SecretsProviderKeyVault:
		return NewKeyVaultSecretSource(cfg.GetVaultURL())
	default:
		return nil, errors.Wrapf(errors.ErrConfiguration, "unknown secrets provider %q", provider)
	}
}

// EnvSecretSource reads secrets from environment variables.
type EnvSecretSource struct{}

func (EnvSecretSource) Get(_ context.Context, name string) (string, error) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return "", errors.Wrapf(errors.ErrNotFound, "secret %s", name)
	}
	return value, nil
}

type secretGetter interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// KeyVaultSecretSource reads secrets from Azure Key Vault. Names are mapped
// from LICENSE_PRIVATE_KEY style to LICENSE-PRIVATE-KEY, since Key Vault does
// not allow underscores.
type KeyVaultSecretSource struct {
	client  secretGetter
	timeout time.Duration
}

func NewKeyVaultSecretSource(vaultURL string) (*KeyVaultSecretSource, error) {
	if vaultURL == "" {
		return nil, errors.Wrapf(errors.ErrConfiguration, "AZURE_KEYVAULT_URL is required for the %s secrets provider", SecretsProviderKeyVault)
	}
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating azure credential: %w", err)
	}
	client, err := azsecrets.NewClient(vaultURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("creating key vault client: %w", err)
	}
	log.Info().Str("vaultUrl", vaultURL).Msg("key vault secret source initialized")
	return newKeyVaultSecretSource(client), nil
}

func newKeyVaultSecretSource(client secretGetter) *KeyVaultSecretSource {
	return &KeyVaultSecretSource{client: client, timeout: 10 * time.Second}
}

func (k *KeyVaultSecretSource) Get(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	secretName := strings.ReplaceAll(name, "_", "-")
	resp, err := k.client.GetSecret(ctx, secretName, "", nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return "", errors.Wrapf(errors.ErrNotFound, "secret %s", secretName)
		}
		return "", fmt.Errorf("getting secret %s: %w", secretName, err)
	}
	if resp.Value == nil || *resp.Value == "" {
		return "", errors.Wrapf(errors.ErrNotFound, "secret %s has no value", secretName)
	}
	return *resp.Value, nil
}
