package config

import (
	"context"

	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/token/keys"
	"github.com/rs/zerolog/log"
)

const sessionKeyBits = 2048

// LoadLicenseKeyPair resolves the license signing material. Either half may
// be absent: a deployment holding only the public key can verify but not
// issue. When both are missing nil is returned and license operations fail
// with errors.ErrConfiguration.
func LoadLicenseKeyPair(ctx context.Context, src SecretSource, keyID string) (*keys.KeyPair, error) {
	privatePEM, err := optionalSecret(ctx, src, LicensePrivateKeySecret)
	if err != nil {
		return nil, err
	}
	publicPEM, err := optionalSecret(ctx, src, LicensePublicKeySecret)
	if err != nil {
		return nil, err
	}
	if privatePEM == "" && publicPEM == "" {
		log.Warn().Msg("no license keys configured, licensing is disabled")
		return nil, nil
	}
	kp, err := keys.LoadKeyPairFromPEM(keyID, privatePEM, publicPEM)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "license keys: %v", err)
	}
	if !kp.CanSign() {
		log.Info().Str("kid", kp.KeyID).Msg("license public key only, issuing is disabled")
	}
	return kp, nil
}

// LoadSessionKeyPair resolves the key that signs session credentials. In DEV
// an ephemeral key is generated when none is configured, so credentials do not
// survive a restart.
func LoadSessionKeyPair(ctx context.Context, src SecretSource, dev bool) (*keys.KeyPair, error) {
	privatePEM, err := optionalSecret(ctx, src, SessionPrivateKeySecret)
	if err != nil {
		return nil, err
	}
	if privatePEM == "" {
		if !dev {
			return nil, errors.Wrapf(errors.ErrConfiguration, "%s is required outside DEV", SessionPrivateKeySecret)
		}
		log.Warn().Msg("no session key configured, generating an ephemeral key")
		return keys.GenerateRSAKeyPair("", sessionKeyBits)
	}
	kp, err := keys.LoadKeyPairFromPEM("", privatePEM, "")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "session key: %v", err)
	}
	return kp, nil
}

func optionalSecret(ctx context.Context, src SecretSource, name string) (string, error) {
	value, err := src.Get(ctx, name)
	if errors.Is(err, errors.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}
