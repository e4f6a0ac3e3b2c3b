package keys_test

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-control-plane/token/keys"
	"github.com/stretchr/testify/require"
)

func TestKeyPairPEMRoundTrip(t *testing.T) {
	kp, err := keys.GenerateRSAKeyPair("", 2048)
	require.NoError(t, err)
	require.NotEmpty(t, kp.KeyID)

	privPEM, err := kp.ExportPrivateKeyPEM()
	require.NoError(t, err)
	pubPEM, err := kp.ExportPublicKeyPEM()
	require.NoError(t, err)

	t.Run("private only derives public", func(t *testing.T) {
		loaded, err := keys.LoadKeyPairFromPEM("", privPEM, "")
		require.NoError(t, err)
		require.True(t, loaded.CanSign())
		require.Equal(t, kp.KeyID, loaded.KeyID)
		require.True(t, kp.PublicKey.(*rsa.PublicKey).Equal(loaded.PublicKey))
	})

	t.Run("public only is verify-only", func(t *testing.T) {
		loaded, err := keys.LoadKeyPairFromPEM("lic-1", "", pubPEM)
		require.NoError(t, err)
		require.False(t, loaded.CanSign())
		require.Equal(t, "lic-1", loaded.KeyID)
	})

	t.Run("escaped newlines", func(t *testing.T) {
		oneLine := strings.ReplaceAll(privPEM, "\n", `\n`)
		_, err := keys.LoadKeyPairFromPEM("", oneLine, "")
		require.NoError(t, err)
	})

	t.Run("pkcs8 private key", func(t *testing.T) {
		der, err := x509.MarshalPKCS8PrivateKey(kp.PrivateKey)
		require.NoError(t, err)
		pkcs8 := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
		_, err = keys.LoadRSAPrivateKeyFromPEM(pkcs8)
		require.NoError(t, err)
	})

	t.Run("mismatched pair", func(t *testing.T) {
		other, err := keys.GenerateRSAKeyPair("", 2048)
		require.NoError(t, err)
		otherPub, err := other.ExportPublicKeyPEM()
		require.NoError(t, err)
		_, err = keys.LoadKeyPairFromPEM("", privPEM, otherPub)
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := keys.LoadKeyPairFromPEM("", "", "")
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := keys.LoadKeyPairFromPEM("", "not a key", "")
		require.Error(t, err)
	})
}

func TestKeyPairSigner(t *testing.T) {
	kp, err := keys.GenerateRSAKeyPair("kid-1", 2048)
	require.NoError(t, err)
	signer := keys.NewKeyPairSigner(kp)

	signed, err := signer.Sign(jwt.MapClaims{"sub": "user-1"})
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, signer.GetVerificationKey, jwt.WithValidMethods([]string{keys.RS256}))
	require.NoError(t, err)
	require.Equal(t, "kid-1", parsed.Header["kid"])

	jwks, err := signer.GetJWKS()
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.Equal(t, "kid-1", jwks.Keys[0].Kid)

	verifyOnly := keys.NewKeyPairSigner(&keys.KeyPair{KeyID: "kid-1", PublicKey: kp.PublicKey, Algorithm: keys.RS256})
	_, err = verifyOnly.Sign(jwt.MapClaims{"sub": "user-1"})
	require.ErrorIs(t, err, keys.ErrNoSigningKey)

	_, err = keys.NewKeyPairSigner(nil).GetVerificationKey(parsed)
	require.ErrorIs(t, err, keys.ErrNoVerificationKey)
}
