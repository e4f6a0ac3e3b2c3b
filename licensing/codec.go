package licensing

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/token/keys"
)

const secondsPerDay = 24 * 60 * 60

// MaxValidityDays is the longest validity an operator may request.
const MaxValidityDays = 36500

// CheckValidityDays rejects validity periods outside 1..MaxValidityDays.
// Issue itself accepts any value, so callers taking days from operators or
// configuration check them here first.
func CheckValidityDays(days int) error {
	if days < 1 || days > MaxValidityDays {
		return errors.Wrapf(errors.ErrInvalidInput, "validity must be between 1 and %d days, got %d", MaxValidityDays, days)
	}
	return nil
}

// Payload is the decoded content of a license token.
type Payload struct {
	Tier           Tier      `json:"tier"`
	OrganizationID string    `json:"organizationId,omitempty"`
	Features       []string  `json:"features"`
	IssuedAt       time.Time `json:"issuedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// HasFeature reports whether feature is granted by the payload.
func (p *Payload) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// licenseClaims is the wire form of a Payload. Timestamps are whole seconds
// since the epoch under the keys issuedAt and expiresAt.
type licenseClaims struct {
	Tier           Tier             `json:"tier"`
	OrganizationID string           `json:"organizationId,omitempty"`
	Features       []string         `json:"features"`
	ExpiresAt      *jwt.NumericDate `json:"expiresAt"`
	IssuedAt       *jwt.NumericDate `json:"issuedAt"`
}

var _ jwt.Claims = licenseClaims{}

func (c licenseClaims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c licenseClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c licenseClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c licenseClaims) GetIssuer() (string, error)                   { return "", nil }
func (c licenseClaims) GetSubject() (string, error)                  { return c.OrganizationID, nil }
func (c licenseClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

type CodecOption func(*Codec)

// WithNowFunc overrides the clock used for issuing and verifying.
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// Codec issues and verifies RS256 license tokens.
type Codec struct {
	signer *keys.KeyPairSigner
	now    func() time.Time
}

// NewCodec creates a codec over keyPair. A nil pair, or one without a private
// key, is allowed; the missing operations fail with errors.ErrConfiguration.
func NewCodec(keyPair *keys.KeyPair, opts ...CodecOption) *Codec {
	c := &Codec{
		signer: keys.NewKeyPairSigner(keyPair),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs a license for tier, valid for validityDays from now. A
// non-positive validityDays produces a token that is already expired.
func (c *Codec) Issue(tier Tier, organizationID string, validityDays int) (string, error) {
	if !tier.Valid() {
		return "", errors.Wrapf(errors.ErrInvalidTier, "tier %q", tier)
	}

	issuedAt := c.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(time.Duration(validityDays) * secondsPerDay * time.Second)

	signed, err := c.signer.Sign(licenseClaims{
		Tier:           tier,
		OrganizationID: organizationID,
		Features:       FeaturesFor(tier),
		IssuedAt:       jwt.NewNumericDate(issuedAt),
		ExpiresAt:      jwt.NewNumericDate(expiresAt),
	})
	if errors.Is(err, keys.ErrNoSigningKey) {
		return "", errors.Wrapf(errors.ErrConfiguration, "license signing key: %v", err)
	}
	if err != nil {
		return "", errors.Wrapf(err, "[Codec.Issue] signing license")
	}
	return signed, nil
}

// Verify checks the signature, algorithm, tier and expiry of a license token.
// Every token fault is reported as errors.ErrInvalidLicense.
func (c *Codec) Verify(raw string) (*Payload, error) {
	if !c.signer.CanVerify() {
		return nil, errors.Wrapf(errors.ErrConfiguration, "license verification key: %v", keys.ErrNoVerificationKey)
	}

	var claims licenseClaims
	_, err := jwt.ParseWithClaims(raw, &claims, c.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{keys.RS256}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidLicense, err)
	}
	if !claims.Tier.Valid() {
		return nil, fmt.Errorf("%w: unknown tier %q", errors.ErrInvalidLicense, claims.Tier)
	}

	p := &Payload{
		Tier:           claims.Tier,
		OrganizationID: claims.OrganizationID,
		Features:       claims.Features,
		ExpiresAt:      claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	return p, nil
}

// JWKS publishes the verification key.
func (c *Codec) JWKS() (*keys.JWKS, error) {
	jwks, err := c.signer.GetJWKS()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "license verification key: %v", err)
	}
	return jwks, nil
}
