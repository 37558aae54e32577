package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TokenTTL bounds the blast radius of a leaked token: downstream services
// re-derive a token through the gateway once it expires rather than
// caching it past this window.
const TokenTTL = time.Hour

// Issuer converts a verified user id into a signed, time-boxed bearer
// token that downstream services verify offline via the published JWKS.
// Tokens are derived and stateless; nothing is persisted.
type Issuer struct {
	signer   *KeyPairSigner
	issuer   string // this service's base URL
	audience string // downstream service identifier
	ttl      time.Duration
	nowTime  func() time.Time // nowTime function (injectable for testing)
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

func NewIssuer(signer *KeyPairSigner, issuerURL, audience string, options ...IssuerOption) (*Issuer, error) {
	if signer == nil {
		return nil, errors.New("[NewIssuer] signer is required")
	}
	if issuerURL == "" {
		return nil, errors.New("[NewIssuer] issuer URL is required")
	}
	if audience == "" {
		return nil, errors.New("[NewIssuer] audience is required")
	}

	iss := &Issuer{
		signer:   signer,
		issuer:   issuerURL,
		audience: audience,
		ttl:      TokenTTL,
		nowTime:  time.Now,
	}

	for _, opt := range options {
		opt(iss)
	}

	return iss, nil
}

// Issue signs a bearer token asserting the given user as subject.
func (i *Issuer) Issue(userID string) (string, error) {
	now := i.nowTime()
	claims := jwtlib.MapClaims{
		"sub": userID,
		"iss": i.issuer,
		"aud": i.audience,
		"iat": now.Unix(),
		"exp": now.Add(i.ttl).Unix(),
		"jti": uuid.New().String(),
	}

	signedToken, err := i.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.Issue] signer.Sign")
	}
	return signedToken, nil
}

// JWKS returns the public verification key set for publication at the
// well-known discovery endpoint.
func (i *Issuer) JWKS() (*JWKS, error) {
	return i.signer.GetJWKS()
}
