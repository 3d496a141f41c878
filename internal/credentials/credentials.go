package credentials

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer   = "enablebanking.com"
	audience = "api.enablebanking.com"
	tokenTTL = time.Hour
)

// Provider produces short-lived bearer credentials for the aggregator API,
// signed with the application's RSA private key.
type Provider struct {
	applicationID string
	privateKey    *rsa.PrivateKey
	now           func() time.Time
}

// NewProvider decodes the base64-encoded PEM private key and returns a
// provider bound to the given application identity. It fails if the key
// material is absent or undecodable.
func NewProvider(applicationID, privateKeyBase64 string) (*Provider, error) {
	if privateKeyBase64 == "" {
		return nil, fmt.Errorf("NewProvider: private key is empty")
	}
	pemBytes, err := base64.StdEncoding.DecodeString(privateKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("NewProvider: decoding private key base64: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("NewProvider: parsing RSA private key: %w", err)
	}
	return &Provider{
		applicationID: applicationID,
		privateKey:    key,
		now:           time.Now,
	}, nil
}

// Token signs a fresh bearer credential valid for one hour.
func (p *Provider) Token() (string, error) {
	now := p.now()
	claims := jwt.MapClaims{
		"iss": issuer,
		"aud": audience,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = p.applicationID

	signed, err := tok.SignedString(p.privateKey)
	if err != nil {
		return "", fmt.Errorf("Token: signing: %w", err)
	}
	return signed, nil
}
