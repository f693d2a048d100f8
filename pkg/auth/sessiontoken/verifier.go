package sessiontoken

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/config"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
)

const defaultLeeway = 10 * time.Second

// Claims are the App Bridge session token claims the backend relies on.
// Dest carries the shop origin the token was minted for.
type Claims struct {
	jwt.RegisteredClaims
	Dest string `json:"dest"`
	Sid  string `json:"sid"`
}

// ShopDomain extracts the myshopify domain from the dest claim.
func (c *Claims) ShopDomain() string {
	dest := strings.TrimSpace(c.Dest)
	dest = strings.TrimPrefix(dest, "https://")
	dest = strings.TrimPrefix(dest, "http://")
	if i := strings.IndexByte(dest, '/'); i >= 0 {
		dest = dest[:i]
	}
	return dest
}

// Verifier validates embedded-app session tokens. Shopify signs them with
// the app's API secret using HS256 and sets the audience to the API key.
type Verifier struct {
	apiKey    string
	apiSecret []byte
	leeway    time.Duration
}

// NewVerifier constructs a verifier from the app credentials.
func NewVerifier(cfg config.ShopifyConfig) (*Verifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.APISecret) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shopify api credentials required")
	}
	return &Verifier{
		apiKey:    cfg.APIKey,
		apiSecret: []byte(cfg.APISecret),
		leeway:    defaultLeeway,
	}, nil
}

// Verify parses and validates a compact session token, returning its claims.
func (v *Verifier) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session token missing")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.apiSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.apiKey),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token")
	}
	if !parsed.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session token")
	}
	if claims.ShopDomain() == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session token missing shop destination")
	}
	return claims, nil
}
