package sessiontoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/config"
)

const (
	testAPIKey    = "test-api-key"
	testAPISecret = "test-api-secret"
)

func signToken(t *testing.T, secret string, mutate func(*Claims)) string {
	t.Helper()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://demo.myshopify.com/admin",
			Audience:  jwt.ClaimStrings{testAPIKey},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   "12345",
		},
		Dest: "https://demo.myshopify.com",
		Sid:  "session-id",
	}
	if mutate != nil {
		mutate(claims)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func testVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(config.ShopifyConfig{APIKey: testAPIKey, APISecret: testAPISecret})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	t.Parallel()

	v := testVerifier(t)
	claims, err := v.Verify(signToken(t, testAPISecret, nil))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.ShopDomain() != "demo.myshopify.com" {
		t.Fatalf("unexpected shop %q", claims.ShopDomain())
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	v := testVerifier(t)
	if _, err := v.Verify(signToken(t, "other-secret", nil)); err == nil {
		t.Fatalf("expected signature rejection")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	v := testVerifier(t)
	token := signToken(t, testAPISecret, func(c *Claims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	})
	if _, err := v.Verify(token); err == nil {
		t.Fatalf("expected expiry rejection")
	}
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	t.Parallel()

	v := testVerifier(t)
	token := signToken(t, testAPISecret, func(c *Claims) {
		c.Audience = jwt.ClaimStrings{"another-app"}
	})
	if _, err := v.Verify(token); err == nil {
		t.Fatalf("expected audience rejection")
	}
}

func TestVerifyRejectsMissingDest(t *testing.T) {
	t.Parallel()

	v := testVerifier(t)
	token := signToken(t, testAPISecret, func(c *Claims) {
		c.Dest = ""
	})
	if _, err := v.Verify(token); err == nil {
		t.Fatalf("expected missing dest rejection")
	}
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	v := testVerifier(t)
	if _, err := v.Verify("   "); err == nil {
		t.Fatalf("expected empty token rejection")
	}
}
