package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/auth/sessiontoken"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/config"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

type stubSessions struct {
	session shopify.Session
	err     error
	shops   []string
}

func (s *stubSessions) SessionFor(_ context.Context, shop string) (shopify.Session, error) {
	s.shops = append(s.shops, shop)
	if s.err != nil {
		return shopify.Session{}, s.err
	}
	return s.session, nil
}

func testVerifier(t *testing.T) *sessiontoken.Verifier {
	t.Helper()
	verifier, err := sessiontoken.NewVerifier(config.ShopifyConfig{APIKey: "app-key", APISecret: "app-secret"})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return verifier
}

func mintSessionToken(t *testing.T, secret string) string {
	t.Helper()
	claims := sessiontoken.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"app-key"},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Dest: "https://demo.myshopify.com",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingToken(t *testing.T) {
	t.Parallel()

	handler := Auth(testVerifier(t), &stubSessions{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	t.Parallel()

	handler := Auth(testVerifier(t), &stubSessions{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintSessionToken(t, "wrong-secret"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsSessionContext(t *testing.T) {
	t.Parallel()

	sessions := &stubSessions{session: shopify.Session{Shop: "demo.myshopify.com", AccessToken: "tok"}}

	var captured struct {
		shop    string
		session shopify.Session
	}
	handler := Auth(testVerifier(t), sessions, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.shop = ShopFromContext(r.Context())
		captured.session = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintSessionToken(t, "app-secret"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.shop != "demo.myshopify.com" {
		t.Fatalf("expected shop in context got %q", captured.shop)
	}
	if captured.session.AccessToken != "tok" {
		t.Fatalf("expected session in context got %+v", captured.session)
	}
	if len(sessions.shops) != 1 || sessions.shops[0] != "demo.myshopify.com" {
		t.Fatalf("unexpected session lookups %v", sessions.shops)
	}
}

func TestAuthRejectsUninstalledShop(t *testing.T) {
	t.Parallel()

	sessions := &stubSessions{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "shop has not installed the app")}
	handler := Auth(testVerifier(t), sessions, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintSessionToken(t, "app-secret"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
