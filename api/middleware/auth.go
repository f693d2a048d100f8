package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pixobe/shopify-product-designer-dev-sub000/api/responses"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/auth/sessiontoken"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

type sessionResolver interface {
	SessionFor(ctx context.Context, shop string) (shopify.Session, error)
}

// Auth validates an App Bridge session token and seeds the request context
// with the shop's admin API session.
func Auth(verifier *sessiontoken.Verifier, sessions sessionResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token"))
				return
			}

			shop := claims.ShopDomain()
			if shop == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing shop domain"))
				return
			}

			session, err := sessions.SessionFor(r.Context(), shop)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxSession, session)
			ctx = context.WithValue(ctx, ctxShop, shop)
			if logg != nil {
				ctx = logg.WithShop(ctx, shop)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
