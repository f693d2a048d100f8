package middleware

import (
	"context"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

type contextKey string

const (
	ctxSession contextKey = "shopify_session"
	ctxShop    contextKey = "shop_domain"
)

// SessionFromContext returns the admin API session seeded by the Auth
// middleware, or a zero session when the request was not authenticated.
func SessionFromContext(ctx context.Context) shopify.Session {
	if session, ok := ctx.Value(ctxSession).(shopify.Session); ok {
		return session
	}
	return shopify.Session{}
}

// ShopFromContext returns the authenticated shop domain, if any.
func ShopFromContext(ctx context.Context) string {
	if shop, ok := ctx.Value(ctxShop).(string); ok {
		return shop
	}
	return ""
}
