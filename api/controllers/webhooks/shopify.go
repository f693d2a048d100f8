package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/pixobe/shopify-product-designer-dev-sub000/api/responses"
	shopifywebhook "github.com/pixobe/shopify-product-designer-dev-sub000/internal/webhooks/shopify"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
)

const (
	headerTopic      = "X-Shopify-Topic"
	headerShopDomain = "X-Shopify-Shop-Domain"
	headerWebhookID  = "X-Shopify-Webhook-Id"
	headerHmac       = "X-Shopify-Hmac-Sha256"
)

type ShopifyWebhookService interface {
	HandleEvent(ctx context.Context, event shopifywebhook.Event) error
}

// ShopifyWebhook verifies and dispatches Shopify webhook deliveries. Shopify
// retries deliveries that do not receive a 2xx, so handler failures surface
// as errors rather than silent acks.
func ShopifyWebhook(svc ShopifyWebhookService, apiSecret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(headerHmac)
		if !shopifywebhook.VerifySignature(apiSecret, payload, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		event := shopifywebhook.Event{
			Topic:      strings.TrimSpace(r.Header.Get(headerTopic)),
			Shop:       strings.TrimSpace(r.Header.Get(headerShopDomain)),
			DeliveryID: strings.TrimSpace(r.Header.Get(headerWebhookID)),
			Payload:    payload,
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "accepted"})
	}
}
