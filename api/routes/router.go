package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pixobe/shopify-product-designer-dev-sub000/api/controllers"
	webhookcontrollers "github.com/pixobe/shopify-product-designer-dev-sub000/api/controllers/webhooks"
	"github.com/pixobe/shopify-product-designer-dev-sub000/api/middleware"
	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/sessions"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/auth/sessiontoken"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/config"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/db"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/redis"
)

// Deps collects everything the route tree depends on.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Verifier *sessiontoken.Verifier
	Metrics  *prometheus.Registry

	Sessions   sessions.Service
	Reconciler controllers.MediaReconciler
	Reader     controllers.MediaReader
	Uploader   controllers.Uploader
	Settings   controllers.SettingsService
	Webhooks   webhookcontrollers.ShopifyWebhookService
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessPingers(deps)))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/shopify", webhookcontrollers.ShopifyWebhook(deps.Webhooks, cfg.Shopify.APISecret, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(deps.Verifier, deps.Sessions, logg),
			middleware.RateLimit(cfg.RateLimit, deps.Redis, logg),
		)

		r.Route("/variants/{variantId}", func(r chi.Router) {
			r.Get("/", controllers.GetVariant(deps.Reader, logg))
			r.Get("/media", controllers.GetVariantMedia(deps.Reader, logg))
			r.Post("/media", controllers.AddVariantMedia(deps.Reconciler, logg))
			r.Delete("/media/{metaobjectId}", controllers.RemoveVariantMedia(deps.Reconciler, logg))
		})
		r.Get("/products/{productId}/media", controllers.GetProductMedia(deps.Reader, logg))
		r.Post("/uploads", controllers.CreateUploads(deps.Uploader, logg))

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.GetSettings(deps.Settings, logg))
			r.Put("/", controllers.SaveSettings(deps.Settings, logg))
		})
	})

	return r
}

func readinessPingers(deps Deps) map[string]controllers.Pinger {
	pingers := map[string]controllers.Pinger{}
	if deps.DB != nil {
		pingers["database"] = deps.DB
	}
	if deps.Redis != nil {
		pingers["redis"] = deps.Redis
	}
	return pingers
}
