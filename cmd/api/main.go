package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pixobe/shopify-product-designer-dev-sub000/api/routes"
	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/designer"
	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/designer/sweep"
	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/sessions"
	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/settings"
	shopifywebhook "github.com/pixobe/shopify-product-designer-dev-sub000/internal/webhooks/shopify"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/auth/sessiontoken"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/config"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/db"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/metrics"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/migrate"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/pubsub"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/redis"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	adminMetrics := metrics.NewAdminAPIMetrics(registry)

	shopifyClient, err := shopify.NewClient(cfg.Shopify, logg, adminMetrics)
	requireResource(ctx, logg, "shopify client", err)

	verifier, err := sessiontoken.NewVerifier(cfg.Shopify)
	requireResource(ctx, logg, "session token verifier", err)

	sessionService, err := sessions.NewService(sessions.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "session service", err)

	codec, err := designer.NewCodec(cfg.Designer)
	requireResource(ctx, logg, "media codec", err)

	designerGateway, err := designer.NewGateway(shopifyClient, cfg.Designer)
	requireResource(ctx, logg, "designer gateway", err)

	reconciler, err := designer.NewReconciler(designerGateway, codec, logg, cfg.Shopify.RetryAttempts)
	requireResource(ctx, logg, "media reconciler", err)

	reader, err := designer.NewReader(designerGateway, codec, logg, adminMetrics)
	requireResource(ctx, logg, "media reader", err)

	settingsGateway, err := settings.NewGateway(shopifyClient, cfg.Designer)
	requireResource(ctx, logg, "settings gateway", err)

	settingsCache := settings.NewCache(cfg.Designer.SettingsCacheTTL)
	settingsService, err := settings.NewService(settingsGateway, settingsCache, cfg.Designer, logg)
	requireResource(ctx, logg, "settings service", err)

	sweepPublisher, err := sweep.NewPublisher(pubsubClient.SweepPublisher(), logg)
	requireResource(ctx, logg, "sweep publisher", err)

	webhookService, err := shopifywebhook.NewService(shopifywebhook.ServiceParams{
		Store:       redisClient,
		Sessions:    sessionService,
		Sweeps:      sweepPublisher,
		Settings:    settingsCache,
		SettingsKey: cfg.Designer.SettingsKey,
		Logger:      logg,
	})
	requireResource(ctx, logg, "webhook service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Verifier:   verifier,
			Metrics:    registry,
			Sessions:   sessionService,
			Reconciler: reconciler,
			Reader:     reader,
			Uploader:   designerGateway,
			Settings:   settingsService,
			Webhooks:   webhookService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
