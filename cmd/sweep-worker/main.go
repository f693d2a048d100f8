package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/designer"
	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/designer/sweep"
	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/sessions"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/config"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/db"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/pubsub"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "sweep-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "sweep-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	subscription := pubsubClient.SweepSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "sweep subscription", errors.New("subscription not configured"))
	}

	shopifyClient, err := shopify.NewClient(cfg.Shopify, logg, nil)
	requireResource(ctx, logg, "shopify client", err)

	sessionService, err := sessions.NewService(sessions.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "session service", err)

	codec, err := designer.NewCodec(cfg.Designer)
	requireResource(ctx, logg, "media codec", err)

	designerGateway, err := designer.NewGateway(shopifyClient, cfg.Designer)
	requireResource(ctx, logg, "designer gateway", err)

	sweeper, err := sweep.NewSweeper(designerGateway, sessionService, codec, logg)
	requireResource(ctx, logg, "sweeper", err)

	worker, err := sweep.NewWorker(subscription, sweeper, logg)
	requireResource(ctx, logg, "sweep worker", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{"env": cfg.App.Env})
	logg.Info(runCtx, "sweep worker ready")

	if err := worker.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "sweep worker failed", err)
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
