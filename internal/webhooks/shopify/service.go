package shopifywebhook

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/designer/sweep"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

const (
	// TopicAppUninstalled fires when a merchant removes the app.
	TopicAppUninstalled = "app/uninstalled"
	// TopicProductsDelete fires when a product is deleted.
	TopicProductsDelete = "products/delete"

	dedupTTL = 48 * time.Hour
)

type dedupStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	WebhookKey(shop, deliveryID string) string
}

type uninstaller interface {
	Uninstall(ctx context.Context, shop string) error
}

type sweepEnqueuer interface {
	Enqueue(ctx context.Context, job sweep.Job) error
}

type settingsCache interface {
	Invalidate(shop, key string)
}

// Event is one verified webhook delivery.
type Event struct {
	Topic      string
	Shop       string
	DeliveryID string
	Payload    []byte
}

// Service dispatches verified Shopify webhook deliveries. Each delivery id is
// recorded in Redis so redelivered webhooks are acknowledged without rerunning
// their side effects.
type Service struct {
	store       dedupStore
	sessions    uninstaller
	sweeps      sweepEnqueuer
	settings    settingsCache
	settingsKey string
	logg        *logger.Logger
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Store       dedupStore
	Sessions    uninstaller
	Sweeps      sweepEnqueuer
	Settings    settingsCache
	SettingsKey string
	Logger      *logger.Logger
}

// NewService constructs the webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "dedup store required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sessions service required")
	}
	if params.Sweeps == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sweep enqueuer required")
	}
	return &Service{
		store:       params.Store,
		sessions:    params.Sessions,
		sweeps:      params.Sweeps,
		settings:    params.Settings,
		settingsKey: params.SettingsKey,
		logg:        params.Logger,
	}, nil
}

// HandleEvent processes one delivery. Unknown topics are acknowledged and
// ignored.
func (s *Service) HandleEvent(ctx context.Context, event Event) error {
	if strings.TrimSpace(event.Shop) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook shop header missing")
	}

	if event.DeliveryID != "" {
		fresh, err := s.store.SetNX(ctx, s.store.WebhookKey(event.Shop, event.DeliveryID), "1", dedupTTL)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook dedup check")
		}
		if !fresh {
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{"shop": event.Shop, "delivery_id": event.DeliveryID})
				s.logg.Info(logCtx, "duplicate webhook delivery skipped")
			}
			return nil
		}
	}

	switch strings.ToLower(strings.TrimSpace(event.Topic)) {
	case TopicAppUninstalled:
		return s.handleUninstalled(ctx, event)
	case TopicProductsDelete:
		return s.handleProductDeleted(ctx, event)
	default:
		return nil
	}
}

func (s *Service) handleUninstalled(ctx context.Context, event Event) error {
	if err := s.sessions.Uninstall(ctx, event.Shop); err != nil {
		return err
	}
	if s.settings != nil {
		s.settings.Invalidate(event.Shop, s.settingsKey)
	}
	if s.logg != nil {
		logCtx := s.logg.WithShop(ctx, event.Shop)
		s.logg.Info(logCtx, "shop uninstalled, session revoked")
	}
	return nil
}

func (s *Service) handleProductDeleted(ctx context.Context, event Event) error {
	var payload struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode products/delete payload")
	}
	productID := shopify.NormalizeID(shopify.KindProduct, payload.ID)

	return s.sweeps.Enqueue(ctx, sweep.Job{
		Shop:      event.Shop,
		ProductID: productID,
		Reason:    TopicProductsDelete,
	})
}
