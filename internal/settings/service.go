package settings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/config"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

type settingsGateway interface {
	ShopSettings(ctx context.Context, session shopify.Session) (json.RawMessage, error)
	SetShopSettings(ctx context.Context, session shopify.Session, value json.RawMessage) error
}

// Service serves the per-shop app settings blob, read-through cached with a
// TTL and invalidated after every successful write.
type Service struct {
	gateway settingsGateway
	cache   *Cache
	key     string
	ttl     time.Duration
	logger  *logger.Logger
}

// NewService constructs the settings service.
func NewService(gateway settingsGateway, cache *Cache, cfg config.DesignerConfig, logg *logger.Logger) (*Service, error) {
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settings gateway required")
	}
	if cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settings cache required")
	}
	ttl := cfg.SettingsCacheTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		gateway: gateway,
		cache:   cache,
		key:     cfg.SettingsKey,
		ttl:     ttl,
		logger:  logg,
	}, nil
}

// Get returns the shop's settings JSON, nil when none have been saved yet.
// A cache miss falls through to the admin API; a cached absent value is not
// distinguishable from a miss, so empty reads are never cached.
func (s *Service) Get(ctx context.Context, session shopify.Session) (json.RawMessage, error) {
	if value, ok := s.cache.Read(session.Shop, s.key); ok {
		return value, nil
	}
	value, err := s.gateway.ShopSettings(ctx, session)
	if err != nil {
		return nil, err
	}
	if value != nil {
		s.cache.Write(session.Shop, s.key, value, s.ttl)
	}
	return value, nil
}

// Save writes the settings through to the shop metafield and drops the
// cached copy so the next read observes the new value.
func (s *Service) Save(ctx context.Context, session shopify.Session, value json.RawMessage) error {
	if len(value) == 0 || !json.Valid(value) {
		return pkgerrors.New(pkgerrors.CodeValidation, "settings payload must be valid JSON")
	}
	if err := s.gateway.SetShopSettings(ctx, session, value); err != nil {
		return err
	}
	s.cache.Invalidate(session.Shop, s.key)
	return nil
}
