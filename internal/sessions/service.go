package sessions

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/db/models"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

type sessionRepository interface {
	Upsert(ctx context.Context, session *models.ShopSession) error
	FindByShop(ctx context.Context, shop string) (*models.ShopSession, error)
	MarkUninstalled(ctx context.Context, shop string, at time.Time) error
}

// Service resolves offline admin API sessions for installed shops.
type Service interface {
	Store(ctx context.Context, shop, accessToken, scope string) error
	SessionFor(ctx context.Context, shop string) (shopify.Session, error)
	Uninstall(ctx context.Context, shop string) error
}

type service struct {
	repo sessionRepository
}

// NewService constructs the session service.
func NewService(repo sessionRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sessions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Store(ctx context.Context, shop, accessToken, scope string) error {
	shop = strings.TrimSpace(strings.ToLower(shop))
	if shop == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop domain required")
	}
	if strings.TrimSpace(accessToken) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access token required")
	}
	return s.repo.Upsert(ctx, &models.ShopSession{
		Shop:        shop,
		AccessToken: accessToken,
		Scope:       scope,
		InstalledAt: time.Now().UTC(),
	})
}

// SessionFor returns an admin API session for the shop, failing when the
// shop never installed the app or has since uninstalled it.
func (s *service) SessionFor(ctx context.Context, shop string) (shopify.Session, error) {
	shop = strings.TrimSpace(strings.ToLower(shop))
	if shop == "" {
		return shopify.Session{}, pkgerrors.New(pkgerrors.CodeValidation, "shop domain required")
	}
	row, err := s.repo.FindByShop(ctx, shop)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shopify.Session{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "shop has not installed the app")
		}
		return shopify.Session{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop session")
	}
	if !row.Active() {
		return shopify.Session{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "shop session is no longer active")
	}
	return shopify.Session{Shop: row.Shop, AccessToken: row.AccessToken}, nil
}

func (s *service) Uninstall(ctx context.Context, shop string) error {
	shop = strings.TrimSpace(strings.ToLower(shop))
	if shop == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop domain required")
	}
	return s.repo.MarkUninstalled(ctx, shop, time.Now().UTC())
}
