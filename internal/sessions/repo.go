package sessions

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/db/models"
)

// Repository exposes shop session persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a sessions repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert stores the offline grant for a shop, replacing any previous token
// and clearing a prior uninstall marker on reinstall.
func (r *Repository) Upsert(ctx context.Context, session *models.ShopSession) error {
	session.UninstalledAt = nil
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "scope", "uninstalled_at", "updated_at"}),
		}).
		Create(session).Error
}

// FindByShop retrieves the session row for a shop domain.
func (r *Repository) FindByShop(ctx context.Context, shop string) (*models.ShopSession, error) {
	var session models.ShopSession
	if err := r.db.WithContext(ctx).Where("shop = ?", shop).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// MarkUninstalled records the uninstall time and drops the stored token.
func (r *Repository) MarkUninstalled(ctx context.Context, shop string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ShopSession{}).
		Where("shop = ?", shop).
		Updates(map[string]any{
			"access_token":   "",
			"uninstalled_at": at,
		}).Error
}
