package models

import (
	"time"

	"github.com/google/uuid"
)

// ShopSession stores the offline access grant for an installed shop.
type ShopSession struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Shop          string     `gorm:"column:shop;not null;uniqueIndex"`
	AccessToken   string     `gorm:"column:access_token;not null"`
	Scope         string     `gorm:"column:scope;not null;default:''"`
	InstalledAt   time.Time  `gorm:"column:installed_at;autoCreateTime"`
	UninstalledAt *time.Time `gorm:"column:uninstalled_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the table aligned with the goose migration.
func (ShopSession) TableName() string {
	return "shop_sessions"
}

// Active reports whether the shop still has the app installed.
func (s ShopSession) Active() bool {
	return s.UninstalledAt == nil && s.AccessToken != ""
}
