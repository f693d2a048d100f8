package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/db/models"
)

func setupSessionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS shop_sessions (
  id TEXT PRIMARY KEY,
  shop TEXT NOT NULL UNIQUE,
  access_token TEXT NOT NULL,
  scope TEXT NOT NULL DEFAULT '',
  installed_at DATETIME,
  uninstalled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestUpsertInsertsAndReplacesToken(t *testing.T) {
	db := setupSessionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := &models.ShopSession{
		ID:          uuid.New(),
		Shop:        "demo.myshopify.com",
		AccessToken: "token-1",
		Scope:       "write_products",
	}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &models.ShopSession{
		ID:          uuid.New(),
		Shop:        "demo.myshopify.com",
		AccessToken: "token-2",
		Scope:       "write_products,read_orders",
	}
	require.NoError(t, repo.Upsert(ctx, second))

	found, err := repo.FindByShop(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "token-2", found.AccessToken)
	assert.Equal(t, "write_products,read_orders", found.Scope)
	assert.Equal(t, first.ID, found.ID)
}

func TestUpsertClearsUninstallMarkerOnReinstall(t *testing.T) {
	db := setupSessionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	session := &models.ShopSession{
		ID:          uuid.New(),
		Shop:        "demo.myshopify.com",
		AccessToken: "token-1",
	}
	require.NoError(t, repo.Upsert(ctx, session))
	require.NoError(t, repo.MarkUninstalled(ctx, "demo.myshopify.com", time.Now()))

	marked, err := repo.FindByShop(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	require.NotNil(t, marked.UninstalledAt)
	assert.Empty(t, marked.AccessToken)

	reinstall := &models.ShopSession{
		ID:          uuid.New(),
		Shop:        "demo.myshopify.com",
		AccessToken: "token-3",
	}
	require.NoError(t, repo.Upsert(ctx, reinstall))

	found, err := repo.FindByShop(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Nil(t, found.UninstalledAt)
	assert.Equal(t, "token-3", found.AccessToken)
	assert.True(t, found.Active())
}

func TestFindByShopMissing(t *testing.T) {
	db := setupSessionsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByShop(context.Background(), "ghost.myshopify.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
