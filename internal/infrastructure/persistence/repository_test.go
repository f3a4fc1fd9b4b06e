package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/pricing"
	"github.com/m13/backoffice/internal/infrastructure/persistence/models"
)

// setupTestDB opens an in-memory sqlite database with every table migrated
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	tables := append(models.All(),
		&catalog.Category{}, &catalog.Price{}, &catalog.MarketplaceConfig{},
		&catalog.Job{}, &catalog.ErrorRecord{}, &pricing.PriceTool{},
	)
	require.NoError(t, db.AutoMigrate(tables...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: databases live per connection
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
