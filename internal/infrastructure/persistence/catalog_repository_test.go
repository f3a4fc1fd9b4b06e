package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/pricing"
)

func TestGormPriceRepository_EnsureSKU(t *testing.T) {
	repo := NewGormPriceRepository(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.EnsureSKU(ctx, "Women-Bom-NA-S", "")
	require.NoError(t, err)
	assert.True(t, created)

	t.Run("known sku gets the missing ean", func(t *testing.T) {
		created, err := repo.EnsureSKU(ctx, "women-bom-na-s", "4260000000001")
		require.NoError(t, err)
		assert.False(t, created)

		p, err := repo.FindBySKU(ctx, "WOMEN-BOM-NA-S")
		require.NoError(t, err)
		assert.Equal(t, "Women-Bom-NA-S", p.SKU)
		assert.Equal(t, "4260000000001", p.EANValue())
	})

	t.Run("ean owned by another sku is not duplicated", func(t *testing.T) {
		created, err := repo.EnsureSKU(ctx, "men-bom-na-m", "4260000000001")
		require.NoError(t, err)
		assert.True(t, created)

		p, err := repo.FindBySKU(ctx, "MEN-BOM-NA-M")
		require.NoError(t, err)
		assert.Nil(t, p.EAN)
	})

	_, err = repo.FindBySKU(ctx, "unknown")
	assert.ErrorIs(t, err, catalog.ErrPriceNotFound)
}

func TestGormPriceRepository_SaveWithCategory(t *testing.T) {
	db := setupTestDB(t)
	prices := NewGormPriceRepository(db)
	categories := NewGormCategoryRepository(db)
	ctx := context.Background()

	category, err := catalog.NewCategory("Woman Bomber Jacken", "")
	require.NoError(t, err)
	require.NoError(t, categories.Save(ctx, category))

	price, err := catalog.NewPrice("women-bom-na-s")
	require.NoError(t, err)
	vk := decimal.RequireFromString("69.95")
	costs := decimal.RequireFromString("21.5")
	price.VkZalando = &vk
	price.CostsProduction = &costs
	price.PimpedZalando = true
	price.CategoryID = &category.ID
	require.NoError(t, prices.Save(ctx, price))

	all, err := prices.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].Category)
	assert.Equal(t, "Woman Bomber Jacken", all[0].Category.Name)
	override, ok := all[0].ZalandoOverride()
	assert.True(t, ok)
	assert.True(t, override.Equal(vk))

	byName, err := categories.FindByName(ctx, " Woman Bomber Jacken ")
	require.NoError(t, err)
	assert.Equal(t, category.ID, byName.ID)
	_, err = categories.FindByName(ctx, "Shoes")
	assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)
}

func TestGormMarketplaceConfigRepository_SingleActive(t *testing.T) {
	repo := NewGormMarketplaceConfigRepository(setupTestDB(t))
	ctx := context.Background()

	first, err := catalog.NewMarketplaceConfig(catalog.ConfigMarketplaceZalando, decimal.RequireFromString("3.55"), decimal.RequireFromString("3.55"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	otto, err := catalog.NewMarketplaceConfig(catalog.ConfigMarketplaceOtto, decimal.RequireFromString("4.10"), decimal.RequireFromString("4.10"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, otto))

	second, err := catalog.NewMarketplaceConfig(catalog.ConfigMarketplaceZalando, decimal.RequireFromString("3.95"), decimal.RequireFromString("3.95"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, second))

	active, err := repo.FindActive(ctx, catalog.ConfigMarketplaceZalando)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	reloaded, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Active)

	stillActive, err := repo.FindActive(ctx, catalog.ConfigMarketplaceOtto)
	require.NoError(t, err)
	assert.Equal(t, otto.ID, stillActive.ID, "other marketplaces are untouched")

	reloaded.Activate()
	require.NoError(t, repo.Save(ctx, reloaded))
	active, err = repo.FindActive(ctx, catalog.ConfigMarketplaceZalando)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, catalog.ErrConfigNotFound)
}

func TestGormJobRepository(t *testing.T) {
	repo := NewGormJobRepository(setupTestDB(t))
	ctx := context.Background()

	old := catalog.StartJob("stock sync", "")
	old.Start = time.Now().AddDate(0, 0, -45)
	old.Finish(nil)
	require.NoError(t, repo.Save(ctx, old))

	recent := catalog.StartJob("orders sync OTTO", "import orders")
	require.NoError(t, repo.Save(ctx, recent))
	recent.Finish(assert.AnError)
	require.NoError(t, repo.Save(ctx, recent))

	jobs, err := repo.FindRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, recent.ID, jobs[0].ID)
	assert.False(t, jobs[0].Successful)
	assert.NotNil(t, jobs[0].End)

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-catalog.DefaultJobRetention))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	jobs, err = repo.FindRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestGormErrorRecordRepository(t *testing.T) {
	repo := NewGormErrorRecordRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, catalog.NewErrorRecord("OTTO", "orders sync", assert.AnError)))
	require.NoError(t, repo.Save(ctx, catalog.NewErrorRecord("ETSY", "stock sync", assert.AnError)))

	otto, err := repo.FindRecent(ctx, "OTTO", 10)
	require.NoError(t, err)
	require.Len(t, otto, 1)
	assert.Equal(t, "orders sync", otto[0].Context)

	all, err := repo.FindRecent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGormPriceToolRepository_Activate(t *testing.T) {
	repo := NewGormPriceToolRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.FindActive(ctx)
	assert.ErrorIs(t, err, pricing.ErrNoActivePriceTool)

	first, err := repo.Activate(ctx, decimal.RequireFromString("1.2"))
	require.NoError(t, err)
	assert.True(t, first.Active)

	_, err = repo.Activate(ctx, decimal.RequireFromString("1.35"))
	require.NoError(t, err)

	again, err := repo.Activate(ctx, decimal.RequireFromString("1.20"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "a known factor is reused")

	active, err := repo.FindActive(ctx)
	require.NoError(t, err)
	assert.True(t, active.ZFactor.Equal(decimal.RequireFromString("1.2")))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	activeCount := 0
	for _, tool := range all {
		if tool.Active {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)

	_, err = repo.Activate(ctx, decimal.Zero)
	assert.ErrorIs(t, err, pricing.ErrInvalidFactor)
}
