package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/persistence/models"
)

// GormMarketplaceProductRepository implements integration.MarketplaceProductRepository using GORM
type GormMarketplaceProductRepository struct {
	db *gorm.DB
}

// NewGormMarketplaceProductRepository creates a new GormMarketplaceProductRepository
func NewGormMarketplaceProductRepository(db *gorm.DB) *GormMarketplaceProductRepository {
	return &GormMarketplaceProductRepository{db: db}
}

var _ integration.MarketplaceProductRepository = (*GormMarketplaceProductRepository)(nil)

// FindBySKU returns all mappings of a SKU on a marketplace
func (r *GormMarketplaceProductRepository) FindBySKU(ctx context.Context, m integration.Marketplace, sku string) ([]*integration.MarketplaceProduct, error) {
	var rows []models.MarketplaceProductModel
	err := r.db.WithContext(ctx).
		Where("marketplace = ? AND sku = ?", m, sku).
		Order("warehouse_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMarketplaceProducts(rows), nil
}

// FindAll returns all mappings of a marketplace
func (r *GormMarketplaceProductRepository) FindAll(ctx context.Context, m integration.Marketplace) ([]*integration.MarketplaceProduct, error) {
	var rows []models.MarketplaceProductModel
	err := r.db.WithContext(ctx).
		Where("marketplace = ?", m).
		Order("sku ASC, warehouse_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMarketplaceProducts(rows), nil
}

// Upsert creates or updates mappings by (marketplace, sku, warehouse)
func (r *GormMarketplaceProductRepository) Upsert(ctx context.Context, products []*integration.MarketplaceProduct) error {
	if len(products) == 0 {
		return nil
	}
	// one row per key, the last occurrence wins
	index := make(map[string]int, len(products))
	rows := make([]*models.MarketplaceProductModel, 0, len(products))
	for _, p := range products {
		if i, ok := index[p.Key()]; ok {
			rows[i] = models.MarketplaceProductModelFromDomain(p)
			continue
		}
		index[p.Key()] = len(rows)
		rows = append(rows, models.MarketplaceProductModelFromDomain(p))
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "marketplace"}, {Name: "sku"}, {Name: "warehouse_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"product_id", "variant_id", "quantity", "title", "synced_at", "updated_at"}),
		}).
		CreateInBatches(rows, 100).Error
}

func toMarketplaceProducts(rows []models.MarketplaceProductModel) []*integration.MarketplaceProduct {
	out := make([]*integration.MarketplaceProduct, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}
