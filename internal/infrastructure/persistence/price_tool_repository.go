package persistence

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/m13/backoffice/internal/domain/pricing"
)

// GormPriceToolRepository implements pricing.PriceToolRepository using GORM
type GormPriceToolRepository struct {
	db *gorm.DB
}

// NewGormPriceToolRepository creates a new GormPriceToolRepository
func NewGormPriceToolRepository(db *gorm.DB) *GormPriceToolRepository {
	return &GormPriceToolRepository{db: db}
}

var _ pricing.PriceToolRepository = (*GormPriceToolRepository)(nil)

// FindActive returns the active tool
func (r *GormPriceToolRepository) FindActive(ctx context.Context) (*pricing.PriceTool, error) {
	var tool pricing.PriceTool
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("updated_at DESC").First(&tool).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pricing.ErrNoActivePriceTool
		}
		return nil, err
	}
	return &tool, nil
}

// FindAll lists all tools by factor
func (r *GormPriceToolRepository) FindAll(ctx context.Context) ([]*pricing.PriceTool, error) {
	var tools []*pricing.PriceTool
	if err := r.db.WithContext(ctx).Order("z_factor ASC").Find(&tools).Error; err != nil {
		return nil, err
	}
	return tools, nil
}

// Activate deactivates every tool and activates the one with zFactor, creating it if needed
func (r *GormPriceToolRepository) Activate(ctx context.Context, zFactor decimal.Decimal) (*pricing.PriceTool, error) {
	candidate, err := pricing.NewPriceTool(zFactor)
	if err != nil {
		return nil, err
	}

	var tool pricing.PriceTool
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&pricing.PriceTool{}).Where("active = ?", true).Update("active", false).Error; err != nil {
			return err
		}
		err := tx.Where("z_factor = ?", candidate.ZFactor).First(&tool).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			tool = *candidate
		case err != nil:
			return err
		}
		tool.Activate()
		return tx.Save(&tool).Error
	})
	if err != nil {
		return nil, err
	}
	return &tool, nil
}
