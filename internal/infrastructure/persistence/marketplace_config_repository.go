package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/m13/backoffice/internal/domain/catalog"
)

// GormMarketplaceConfigRepository implements catalog.MarketplaceConfigRepository using GORM
type GormMarketplaceConfigRepository struct {
	db *gorm.DB
}

// NewGormMarketplaceConfigRepository creates a new GormMarketplaceConfigRepository
func NewGormMarketplaceConfigRepository(db *gorm.DB) *GormMarketplaceConfigRepository {
	return &GormMarketplaceConfigRepository{db: db}
}

var _ catalog.MarketplaceConfigRepository = (*GormMarketplaceConfigRepository)(nil)

// FindActive returns the active configuration of a marketplace
func (r *GormMarketplaceConfigRepository) FindActive(ctx context.Context, name catalog.ConfigMarketplace) (*catalog.MarketplaceConfig, error) {
	var cfg catalog.MarketplaceConfig
	err := r.db.WithContext(ctx).
		Where("name = ? AND active = ?", name, true).
		Order("updated_at DESC").
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

// FindAll lists every configuration, newest first
func (r *GormMarketplaceConfigRepository) FindAll(ctx context.Context) ([]*catalog.MarketplaceConfig, error) {
	var cfgs []*catalog.MarketplaceConfig
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&cfgs).Error; err != nil {
		return nil, err
	}
	return cfgs, nil
}

// FindByID finds a configuration
func (r *GormMarketplaceConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.MarketplaceConfig, error) {
	var cfg catalog.MarketplaceConfig
	if err := r.db.WithContext(ctx).First(&cfg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

// Save stores the configuration. An active configuration deactivates all
// other configurations of the same marketplace in the same transaction.
func (r *GormMarketplaceConfigRepository) Save(ctx context.Context, cfg *catalog.MarketplaceConfig) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cfg.Active {
			err := tx.Model(&catalog.MarketplaceConfig{}).
				Where("name = ? AND id <> ? AND active = ?", cfg.Name, cfg.ID, true).
				Update("active", false).Error
			if err != nil {
				return err
			}
		}
		return tx.Save(cfg).Error
	})
}
