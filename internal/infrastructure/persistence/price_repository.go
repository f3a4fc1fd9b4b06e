package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/m13/backoffice/internal/domain/catalog"
)

// GormPriceRepository implements catalog.PriceRepository using GORM
type GormPriceRepository struct {
	db *gorm.DB
}

// NewGormPriceRepository creates a new GormPriceRepository
func NewGormPriceRepository(db *gorm.DB) *GormPriceRepository {
	return &GormPriceRepository{db: db}
}

var _ catalog.PriceRepository = (*GormPriceRepository)(nil)

// FindBySKU finds a price by SKU, ignoring case
func (r *GormPriceRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Price, error) {
	var price catalog.Price
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("LOWER(sku) = ?", strings.ToLower(strings.TrimSpace(sku))).
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrPriceNotFound
		}
		return nil, err
	}
	return &price, nil
}

// FindAll lists every price with its category, ordered by SKU
func (r *GormPriceRepository) FindAll(ctx context.Context) ([]*catalog.Price, error) {
	var prices []*catalog.Price
	if err := r.db.WithContext(ctx).Preload("Category").Order("sku ASC").Find(&prices).Error; err != nil {
		return nil, err
	}
	return prices, nil
}

// EnsureSKU creates a price row for an unknown SKU. A known SKU without EAN gets
// the EAN filled in, unless another row already owns it.
func (r *GormPriceRepository) EnsureSKU(ctx context.Context, sku, ean string) (bool, error) {
	sku = strings.TrimSpace(sku)
	ean = strings.TrimSpace(ean)
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing catalog.Price
		err := tx.Where("LOWER(sku) = ?", strings.ToLower(sku)).First(&existing).Error
		switch {
		case err == nil:
			if existing.EAN != nil || ean == "" || eanTaken(tx, ean) {
				return nil
			}
			return tx.Model(&catalog.Price{}).
				Where("sku = ?", existing.SKU).
				Updates(map[string]any{"ean": ean, "updated_at": time.Now()}).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		price, err := catalog.NewPrice(sku)
		if err != nil {
			return err
		}
		if ean != "" && !eanTaken(tx, ean) {
			price.WithEAN(ean)
		}
		if err := tx.Omit("Category").Create(price).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func eanTaken(tx *gorm.DB, ean string) bool {
	var n int64
	tx.Model(&catalog.Price{}).Where("ean = ?", ean).Count(&n)
	return n > 0
}

// Save creates or updates a price
func (r *GormPriceRepository) Save(ctx context.Context, price *catalog.Price) error {
	price.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Omit("Category").Save(price).Error
}
