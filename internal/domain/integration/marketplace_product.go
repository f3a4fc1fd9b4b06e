package integration

import (
	"strings"
	"time"

	"github.com/m13/backoffice/internal/domain/shared"
)

// MarketplaceProduct maps a shop SKU to a marketplace's product identifiers.
// Etsy listings and TikTok products (one row per SKU and warehouse) are stored this way.
type MarketplaceProduct struct {
	shared.BaseEntity
	// Marketplace owning the listing
	Marketplace Marketplace
	// SKU is the shop article number
	SKU string
	// ProductID is the marketplace product or listing id
	ProductID string
	// VariantID is the marketplace sku/offering id when it differs from the product
	VariantID string
	// WarehouseID is the marketplace warehouse (TikTok)
	WarehouseID string
	// Quantity is the last known marketplace quantity
	Quantity int
	// Title is the marketplace product title
	Title string
	// SyncedAt is when the mapping was last refreshed
	SyncedAt time.Time
}

// NewMarketplaceProduct creates a new mapping
func NewMarketplaceProduct(m Marketplace, sku, productID string) (*MarketplaceProduct, error) {
	if !m.IsValid() {
		return nil, ErrInvalidMarketplace
	}
	if strings.TrimSpace(sku) == "" || strings.TrimSpace(productID) == "" {
		return nil, ErrProductInvalid
	}
	return &MarketplaceProduct{
		BaseEntity:  shared.NewBaseEntity(),
		Marketplace: m,
		SKU:         strings.TrimSpace(sku),
		ProductID:   productID,
		SyncedAt:    time.Now(),
	}, nil
}

// Key returns the natural key (marketplace, sku, warehouse)
func (p *MarketplaceProduct) Key() string {
	return string(p.Marketplace) + "|" + p.SKU + "|" + p.WarehouseID
}
