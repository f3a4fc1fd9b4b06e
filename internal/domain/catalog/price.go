package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Price is the central price record of an article, keyed by SKU.
// Rows are created on the fly when a feed or an order reveals an unknown SKU or EAN.
type Price struct {
	SKU             string           `gorm:"primaryKey;type:varchar(32)"`
	EAN             *string          `gorm:"type:varchar(16);uniqueIndex"`
	CategoryID      *uuid.UUID       `gorm:"type:uuid;index"`
	Category        *Category        `gorm:"foreignKey:CategoryID"`
	CostsProduction *decimal.Decimal `gorm:"type:decimal(6,2)"`
	VkZalando       *decimal.Decimal `gorm:"type:decimal(6,2)"`
	VkOtto          *decimal.Decimal `gorm:"type:decimal(6,2)"`
	VkAboutYou      *decimal.Decimal `gorm:"type:decimal(6,2)"`
	// PimpedZalando pins VkZalando as the Zalando feed price
	PimpedZalando bool `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (Price) TableName() string {
	return "prices"
}

// NewPrice creates a new price record for a SKU
func NewPrice(sku string) (*Price, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, ErrInvalidSKU
	}
	now := time.Now()
	return &Price{SKU: sku, CreatedAt: now, UpdatedAt: now}, nil
}

// WithEAN sets the EAN
func (p *Price) WithEAN(ean string) *Price {
	ean = strings.TrimSpace(ean)
	if ean != "" {
		p.EAN = &ean
	}
	return p
}

// EANValue returns the EAN or an empty string
func (p *Price) EANValue() string {
	if p.EAN == nil {
		return ""
	}
	return *p.EAN
}

// ZalandoOverride returns the pinned Zalando price, if any
func (p *Price) ZalandoOverride() (decimal.Decimal, bool) {
	if p == nil || !p.PimpedZalando || p.VkZalando == nil {
		return decimal.Zero, false
	}
	return *p.VkZalando, true
}

// AboutYouOverride returns the explicit AboutYou price, if any
func (p *Price) AboutYouOverride() (decimal.Decimal, bool) {
	if p == nil || p.VkAboutYou == nil {
		return decimal.Zero, false
	}
	return *p.VkAboutYou, true
}
