package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/m13/backoffice/internal/domain/shared"
)

// Defaults for new marketplace configurations
const (
	DefaultVatPercent          = 19
	DefaultGenericCostsPercent = 19
)

// ConfigMarketplace is the marketplace a cost configuration applies to.
// Only marketplaces with cost reporting are supported.
type ConfigMarketplace string

const (
	ConfigMarketplaceOtto    ConfigMarketplace = "OTTO"
	ConfigMarketplaceZalando ConfigMarketplace = "ZALANDO"
)

// IsValid returns true if the marketplace supports cost configurations
func (m ConfigMarketplace) IsValid() bool {
	return m == ConfigMarketplaceOtto || m == ConfigMarketplaceZalando
}

// MarketplaceConfig holds the cost parameters of a marketplace.
// There is exactly one active configuration per marketplace.
type MarketplaceConfig struct {
	shared.BaseEntity
	Name                  ConfigMarketplace `gorm:"type:varchar(16);not null;index"`
	ShippingCosts         decimal.Decimal   `gorm:"type:decimal(5,2);not null"`
	ReturnCosts           decimal.Decimal   `gorm:"type:decimal(5,2);not null"`
	ProvisionInPercent    *int              // nil when the provision depends on the item price
	VatInPercent          int               `gorm:"not null;default:19"`
	GenericCostsInPercent int               `gorm:"not null;default:19"`
	Active                bool              `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (MarketplaceConfig) TableName() string {
	return "marketplace_configs"
}

// NewMarketplaceConfig creates a new, active configuration
func NewMarketplaceConfig(name ConfigMarketplace, shipping, returns decimal.Decimal) (*MarketplaceConfig, error) {
	if !name.IsValid() {
		return nil, ErrInvalidConfigMarketplace
	}
	if shipping.IsNegative() || returns.IsNegative() {
		return nil, ErrInvalidCosts
	}
	return &MarketplaceConfig{
		BaseEntity:            shared.NewBaseEntity(),
		Name:                  name,
		ShippingCosts:         shipping,
		ReturnCosts:           returns,
		VatInPercent:          DefaultVatPercent,
		GenericCostsInPercent: DefaultGenericCostsPercent,
		Active:                true,
	}, nil
}

// Activate marks the configuration active
func (c *MarketplaceConfig) Activate() {
	c.Active = true
	c.Touch()
}
