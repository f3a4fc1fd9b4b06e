package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/m13/backoffice/internal/domain/shared"
)

// PriceTool stores a markup factor (z-factor). Exactly one is active at a time.
type PriceTool struct {
	shared.BaseEntity
	ZFactor decimal.Decimal `gorm:"type:decimal(3,2);not null;uniqueIndex"`
	Active  bool            `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (PriceTool) TableName() string {
	return "price_tools"
}

// NewPriceTool creates an inactive price tool
func NewPriceTool(zFactor decimal.Decimal) (*PriceTool, error) {
	if !zFactor.IsPositive() {
		return nil, ErrInvalidFactor
	}
	return &PriceTool{
		BaseEntity: shared.NewBaseEntity(),
		ZFactor:    zFactor.Round(2),
	}, nil
}

// Activate marks the tool active
func (p *PriceTool) Activate() {
	p.Active = true
	p.Touch()
}

// PriceToolRepository persists price tools
type PriceToolRepository interface {
	// FindActive returns the active tool or ErrNoActivePriceTool
	FindActive(ctx context.Context) (*PriceTool, error)

	// FindAll lists all tools
	FindAll(ctx context.Context) ([]*PriceTool, error)

	// Activate deactivates every tool and activates (creating if needed) the one with zFactor
	Activate(ctx context.Context, zFactor decimal.Decimal) (*PriceTool, error)
}
