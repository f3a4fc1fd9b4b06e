package catalogapp

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/pricing"
)

// CreateConfigRequest represents a request to create a marketplace configuration
type CreateConfigRequest struct {
	Marketplace           string          `json:"marketplace" binding:"required,oneof=OTTO ZALANDO"`
	ShippingCosts         decimal.Decimal `json:"shipping_costs"`
	ReturnCosts           decimal.Decimal `json:"return_costs"`
	ProvisionInPercent    *int            `json:"provision_in_percent" binding:"omitempty,min=0,max=100"`
	VatInPercent          *int            `json:"vat_in_percent" binding:"omitempty,min=0,max=100"`
	GenericCostsInPercent *int            `json:"generic_costs_in_percent" binding:"omitempty,min=0,max=100"`
	// Active defaults to true
	Active *bool `json:"active"`
}

// ConfigResponse represents a marketplace configuration in API responses
type ConfigResponse struct {
	ID                    uuid.UUID       `json:"id"`
	Marketplace           string          `json:"marketplace"`
	ShippingCosts         decimal.Decimal `json:"shipping_costs"`
	ReturnCosts           decimal.Decimal `json:"return_costs"`
	ProvisionInPercent    *int            `json:"provision_in_percent"`
	VatInPercent          int             `json:"vat_in_percent"`
	GenericCostsInPercent int             `json:"generic_costs_in_percent"`
	Active                bool            `json:"active"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// SetPriceToolRequest selects the active z-factor
type SetPriceToolRequest struct {
	ZFactor decimal.Decimal `json:"z_factor"`
}

// PriceToolResponse represents a z-factor in API responses
type PriceToolResponse struct {
	ID      uuid.UUID       `json:"id"`
	ZFactor decimal.Decimal `json:"z_factor"`
	Active  bool            `json:"active"`
}

// PriceToolsResponse is the active factor plus every factor ever used
type PriceToolsResponse struct {
	Active  *PriceToolResponse  `json:"active"`
	Factors []PriceToolResponse `json:"factors"`
}

// JobResponse represents a job record in API responses
type JobResponse struct {
	ID          uuid.UUID  `json:"id"`
	Cmd         string     `json:"cmd"`
	Description string     `json:"description,omitempty"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
	Successful  bool       `json:"successful"`
	Message     string     `json:"message,omitempty"`
	DurationMs  int64      `json:"duration_ms"`
}

// ErrorRecordResponse represents a recorded failure in API responses
type ErrorRecordResponse struct {
	ID          uuid.UUID `json:"id"`
	Marketplace string    `json:"marketplace,omitempty"`
	Context     string    `json:"context"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToConfigResponse converts a marketplace configuration
func ToConfigResponse(c *catalog.MarketplaceConfig) ConfigResponse {
	return ConfigResponse{
		ID:                    c.ID,
		Marketplace:           string(c.Name),
		ShippingCosts:         c.ShippingCosts,
		ReturnCosts:           c.ReturnCosts,
		ProvisionInPercent:    c.ProvisionInPercent,
		VatInPercent:          c.VatInPercent,
		GenericCostsInPercent: c.GenericCostsInPercent,
		Active:                c.Active,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

// ToConfigResponses converts a list of configurations
func ToConfigResponses(configs []*catalog.MarketplaceConfig) []ConfigResponse {
	out := make([]ConfigResponse, 0, len(configs))
	for _, c := range configs {
		out = append(out, ToConfigResponse(c))
	}
	return out
}

// ToPriceToolResponse converts a price tool
func ToPriceToolResponse(p *pricing.PriceTool) PriceToolResponse {
	return PriceToolResponse{ID: p.ID, ZFactor: p.ZFactor, Active: p.Active}
}

// ToJobResponses converts job records
func ToJobResponses(jobs []*catalog.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, JobResponse{
			ID:          j.ID,
			Cmd:         j.Cmd,
			Description: j.Description,
			Start:       j.Start,
			End:         j.End,
			Successful:  j.Successful,
			Message:     j.Message,
			DurationMs:  j.Duration().Milliseconds(),
		})
	}
	return out
}

// ToErrorRecordResponses converts error records
func ToErrorRecordResponses(records []*catalog.ErrorRecord) []ErrorRecordResponse {
	out := make([]ErrorRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ErrorRecordResponse{
			ID:          r.ID,
			Marketplace: r.Marketplace,
			Context:     r.Context,
			Message:     r.Message,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out
}
