// Package catalogapp manages the marketplace cost configurations, the price
// factor, job records and the catalog exports.
package catalogapp

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/pricing"
)

// ConfigService manages marketplace cost configurations
type ConfigService struct {
	configs catalog.MarketplaceConfigRepository
	logger  *zap.Logger
}

// NewConfigService creates a new ConfigService
func NewConfigService(configs catalog.MarketplaceConfigRepository, logger *zap.Logger) *ConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigService{configs: configs, logger: logger}
}

// List returns every configuration, newest first
func (s *ConfigService) List(ctx context.Context) ([]ConfigResponse, error) {
	configs, err := s.configs.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToConfigResponses(configs), nil
}

// Create stores a new configuration. An active configuration replaces the
// previously active one of the same marketplace.
func (s *ConfigService) Create(ctx context.Context, req CreateConfigRequest) (*ConfigResponse, error) {
	cfg, err := catalog.NewMarketplaceConfig(catalog.ConfigMarketplace(req.Marketplace), req.ShippingCosts, req.ReturnCosts)
	if err != nil {
		return nil, err
	}
	cfg.ProvisionInPercent = req.ProvisionInPercent
	if req.VatInPercent != nil {
		cfg.VatInPercent = *req.VatInPercent
	}
	if req.GenericCostsInPercent != nil {
		cfg.GenericCostsInPercent = *req.GenericCostsInPercent
	}
	if req.Active != nil {
		cfg.Active = *req.Active
	}

	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, err
	}
	s.logger.Info("Marketplace config created",
		zap.String("marketplace", string(cfg.Name)),
		zap.String("config_id", cfg.ID.String()),
		zap.Bool("active", cfg.Active))
	resp := ToConfigResponse(cfg)
	return &resp, nil
}

// Activate makes a stored configuration the active one of its marketplace
func (s *ConfigService) Activate(ctx context.Context, id uuid.UUID) (*ConfigResponse, error) {
	cfg, err := s.configs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg.Activate()
	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, err
	}
	s.logger.Info("Marketplace config activated",
		zap.String("marketplace", string(cfg.Name)),
		zap.String("config_id", cfg.ID.String()))
	resp := ToConfigResponse(cfg)
	return &resp, nil
}

// PriceToolService selects the z-factor used for feed and marketplace prices
type PriceToolService struct {
	tools  pricing.PriceToolRepository
	logger *zap.Logger
}

// NewPriceToolService creates a new PriceToolService
func NewPriceToolService(tools pricing.PriceToolRepository, logger *zap.Logger) *PriceToolService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceToolService{tools: tools, logger: logger}
}

// Get returns the active factor, if any, and every known factor
func (s *PriceToolService) Get(ctx context.Context) (*PriceToolsResponse, error) {
	all, err := s.tools.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	resp := &PriceToolsResponse{Factors: make([]PriceToolResponse, 0, len(all))}
	for _, t := range all {
		r := ToPriceToolResponse(t)
		resp.Factors = append(resp.Factors, r)
		if t.Active {
			resp.Active = &r
		}
	}
	return resp, nil
}

// Set activates the factor, creating it when it is new
func (s *PriceToolService) Set(ctx context.Context, req SetPriceToolRequest) (*PriceToolResponse, error) {
	if !req.ZFactor.IsPositive() {
		return nil, pricing.ErrInvalidFactor
	}
	tool, err := s.tools.Activate(ctx, req.ZFactor.Round(2))
	if err != nil {
		return nil, err
	}
	s.logger.Info("Price factor activated", zap.String("z_factor", tool.ZFactor.StringFixed(2)))
	resp := ToPriceToolResponse(tool)
	return &resp, nil
}
