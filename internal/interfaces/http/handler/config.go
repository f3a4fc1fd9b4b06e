package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/m13/backoffice/internal/application/catalog"
)

// MarketplaceConfigs manages the cost configurations of OTTO and Zalando
type MarketplaceConfigs interface {
	List(ctx context.Context) ([]catalogapp.ConfigResponse, error)
	Create(ctx context.Context, req catalogapp.CreateConfigRequest) (*catalogapp.ConfigResponse, error)
	Activate(ctx context.Context, id uuid.UUID) (*catalogapp.ConfigResponse, error)
}

// PriceTools manages the z-factor of the price ladder
type PriceTools interface {
	Get(ctx context.Context) (*catalogapp.PriceToolsResponse, error)
	Set(ctx context.Context, req catalogapp.SetPriceToolRequest) (*catalogapp.PriceToolResponse, error)
}

// ConfigHandler serves marketplace cost configs and the price tool
type ConfigHandler struct {
	BaseHandler
	configs MarketplaceConfigs
	tools   PriceTools
}

// NewConfigHandler creates a new ConfigHandler
func NewConfigHandler(configs MarketplaceConfigs, tools PriceTools) *ConfigHandler {
	return &ConfigHandler{configs: configs, tools: tools}
}

// ListConfigs godoc
// @Summary      List marketplace cost configs
// @Tags         configs
// @Router       /marketplace-configs [get]
func (h *ConfigHandler) ListConfigs(c *gin.Context) {
	configs, err := h.configs.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, configs)
}

// CreateConfig godoc
// @Summary      Create a marketplace cost config
// @Description  An active config replaces the active one of its marketplace.
// @Tags         configs
// @Accept       json
// @Param        request body catalogapp.CreateConfigRequest true "Config"
// @Router       /marketplace-configs [post]
func (h *ConfigHandler) CreateConfig(c *gin.Context) {
	var req catalogapp.CreateConfigRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cfg, err := h.configs.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cfg)
}

// ActivateConfig godoc
// @Summary      Make a config the active one of its marketplace
// @Tags         configs
// @Param        id path string true "Config ID"
// @Router       /marketplace-configs/{id}/activate [post]
func (h *ConfigHandler) ActivateConfig(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid config ID")
		return
	}
	cfg, err := h.configs.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}

// GetPriceTool godoc
// @Summary      Show the active z-factor and the history
// @Tags         price-tool
// @Router       /price-tool [get]
func (h *ConfigHandler) GetPriceTool(c *gin.Context) {
	tools, err := h.tools.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tools)
}

// SetPriceTool godoc
// @Summary      Activate a new z-factor
// @Tags         price-tool
// @Accept       json
// @Param        request body catalogapp.SetPriceToolRequest true "Factor"
// @Router       /price-tool [put]
func (h *ConfigHandler) SetPriceTool(c *gin.Context) {
	var req catalogapp.SetPriceToolRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tool, err := h.tools.Set(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tool)
}
