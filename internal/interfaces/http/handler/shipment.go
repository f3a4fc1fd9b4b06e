package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	integrationapp "github.com/m13/backoffice/internal/application/integration"
	"github.com/m13/backoffice/internal/domain/integration"
)

// ShipmentUploader routes a shop tracking export to the marketplaces
type ShipmentUploader interface {
	UploadTrackingFile(ctx context.Context, r io.Reader) (*integrationapp.TrackingUploadResult, error)
	ListShipments(ctx context.Context, m integration.Marketplace, limit int) ([]*integration.Shipment, error)
}

// ShipmentHandler handles tracking uploads
type ShipmentHandler struct {
	BaseHandler
	shipments ShipmentUploader
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(shipments ShipmentUploader) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments}
}

// Upload godoc
// @Summary      Upload a shop tracking CSV
// @Description  Every row is routed to its marketplace by the order id marker.
// @Tags         shipments
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Tracking export (latin1, semicolon separated)"
// @Router       /shipments/upload [post]
func (h *ShipmentHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Multipart field 'file' is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.BadRequest(c, "Cannot read uploaded file")
		return
	}
	defer f.Close()

	result, err := h.shipments.UploadTrackingFile(c.Request.Context(), f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List godoc
// @Summary      List tracking uploads
// @Tags         shipments
// @Param        marketplace query string false "Marketplace code"
// @Param        limit       query int    false "Maximum rows"
// @Router       /shipments [get]
func (h *ShipmentHandler) List(c *gin.Context) {
	m, ok := h.optionalMarketplace(c, c.Query("marketplace"))
	if !ok {
		return
	}
	shipments, err := h.shipments.ListShipments(c.Request.Context(), m, limitQuery(c, 100))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, integrationapp.ToShipmentResponses(shipments))
}
