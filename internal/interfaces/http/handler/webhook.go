package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	integrationapp "github.com/m13/backoffice/internal/application/integration"
	"github.com/m13/backoffice/internal/domain/integration"
)

// WebhookTokenHeader carries the shared secret of marketplace webhooks
const WebhookTokenHeader = "X-Api-Key"

// maxWebhookBody bounds an order event payload
const maxWebhookBody = 1 << 20

// OrderEventHandler applies Zalando order events
type OrderEventHandler interface {
	HandleZalandoOEA(ctx context.Context, token string, payload []byte) (*integration.Order, error)
}

// WebhookHandler receives marketplace callbacks. It is not behind JWTAuth.
type WebhookHandler struct {
	BaseHandler
	events OrderEventHandler
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(events OrderEventHandler) *WebhookHandler {
	return &WebhookHandler{events: events}
}

// ZalandoOEA godoc
// @Summary      Zalando Order Event API callback
// @Tags         webhooks
// @Accept       json
// @Param        X-Api-Key header string true "Shared webhook secret"
// @Router       /webhooks/zalando/oea [post]
func (h *WebhookHandler) ZalandoOEA(c *gin.Context) {
	token := c.GetHeader(WebhookTokenHeader)
	if token == "" {
		token = c.Query("token")
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.BadRequest(c, "Cannot read request body")
		return
	}
	order, err := h.events.HandleZalandoOEA(c.Request.Context(), token, payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, integrationapp.ToOrderResponse(order, false))
}
