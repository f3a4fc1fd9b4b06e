package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/m13/backoffice/internal/application/integration"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/interfaces/http/dto"
)

// OrderReader reads stored marketplace orders
type OrderReader interface {
	ListOrders(ctx context.Context, filter integration.OrderFilter) ([]*integration.Order, int64, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*integration.Order, error)
}

// OrderHandler serves the imported marketplace orders
type OrderHandler struct {
	BaseHandler
	orders OrderReader
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderReader) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// ListOrdersQuery are the filters of GET /orders
type ListOrdersQuery struct {
	dto.ListRequest
	Marketplace    string `form:"marketplace" binding:"omitempty,marketplace"`
	Status         string `form:"status" binding:"omitempty,max=50"`
	InternalStatus string `form:"internal_status" binding:"omitempty,oneof=IMPORTED IN_PROGRESS SHIPPED FINISHED CANCELED"`
	Search         string `form:"search" binding:"omitempty,max=100"`
}

// List godoc
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        marketplace query string false "Marketplace code"
// @Param        status      query string false "Marketplace order status"
// @Param        page        query int    false "Page, starting at 1"
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var q ListOrdersQuery
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()
	m, ok := h.optionalMarketplace(c, q.Marketplace)
	if !ok {
		return
	}

	filter := integration.OrderFilter{
		Marketplace:    m,
		Status:         strings.TrimSpace(q.Status),
		InternalStatus: integration.InternalStatus(q.InternalStatus),
		Search:         strings.TrimSpace(q.Search),
		Page:           q.Page,
		PageSize:       q.PageSize,
	}
	orders, total, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, integrationapp.ToOrderResponses(orders), total, q.Page, q.PageSize)
}

// Get godoc
// @Summary      Get an order with its items
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, integrationapp.ToOrderResponse(order, true))
}
