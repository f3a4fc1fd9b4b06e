package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	catalogapp "github.com/m13/backoffice/internal/application/catalog"
)

// ErrorLog reads the recorded marketplace failures
type ErrorLog interface {
	RecentErrors(ctx context.Context, marketplace string, limit int) ([]catalogapp.ErrorRecordResponse, error)
}

// ErrorLogHandler lists failures recorded by imports, syncs and uploads
type ErrorLogHandler struct {
	BaseHandler
	errors ErrorLog
}

// NewErrorLogHandler creates a new ErrorLogHandler
func NewErrorLogHandler(errors ErrorLog) *ErrorLogHandler {
	return &ErrorLogHandler{errors: errors}
}

// List godoc
// @Summary      List recorded marketplace failures
// @Tags         errors
// @Param        marketplace query string false "Marketplace code"
// @Param        limit       query int    false "Maximum rows"
// @Router       /errors [get]
func (h *ErrorLogHandler) List(c *gin.Context) {
	m, ok := h.optionalMarketplace(c, c.Query("marketplace"))
	if !ok {
		return
	}
	records, err := h.errors.RecentErrors(c.Request.Context(), string(m), limitQuery(c, 100))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}
