// Package handler implements the HTTP endpoints of the back-office API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/m13/backoffice/internal/application/integration"
	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/domain/pricing"
	"github.com/m13/backoffice/internal/domain/report"
	"github.com/m13/backoffice/internal/domain/shared"
	"github.com/m13/backoffice/internal/infrastructure/ecommerce"
	"github.com/m13/backoffice/internal/infrastructure/logger"
	"github.com/m13/backoffice/internal/infrastructure/scheduler"
	"github.com/m13/backoffice/internal/interfaces/http/dto"
	"github.com/m13/backoffice/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDKey)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 response for queued work
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// errorMapping pairs a sentinel with its API code. The first match wins.
type errorMapping struct {
	err  error
	code string
}

var errorMappings = []errorMapping{
	{integration.ErrInvalidMarketplace, dto.ErrCodeUnknownMarketplace},
	{integration.ErrOrderNotFound, dto.ErrCodeNotFound},
	{catalog.ErrConfigNotFound, dto.ErrCodeNotFound},
	{catalog.ErrJobNotFound, dto.ErrCodeNotFound},
	{pricing.ErrPriceToolNotFound, dto.ErrCodeNotFound},
	{report.ErrFileNotFound, dto.ErrCodeNotFound},

	{report.ErrFileAlreadyUploaded, dto.ErrCodeAlreadyExists},
	{scheduler.ErrJobInProgress, dto.ErrCodeConflict},

	{catalog.ErrInvalidConfigMarketplace, dto.ErrCodeInvalidInput},
	{catalog.ErrInvalidCosts, dto.ErrCodeInvalidInput},
	{pricing.ErrInvalidFactor, dto.ErrCodeInvalidInput},
	{report.ErrInvalidFileKind, dto.ErrCodeInvalidInput},
	{report.ErrInvalidFileName, dto.ErrCodeInvalidInput},
	{report.ErrInvalidPeriod, dto.ErrCodeInvalidInput},
	{ecommerce.ErrOEAInvalid, dto.ErrCodeInvalidInput},
	{scheduler.ErrUnknownJobType, dto.ErrCodeInvalidInput},

	{integrationapp.ErrWebhookUnauthorized, dto.ErrCodeUnauthorized},

	{report.ErrExportNotSupported, dto.ErrCodeNotSupported},
	{integration.ErrMarketplaceNotSupported, dto.ErrCodeNotSupported},
	{integration.ErrMarketplaceNotConfigured, dto.ErrCodeNotConfigured},
	{integrationapp.ErrFeedNotConfigured, dto.ErrCodeNotConfigured},
	{report.ErrMissingAccountNumber, dto.ErrCodeNotConfigured},
	{pricing.ErrNoActivePriceTool, dto.ErrCodeNotConfigured},

	{scheduler.ErrJobQueueFull, dto.ErrCodeQueueFull},
	{scheduler.ErrSchedulerNotRunning, dto.ErrCodeSchedulerStopped},

	{integration.ErrMarketplaceRequestFailed, dto.ErrCodeMarketplace},
	{integration.ErrMarketplaceAuthFailed, dto.ErrCodeMarketplace},
	{integration.ErrMarketplaceInvalidResponse, dto.ErrCodeMarketplace},
	{integration.ErrMarketplaceRateLimited, dto.ErrCodeMarketplace},
}

// ErrorCode returns the API error code of err, ErrCodeInternal when unknown
func ErrorCode(err error) string {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return dto.NormalizeErrorCode(domainErr.Code)
	}
	return dto.ErrCodeInternal
}

// HandleError maps err to a status code and writes the error response.
// Internal errors are logged and never echoed to the client.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	code := ErrorCode(err)
	status := dto.GetHTTPStatus(code)
	message := err.Error()
	if status >= http.StatusInternalServerError && code != dto.ErrCodeQueueFull && code != dto.ErrCodeSchedulerStopped {
		logger.L(c.Request.Context()).Error("Request failed", zap.Error(err), zap.String("route", c.FullPath()))
		message = "An unexpected error occurred"
	}
	h.Error(c, status, code, message)
}

// bindQuery binds query parameters and writes the validation response on failure
func (h *BaseHandler) bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindJSON binds the JSON body and writes the validation response on failure
func (h *BaseHandler) bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// marketplaceParam parses the :marketplace path parameter
func (h *BaseHandler) marketplaceParam(c *gin.Context) (integration.Marketplace, bool) {
	m, err := integration.ParseMarketplace(c.Param("marketplace"))
	if err != nil {
		h.HandleError(c, err)
		return "", false
	}
	return m, true
}

// optionalMarketplace parses an optional marketplace query value
func (h *BaseHandler) optionalMarketplace(c *gin.Context, raw string) (integration.Marketplace, bool) {
	if raw == "" {
		return "", true
	}
	m, err := integration.ParseMarketplace(raw)
	if err != nil {
		h.HandleError(c, err)
		return "", false
	}
	return m, true
}

// limitQuery reads ?limit= falling back to def
func limitQuery(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
