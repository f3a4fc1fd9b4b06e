package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/domain/report"
	"github.com/m13/backoffice/internal/domain/shared"
	"github.com/m13/backoffice/internal/infrastructure/scheduler"
	"github.com/m13/backoffice/internal/interfaces/http/dto"
	"github.com/m13/backoffice/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// envelope mirrors dto.Response with raw data for per-test decoding
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func doJSON(t *testing.T, r http.Handler, method, path string, payload any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return doRequest(t, r, method, path, body, "application/json")
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{integration.ErrInvalidMarketplace, dto.ErrCodeUnknownMarketplace},
		{fmt.Errorf("load: %w", integration.ErrOrderNotFound), dto.ErrCodeNotFound},
		{catalog.ErrConfigNotFound, dto.ErrCodeNotFound},
		{report.ErrFileAlreadyUploaded, dto.ErrCodeAlreadyExists},
		{scheduler.ErrJobInProgress, dto.ErrCodeConflict},
		{report.ErrInvalidPeriod, dto.ErrCodeInvalidInput},
		{report.ErrExportNotSupported, dto.ErrCodeNotSupported},
		{integration.ErrMarketplaceNotConfigured, dto.ErrCodeNotConfigured},
		{scheduler.ErrJobQueueFull, dto.ErrCodeQueueFull},
		{fmt.Errorf("otto: %w", integration.ErrMarketplaceRateLimited), dto.ErrCodeMarketplace},
		{shared.NewDomainError("NOT_FOUND", "gone"), dto.ErrCodeNotFound},
		{errors.New("boom"), dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, ErrorCode(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	var h BaseHandler
	r := newEngine()
	r.GET("/missing", func(c *gin.Context) { h.HandleError(c, integration.ErrOrderNotFound) })
	r.GET("/broken", func(c *gin.Context) { h.HandleError(c, errors.New("pq: connection refused")) })
	r.GET("/full", func(c *gin.Context) { h.HandleError(c, scheduler.ErrJobQueueFull) })

	w, env := doJSON(t, r, http.MethodGet, "/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, dto.ErrCodeNotFound, env.Error.Code)
	assert.NotEmpty(t, env.Error.RequestID)

	w, env = doJSON(t, r, http.MethodGet, "/broken", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, env.Error.Message, "pq")

	w, env = doJSON(t, r, http.MethodGet, "/full", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, scheduler.ErrJobQueueFull.Error(), env.Error.Message)
}

func TestLimitQuery(t *testing.T) {
	for raw, want := range map[string]int{"": 10, "abc": 10, "-3": 10, "0": 10, "25": 25} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?limit="+raw, nil)
		assert.Equal(t, want, limitQuery(c, 10), raw)
	}
}

func TestOptionalMarketplace(t *testing.T) {
	var h BaseHandler
	r := newEngine()
	r.GET("/", func(c *gin.Context) {
		m, ok := h.optionalMarketplace(c, c.Query("m"))
		if ok {
			h.Success(c, string(m))
		}
	})

	_, env := doJSON(t, r, http.MethodGet, "/?m=tiktok", nil)
	assert.JSONEq(t, `"TIKTOK"`, string(env.Data))

	_, env = doJSON(t, r, http.MethodGet, "/", nil)
	assert.True(t, env.Success)

	w, env := doJSON(t, r, http.MethodGet, "/?m=amazon", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeUnknownMarketplace, env.Error.Code)
}
