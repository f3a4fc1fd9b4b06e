package logger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLoggedEngine(level zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx, _ := WithRequestID(c.Request.Context(), zap.NewNop(), "req-7")
		c.Request = c.Request.WithContext(ctx)
	})
	r.Use(Recovery(zap.New(core)), GinMiddleware(zap.New(core)))
	return r, logs
}

func TestGinMiddleware(t *testing.T) {
	r, logs := newLoggedEngine(zapcore.DebugLevel)
	r.GET("/api/v1/orders/:marketplace", func(c *gin.Context) {
		L(c.Request.Context()).Info("Listing orders")
		c.Status(http.StatusOK)
	})
	r.POST("/api/v1/sync/:marketplace", func(c *gin.Context) {
		c.Status(http.StatusServiceUnavailable)
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/v1/orders/otto?limit=5", nil),
		httptest.NewRequest(http.MethodPost, "/api/v1/sync/etsy", nil),
		httptest.NewRequest(http.MethodGet, "/health", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.All()
	require.Len(t, entries, 4)

	handlerLog := entries[0]
	assert.Equal(t, "Listing orders", handlerLog.Message)
	assert.Equal(t, "req-7", handlerLog.ContextMap()["request_id"])
	assert.Equal(t, "otto", handlerLog.ContextMap()["marketplace"])

	assert.Equal(t, "HTTP request", entries[1].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "limit=5", entries[1].ContextMap()["query"])

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, int64(503), entries[2].ContextMap()["status"])

	assert.Equal(t, zapcore.DebugLevel, entries[3].Level)
}

func TestGinMiddleware_Warn(t *testing.T) {
	r, logs := newLoggedEngine(zapcore.InfoLevel)
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestRecovery(t *testing.T) {
	r, logs := newLoggedEngine(zapcore.InfoLevel)
	r.GET("/panic", func(*gin.Context) { panic("feed parser exploded") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "ERR_INTERNAL", body.Error.Code)

	panics := logs.FilterMessage("Panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "req-7", panics[0].ContextMap()["request_id"])
	assert.Equal(t, "feed parser exploded", panics[0].ContextMap()["panic"])
}
