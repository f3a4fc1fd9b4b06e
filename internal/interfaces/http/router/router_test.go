package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m13/backoffice/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.Base())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	group := NewArea("test", "/test").
		GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") }).
		PUT("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	NewRouter(engine).Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodPut, "/api/v1/test/ping").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/test/ping").Code)
}

func TestArea_MiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	var calls []string
	group := NewArea("reports", "/reports").Use(func(c *gin.Context) {
		calls = append(calls, c.FullPath())
		c.Next()
	})
	group.Sub("zalando", "/zalando").POST("/import", func(c *gin.Context) { c.Status(http.StatusOK) })
	group.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })

	routes := NewRouter(engine).Register(group).Setup()
	assert.Equal(t, []Route{
		{Area: "reports", Method: http.MethodGet, Path: "/api/v1/reports"},
		{Area: "reports.zalando", Method: http.MethodPost, Path: "/api/v1/reports/zalando/import"},
	}, routes)

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/api/v1/reports/zalando/import").Code)
	assert.Equal(t, []string{"/api/v1/reports/zalando/import"}, calls)
}

func TestSetup_ListMatchesEngine(t *testing.T) {
	engine := gin.New()
	routes := NewRouter(engine, WithAPIVersion("v2")).Register(Groups(Handlers{
		Sync:    handler.NewSyncHandler(nil, nil),
		Configs: handler.NewConfigHandler(nil, nil),
	})...).Setup()

	listed := map[string]bool{}
	for _, r := range routes {
		listed[r.Method+" "+r.Path] = true
	}
	mounted := map[string]bool{}
	for _, r := range engine.Routes() {
		mounted[r.Method+" "+r.Path] = true
	}
	assert.Equal(t, mounted, listed)
	assert.True(t, listed["POST /api/v2/marketplace-configs/:id/activate"])
}

func TestGroups(t *testing.T) {
	assert.Empty(t, Groups(Handlers{}))

	engine := gin.New()
	health := handler.NewHealthHandler("test", map[string]handler.HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	NewRouter(engine).Register(Groups(Handlers{
		Health:   health,
		Sync:     handler.NewSyncHandler(nil, nil),
		Feeds:    handler.NewFeedHandler(nil, nil),
		Reports:  handler.NewReportHandler(nil, nil, nil),
		Configs:  handler.NewConfigHandler(nil, nil),
		Webhooks: handler.NewWebhookHandler(nil),
	})...).Setup()

	routes := map[string]bool{}
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /api/v1/health",
		"POST /api/v1/sync/:marketplace/:kind",
		"GET /api/v1/jobs",
		"POST /api/v1/feeds/zalando",
		"POST /api/v1/feeds/galeria",
		"POST /api/v1/reports/zalando/files",
		"POST /api/v1/reports/zalando/import",
		"GET /api/v1/reports/datev/:marketplace",
		"GET /api/v1/stats/articles",
		"POST /api/v1/marketplace-configs/:id/activate",
		"PUT /api/v1/price-tool",
		"POST /api/v1/webhooks/zalando/oea",
	} {
		assert.True(t, routes[want], want)
	}
	assert.False(t, routes["GET /api/v1/orders"])

	w := serve(engine, http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusOK, w.Code)
}
