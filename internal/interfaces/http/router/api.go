package router

import (
	"github.com/m13/backoffice/internal/interfaces/http/handler"
)

// Handlers are the endpoint handlers of the API. A nil handler leaves its area unregistered.
type Handlers struct {
	Health    *handler.HealthHandler
	Orders    *handler.OrderHandler
	Shipments *handler.ShipmentHandler
	Sync      *handler.SyncHandler
	Feeds     *handler.FeedHandler
	Reports   *handler.ReportHandler
	Configs   *handler.ConfigHandler
	Webhooks  *handler.WebhookHandler
	Errors    *handler.ErrorLogHandler
}

// Groups builds the domain groups of every configured handler
func Groups(h Handlers) []RouteRegistrar {
	var groups []RouteRegistrar

	if h.Health != nil {
		groups = append(groups, NewArea("system", "").GET("/health", h.Health.Health))
	}
	if h.Orders != nil {
		groups = append(groups, NewArea("orders", "/orders").
			GET("", h.Orders.List).
			GET("/:id", h.Orders.Get))
	}
	if h.Shipments != nil {
		groups = append(groups, NewArea("shipments", "/shipments").
			GET("", h.Shipments.List).
			POST("/upload", h.Shipments.Upload))
	}
	if h.Sync != nil {
		groups = append(groups,
			NewArea("sync", "/sync").POST("/:marketplace/:kind", h.Sync.Enqueue),
			NewArea("jobs", "/jobs").GET("", h.Sync.ListJobs))
	}
	if h.Feeds != nil {
		groups = append(groups, NewArea("feeds", "/feeds").
			GET("", h.Feeds.List).
			POST("/zalando", h.Feeds.UploadZalando).
			POST("/galeria", h.Feeds.BuildGaleria))
	}
	if h.Reports != nil {
		reports := NewArea("reports", "/reports")
		reports.Sub("zalando", "/zalando").
			GET("/files", h.Reports.ListFiles).
			POST("/files", h.Reports.UploadFile).
			POST("/import", h.Reports.Import)
		reports.GET("/datev/:marketplace", h.Reports.DATEV)
		groups = append(groups, reports,
			NewArea("stats", "/stats").GET("/articles", h.Reports.ArticleStats))
	}
	if h.Configs != nil {
		groups = append(groups,
			NewArea("configs", "/marketplace-configs").
				GET("", h.Configs.ListConfigs).
				POST("", h.Configs.CreateConfig).
				POST("/:id/activate", h.Configs.ActivateConfig),
			NewArea("price-tool", "/price-tool").
				GET("", h.Configs.GetPriceTool).
				PUT("", h.Configs.SetPriceTool))
	}
	if h.Webhooks != nil {
		groups = append(groups, NewArea("webhooks", "/webhooks").POST("/zalando/oea", h.Webhooks.ZalandoOEA))
	}
	if h.Errors != nil {
		groups = append(groups, NewArea("errors", "/errors").GET("", h.Errors.List))
	}
	return groups
}
