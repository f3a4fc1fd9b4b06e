// Package bootstrap wires configuration, storage, marketplace adapters and
// application services into one container shared by the server and m13ctl.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	catalogapp "github.com/m13/backoffice/internal/application/catalog"
	integrationapp "github.com/m13/backoffice/internal/application/integration"
	reportapp "github.com/m13/backoffice/internal/application/report"
	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/shared"
	"github.com/m13/backoffice/internal/infrastructure/cache"
	"github.com/m13/backoffice/internal/infrastructure/config"
	"github.com/m13/backoffice/internal/infrastructure/ecommerce"
	"github.com/m13/backoffice/internal/infrastructure/feed"
	"github.com/m13/backoffice/internal/infrastructure/logger"
	"github.com/m13/backoffice/internal/infrastructure/persistence"
	"github.com/m13/backoffice/internal/infrastructure/storage"
	"github.com/m13/backoffice/internal/infrastructure/telemetry"
	"github.com/m13/backoffice/internal/interfaces/jobs"
)

// Container holds every long-lived dependency of a process
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	DB         *persistence.Database
	TokenCache cache.TokenCache
	Store      shared.FileStore
	Metrics    *telemetry.MarketplaceMetrics

	Registry *ecommerce.Registry
	Galaxus  *ecommerce.GalaxusAdapter

	Orders    *integrationapp.OrderService
	Shipments *integrationapp.ShipmentService
	Sync      *integrationapp.SyncService
	Feeds     *integrationapp.FeedService
	Webhooks  *integrationapp.WebhookService

	Files *reportapp.TransactionFileService
	DATEV *reportapp.DATEVService
	Stats *reportapp.StatsService

	Configs    *catalogapp.ConfigService
	PriceTools *catalogapp.PriceToolService
	Jobs       *catalogapp.JobService
	Exports    *catalogapp.ExportService
	JobRepo    catalog.JobRepository

	closers []func() error
}

// New connects to the database, the token cache and the file store and builds
// the services. meter may be nil when metrics are disabled.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, meter metric.Meter) (c *Container, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	c = &Container{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	c.DB, err = persistence.Open(ctx, &cfg.Database, persistence.Options{
		Logger:        log.Named("gorm"),
		LogLevel:      logger.MapGormLogLevel(cfg.Log.Level),
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	})
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, c.DB.Close)

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
		}, log)
		if err = plugin.Register(c.DB.DB); err != nil {
			return nil, fmt.Errorf("register db tracing: %w", err)
		}
	}

	if meter != nil {
		if c.Metrics, err = telemetry.NewMarketplaceMetrics(meter); err != nil {
			return nil, err
		}
		sqlDB, err := c.DB.SQL()
		if err != nil {
			return nil, err
		}
		reg, err := telemetry.RegisterPoolMetrics(meter, sqlDB)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, reg.Unregister)
	}

	c.TokenCache, err = cache.NewTokenCacheFactory(cfg.Redis, cache.WithLogger(log)).Create(ctx)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, c.TokenCache.Close)

	if c.Store, err = storage.New(ctx, &cfg.Storage, log.Named("storage")); err != nil {
		return nil, err
	}

	if err = c.build(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) build() error {
	cfg, log, db := c.Config, c.Logger, c.DB.DB

	orders := persistence.NewGormOrderRepository(db)
	prices := persistence.NewGormPriceRepository(db)
	priceTools := persistence.NewGormPriceToolRepository(db)
	configs := persistence.NewGormMarketplaceConfigRepository(db)
	categories := persistence.NewGormCategoryRepository(db)
	errorRecords := persistence.NewGormErrorRecordRepository(db)
	c.JobRepo = persistence.NewGormJobRepository(db)

	sqlxDB, err := c.DB.SQLX("postgres")
	if err != nil {
		return err
	}

	adapters, err := c.buildAdapters(db)
	if err != nil {
		return err
	}
	c.Registry = adapters.registry

	var recorder integrationapp.SyncRecorder
	if c.Metrics != nil {
		recorder = c.Metrics
	}
	downloader := feed.NewDownloader(cfg.Feed.DownloadTimeout, log.Named("feed"))

	c.Orders = integrationapp.NewOrderService(c.Registry, orders, prices, errorRecords, recorder, log.Named("orders"))
	c.Shipments = integrationapp.NewShipmentService(c.Registry, orders,
		persistence.NewGormShipmentRepository(db), errorRecords, log.Named("shipments"))
	c.Sync = integrationapp.NewSyncService(c.Registry, downloader, integrationapp.SyncConfigFrom(cfg.Feed),
		prices, priceTools, errorRecords, recorder, log.Named("sync"), adapters.refreshers...)

	var zalandoFeed integrationapp.ZalandoFeedClient
	webhookToken := cfg.Zalando.WebhookToken
	if adapters.zalando != nil {
		zalandoFeed = adapters.zalando
		webhookToken = adapters.zalando.WebhookToken()
	}
	c.Feeds = integrationapp.NewFeedService(downloader, zalandoFeed, c.Store,
		persistence.NewGormFeedUploadRepository(db), prices, priceTools,
		integrationapp.FeedServiceConfig{
			ShopFeedURL:    cfg.Feed.ShopFeedURL,
			GaleriaFeedURL: galeriaURL(cfg.Galeria),
			Blacklist:      cfg.Feed.Blacklist,
		}, errorRecords, log.Named("feeds"))
	c.Webhooks = integrationapp.NewWebhookService(c.Orders, persistence.NewGormWebhookMessageRepository(db),
		webhookToken, errorRecords, log.Named("webhooks"))

	sales := persistence.NewGormSalesLineRepository(db)
	c.Files = reportapp.NewTransactionFileService(persistence.NewGormTransactionFileRepository(db),
		persistence.NewGormDailyShipmentRepository(db), sales, prices, configs, c.Store, log.Named("reports"))
	c.DATEV = reportapp.NewDATEVService(orders, sales, cfg.Accounting, cfg.App.Location(), log.Named("datev"))
	c.Stats = reportapp.NewStatsService(persistence.NewSQLXArticleSalesReader(sqlxDB), configs, log.Named("stats"))

	c.Configs = catalogapp.NewConfigService(configs, log.Named("configs"))
	c.PriceTools = catalogapp.NewPriceToolService(priceTools, log.Named("price-tool"))
	c.Jobs = catalogapp.NewJobService(c.JobRepo, errorRecords, log.Named("jobs"))
	c.Exports = catalogapp.NewExportService(prices, categories, log.Named("export"))

	log.Info("Services ready", zap.Strings("marketplaces", marketplaceNames(c.Registry)))
	return nil
}

// JobHandlers returns the scheduler handlers backed by the container services
func (c *Container) JobHandlers() *jobs.Handlers {
	return &jobs.Handlers{
		Orders:  c.Orders,
		Sync:    c.Sync,
		Feeds:   c.Feeds,
		Reports: c.Files,
		Logger:  c.Logger.Named("jobs"),
	}
}

// Close releases the connections in reverse order of creation
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func galeriaURL(cfg config.GaleriaConfig) string {
	if !cfg.Enabled {
		return ""
	}
	return cfg.FeedURL
}

func marketplaceNames(r *ecommerce.Registry) []string {
	enabled := r.Enabled()
	out := make([]string, len(enabled))
	for i, m := range enabled {
		out[i] = string(m)
	}
	return out
}
