// Command server runs the back-office HTTP API, the job scheduler and its trigger.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/bootstrap"
	"github.com/m13/backoffice/internal/infrastructure/auth"
	"github.com/m13/backoffice/internal/infrastructure/config"
	"github.com/m13/backoffice/internal/infrastructure/logger"
	"github.com/m13/backoffice/internal/infrastructure/scheduler"
	"github.com/m13/backoffice/internal/interfaces/http/apidoc"
	"github.com/m13/backoffice/internal/interfaces/http/handler"
	"github.com/m13/backoffice/internal/interfaces/http/middleware"
	"github.com/m13/backoffice/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	base, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, base); err != nil {
		base.Error("Server stopped with error", zap.Error(err))
		_ = logger.Sync(base)
		os.Exit(1)
	}
	_ = logger.Sync(base)
}

func run(cfg *config.Config, base *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, log, err := bootstrap.SetupTelemetry(ctx, cfg, base)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			base.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	ctx = logger.WithContext(ctx, log)

	log.Info("Starting back-office",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	app, err := bootstrap.New(ctx, cfg, log, tel.Meter("m13-backoffice"))
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("Error closing connections", zap.Error(err))
		}
	}()

	schedOpts := []scheduler.Option{scheduler.WithJobRepository(app.JobRepo)}
	if app.Metrics != nil {
		schedOpts = append(schedOpts, scheduler.WithRecorder(app.Metrics))
	}
	sched, err := scheduler.NewScheduler(scheduler.ConfigFrom(cfg.Scheduler), log, schedOpts...)
	if err != nil {
		return err
	}
	app.JobHandlers().Register(sched)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sched.Stop(sctx); err != nil {
			log.Warn("Scheduler stop failed", zap.Error(err))
		}
	}()

	if cfg.Scheduler.Enabled {
		entries, err := scheduler.ParseEntries(cfg.Scheduler.Jobs)
		if err != nil {
			return err
		}
		trigger, err := scheduler.NewTrigger(cfg.Scheduler.Interval, entries, sched, cfg.App.Location(), log)
		if err != nil {
			return err
		}
		trigger.Start(ctx)
		defer trigger.Stop()
	}

	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	if cfg.HTTP.RateLimitEnabled {
		go sweepClients(ctx, limiter, cfg.HTTP.RateLimitWindow)
	}

	engine, err := newEngine(cfg, app, sched, limiter, tel, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exited gracefully")
	return nil
}

func newEngine(cfg *config.Config, app *bootstrap.Container, sched *scheduler.Scheduler,
	limiter *middleware.RateLimiter, tel *bootstrap.Telemetry, log *zap.Logger) (*gin.Engine, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled
	if cfg.Telemetry.ServiceName != "" {
		tracing.ServiceName = cfg.Telemetry.ServiceName
	}
	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = cfg.Telemetry.ProfilingEnabled

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	jwtCfg := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
	jwtCfg.Logger = log.Named("auth")

	engine.Use(
		middleware.Tracing(tracing),
		middleware.SpanErrorMarker(),
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.HTTPMetrics(tel.Meter("m13-backoffice/http")),
		middleware.Profiling(profiling),
		middleware.Secure(),
		middleware.CORS(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.JWTAuth(jwtCfg),
	)
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(limiter))
	}
	engine.Use(middleware.TracingAttributes())

	health := handler.NewHealthHandler(version, map[string]handler.HealthCheck{
		"database": app.DB.Ping,
	})
	engine.GET("/health", health.Health)

	routes := router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(router.Groups(router.Handlers{
			Health:    health,
			Orders:    handler.NewOrderHandler(app.Orders),
			Shipments: handler.NewShipmentHandler(app.Shipments),
			Sync:      handler.NewSyncHandler(sched, app.Jobs),
			Feeds:     handler.NewFeedHandler(app.Feeds, sched),
			Reports:   handler.NewReportHandler(app.Files, app.DATEV, app.Stats),
			Configs:   handler.NewConfigHandler(app.Configs, app.PriceTools),
			Webhooks:  handler.NewWebhookHandler(app.Webhooks),
			Errors:    handler.NewErrorLogHandler(app.Jobs),
		})...).
		Setup()
	for _, r := range routes {
		log.Debug("Route mounted", zap.String("area", r.Area), zap.String("method", r.Method), zap.String("path", r.Path))
	}

	doc, err := apidoc.Build(apidoc.Info{
		Title:       cfg.App.Name,
		Description: "Marketplace back-office API",
		Version:     version,
	}, routes)
	if err != nil {
		return nil, fmt.Errorf("build api doc: %w", err)
	}
	apidoc.Mount(engine, "backoffice", doc)
	return engine, nil
}

// sweepClients drops idle rate limit buckets once per window
func sweepClients(ctx context.Context, limiter *middleware.RateLimiter, window time.Duration) {
	if window <= 0 {
		window = time.Minute
	}
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Cleanup(); n > 0 {
				logger.FromContext(ctx).Debug("Rate limiter swept idle clients", zap.Int("clients", n))
			}
		}
	}
}
