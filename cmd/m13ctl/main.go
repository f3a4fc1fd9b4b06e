// Command m13ctl runs the back-office jobs by hand.
//
//	m13ctl orders sync otto
//	m13ctl stock sync zalando etsy
//	m13ctl reports export zalando --year 2024 --month 3
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	catalogapp "github.com/m13/backoffice/internal/application/catalog"
	integrationapp "github.com/m13/backoffice/internal/application/integration"
	reportapp "github.com/m13/backoffice/internal/application/report"
	"github.com/m13/backoffice/internal/bootstrap"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/domain/report"
	"github.com/m13/backoffice/internal/infrastructure/auth"
	"github.com/m13/backoffice/internal/infrastructure/config"
	"github.com/m13/backoffice/internal/infrastructure/logger"
)

type orderImporter interface {
	ImportOrders(ctx context.Context, m integration.Marketplace, q integration.OrderQuery) (*integrationapp.ImportResult, error)
	ImportAll(ctx context.Context, q integration.OrderQuery) ([]*integrationapp.ImportResult, error)
	ImportSingleOrder(ctx context.Context, m integration.Marketplace, orderID string) (*integration.Order, error)
}

type syncer interface {
	SyncStock(ctx context.Context, markets ...integration.Marketplace) ([]*integration.SyncResult, error)
	SyncPrices(ctx context.Context, m integration.Marketplace) (*integration.SyncResult, error)
}

type feedRunner interface {
	UploadZalandoFeed(ctx context.Context, opts integrationapp.FeedRunOptions) (*integration.FeedUpload, error)
	BuildGaleriaFeed(ctx context.Context) (*integration.FeedUpload, error)
}

type trackingUploader interface {
	UploadTrackingFile(ctx context.Context, r io.Reader) (*integrationapp.TrackingUploadResult, error)
}

type reportImporter interface {
	ImportPending(ctx context.Context) (*reportapp.ImportResult, error)
}

type datevExporter interface {
	Export(ctx context.Context, m integration.Marketplace, p report.Period) (*reportapp.Export, error)
}

type articleStats interface {
	ArticleStats(ctx context.Context, since time.Time) (*reportapp.ArticleStatsReport, error)
}

type jobTracker interface {
	Track(ctx context.Context, cmd, description string, fn func(ctx context.Context) error) error
	Truncate(ctx context.Context, olderThan time.Duration) (int64, error)
}

type catalogExporter interface {
	WriteSKUs(ctx context.Context, w io.Writer) (*catalogapp.SKUSummary, error)
	WritePrices(ctx context.Context, w io.Writer) (*catalogapp.PriceDump, error)
}

type directoryLister interface {
	ListDirectories(ctx context.Context) (map[string][]string, error)
}

type tokenIssuer interface {
	Issue(subject string, scope auth.Scope, ttl time.Duration) (string, *auth.Claims, error)
}

// services are the operations the commands run. galaxus is nil when the
// adapter is disabled.
type services struct {
	orders    orderImporter
	sync      syncer
	feeds     feedRunner
	shipments trackingUploader
	reports   reportImporter
	datev     datevExporter
	stats     articleStats
	jobs      jobTracker
	exports   catalogExporter
	galaxus   directoryLister
}

type connectFunc func(ctx context.Context, cfg *config.Config, log *zap.Logger, meter metric.Meter) (*services, func() error, error)

// app carries the process state shared by all commands
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	tel     *bootstrap.Telemetry
	svc     *services
	tokens  tokenIssuer
	connect connectFunc
	closers []func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a := &app{connect: connectContainer}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}

// setup loads configuration, logging and telemetry unless already present
func (a *app) setup(ctx context.Context) error {
	if a.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		a.cfg = cfg
	}
	if a.log != nil {
		return nil
	}

	base, err := logger.New(&logger.Config{
		Level:      a.cfg.Log.Level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	tel, log, err := bootstrap.SetupTelemetry(ctx, a.cfg, base)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	a.tel, a.log = tel, log.Named("m13ctl")
	a.closers = append(a.closers, func() error {
		_ = logger.Sync(base)
		return nil
	})
	return nil
}

// services connects to the database and builds the services on first use
func (a *app) services(ctx context.Context) (*services, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	var meter metric.Meter
	if a.tel != nil {
		meter = a.tel.Meter("m13ctl")
	}
	svc, closeFn, err := a.connect(ctx, a.cfg, a.log, meter)
	if err != nil {
		return nil, err
	}
	a.svc = svc
	a.closers = append(a.closers, closeFn)
	return svc, nil
}

// track runs fn inside a job record named after the command path
func (a *app) track(cmd *cobra.Command, description string, fn func(ctx context.Context, svc *services) error) error {
	ctx := logger.WithContext(cmd.Context(), a.log)
	svc, err := a.services(ctx)
	if err != nil {
		return err
	}
	return svc.jobs.Track(ctx, cmd.CommandPath(), description, func(ctx context.Context) error {
		return fn(ctx, svc)
	})
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.Warn("Close failed", zap.Error(err))
		}
	}
	a.closers = nil
	if a.tel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.tel.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
		}
	}
}

func connectContainer(ctx context.Context, cfg *config.Config, log *zap.Logger, meter metric.Meter) (*services, func() error, error) {
	c, err := bootstrap.New(ctx, cfg, log, meter)
	if err != nil {
		return nil, nil, err
	}
	svc := &services{
		orders:    c.Orders,
		sync:      c.Sync,
		feeds:     c.Feeds,
		shipments: c.Shipments,
		reports:   c.Files,
		datev:     c.DATEV,
		stats:     c.Stats,
		jobs:      c.Jobs,
		exports:   c.Exports,
	}
	if c.Galaxus != nil {
		svc.galaxus = c.Galaxus
	}
	return svc, c.Close, nil
}

var errGalaxusDisabled = errors.New("galaxus adapter is not enabled")
