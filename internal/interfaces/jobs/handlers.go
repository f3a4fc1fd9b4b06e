// Package jobs binds the scheduler job types to the application services.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	integrationapp "github.com/m13/backoffice/internal/application/integration"
	reportapp "github.com/m13/backoffice/internal/application/report"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/scheduler"
)

// ErrUnknownFeed is returned for feed_upload targets other than zalando and galeria
var ErrUnknownFeed = errors.New("jobs: unknown feed")

// OrderImporter imports marketplace orders
type OrderImporter interface {
	ImportOrders(ctx context.Context, m integration.Marketplace, query integration.OrderQuery) (*integrationapp.ImportResult, error)
	ImportAll(ctx context.Context, query integration.OrderQuery) ([]*integrationapp.ImportResult, error)
}

// Syncer pushes stock and prices
type Syncer interface {
	SyncStock(ctx context.Context, markets ...integration.Marketplace) ([]*integration.SyncResult, error)
	SyncPrices(ctx context.Context, m integration.Marketplace) (*integration.SyncResult, error)
}

// FeedBuilder produces marketplace feeds
type FeedBuilder interface {
	UploadZalandoFeed(ctx context.Context, opts integrationapp.FeedRunOptions) (*integration.FeedUpload, error)
	BuildGaleriaFeed(ctx context.Context) (*integration.FeedUpload, error)
}

// ReportImporter imports uploaded report files
type ReportImporter interface {
	ImportPending(ctx context.Context) (*reportapp.ImportResult, error)
}

// Registrar is the part of the scheduler handlers are registered with
type Registrar interface {
	Register(t scheduler.JobType, h scheduler.Handler)
}

// Handlers adapts the application services to scheduler handlers
type Handlers struct {
	Orders  OrderImporter
	Sync    Syncer
	Feeds   FeedBuilder
	Reports ReportImporter
	Logger  *zap.Logger
}

// Register registers a handler for every service that is set
func (h *Handlers) Register(r Registrar) {
	if h.Orders != nil {
		r.Register(scheduler.JobOrderImport, h.importOrders)
	}
	if h.Sync != nil {
		r.Register(scheduler.JobStockSync, h.syncStock)
		r.Register(scheduler.JobPriceSync, h.syncPrices)
	}
	if h.Feeds != nil {
		r.Register(scheduler.JobFeedUpload, h.uploadFeed)
	}
	if h.Reports != nil {
		r.Register(scheduler.JobReportImport, h.importReports)
	}
}

// importOrders imports one marketplace, or every order source for an empty target
func (h *Handlers) importOrders(ctx context.Context, job *scheduler.Job) (string, error) {
	if job.Target == "" {
		results, err := h.Orders.ImportAll(ctx, integration.OrderQuery{})
		created, updated := 0, 0
		for _, r := range results {
			created += r.Created
			updated += r.Updated
		}
		return fmt.Sprintf("%d marketplaces, %d created, %d updated", len(results), created, updated), err
	}
	m, err := integration.ParseMarketplace(job.Target)
	if err != nil {
		return "", err
	}
	res, err := h.Orders.ImportOrders(ctx, m, integration.OrderQuery{})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d fetched, %d created, %d updated", res.Fetched, res.Created, res.Updated), nil
}

// syncStock takes a comma separated list of marketplaces, empty means all
func (h *Handlers) syncStock(ctx context.Context, job *scheduler.Job) (string, error) {
	markets, err := parseMarketplaces(job.Target)
	if err != nil {
		return "", err
	}
	results, err := h.Sync.SyncStock(ctx, markets...)
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("%s %s %d/%d", r.Marketplace, r.Status, r.SuccessCount, r.TotalCount))
	}
	return strings.Join(parts, ", "), err
}

// syncPrices defaults to AboutYou, the only marketplace with a price push
func (h *Handlers) syncPrices(ctx context.Context, job *scheduler.Job) (string, error) {
	m := integration.MarketplaceAboutYou
	if job.Target != "" {
		var err error
		if m, err = integration.ParseMarketplace(job.Target); err != nil {
			return "", err
		}
	}
	res, err := h.Sync.SyncPrices(ctx, m)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %d/%d", res.Marketplace, res.Status, res.SuccessCount, res.TotalCount), nil
}

func (h *Handlers) uploadFeed(ctx context.Context, job *scheduler.Job) (string, error) {
	var (
		upload *integration.FeedUpload
		err    error
	)
	switch strings.ToLower(job.Target) {
	case "", "zalando":
		upload, err = h.Feeds.UploadZalandoFeed(ctx, integrationapp.FeedRunOptions{})
	case "galeria":
		upload, err = h.Feeds.BuildGaleriaFeed(ctx)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFeed, job.Target)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %d items", upload.Marketplace, upload.ValidItems), nil
}

func (h *Handlers) importReports(ctx context.Context, _ *scheduler.Job) (string, error) {
	res, err := h.Reports.ImportPending(ctx)
	if err != nil {
		return "", err
	}
	if len(res.Failed) > 0 {
		h.logger().Warn("Some report files failed", zap.Int("failed", len(res.Failed)))
	}
	return fmt.Sprintf("%d/%d files, %d rows", res.Imported, res.Files, res.NewRows), nil
}

func (h *Handlers) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func parseMarketplaces(s string) ([]integration.Marketplace, error) {
	var out []integration.Marketplace
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		m, err := integration.ParseMarketplace(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, part)
		}
		out = append(out, m)
	}
	return out, nil
}
