package integrationapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/domain/pricing"
	"github.com/m13/backoffice/internal/domain/shared"
	"github.com/m13/backoffice/internal/infrastructure/ecommerce"
	"github.com/m13/backoffice/internal/infrastructure/feed"
	"github.com/m13/backoffice/internal/infrastructure/telemetry"
)

// Content types of archived feeds
const (
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// feedStamp names archived and uploaded feeds
const feedStamp = "20060102-150405"

// ZalandoFeedClient validates and uploads transformed Zalando feeds
type ZalandoFeedClient interface {
	IsEnabled() bool
	ValidateFeed(ctx context.Context, csv []byte) (*ecommerce.FeedValidation, error)
	UploadFeed(ctx context.Context, name string, csv []byte) (int, string, error)
}

// FeedServiceConfig holds the feed locations
type FeedServiceConfig struct {
	ShopFeedURL    string
	GaleriaFeedURL string
	Blacklist      []string
}

// FeedRunOptions tune a single feed run
type FeedRunOptions struct {
	// DryRun transforms and validates without uploading
	DryRun bool
}

// FeedService builds the marketplace feeds from the shop feed
type FeedService struct {
	feeds      FeedSource
	zalando    ZalandoFeedClient
	store      shared.FileStore
	uploads    integration.FeedUploadRepository
	prices     catalog.PriceRepository
	priceTools pricing.PriceToolRepository
	config     FeedServiceConfig
	blacklist  feed.Blacklist
	failures   failureLog
	logger     *zap.Logger
	now        func() time.Time
}

// NewFeedService creates a new FeedService
func NewFeedService(
	feeds FeedSource,
	zalando ZalandoFeedClient,
	store shared.FileStore,
	uploads integration.FeedUploadRepository,
	prices catalog.PriceRepository,
	priceTools pricing.PriceToolRepository,
	cfg FeedServiceConfig,
	errorRepo catalog.ErrorRecordRepository,
	logger *zap.Logger,
) *FeedService {
	logger = nopIfNil(logger)
	return &FeedService{
		feeds:      feeds,
		zalando:    zalando,
		store:      store,
		uploads:    uploads,
		prices:     prices,
		priceTools: priceTools,
		config:     cfg,
		blacklist:  feed.NewBlacklist(cfg.Blacklist...),
		failures:   failureLog{repo: errorRepo, logger: logger},
		logger:     logger,
		now:        time.Now,
	}
}

// ---------------------------------------------------------------------------
// Zalando
// ---------------------------------------------------------------------------

// UploadZalandoFeed downloads the shop feed, prices it for Zalando, validates and
// uploads it. The original and the transformed feed are archived either way.
func (s *FeedService) UploadZalandoFeed(ctx context.Context, opts FeedRunOptions) (*integration.FeedUpload, error) {
	ctx, span := telemetry.StartSpan(ctx, "feeds", "zalando", telemetry.AttrMarketplace.String(string(integration.MarketplaceZalando)))
	defer span.End()

	upload, err := s.zalandoFeed(ctx, opts)
	if err != nil {
		s.failures.record(ctx, integration.MarketplaceZalando, "feed upload", err)
		telemetry.RecordError(span, err)
	}
	if upload != nil {
		if serr := s.uploads.Save(ctx, upload); serr != nil {
			s.logger.Warn("Failed to store feed upload", zap.Error(serr))
		}
	}
	return upload, err
}

func (s *FeedService) zalandoFeed(ctx context.Context, opts FeedRunOptions) (*integration.FeedUpload, error) {
	if s.zalando == nil || !s.zalando.IsEnabled() {
		return nil, fmt.Errorf("%w: %s", integration.ErrMarketplaceNotConfigured, integration.MarketplaceZalando)
	}
	if s.config.ShopFeedURL == "" {
		return nil, fmt.Errorf("%w: shop feed url", ErrFeedNotConfigured)
	}
	tool, err := s.priceTools.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	downloaded, err := s.feeds.Download(ctx, s.config.ShopFeedURL)
	if err != nil {
		return nil, fmt.Errorf("download shop feed: %w", err)
	}
	stamp := s.now().Format(feedStamp)
	upload := integration.NewFeedUpload(integration.MarketplaceZalando, tool.ZFactor)

	upload.OriginalPath = "zalando/original/" + stamp + ".csv"
	if err := s.store.Put(ctx, upload.OriginalPath, downloaded.Raw, contentTypeCSV); err != nil {
		return nil, fmt.Errorf("archive original feed: %w", err)
	}

	rows := s.pimpZalando(ctx, downloaded.Rows, tool.ZFactor)
	if len(rows) == 0 {
		return upload, feed.ErrFeedEmpty
	}
	var buf bytes.Buffer
	if err := feed.WriteZalando(&buf, rows); err != nil {
		return upload, fmt.Errorf("write zalando feed: %w", err)
	}
	transformed := buf.Bytes()
	upload.ValidItems = len(rows)
	upload.TransformedPath = "zalando/transformed/" + stamp + ".csv"
	if err := s.store.Put(ctx, upload.TransformedPath, transformed, contentTypeCSV); err != nil {
		return upload, fmt.Errorf("archive transformed feed: %w", err)
	}

	validation, err := s.zalando.ValidateFeed(ctx, transformed)
	if validation != nil {
		upload.ValidationStatusCode = validation.StatusCode
		upload.ValidationSummary = validation.Summary
	}
	if err != nil {
		return upload, err
	}
	if validation.Summary != "" {
		s.logger.Warn("Zalando feed has warnings", zap.String("summary", validation.Summary))
	}
	if opts.DryRun {
		s.logger.Info("Zalando feed validated, upload skipped", zap.Int("items", upload.ValidItems))
		return upload, nil
	}

	status, body, err := s.zalando.UploadFeed(ctx, stamp+".csv", transformed)
	upload.UploadStatusCode = status
	upload.UploadResponse = body
	if err != nil {
		return upload, err
	}
	s.logger.Info("Zalando feed uploaded",
		zap.String("file", upload.TransformedPath),
		zap.Int("items", upload.ValidItems),
		zap.String("z_factor", tool.ZFactor.String()))
	return upload, nil
}

// pimpZalando prices the shop rows for Zalando. Rows without ean or on the
// blacklist are dropped; unpriceable rows are logged and dropped.
func (s *FeedService) pimpZalando(ctx context.Context, rows []feed.Row, factor decimal.Decimal) []feed.Row {
	out := make([]feed.Row, 0, len(rows))
	for _, r := range rows {
		if r.EAN == "" || s.blacklist.Contains(r.SKU()) {
			continue
		}
		qty, _, err := r.QuantityValue()
		if err != nil {
			s.logger.Warn("Skipping feed row", zap.Int("line", r.Line), zap.Error(err))
			continue
		}
		price, err := s.zalandoPrice(ctx, r, factor)
		if err != nil {
			s.logger.Warn("Skipping feed row", zap.Int("line", r.Line), zap.String("ean", r.EAN), zap.Error(err))
			continue
		}
		r.Price = price.StringFixed(2)
		r.RetailPrice = r.Price
		r.Quantity = fmt.Sprint(qty)
		out = append(out, r)
	}
	return out
}

// zalandoPrice is the pinned Zalando price of the row's SKU, matched without
// regard to case, or the beautified feed price.
func (s *FeedService) zalandoPrice(ctx context.Context, r feed.Row, factor decimal.Decimal) (decimal.Decimal, error) {
	if sku := r.SKU(); sku != "" {
		if _, err := s.prices.EnsureSKU(ctx, sku, r.EAN); err != nil {
			s.logger.Warn("Failed to ensure price", zap.String("sku", sku), zap.Error(err))
		}
		p, err := s.prices.FindBySKU(ctx, sku)
		switch {
		case err == nil:
			if override, ok := p.ZalandoOverride(); ok {
				return override, nil
			}
		case !errors.Is(err, catalog.ErrPriceNotFound):
			return decimal.Zero, err
		}
	}
	base, err := r.PriceValue()
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.Beautify(base, factor)
}

// ---------------------------------------------------------------------------
// Galeria
// ---------------------------------------------------------------------------

// BuildGaleriaFeed downloads the Galeria feed, applies the fixed markup and
// archives it as CSV and XLSX.
func (s *FeedService) BuildGaleriaFeed(ctx context.Context) (*integration.FeedUpload, error) {
	ctx, span := telemetry.StartSpan(ctx, "feeds", "galeria", telemetry.AttrMarketplace.String(string(integration.MarketplaceGaleria)))
	defer span.End()

	upload, err := s.galeriaFeed(ctx)
	if err != nil {
		s.failures.record(ctx, integration.MarketplaceGaleria, "feed upload", err)
		telemetry.RecordError(span, err)
	}
	if upload != nil {
		if serr := s.uploads.Save(ctx, upload); serr != nil {
			s.logger.Warn("Failed to store feed upload", zap.Error(serr))
		}
	}
	return upload, err
}

func (s *FeedService) galeriaFeed(ctx context.Context) (*integration.FeedUpload, error) {
	if s.config.GaleriaFeedURL == "" {
		return nil, fmt.Errorf("%w: galeria feed url", ErrFeedNotConfigured)
	}
	raw, err := s.feeds.Fetch(ctx, s.config.GaleriaFeedURL)
	if err != nil {
		return nil, fmt.Errorf("download galeria feed: %w", err)
	}
	stamp := s.now().Format(feedStamp)
	upload := integration.NewFeedUpload(integration.MarketplaceGaleria, feed.GaleriaFactor)
	upload.OriginalPath = "galeria/original/" + stamp + ".csv"
	if err := s.store.Put(ctx, upload.OriginalPath, raw, contentTypeCSV); err != nil {
		return nil, fmt.Errorf("archive original feed: %w", err)
	}

	records, err := feed.ParseGaleria(raw)
	if err != nil {
		return upload, err
	}
	n, err := feed.TransformGaleria(records, feed.GaleriaFactor)
	if err != nil {
		return upload, err
	}
	upload.ValidItems = n

	var csvBuf, xlsxBuf bytes.Buffer
	if err := feed.WriteGaleriaCSV(&csvBuf, records); err != nil {
		return upload, err
	}
	if err := feed.WriteGaleriaXLSX(&xlsxBuf, records); err != nil {
		return upload, err
	}
	upload.TransformedPath = "galeria/transformed/" + stamp + ".csv"
	if err := s.store.Put(ctx, upload.TransformedPath, csvBuf.Bytes(), contentTypeCSV); err != nil {
		return upload, fmt.Errorf("archive galeria csv: %w", err)
	}
	upload.ExtraPath = "galeria/transformed/" + stamp + ".xlsx"
	if err := s.store.Put(ctx, upload.ExtraPath, xlsxBuf.Bytes(), contentTypeXLSX); err != nil {
		return upload, fmt.Errorf("archive galeria xlsx: %w", err)
	}

	s.logger.Info("Galeria feed built", zap.Int("items", n), zap.String("file", upload.TransformedPath))
	return upload, nil
}

// ListFeedUploads lists the latest feed runs, optionally for one marketplace
func (s *FeedService) ListFeedUploads(ctx context.Context, m integration.Marketplace, limit int) ([]*integration.FeedUpload, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.uploads.FindRecent(ctx, m, limit)
}
