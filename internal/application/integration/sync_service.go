package integrationapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/domain/pricing"
	infraconfig "github.com/m13/backoffice/internal/infrastructure/config"
	"github.com/m13/backoffice/internal/infrastructure/feed"
	"github.com/m13/backoffice/internal/infrastructure/telemetry"
)

// maxParallelPushes bounds the stock fan-out
const maxParallelPushes = 4

// FeedSource fetches shop feeds
type FeedSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Download(ctx context.Context, url string) (*feed.Downloaded, error)
	DownloadJSONStock(ctx context.Context, url string) ([]integration.StockItem, error)
}

// CatalogRefresher pulls the listing ids a marketplace needs before stock pushes
type CatalogRefresher func(ctx context.Context) (int, error)

// SyncConfig holds the shop feed locations
type SyncConfig struct {
	ShopFeedURL  string
	JSONStockURL string
	Blacklist    []string
}

// SyncConfigFrom maps the application configuration
func SyncConfigFrom(cfg infraconfig.FeedConfig) SyncConfig {
	return SyncConfig{
		ShopFeedURL:  cfg.ShopFeedURL,
		JSONStockURL: cfg.JSONStockURL,
		Blacklist:    cfg.Blacklist,
	}
}

// SyncOption configures a SyncService
type SyncOption func(*SyncService)

// WithCatalogRefresher registers the listing refresh of a marketplace
func WithCatalogRefresher(m integration.Marketplace, fn CatalogRefresher) SyncOption {
	return func(s *SyncService) {
		s.refreshers[m] = fn
	}
}

// SyncService pushes shop stock and prices to the marketplaces
type SyncService struct {
	registry   integration.Registry
	feeds      FeedSource
	config     SyncConfig
	blacklist  feed.Blacklist
	prices     catalog.PriceRepository
	priceTools pricing.PriceToolRepository
	refreshers map[integration.Marketplace]CatalogRefresher
	failures   failureLog
	recorder   SyncRecorder
	logger     *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(
	registry integration.Registry,
	feeds FeedSource,
	cfg SyncConfig,
	prices catalog.PriceRepository,
	priceTools pricing.PriceToolRepository,
	errorRepo catalog.ErrorRecordRepository,
	recorder SyncRecorder,
	logger *zap.Logger,
	opts ...SyncOption,
) *SyncService {
	logger = nopIfNil(logger)
	s := &SyncService{
		registry:   registry,
		feeds:      feeds,
		config:     cfg,
		blacklist:  feed.NewBlacklist(cfg.Blacklist...),
		prices:     prices,
		priceTools: priceTools,
		refreshers: make(map[integration.Marketplace]CatalogRefresher),
		failures:   failureLog{repo: errorRepo, logger: logger},
		recorder:   recorderOrNoop(recorder),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---------------------------------------------------------------------------
// Stock
// ---------------------------------------------------------------------------

// SyncStock pushes the shop stock to the given marketplaces, or to every enabled
// stock target when none is given. Marketplaces are pushed in parallel; one failing
// marketplace does not stop the others.
func (s *SyncService) SyncStock(ctx context.Context, markets ...integration.Marketplace) ([]*integration.SyncResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "stock", "sync")
	defer span.End()

	targets, err := s.stockTargets(markets)
	if err != nil {
		return nil, err
	}

	items, err := s.stockItems(ctx, targets)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	results := make([]*integration.SyncResult, len(targets))
	errs := make([]error, len(targets))
	var g errgroup.Group
	g.SetLimit(maxParallelPushes)
	for i, t := range targets {
		g.Go(func() error {
			results[i], errs[i] = s.pushStock(ctx, t, items.forTarget(t.Marketplace()))
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*integration.SyncResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	err = errors.Join(errs...)
	telemetry.RecordError(span, err)
	return out, err
}

func (s *SyncService) stockTargets(markets []integration.Marketplace) ([]integration.StockTarget, error) {
	if len(markets) == 0 {
		targets := s.registry.StockTargets()
		if len(targets) == 0 {
			return nil, ErrNoStockTargets
		}
		return targets, nil
	}
	targets := make([]integration.StockTarget, 0, len(markets))
	for _, m := range markets {
		t, err := s.registry.StockTarget(m)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// stockFeeds holds the filtered shop feed and, for OTTO, the JSON stock feed
type stockFeeds struct {
	shop []integration.StockItem
	otto []integration.StockItem
}

func (f stockFeeds) forTarget(m integration.Marketplace) []integration.StockItem {
	if m == integration.MarketplaceOtto && f.otto != nil {
		return f.otto
	}
	return f.shop
}

func (s *SyncService) stockItems(ctx context.Context, targets []integration.StockTarget) (stockFeeds, error) {
	var out stockFeeds
	needShop := false
	for _, t := range targets {
		if t.Marketplace() == integration.MarketplaceOtto && s.config.JSONStockURL != "" {
			items, err := s.feeds.DownloadJSONStock(ctx, s.config.JSONStockURL)
			if err != nil {
				return out, fmt.Errorf("download json stock: %w", err)
			}
			out.otto = s.dropBlacklisted(items)
			continue
		}
		needShop = true
	}
	if !needShop {
		return out, nil
	}
	items, err := s.shopItems(ctx)
	if err != nil {
		return out, err
	}
	out.shop = items
	return out, nil
}

func (s *SyncService) shopItems(ctx context.Context) ([]integration.StockItem, error) {
	if s.config.ShopFeedURL == "" {
		return nil, fmt.Errorf("%w: shop feed url", ErrFeedNotConfigured)
	}
	downloaded, err := s.feeds.Download(ctx, s.config.ShopFeedURL)
	if err != nil {
		return nil, fmt.Errorf("download shop feed: %w", err)
	}
	items, stats := feed.Filter(downloaded.Rows, s.blacklist)
	s.logger.Info("Shop feed filtered",
		zap.Int("rows", len(downloaded.Rows)),
		zap.Int("items", len(items)),
		zap.Int("no_sku", stats.NoSKU),
		zap.Int("no_quantity", stats.NoQuantity),
		zap.Int("blacklisted", stats.Blacklisted),
		zap.Int("invalid", stats.Invalid),
		zap.Int("invalid_price", stats.InvalidPrice))
	return items, nil
}

func (s *SyncService) dropBlacklisted(items []integration.StockItem) []integration.StockItem {
	out := items[:0:0]
	for _, it := range items {
		if !s.blacklist.Contains(it.SKU) {
			out = append(out, it)
		}
	}
	return out
}

func (s *SyncService) pushStock(ctx context.Context, t integration.StockTarget, items []integration.StockItem) (*integration.SyncResult, error) {
	m := t.Marketplace()
	if fn, ok := s.refreshers[m]; ok {
		n, err := fn(ctx)
		if err != nil {
			err = fmt.Errorf("refresh %s listings: %w", m, err)
			s.failures.record(ctx, m, "stock sync", err)
			return nil, err
		}
		s.logger.Debug("Listings refreshed", zap.String("marketplace", string(m)), zap.Int("listings", n))
	}

	res, err := t.PushStock(ctx, items)
	if err != nil {
		err = fmt.Errorf("push %s stock: %w", m, err)
		s.failures.record(ctx, m, "stock sync", err)
		return res, err
	}
	s.recorder.RecordItemsPushed(ctx, string(m), res.SuccessCount, res.FailedCount)
	s.logResult("Stock pushed", res)
	return res, nil
}

// ---------------------------------------------------------------------------
// Prices
// ---------------------------------------------------------------------------

// SyncPrices pushes sell prices to a price target. An explicit marketplace
// price wins; every other sku gets the ladder price of its feed price.
func (s *SyncService) SyncPrices(ctx context.Context, m integration.Marketplace) (*integration.SyncResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "prices", "sync", telemetry.AttrMarketplace.String(string(m)))
	defer span.End()

	target, err := s.registry.PriceTarget(m)
	if err != nil {
		return nil, err
	}
	stock, err := s.shopItems(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	tool, err := s.priceTools.FindActive(ctx)
	if err != nil {
		s.failures.record(ctx, m, "price sync", err)
		return nil, err
	}

	items, skipped := s.priceItems(ctx, m, stock, tool.ZFactor)
	if len(skipped) > 0 {
		s.failures.record(ctx, m, "price sync", fmt.Errorf("%w: %d skus skipped: %s",
			feed.ErrInvalidPrice, len(skipped), strings.Join(skuList(skipped, maxListedSKUs), ", ")))
	}
	res, err := target.PushPrices(ctx, items)
	if err != nil {
		err = fmt.Errorf("push %s prices: %w", m, err)
		s.failures.record(ctx, m, "price sync", err)
		telemetry.RecordError(span, err)
		return res, err
	}
	res.SkippedCount += len(skipped)
	res.FailedItems = append(res.FailedItems, skipped...)
	s.recorder.RecordItemsPushed(ctx, string(m), res.SuccessCount, res.FailedCount)
	s.logResult("Prices pushed", res)
	return res, nil
}

// PriceFor returns the sell price of sku on m for a feed price
func (s *SyncService) PriceFor(ctx context.Context, m integration.Marketplace, sku string, feedPrice, factor decimal.Decimal) (decimal.Decimal, error) {
	if s.prices != nil {
		p, err := s.prices.FindBySKU(ctx, sku)
		if err == nil {
			if override, ok := overrideFor(m, p); ok {
				return override, nil
			}
		} else if !errors.Is(err, catalog.ErrPriceNotFound) {
			return decimal.Zero, err
		}
	}
	return pricing.Beautify(feedPrice, factor)
}

// maxListedSKUs bounds the skus named in one error record
const maxListedSKUs = 20

// priceItems derives the sell prices of stock. Items without a usable price
// are returned as skipped, never priced.
func (s *SyncService) priceItems(ctx context.Context, m integration.Marketplace, stock []integration.StockItem, factor decimal.Decimal) ([]integration.PriceItem, []integration.SyncFailure) {
	items := make([]integration.PriceItem, 0, len(stock))
	var skipped []integration.SyncFailure
	for _, st := range stock {
		if st.PriceInvalid {
			s.logger.Warn("Skipping price", zap.String("sku", st.SKU), zap.Error(feed.ErrInvalidPrice))
			skipped = append(skipped, integration.SyncFailure{SKU: st.SKU, Reason: "invalid feed price"})
			continue
		}
		price, err := s.PriceFor(ctx, m, st.SKU, st.Price, factor)
		if err != nil {
			s.logger.Warn("Skipping price", zap.String("sku", st.SKU), zap.String("feed_price", st.Price.String()), zap.Error(err))
			skipped = append(skipped, integration.SyncFailure{SKU: st.SKU, Reason: err.Error()})
			continue
		}
		items = append(items, integration.PriceItem{SKU: st.SKU, CountryCode: "DE", RetailPrice: price})
	}
	return items, skipped
}

func skuList(failures []integration.SyncFailure, limit int) []string {
	skus := make([]string, 0, min(len(failures), limit))
	for _, f := range failures {
		if len(skus) == limit {
			skus = append(skus, "...")
			break
		}
		skus = append(skus, f.SKU)
	}
	return skus
}

func overrideFor(m integration.Marketplace, p *catalog.Price) (decimal.Decimal, bool) {
	switch m {
	case integration.MarketplaceAboutYou:
		return p.AboutYouOverride()
	case integration.MarketplaceZalando:
		return p.ZalandoOverride()
	}
	return decimal.Zero, false
}

// ---------------------------------------------------------------------------
// Listings
// ---------------------------------------------------------------------------

// RefreshCatalog pulls the listing ids of m (Etsy listings, TikTok products)
func (s *SyncService) RefreshCatalog(ctx context.Context, m integration.Marketplace) (int, error) {
	fn, ok := s.refreshers[m]
	if !ok {
		return 0, fmt.Errorf("%w: %s", integration.ErrMarketplaceNotSupported, m)
	}
	n, err := fn(ctx)
	if err != nil {
		s.failures.record(ctx, m, "listing sync", err)
		return 0, err
	}
	s.logger.Info("Listings refreshed", zap.String("marketplace", string(m)), zap.Int("listings", n))
	return n, nil
}

func (s *SyncService) logResult(msg string, res *integration.SyncResult) {
	fields := []zap.Field{
		zap.String("marketplace", string(res.Marketplace)),
		zap.String("status", string(res.Status)),
		zap.Int("total", res.TotalCount),
		zap.Int("success", res.SuccessCount),
		zap.Int("failed", res.FailedCount),
		zap.Int("skipped", res.SkippedCount),
	}
	if res.FailedCount > 0 {
		s.logger.Warn(msg, fields...)
		return
	}
	s.logger.Info(msg, fields...)
}
