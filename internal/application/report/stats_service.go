package reportapp

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/pricing"
	"github.com/m13/backoffice/internal/infrastructure/telemetry"
)

// StatsSheet is the sheet name of the XLSX export
const StatsSheet = "Article stats"

// statsColumns is the header row of the XLSX export
var statsColumns = []any{
	"Category", "Article number", "VK Zalando", "Shipped", "Returned", "Canceled",
	"Production costs", "Shipping costs", "Return costs", "Provision", "VAT", "Generic costs",
	"Profit after taxes", "Sales", "Total revenue", "Total return costs", "Total diff",
}

// ArticleStatsReport is the per category margin report
type ArticleStatsReport struct {
	Since      time.Time                `json:"since"`
	Config     ConfigSummary            `json:"config"`
	Categories []*pricing.CategoryStats `json:"categories"`
}

// ConfigSummary names the cost parameters the report was computed with
type ConfigSummary struct {
	ShippingCosts         decimal.Decimal `json:"shipping_costs"`
	ReturnCosts           decimal.Decimal `json:"return_costs"`
	VatInPercent          int             `json:"vat_in_percent"`
	GenericCostsInPercent int             `json:"generic_costs_in_percent"`
}

// StatsService computes Zalando article margins from imported daily shipment reports
type StatsService struct {
	sales   pricing.ArticleSalesReader
	configs catalog.MarketplaceConfigRepository
	logger  *zap.Logger
}

// NewStatsService creates a new StatsService
func NewStatsService(sales pricing.ArticleSalesReader, configs catalog.MarketplaceConfigRepository, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{sales: sales, configs: configs, logger: logger}
}

// ArticleStats aggregates shipments since the given time, grouped by category in
// alphabetical order. The active Zalando configuration supplies the costs. The
// Zalando provision always follows the price tiers.
func (s *StatsService) ArticleStats(ctx context.Context, since time.Time) (*ArticleStatsReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "stats", "articles")
	defer span.End()

	cfg, err := s.configs.FindActive(ctx, catalog.ConfigMarketplaceZalando)
	if err != nil {
		return nil, fmt.Errorf("active zalando config: %w", err)
	}
	sales, err := s.sales.ZalandoArticleSales(ctx, since)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	stats := make([]pricing.ArticleStats, 0, len(sales))
	for _, a := range sales {
		price := decimal.New(a.PriceInCent, -2)
		stats = append(stats, pricing.ArticleStats{
			SKU:                   a.SKU,
			Category:              a.Category,
			Marketplace:           string(cfg.Name),
			Price:                 price,
			ProvisionInPercent:    pricing.ZalandoProvisionPercent(price),
			VatInPercent:          cfg.VatInPercent,
			GenericCostsInPercent: cfg.GenericCostsInPercent,
			ProductionCosts:       a.ProductionCosts,
			ShippingCosts:         cfg.ShippingCosts,
			ReturnCosts:           cfg.ReturnCosts,
			Shipped:               a.Shipped,
			Returned:              a.Returned,
			Canceled:              a.Canceled,
		})
	}

	groups := pricing.GroupByCategory(stats)
	out := &ArticleStatsReport{
		Since: since,
		Config: ConfigSummary{
			ShippingCosts:         cfg.ShippingCosts,
			ReturnCosts:           cfg.ReturnCosts,
			VatInPercent:          cfg.VatInPercent,
			GenericCostsInPercent: cfg.GenericCostsInPercent,
		},
		Categories: make([]*pricing.CategoryStats, 0, len(groups)),
	}
	for _, name := range pricing.SortedCategoryNames(groups) {
		out.Categories = append(out.Categories, groups[name])
	}
	s.logger.Info("Article stats computed",
		zap.Time("since", since),
		zap.Int("articles", len(stats)),
		zap.Int("categories", len(out.Categories)))
	return out, nil
}

// WriteXLSX renders the report as a single sheet workbook with a totals row per category
func (r *ArticleStatsReport) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", StatsSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	setRow := func(values []any, style int) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(StatsSheet, cell, &values); err != nil {
			return err
		}
		if style != 0 {
			last, _ := excelize.CoordinatesToCellName(len(values), row)
			if err := f.SetCellStyle(StatsSheet, cell, last, style); err != nil {
				return err
			}
		}
		row++
		return nil
	}

	if err := setRow(statsColumns, bold); err != nil {
		return err
	}
	for _, c := range r.Categories {
		for _, a := range c.Content {
			if err := setRow([]any{
				c.Name, a.ArticleNumber, num(a.Price), a.Shipped, a.Returned, a.Canceled,
				num(a.CostsProduction), num(a.ShippingCosts), num(a.ReturnCosts), num(a.Provision),
				num(a.Vat), num(a.GenericCosts), num(a.ProfitAfterTaxes), num(a.Sales),
				num(a.TotalRevenue), num(a.TotalReturnCosts), num(a.TotalDiff),
			}, 0); err != nil {
				return err
			}
		}
		if err := setRow([]any{
			c.Name, "Total", nil, c.Stats.Shipped, c.Stats.Returned, c.Stats.Canceled,
			nil, nil, nil, nil, nil, nil, nil, num(c.Stats.Sales),
			num(c.Stats.TotalRevenue), num(c.Stats.TotalReturnCosts), num(c.Stats.TotalDiff),
		}, bold); err != nil {
			return err
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
