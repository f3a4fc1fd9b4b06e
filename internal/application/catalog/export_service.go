package catalogapp

import (
	"context"
	"encoding/json"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/infrastructure/csvutil"
)

// ExportService dumps the price table
type ExportService struct {
	prices     catalog.PriceRepository
	categories catalog.CategoryRepository
	logger     *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(prices catalog.PriceRepository, categories catalog.CategoryRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{prices: prices, categories: categories, logger: logger}
}

// SKUSummary counts the rows of a SKU export
type SKUSummary struct {
	SKUs       int
	MissingEAN int
}

// WriteSKUs writes sku;ean;category for every price, ordered by SKU
func (s *ExportService) WriteSKUs(ctx context.Context, w io.Writer) (*SKUSummary, error) {
	prices, err := s.prices.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].SKU < prices[j].SKU })

	out := csvutil.NewWriter(w, ';', csvutil.QuoteMinimal)
	if err := out.Write([]string{"sku", "ean", "category"}); err != nil {
		return nil, err
	}
	summary := &SKUSummary{SKUs: len(prices)}
	for _, p := range prices {
		ean := p.EANValue()
		if ean == "" {
			summary.MissingEAN++
		}
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		if err := out.Write([]string{p.SKU, ean, category}); err != nil {
			return nil, err
		}
	}
	if err := out.Flush(); err != nil {
		return nil, err
	}
	if summary.MissingEAN > 0 {
		s.logger.Warn("Prices without EAN", zap.Int("count", summary.MissingEAN))
	}
	return summary, nil
}

// PriceFields is one price row of the JSON dump
type PriceFields struct {
	SKU             string           `json:"sku"`
	EAN             *string          `json:"ean"`
	Category        string           `json:"category,omitempty"`
	CostsProduction *decimal.Decimal `json:"costs_production"`
	VkZalando       *decimal.Decimal `json:"vk_zalando"`
	VkOtto          *decimal.Decimal `json:"vk_otto"`
	VkAboutYou      *decimal.Decimal `json:"vk_aboutyou"`
	PimpedZalando   bool             `json:"pimped_zalando"`
}

// CategoryFields is one category row of the JSON dump
type CategoryFields struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PriceDump is the JSON document written by WritePrices
type PriceDump struct {
	Prices     []PriceFields    `json:"prices"`
	Categories []CategoryFields `json:"categories"`
}

// WritePrices writes the price fields and categories as one JSON document
func (s *ExportService) WritePrices(ctx context.Context, w io.Writer) (*PriceDump, error) {
	prices, err := s.prices.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	dump := &PriceDump{
		Prices:     make([]PriceFields, 0, len(prices)),
		Categories: make([]CategoryFields, 0, len(categories)),
	}
	for _, p := range prices {
		f := PriceFields{
			SKU:             p.SKU,
			EAN:             p.EAN,
			CostsProduction: p.CostsProduction,
			VkZalando:       p.VkZalando,
			VkOtto:          p.VkOtto,
			VkAboutYou:      p.VkAboutYou,
			PimpedZalando:   p.PimpedZalando,
		}
		if p.Category != nil {
			f.Category = p.Category.Name
		}
		dump.Prices = append(dump.Prices, f)
	}
	for _, c := range categories {
		dump.Categories = append(dump.Categories, CategoryFields{Name: c.Name, Description: c.Description})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		return nil, err
	}
	return dump, nil
}
