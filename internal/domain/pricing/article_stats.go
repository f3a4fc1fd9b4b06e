package pricing

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ArticleSales is the aggregate of reported shipments of one SKU at one price
type ArticleSales struct {
	Category        string
	SKU             string
	ProductionCosts decimal.Decimal
	PriceInCent     int64
	Shipped         int
	Returned        int
	Canceled        int
}

// ArticleSalesReader aggregates shipment report lines per category, SKU and price
type ArticleSalesReader interface {
	// ZalandoArticleSales aggregates daily shipment lines with an event time at or after since
	ZalandoArticleSales(ctx context.Context, since time.Time) ([]ArticleSales, error)
}

// ArticleStats is the margin calculation of one SKU at one reported price
type ArticleStats struct {
	SKU                   string
	Category              string
	Marketplace           string
	Price                 decimal.Decimal
	ProvisionInPercent    decimal.Decimal
	VatInPercent          int
	GenericCostsInPercent int
	ProductionCosts       decimal.Decimal
	ShippingCosts         decimal.Decimal
	ReturnCosts           decimal.Decimal
	Shipped               int
	Returned              int
	Canceled              int
}

func pct(price decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	return price.Mul(percent).Div(hundred).RoundBank(2)
}

// ProvisionAmount is the marketplace provision for one item
func (a ArticleStats) ProvisionAmount() decimal.Decimal {
	return pct(a.Price, a.ProvisionInPercent)
}

// VatAmount is the value added tax for one item
func (a ArticleStats) VatAmount() decimal.Decimal {
	return pct(a.Price, decimal.NewFromInt(int64(a.VatInPercent)))
}

// GenericCostsAmount is the share of generic costs for one item
func (a ArticleStats) GenericCostsAmount() decimal.Decimal {
	return pct(a.Price, decimal.NewFromInt(int64(a.GenericCostsInPercent)))
}

// ProfitAfterTaxes is the price minus all costs and taxes
func (a ArticleStats) ProfitAfterTaxes() decimal.Decimal {
	return a.Price.
		Sub(a.ProductionCosts).
		Sub(a.ShippingCosts).
		Sub(a.ProvisionAmount()).
		Sub(a.VatAmount()).
		Sub(a.GenericCostsAmount()).
		RoundBank(2)
}

// TotalRevenue is the profit of all items that were kept
func (a ArticleStats) TotalRevenue() decimal.Decimal {
	return a.ProfitAfterTaxes().Mul(decimal.NewFromInt(int64(a.Shipped - a.Returned)))
}

// TotalReturnCosts is what returned items cost
func (a ArticleStats) TotalReturnCosts() decimal.Decimal {
	perReturn := a.ShippingCosts.Add(a.ReturnCosts).Add(a.GenericCostsAmount())
	return perReturn.Mul(decimal.NewFromInt(int64(a.Returned)))
}

// TotalDiff is revenue minus return costs
func (a ArticleStats) TotalDiff() decimal.Decimal {
	return a.TotalRevenue().Sub(a.TotalReturnCosts())
}

// Sales is the gross amount of shipped items
func (a ArticleStats) Sales() decimal.Decimal {
	return a.Price.Mul(decimal.NewFromInt(int64(a.Shipped)))
}

// ArticleStatsRow is the serialisable form of ArticleStats
type ArticleStatsRow struct {
	ArticleNumber    string          `json:"article_number"`
	Category         string          `json:"category"`
	Canceled         int             `json:"canceled"`
	Returned         int             `json:"returned"`
	Shipped          int             `json:"shipped"`
	CostsProduction  decimal.Decimal `json:"costs_production"`
	Provision        decimal.Decimal `json:"eight_percent_provision"`
	GenericCosts     decimal.Decimal `json:"generic_costs"`
	Vat              decimal.Decimal `json:"nineteen_percent_vat"`
	ProfitAfterTaxes decimal.Decimal `json:"profit_after_taxes"`
	ReturnCosts      decimal.Decimal `json:"return_costs"`
	ShippingCosts    decimal.Decimal `json:"shipping_costs"`
	Sales            decimal.Decimal `json:"sales"`
	TotalDiff        decimal.Decimal `json:"total_diff"`
	TotalReturnCosts decimal.Decimal `json:"total_return_costs"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	Price            decimal.Decimal `json:"vk_zalando"`
}

// Row converts the stats into their serialisable form
func (a ArticleStats) Row() ArticleStatsRow {
	return ArticleStatsRow{
		ArticleNumber:    a.SKU,
		Category:         a.Category,
		Canceled:         a.Canceled,
		Returned:         a.Returned,
		Shipped:          a.Shipped,
		CostsProduction:  a.ProductionCosts,
		Provision:        a.ProvisionAmount(),
		GenericCosts:     a.GenericCostsAmount(),
		Vat:              a.VatAmount(),
		ProfitAfterTaxes: a.ProfitAfterTaxes(),
		ReturnCosts:      a.ReturnCosts,
		ShippingCosts:    a.ShippingCosts,
		Sales:            a.Sales(),
		TotalDiff:        a.TotalDiff(),
		TotalReturnCosts: a.TotalReturnCosts(),
		TotalRevenue:     a.TotalRevenue(),
		Price:            a.Price,
	}
}

// CategoryTotals sums the stats of a category
type CategoryTotals struct {
	Canceled         int             `json:"canceled"`
	Returned         int             `json:"returned"`
	Shipped          int             `json:"shipped"`
	Sales            decimal.Decimal `json:"sales"`
	TotalDiff        decimal.Decimal `json:"total_diff"`
	TotalReturnCosts decimal.Decimal `json:"total_return_costs"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
}

// CategoryStats groups article rows of one category
type CategoryStats struct {
	Name    string            `json:"name"`
	Content []ArticleStatsRow `json:"content"`
	Stats   CategoryTotals    `json:"stats"`
}

// GroupByCategory aggregates article stats per category, keeping input order within a category
func GroupByCategory(stats []ArticleStats) map[string]*CategoryStats {
	out := make(map[string]*CategoryStats)
	for _, a := range stats {
		cs, ok := out[a.Category]
		if !ok {
			cs = &CategoryStats{Name: a.Category, Content: make([]ArticleStatsRow, 0)}
			out[a.Category] = cs
		}
		row := a.Row()
		cs.Content = append(cs.Content, row)
		cs.Stats.Canceled += row.Canceled
		cs.Stats.Returned += row.Returned
		cs.Stats.Shipped += row.Shipped
		cs.Stats.Sales = cs.Stats.Sales.Add(row.Sales)
		cs.Stats.TotalRevenue = cs.Stats.TotalRevenue.Add(row.TotalRevenue)
		cs.Stats.TotalReturnCosts = cs.Stats.TotalReturnCosts.Add(row.TotalReturnCosts)
		cs.Stats.TotalDiff = cs.Stats.TotalDiff.Add(row.TotalDiff)
	}
	return out
}

// SortedCategoryNames returns the category names in alphabetical order
func SortedCategoryNames(groups map[string]*CategoryStats) []string {
	names := make([]string, 0, len(groups))
	for n := range groups {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
