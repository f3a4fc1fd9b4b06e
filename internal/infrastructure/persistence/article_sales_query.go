package persistence

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/m13/backoffice/internal/domain/pricing"
)

// UncategorizedName groups sales of SKUs without price row or category
const UncategorizedName = "N/A"

// zalandoArticleSalesSQL groups daily shipment lines by category, SKU and reported price.
// SKUs are matched case-insensitively; unknown or uncategorized SKUs land in N/A.
const zalandoArticleSalesSQL = `
SELECT
	COALESCE(c.name, '` + UncategorizedName + `') AS category_name,
	d.article_number AS sku,
	p.costs_production AS costs_production,
	d.price_in_cent AS reported_price,
	COALESCE(SUM(CASE WHEN d.shipment THEN 1 ELSE 0 END), 0) AS shipped,
	COALESCE(SUM(CASE WHEN d.returned THEN 1 ELSE 0 END), 0) AS returned,
	COALESCE(SUM(CASE WHEN d.cancel THEN 1 ELSE 0 END), 0) AS canceled
FROM daily_shipment_reports AS d
LEFT JOIN prices AS p ON LOWER(p.sku) = LOWER(d.article_number)
LEFT JOIN categories AS c ON c.id = p.category_id
WHERE d.order_event_time >= ? AND d.article_number <> ''
GROUP BY COALESCE(c.name, '` + UncategorizedName + `'), d.article_number, p.costs_production, d.price_in_cent
ORDER BY d.article_number ASC, d.price_in_cent DESC`

type articleSalesRow struct {
	Category        string              `db:"category_name"`
	SKU             string              `db:"sku"`
	CostsProduction decimal.NullDecimal `db:"costs_production"`
	ReportedPrice   int64               `db:"reported_price"`
	Shipped         int                 `db:"shipped"`
	Returned        int                 `db:"returned"`
	Canceled        int                 `db:"canceled"`
}

// SQLXArticleSalesReader implements pricing.ArticleSalesReader with a raw aggregate query
type SQLXArticleSalesReader struct {
	db *sqlx.DB
}

// NewSQLXArticleSalesReader creates a new SQLXArticleSalesReader
func NewSQLXArticleSalesReader(db *sqlx.DB) *SQLXArticleSalesReader {
	return &SQLXArticleSalesReader{db: db}
}

var _ pricing.ArticleSalesReader = (*SQLXArticleSalesReader)(nil)

// ZalandoArticleSales aggregates daily shipment lines since the given time
func (r *SQLXArticleSalesReader) ZalandoArticleSales(ctx context.Context, since time.Time) ([]pricing.ArticleSales, error) {
	var rows []articleSalesRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(zalandoArticleSalesSQL), since); err != nil {
		return nil, err
	}
	out := make([]pricing.ArticleSales, len(rows))
	for i, row := range rows {
		out[i] = pricing.ArticleSales{
			Category:        row.Category,
			SKU:             row.SKU,
			ProductionCosts: row.CostsProduction.Decimal,
			PriceInCent:     row.ReportedPrice,
			Shipped:         row.Shipped,
			Returned:        row.Returned,
			Canceled:        row.Canceled,
		}
	}
	return out, nil
}
