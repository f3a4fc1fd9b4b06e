package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/report"
	"github.com/m13/backoffice/internal/domain/shared"
)

func TestSQLXArticleSalesReader_ZalandoArticleSales(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	reader := NewSQLXArticleSalesReader(sqlx.NewDb(mockDB, "postgres"))
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	columns := []string{"category_name", "sku", "costs_production", "reported_price", "shipped", "returned", "canceled"}
	mock.ExpectQuery(`LEFT JOIN prices AS p .+ LEFT JOIN categories AS c .+` + regexp.QuoteMeta("WHERE d.order_event_time >= $1")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("Woman Bomber Jacken", "women-bom-na-s", "21.50", int64(6995), 10, 3, 1).
			AddRow("Woman Bomber Jacken", "women-bom-na-s", nil, int64(5995), 2, 0, 0))

	sales, err := reader.ZalandoArticleSales(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, sales, 2)

	assert.Equal(t, "women-bom-na-s", sales[0].SKU)
	assert.Equal(t, "21.5", sales[0].ProductionCosts.String())
	assert.Equal(t, int64(6995), sales[0].PriceInCent)
	assert.Equal(t, 10, sales[0].Shipped)
	assert.Equal(t, 3, sales[0].Returned)
	assert.Equal(t, 1, sales[0].Canceled)
	assert.True(t, sales[1].ProductionCosts.IsZero(), "missing production costs count as zero")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXArticleSalesReader_QueryError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	_, err = NewSQLXArticleSalesReader(sqlx.NewDb(mockDB, "postgres")).ZalandoArticleSales(context.Background(), time.Now())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSQLXArticleSalesReader_UnknownArticleNumbers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	categories := NewGormCategoryRepository(db)
	prices := NewGormPriceRepository(db)
	category, err := catalog.NewCategory("Belts", "")
	require.NoError(t, err)
	require.NoError(t, categories.Save(ctx, category))
	known, err := catalog.NewPrice("M13-001")
	require.NoError(t, err)
	costs := decimal.RequireFromString("10")
	known.CostsProduction = &costs
	known.CategoryID = &category.ID
	require.NoError(t, prices.Save(ctx, known))

	// registered on import, no category yet
	created, err := prices.EnsureSKU(ctx, "M13-NEW", "4260000000099")
	require.NoError(t, err)
	require.True(t, created)

	eventTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	line := func(article, order string) *report.DailyShipment {
		return &report.DailyShipment{
			BaseEntity:         shared.NewBaseEntity(),
			ArticleNumber:      article,
			ChannelOrderNumber: order,
			OrderEventTime:     eventTime,
			Shipment:           true,
			PriceInCent:        2995,
		}
	}
	_, err = NewGormDailyShipmentRepository(db).SaveAll(ctx, []*report.DailyShipment{
		line("m13-001", "1"), line("M13-NEW", "2"), line("M13-NEW", "3"), line("M13-GHOST", "4"),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	reader := NewSQLXArticleSalesReader(sqlx.NewDb(sqlDB, "sqlite3"))

	sales, err := reader.ZalandoArticleSales(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, sales, 3)

	bySKU := make(map[string]int, len(sales))
	for i, s := range sales {
		bySKU[s.SKU] = i
	}
	require.Contains(t, bySKU, "m13-001")
	require.Contains(t, bySKU, "M13-NEW")
	require.Contains(t, bySKU, "M13-GHOST")

	belt := sales[bySKU["m13-001"]]
	assert.Equal(t, "Belts", belt.Category, "price rows match regardless of case")
	assert.True(t, belt.ProductionCosts.Equal(costs))

	fresh := sales[bySKU["M13-NEW"]]
	assert.Equal(t, UncategorizedName, fresh.Category)
	assert.Equal(t, 2, fresh.Shipped)
	assert.True(t, fresh.ProductionCosts.IsZero())

	assert.Equal(t, UncategorizedName, sales[bySKU["M13-GHOST"]].Category)
}
