package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m13/backoffice/internal/domain/integration"
)

func TestGormShipmentRepository(t *testing.T) {
	repo := NewGormShipmentRepository(setupTestDB(t))
	ctx := context.Background()

	order, err := integration.NewOrder(integration.MarketplaceMirapodo, "TB_1001")
	require.NoError(t, err)

	req := integration.ShipmentRequest{Order: order, Carrier: integration.CarrierDHL, TrackingNumber: "00340434161094015902"}
	require.NoError(t, repo.Save(ctx, integration.NewShipment(req, &integration.ShipmentResult{StatusCode: 409, Response: "conflict"})))

	other, _ := integration.NewOrder(integration.MarketplaceOtto, "so-1")
	require.NoError(t, repo.Save(ctx, integration.NewShipment(integration.ShipmentRequest{Order: other, TrackingNumber: "H1"}, nil)))

	mirapodo, err := repo.FindAll(ctx, integration.MarketplaceMirapodo, 10)
	require.NoError(t, err)
	require.Len(t, mirapodo, 1)
	assert.Equal(t, "TB_1001", mirapodo[0].MarketplaceOrderID)
	assert.Equal(t, 409, mirapodo[0].ResponseStatusCode)
	assert.Equal(t, order.ID, mirapodo[0].OrderID)

	all, err := repo.FindAll(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGormBatchRequestRepository(t *testing.T) {
	repo := NewGormBatchRequestRepository(setupTestDB(t))
	ctx := context.Background()

	batch := integration.NewBatchRequest(integration.MarketplaceAboutYou, integration.BatchKindStock, "b-1")
	require.NoError(t, repo.Save(ctx, batch))
	done := integration.NewBatchRequest(integration.MarketplaceAboutYou, integration.BatchKindPrice, "b-2")
	done.Record(integration.BatchStatusCompleted, `{"status":"completed"}`)
	require.NoError(t, repo.Save(ctx, done))

	pending, err := repo.FindPending(ctx, integration.MarketplaceAboutYou)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b-1", pending[0].BatchRequestID)

	batch.Record("processing", "{}")
	require.NoError(t, repo.Save(ctx, batch))
	found, err := repo.FindByBatchID(ctx, integration.MarketplaceAboutYou, "b-1")
	require.NoError(t, err)
	assert.Equal(t, 1, found.Attempts)
	assert.Equal(t, "processing", found.Status)
	assert.Equal(t, integration.BatchKindStock, found.Kind)

	completed, err := repo.FindByBatchID(ctx, integration.MarketplaceAboutYou, "b-2")
	require.NoError(t, err)
	assert.True(t, completed.IsCompleted())
	assert.NotNil(t, completed.Completed)

	_, err = repo.FindByBatchID(ctx, integration.MarketplaceOtto, "b-1")
	assert.ErrorIs(t, err, integration.ErrBatchNotFound)
}

func TestGormFeedUploadRepository(t *testing.T) {
	repo := NewGormFeedUploadRepository(setupTestDB(t))
	ctx := context.Background()

	upload := integration.NewFeedUpload(integration.MarketplaceZalando, decimal.RequireFromString("1.2"))
	upload.TransformedPath = "feeds/zalando/transformed.csv"
	upload.ValidItems = 812
	upload.UploadStatusCode = 200
	require.NoError(t, repo.Save(ctx, upload))

	galeria := integration.NewFeedUpload(integration.MarketplaceGaleria, decimal.RequireFromString("1.2"))
	galeria.CreatedAt = time.Now().Add(time.Minute)
	require.NoError(t, repo.Save(ctx, galeria))

	recent, err := repo.FindRecent(ctx, integration.MarketplaceZalando, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, 812, recent[0].ValidItems)
	assert.True(t, recent[0].Succeeded())
	assert.True(t, recent[0].ZFactor.Equal(decimal.RequireFromString("1.2")))

	all, err := repo.FindRecent(ctx, "", 5)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, integration.MarketplaceGaleria, all[0].Marketplace)
}

func TestGormAuthTokenRepository(t *testing.T) {
	repo := NewGormAuthTokenRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.FindLatest(ctx, integration.MarketplaceEtsy)
	assert.ErrorIs(t, err, integration.ErrAuthTokenNotFound)

	first := integration.NewAuthToken(integration.MarketplaceEtsy, "a1", "r1", time.Hour)
	first.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(ctx, first))
	second := integration.NewAuthToken(integration.MarketplaceEtsy, "a2", "r2", 0)
	require.NoError(t, repo.Save(ctx, second))

	latest, err := repo.FindLatest(ctx, integration.MarketplaceEtsy)
	require.NoError(t, err)
	assert.Equal(t, "r2", latest.RefreshToken)
	assert.True(t, latest.ExpiresAt.IsZero())
	assert.False(t, latest.Expired(time.Now()))
}

func TestGormMarketplaceProductRepository_Upsert(t *testing.T) {
	repo := NewGormMarketplaceProductRepository(setupTestDB(t))
	ctx := context.Background()

	newProduct := func(sku, warehouse string, qty int) *integration.MarketplaceProduct {
		p, err := integration.NewMarketplaceProduct(integration.MarketplaceTikTok, sku, "1729-"+sku)
		require.NoError(t, err)
		p.WarehouseID = warehouse
		p.Quantity = qty
		return p
	}

	require.NoError(t, repo.Upsert(ctx, []*integration.MarketplaceProduct{
		newProduct("M13-001", "wh-1", 3),
		newProduct("M13-001", "wh-2", 1),
		newProduct("M13-002", "wh-1", 0),
		newProduct("M13-002", "wh-1", 7),
	}))
	require.NoError(t, repo.Upsert(ctx, []*integration.MarketplaceProduct{newProduct("M13-001", "wh-1", 9)}))

	bySKU, err := repo.FindBySKU(ctx, integration.MarketplaceTikTok, "M13-001")
	require.NoError(t, err)
	require.Len(t, bySKU, 2)
	assert.Equal(t, "wh-1", bySKU[0].WarehouseID)
	assert.Equal(t, 9, bySKU[0].Quantity)

	all, err := repo.FindAll(ctx, integration.MarketplaceTikTok)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 7, all[2].Quantity, "the last duplicate in a batch wins")

	etsy, err := repo.FindAll(ctx, integration.MarketplaceEtsy)
	require.NoError(t, err)
	assert.Empty(t, etsy)
	assert.NoError(t, repo.Upsert(ctx, nil))
}

func TestGormWebhookMessageRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormWebhookMessageRepository(db)

	msg := integration.NewWebhookMessage(integration.MarketplaceZalando, "10101010", "fulfilled", `{"state":"fulfilled"}`)
	require.NoError(t, repo.Save(context.Background(), msg))

	var count int64
	require.NoError(t, db.Table("webhook_messages").Where("order_id = ?", "10101010").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
