package integrationapp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m13/backoffice/internal/domain/integration"
)

type countingRecorder struct {
	orders map[string]int
}

func (r *countingRecorder) RecordOrdersSynced(_ context.Context, m string, n int) {
	if r.orders == nil {
		r.orders = make(map[string]int)
	}
	r.orders[m] += n
}

func (r *countingRecorder) RecordItemsPushed(context.Context, string, int, int) {}

func TestOrderService_ImportOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("creates new orders and seeds otto prices", func(t *testing.T) {
		otto := &fakeAdapter{market: integration.MarketplaceOtto, orders: []*integration.Order{
			newTestOrder(integration.MarketplaceOtto, "o-1", newTestItem("p-1", "SKU-1", "4001", "29.95")),
		}}
		orders := newMemOrders()
		prices := newMemPrices()
		rec := &countingRecorder{}
		svc := NewOrderService(fakeRegistry{integration.MarketplaceOtto: otto}, orders, prices, &memErrors{}, rec, nil)

		res, err := svc.ImportOrders(ctx, integration.MarketplaceOtto, integration.OrderQuery{})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Fetched)
		assert.Equal(t, 1, res.Created)
		assert.Equal(t, 1, res.ItemsAdded)
		assert.Equal(t, 1, res.NewPrices)
		assert.Equal(t, 1, rec.orders["OTTO"])

		p, err := prices.FindBySKU(ctx, "SKU-1")
		require.NoError(t, err)
		require.NotNil(t, p.VkOtto)
		assert.Equal(t, "29.95", p.VkOtto.StringFixed(2))
		assert.Equal(t, "4001", p.EANValue())
	})

	t.Run("merges known orders", func(t *testing.T) {
		stored := newTestOrder(integration.MarketplaceEtsy, "123", newTestItem("p-1", "SKU-1", "", "10"))
		incoming := newTestOrder(integration.MarketplaceEtsy, "123",
			newTestItem("p-1", "SKU-1", "", "10"),
			newTestItem("p-2", "SKU-2", "", "12"))
		incoming.Status = "completed"
		etsy := &fakeAdapter{market: integration.MarketplaceEtsy, orders: []*integration.Order{incoming}}
		orders := newMemOrders(stored)
		svc := NewOrderService(fakeRegistry{integration.MarketplaceEtsy: etsy}, orders, newMemPrices(), &memErrors{}, nil, nil)

		res, err := svc.ImportOrders(ctx, integration.MarketplaceEtsy, integration.OrderQuery{})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Created)
		assert.Equal(t, 1, res.Updated)
		assert.Equal(t, 1, res.ItemsAdded)

		got, err := orders.FindByMarketplaceOrderID(ctx, integration.MarketplaceEtsy, "123")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, got.ID)
		assert.Equal(t, "completed", got.Status)
		assert.Len(t, got.Items, 2)
	})

	t.Run("fetch error is recorded", func(t *testing.T) {
		src := &fakeAdapter{market: integration.MarketplaceTikTok, fetchErr: integration.ErrMarketplaceRequestFailed}
		errs := &memErrors{}
		svc := NewOrderService(fakeRegistry{integration.MarketplaceTikTok: src}, newMemOrders(), newMemPrices(), errs, nil, nil)

		_, err := svc.ImportOrders(ctx, integration.MarketplaceTikTok, integration.OrderQuery{})
		require.ErrorIs(t, err, integration.ErrMarketplaceRequestFailed)
		assert.Equal(t, 1, errs.count())
	})

	t.Run("unknown marketplace", func(t *testing.T) {
		svc := NewOrderService(fakeRegistry{}, newMemOrders(), newMemPrices(), nil, nil, nil)
		_, err := svc.ImportOrders(ctx, integration.MarketplaceOtto, integration.OrderQuery{})
		assert.ErrorIs(t, err, integration.ErrMarketplaceNotConfigured)
	})
}

func TestOrderService_ImportAll(t *testing.T) {
	ctx := context.Background()
	otto := &fakeAdapter{market: integration.MarketplaceOtto, orders: []*integration.Order{
		newTestOrder(integration.MarketplaceOtto, "o-1"),
	}}
	broken := &fakeAdapter{market: integration.MarketplaceAboutYou, fetchErr: errors.New("boom")}
	svc := NewOrderService(fakeRegistry{
		integration.MarketplaceOtto:     otto,
		integration.MarketplaceAboutYou: broken,
	}, newMemOrders(), newMemPrices(), &memErrors{}, nil, nil)

	results, err := svc.ImportAll(ctx, integration.OrderQuery{})
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, integration.MarketplaceOtto, results[0].Marketplace)
}

func TestOrderService_ImportSingleOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		src := &fakeAdapter{market: integration.MarketplaceMirapodo, orders: []*integration.Order{
			newTestOrder(integration.MarketplaceMirapodo, "TB_1"),
		}}
		svc := NewOrderService(fakeRegistry{integration.MarketplaceMirapodo: src}, newMemOrders(), newMemPrices(), nil, nil, nil)

		order, err := svc.ImportSingleOrder(ctx, integration.MarketplaceMirapodo, "TB_1")
		require.NoError(t, err)
		assert.Equal(t, "TB_1", order.MarketplaceOrderID)
		require.Len(t, src.queries, 1)
		assert.Equal(t, "TB_1", src.queries[0].OrderID)
	})

	t.Run("not found", func(t *testing.T) {
		src := &fakeAdapter{market: integration.MarketplaceMirapodo}
		svc := NewOrderService(fakeRegistry{integration.MarketplaceMirapodo: src}, newMemOrders(), newMemPrices(), nil, nil, nil)

		_, err := svc.ImportSingleOrder(ctx, integration.MarketplaceMirapodo, "TB_2")
		assert.ErrorIs(t, err, integration.ErrOrderNotFound)
	})
}

func TestOrderService_Upsert_Nil(t *testing.T) {
	svc := NewOrderService(fakeRegistry{}, newMemOrders(), nil, nil, nil, nil)
	_, _, err := svc.Upsert(context.Background(), nil)
	assert.ErrorIs(t, err, integration.ErrOrderInvalid)
}
