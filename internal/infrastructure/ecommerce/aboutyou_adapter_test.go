package ecommerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m13/backoffice/internal/domain/integration"
)

type aboutYouServer struct {
	*httptest.Server
	stockPuts   atomic.Int32
	statusPolls atomic.Int32
	prices      aboutYouItems[aboutYouPriceItem]
	ship        aboutYouItems[aboutYouShipItem]
	neverDone   atomic.Bool
}

func newAboutYouServer(t *testing.T) *aboutYouServer {
	s := &aboutYouServer{}
	mux := http.NewServeMux()
	batch := func(w http.ResponseWriter, id string) {
		_ = json.NewEncoder(w).Encode(map[string]string{"batchRequestId": id})
	}
	mux.HandleFunc("/api/v1/products/stocks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		var body aboutYouItems[aboutYouStockItem]
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.LessOrEqual(t, len(body.Items), 100)
		n := s.stockPuts.Add(1)
		batch(w, "stock-"+strconv.Itoa(int(n)))
	})
	mux.HandleFunc("/api/v1/products/prices", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&s.prices))
		batch(w, "price-1")
	})
	mux.HandleFunc("/api/v1/orders/ship", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&s.ship))
		batch(w, "ship-1")
	})
	status := func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("batch_request_id"))
		n := s.statusPolls.Add(1)
		st := "processing"
		if n%2 == 0 && !s.neverDone.Load() {
			st = "completed"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": st})
	}
	mux.HandleFunc("/api/v1/results/stocks", status)
	mux.HandleFunc("/api/v1/results/prices", status)
	mux.HandleFunc("/api/v1/results/ship-orders", status)
	mux.HandleFunc("/api/v1/orders/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{
			"order_number": "ayou-100", "status": "open", "created_at": "2024-03-01T10:00:00Z",
			"shipping_recipient_first_name": "Erika", "shipping_recipient_last_name": "M", "shipping_street": "Hauptstr. 1",
			"shipping_zip_code": "20095", "shipping_city": "Hamburg", "shipping_country_code": "DE",
			"billing_recipient_first_name": "Max", "billing_city": "Berlin",
			"order_items": [{"id": 4711, "status": "open", "sku": "M13-001", "price_with_tax": 4995, "vat": 19}]
		}]}`))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestAboutYouAdapter(t *testing.T, url string, repo integration.BatchRequestRepository) (*AboutYouAdapter, *[]time.Duration) {
	var waits []time.Duration
	a, err := NewAboutYouAdapter(&AboutYouConfig{Enabled: true, BaseURL: url, APIKey: "key"}, instantPoller(repo, &waits), ClientOptions{})
	require.NoError(t, err)
	return a, &waits
}

func TestAboutYouConfig_Validate(t *testing.T) {
	c := &AboutYouConfig{}
	assert.ErrorIs(t, c.Validate(), ErrAboutYouConfigMissingAPIKey)

	c.APIKey = "k"
	require.NoError(t, c.Validate())
	assert.Equal(t, "DHL_STD_NATIONAL", c.CarrierKey)
	assert.Equal(t, "DE", c.CountryCode)
}

func TestAboutYouAdapter_PushStock(t *testing.T) {
	srv := newAboutYouServer(t)
	repo := &memoryBatchRepo{}
	a, _ := newTestAboutYouAdapter(t, srv.URL, repo)

	items := make([]integration.StockItem, 150)
	for i := range items {
		items[i] = integration.StockItem{SKU: "S" + strconv.Itoa(i), Quantity: 1}
	}
	result, err := a.PushStock(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusSuccess, result.Status)
	assert.Equal(t, 150, result.SuccessCount)
	assert.Equal(t, []string{"stock-1", "stock-2"}, result.BatchRequestIDs)
	assert.Equal(t, int32(2), srv.stockPuts.Load())
	assert.Equal(t, int32(4), srv.statusPolls.Load())
	assert.Equal(t, []string{"pending", "processing", "completed", "pending", "processing", "completed"}, repo.saved)
}

func TestAboutYouAdapter_PushStock_PendingBatchIsNotAFailure(t *testing.T) {
	srv := newAboutYouServer(t)
	srv.neverDone.Store(true)
	a, waits := newTestAboutYouAdapter(t, srv.URL, nil)

	result, err := a.PushStock(context.Background(), []integration.StockItem{{SKU: "S", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Len(t, *waits, 6)
}

func TestAboutYouAdapter_PushPrices(t *testing.T) {
	srv := newAboutYouServer(t)
	a, _ := newTestAboutYouAdapter(t, srv.URL, nil)

	result, err := a.PushPrices(context.Background(), []integration.PriceItem{
		{SKU: "S1", RetailPrice: decimal.RequireFromString("34.95")},
		{SKU: "S2", CountryCode: "AT", RetailPrice: decimal.RequireFromString("19.95")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	require.Len(t, srv.prices.Items, 2)
	assert.Equal(t, "DE", srv.prices.Items[0].Price.CountryCode)
	assert.Equal(t, "AT", srv.prices.Items[1].Price.CountryCode)
	assert.True(t, srv.prices.Items[0].Price.RetailPrice.Equal(decimal.RequireFromString("34.95")))
}

func TestAboutYouAdapter_FetchOrders(t *testing.T) {
	srv := newAboutYouServer(t)
	a, _ := newTestAboutYouAdapter(t, srv.URL, nil)

	orders, err := a.FetchOrders(context.Background(), integration.OrderQuery{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, "ayou-100", o.MarketplaceOrderID)
	assert.Equal(t, "Hamburg", o.DeliveryAddress.City)
	assert.Equal(t, "Berlin", o.InvoiceAddress.City)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "4711", o.Items[0].PositionItemID)
	assert.Equal(t, "49.95", o.Items[0].Price.StringFixed(2))
}

func TestAboutYouAdapter_UploadShipment(t *testing.T) {
	srv := newAboutYouServer(t)
	a, _ := newTestAboutYouAdapter(t, srv.URL, nil)

	order, _ := integration.NewOrder(integration.MarketplaceAboutYou, "ayou-100")
	require.NoError(t, order.AddItem(integration.NewOrderItem("4711")))
	require.NoError(t, order.AddItem(integration.NewOrderItem("4712")))

	res, err := a.UploadShipment(context.Background(), integration.ShipmentRequest{
		Order: order, TrackingNumber: "0034", ReturnTrackingNumber: "R-1",
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted())
	assert.Equal(t, "ship-1", res.BatchRequestID)
	require.Len(t, srv.ship.Items, 1)
	assert.Equal(t, []int64{4711, 4712}, srv.ship.Items[0].OrderItems)
	assert.Equal(t, "DHL_STD_NATIONAL", srv.ship.Items[0].CarrierKey)
	assert.Equal(t, "R-1", srv.ship.Items[0].ReturnTrackingKey)
}

func TestAboutYouAdapter_UploadShipment_InvalidItemID(t *testing.T) {
	a, _ := newTestAboutYouAdapter(t, "http://127.0.0.1:1", nil)
	order, _ := integration.NewOrder(integration.MarketplaceAboutYou, "ayou-1")
	require.NoError(t, order.AddItem(integration.NewOrderItem("abc")))
	_, err := a.UploadShipment(context.Background(), integration.ShipmentRequest{Order: order, TrackingNumber: "1"})
	assert.ErrorIs(t, err, integration.ErrShipmentInvalid)
}
