package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m13/backoffice/internal/domain/integration"
)

func TestEtsyConfig_Validate(t *testing.T) {
	c := &EtsyConfig{APIKey: "key", ShopID: "42"}
	require.NoError(t, c.Validate())
	assert.Equal(t, EtsyProductionAPIURL, c.BaseURL)
	assert.Equal(t, EtsyProductionAuthURL, c.AuthURL)
	assert.Equal(t, 7, c.OrderLookbackDays)
	assert.Equal(t, 999, c.MaxQuantity)

	assert.ErrorIs(t, (&EtsyConfig{ShopID: "42"}).Validate(), ErrEtsyConfigMissingAPIKey)
	assert.ErrorIs(t, (&EtsyConfig{APIKey: "key"}).Validate(), ErrEtsyConfigMissingShopID)
}

const etsyReceiptsJSON = `{"count": 1, "results": [{
  "receipt_id": 3001, "status": "Paid", "buyer_email": "b@example.com", "name": "Max Muster",
  "first_line": "Weg 5", "second_line": "", "city": "Berlin", "zip": "10115", "country_iso": "DE",
  "create_timestamp": 1709287200, "update_timestamp": 1709290800,
  "total_shipping_cost": {"amount": 495, "divisor": 100, "currency_code": "EUR"},
  "shipments": [{"carrier_name": "dhl", "tracking_code": "T-9"}],
  "transactions": [
    {"transaction_id": 9001, "listing_id": 777, "title": "Bag", "sku": "BAG-1", "quantity": 2,
     "price": {"amount": 12900, "divisor": 100, "currency_code": "EUR"}}
  ]}]}`

const etsyInventoryJSON = `{"products": [{"product_id": 1, "sku": "BAG-1", "is_deleted": false,
  "offerings": [{"offering_id": 5, "is_deleted": false, "is_enabled": true, "quantity": %d,
  "price": {"amount": 12900, "divisor": 100, "currency_code": "EUR"}}]}],
  "price_on_property": [], "quantity_on_property": [], "sku_on_property": []}`

type etsyServer struct {
	*httptest.Server
	refreshCalls atomic.Int32
	mu           sync.Mutex
	puts         []map[string]any
	rejectZero   bool
	tracking     map[string]string
}

func newEtsyServer(t *testing.T, quantity int) *etsyServer {
	s := &etsyServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/public/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "key", r.PostForm.Get("client_id"))
		assert.Equal(t, "refresh-0", r.PostForm.Get("refresh_token"))
		s.refreshCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "access-1", "refresh_token": "refresh-1", "expires_in": 3600})
	})
	mux.HandleFunc("/v3/application/shops/42/receipts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.URL.Query().Get("min_created"))
		_, _ = io.WriteString(w, etsyReceiptsJSON)
	})
	mux.HandleFunc("/v3/application/shops/42/listings/active", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			_, _ = io.WriteString(w, `{"count": 3, "results": []}`)
			return
		}
		_, _ = io.WriteString(w, `{"count": 3, "results": [
		  {"listing_id": 777, "title": "Bag", "skus": ["BAG-1"], "quantity": 4},
		  {"listing_id": 778, "title": "Twin", "skus": ["A", "B"], "quantity": 1},
		  {"listing_id": 779, "title": "None", "skus": [], "quantity": 1}]}`)
	})
	mux.HandleFunc("/v3/application/listings/777/inventory", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, fmt.Sprintf(etsyInventoryJSON, quantity))
			return
		}
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		s.mu.Lock()
		s.puts = append(s.puts, body)
		first := len(s.puts) == 1
		s.mu.Unlock()
		if s.rejectZero && first {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error": "One offering must have quantity greater than 0"}`)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	})
	mux.HandleFunc("/v3/application/shops/42/receipts/3001/tracking", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		s.tracking = map[string]string{
			"tracking_code": r.PostForm.Get("tracking_code"),
			"carrier_name":  r.PostForm.Get("carrier_name"),
		}
		_, _ = io.WriteString(w, `{"receipt_id": 3001}`)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestEtsyAdapter(t *testing.T, srv *etsyServer, products *memoryProductRepo) (*EtsyAdapter, *memoryTokenRepo) {
	tokens := &memoryTokenRepo{}
	require.NoError(t, tokens.Save(context.Background(),
		integration.NewAuthToken(integration.MarketplaceEtsy, "access-0", "refresh-0", 0)))
	a, err := NewEtsyAdapter(&EtsyConfig{
		Enabled: true, BaseURL: srv.URL, AuthURL: srv.URL, APIKey: "key", ShopID: "42",
	}, tokens, products, nil, ClientOptions{})
	require.NoError(t, err)
	return a, tokens
}

func TestEtsyAdapter_FetchOrders(t *testing.T) {
	srv := newEtsyServer(t, 0)
	a, tokens := newTestEtsyAdapter(t, srv, newMemoryProductRepo())

	orders, err := a.FetchOrders(context.Background(), integration.OrderQuery{})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, "3001", o.MarketplaceOrderID)
	assert.Equal(t, "PAID", o.Status)
	assert.Equal(t, "4.95", o.DeliveryFee)
	assert.Equal(t, "Berlin", o.DeliveryAddress.City)
	assert.Equal(t, time.Unix(1709287200, 0).UTC(), o.OrderDate)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "9001", o.Items[0].PositionItemID)
	assert.Equal(t, "129", o.Items[0].Price.String())
	assert.Equal(t, "777", o.Items[0].EAN)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, "T-9", o.Items[0].TrackingNumber)

	// the rotated pair is stored
	assert.Equal(t, int32(1), srv.refreshCalls.Load())
	latest, err := tokens.FindLatest(context.Background(), integration.MarketplaceEtsy)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", latest.RefreshToken)
}

func TestEtsyAdapter_NoStoredToken(t *testing.T) {
	srv := newEtsyServer(t, 0)
	a, err := NewEtsyAdapter(&EtsyConfig{BaseURL: srv.URL, AuthURL: srv.URL, APIKey: "key", ShopID: "42"},
		&memoryTokenRepo{}, newMemoryProductRepo(), nil, ClientOptions{})
	require.NoError(t, err)

	_, err = a.FetchOrders(context.Background(), integration.OrderQuery{})
	assert.ErrorIs(t, err, integration.ErrMarketplaceNotConfigured)
}

func TestEtsyAdapter_SyncListings(t *testing.T) {
	srv := newEtsyServer(t, 0)
	products := newMemoryProductRepo()
	a, _ := newTestEtsyAdapter(t, srv, products)

	n, err := a.SyncListings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := products.FindBySKU(context.Background(), integration.MarketplaceEtsy, "BAG-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "777", got[0].ProductID)
	assert.Equal(t, 4, got[0].Quantity)
}

func TestEtsyAdapter_PushStock(t *testing.T) {
	tests := []struct {
		name        string
		etsyQty     int
		rejectZero  bool
		pushQty     int
		wantPuts    int
		wantSkipped int
		wantSuccess int
	}{
		{name: "updates quantity", etsyQty: 3, pushQty: 5, wantPuts: 1, wantSuccess: 1, wantSkipped: 1},
		{name: "already in sync", etsyQty: 5, pushQty: 5, wantPuts: 0, wantSkipped: 2},
		{name: "caps quantity", etsyQty: 999, pushQty: 5000, wantPuts: 0, wantSkipped: 2},
		{name: "disables last offering", etsyQty: 3, pushQty: 0, rejectZero: true, wantPuts: 2, wantSuccess: 1, wantSkipped: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newEtsyServer(t, tt.etsyQty)
			srv.rejectZero = tt.rejectZero
			products := newMemoryProductRepo(mustProduct(integration.MarketplaceEtsy, "BAG-1", "777"))
			a, _ := newTestEtsyAdapter(t, srv, products)

			res, err := a.PushStock(context.Background(), []integration.StockItem{
				{SKU: "BAG-1", Quantity: tt.pushQty},
				{SKU: "UNKNOWN", Quantity: 1},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, res.SuccessCount)
			assert.Equal(t, tt.wantSkipped, res.SkippedCount)
			assert.Equal(t, integration.SyncStatusSuccess, res.Status)

			srv.mu.Lock()
			defer srv.mu.Unlock()
			require.Len(t, srv.puts, tt.wantPuts)
			if tt.wantPuts == 0 {
				return
			}
			product := srv.puts[0]["products"].([]any)[0].(map[string]any)
			assert.NotContains(t, product, "product_id")
			assert.NotContains(t, product, "is_deleted")
			offering := product["offerings"].([]any)[0].(map[string]any)
			assert.NotContains(t, offering, "offering_id")
			assert.Equal(t, 129.0, offering["price"])
			assert.Equal(t, float64(tt.pushQty), offering["quantity"])

			if tt.rejectZero {
				retry := srv.puts[1]["products"].([]any)[0].(map[string]any)["offerings"].([]any)[0].(map[string]any)
				assert.Equal(t, false, retry["is_enabled"])
				assert.Equal(t, 1.0, retry["quantity"])
			}
		})
	}
}

func TestEtsyAdapter_UploadShipment(t *testing.T) {
	srv := newEtsyServer(t, 0)
	a, _ := newTestEtsyAdapter(t, srv, newMemoryProductRepo())

	order, err := integration.NewOrder(integration.MarketplaceEtsy, "3001")
	require.NoError(t, err)
	res, err := a.UploadShipment(context.Background(), integration.ShipmentRequest{
		Order: order, Carrier: "DHL", TrackingNumber: "00340434",
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted())
	assert.Equal(t, map[string]string{"tracking_code": "00340434", "carrier_name": "dhl"}, srv.tracking)
}
