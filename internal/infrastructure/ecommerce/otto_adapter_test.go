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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m13/backoffice/internal/domain/integration"
)

func TestOttoConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *OttoConfig
		wantErr error
	}{
		{name: "valid config", config: &OttoConfig{Username: "u", Password: "p"}},
		{name: "missing username", config: &OttoConfig{Password: "p"}, wantErr: ErrOttoConfigMissingUsername},
		{name: "missing password", config: &OttoConfig{Username: "u"}, wantErr: ErrOttoConfigMissingPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, OttoProductionAPIURL, tt.config.BaseURL)
			assert.Equal(t, 14, tt.config.OrderLookbackDays)
		})
	}
}

const ottoOrderJSON = `{
  "salesOrderId": "so-1",
  "orderNumber": "ABC123",
  "orderDate": "2024-03-01T10:00:00.000Z",
  "lastModifiedDate": "2024-03-02T10:00:00.000Z",
  "initialDeliveryFees": [{"name": "DELIVERY_FEE_STANDARD", "deliveryFeeAmount": {"amount": 0, "currency": "EUR"}}],
  "deliveryAddress": {"firstName": "Erika", "lastName": "Mustermann", "street": "Hauptstr.", "houseNumber": "1", "zipCode": "01067", "city": "Dresden", "countryCode": "DEU"},
  "invoiceAddress": {"email": "erika@example.com"},
  "positionItems": [
    {"positionItemId": "p-1", "fulfillmentStatus": "PROCESSABLE", "expectedDeliveryDate": "2024-03-05T00:00:00Z",
     "itemValueGrossPrice": {"amount": 69.95, "currency": "EUR"},
     "product": {"sku": "M13-001", "ean": "4260000000001", "articleNumber": "A1", "productTitle": "Belt", "vatRate": 19}},
    {"positionItemId": "p-2", "fulfillmentStatus": "RETURNED", "returnedDate": "2024-03-10T00:00:00Z",
     "itemValueGrossPrice": {"amount": 24.5, "currency": "EUR"},
     "product": {"sku": "M13-002", "ean": "4260000000002", "vatRate": "19"},
     "trackingInfo": {"carrier": "DHL", "trackingNumber": "T-1"}}
  ]
}`

type ottoServer struct {
	*httptest.Server
	tokenCalls  atomic.Int32
	rejectFirst atomic.Bool
	quantities  atomic.Int32
	stockPosts  atomic.Int32
	shipment    ottoShipmentRequest
}

func newOttoServer(t *testing.T) *ottoServer {
	s := &ottoServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "token-otto-api", r.PostForm.Get("client_id"))
		n := s.tokenCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-" + strconv.Itoa(int(n)), "expires_in": 1800})
	})
	mux.HandleFunc("/v4/orders", func(w http.ResponseWriter, r *http.Request) {
		if s.rejectFirst.CompareAndSwap(true, false) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "PROCESSABLE", r.URL.Query().Get("fulfillmentStatus"))
		assert.NotEmpty(t, r.URL.Query().Get("fromOrderDate"))
		_, _ = w.Write([]byte(`{"resources": [` + ottoOrderJSON + `, {"salesOrderId": "so-announced", "positionItems": [{"positionItemId": "x", "product": {"sku": "S"}}]}],
			"links": [{"rel": "next", "href": "/v4/orders/next-page"}]}`))
	})
	mux.HandleFunc("/v4/orders/next-page", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resources": [], "links": []}`))
	})
	mux.HandleFunc("/v2/quantities", func(w http.ResponseWriter, r *http.Request) {
		var body []ottoQuantity
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.LessOrEqual(t, len(body), 100)
		s.quantities.Add(int32(len(body)))
		if s.stockPosts.Add(1) == 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/shipments", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&s.shipment))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"shipmentId": "s-1"}`))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestOttoAdapter(t *testing.T, url string) *OttoAdapter {
	a, err := NewOttoAdapter(&OttoConfig{Enabled: true, BaseURL: url, Username: "u", Password: "p", FallbackEmail: "otto@example.com"}, nil, ClientOptions{})
	require.NoError(t, err)
	return a
}

func TestOttoAdapter_FetchOrders(t *testing.T) {
	srv := newOttoServer(t)
	a := newTestOttoAdapter(t, srv.URL)
	assert.Equal(t, integration.MarketplaceOtto, a.Marketplace())
	assert.True(t, a.IsEnabled())

	orders, err := a.FetchOrders(context.Background(), integration.OrderQuery{})
	require.NoError(t, err)
	require.Len(t, orders, 1, "order without delivery address is skipped")

	o := orders[0]
	assert.Equal(t, "so-1", o.MarketplaceOrderID)
	assert.Equal(t, "ABC123", o.OrderNumber)
	assert.Equal(t, "erika@example.com", o.Email)
	assert.Equal(t, "Dresden", o.DeliveryAddress.City)
	assert.Equal(t, "Dresden", o.InvoiceAddress.City)
	assert.Contains(t, o.DeliveryFee, "DELIVERY_FEE_STANDARD")
	require.Len(t, o.Items, 2)
	assert.Equal(t, "69.95", o.Items[0].Price.StringFixed(2))
	assert.Equal(t, "19", o.Items[0].VatRate.String())
	assert.Equal(t, "T-1", o.Items[1].TrackingNumber)
	require.NotNil(t, o.Items[1].ExpectedDeliveryDate)
	assert.Equal(t, 10, o.Items[1].ExpectedDeliveryDate.Day())
	assert.Equal(t, int32(1), srv.tokenCalls.Load())
}

func TestOttoAdapter_RenewsTokenOn401(t *testing.T) {
	srv := newOttoServer(t)
	srv.rejectFirst.Store(true)
	a := newTestOttoAdapter(t, srv.URL)

	orders, err := a.FetchOrders(context.Background(), integration.OrderQuery{FulfillmentStatus: "PROCESSABLE"})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, int32(2), srv.tokenCalls.Load())
}

func TestOttoAdapter_FetchOrders_InvalidStatus(t *testing.T) {
	a := newTestOttoAdapter(t, "http://127.0.0.1:1")
	_, err := a.FetchOrders(context.Background(), integration.OrderQuery{FulfillmentStatus: "LOST"})
	assert.ErrorIs(t, err, integration.ErrInvalidFulfillStatus)
}

func TestOttoAdapter_PushStock(t *testing.T) {
	srv := newOttoServer(t)
	a := newTestOttoAdapter(t, srv.URL)

	items := make([]integration.StockItem, 250)
	for i := range items {
		items[i] = integration.StockItem{SKU: "SKU-" + strconv.Itoa(i), Quantity: i % 5}
	}
	result, err := a.PushStock(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, int32(3), srv.stockPosts.Load())
	assert.Equal(t, int32(250), srv.quantities.Load())
	assert.Equal(t, 150, result.SuccessCount)
	assert.Equal(t, 100, result.FailedCount)
	assert.Equal(t, integration.SyncStatusPartial, result.Status)
}

func TestOttoAdapter_UploadShipment(t *testing.T) {
	srv := newOttoServer(t)
	a := newTestOttoAdapter(t, srv.URL)

	order, err := integration.NewOrder(integration.MarketplaceOtto, "so-1")
	require.NoError(t, err)
	order.DeliveryAddress = &integration.Address{City: "Dresden", CountryCode: "DEU", ZipCode: "01067"}
	require.NoError(t, order.AddItem(integration.NewOrderItem("p-1")))
	require.NoError(t, order.AddItem(integration.NewOrderItem("p-2")))

	res, err := a.UploadShipment(context.Background(), integration.ShipmentRequest{
		Order: order, Carrier: "hermes", TrackingNumber: "H123", ShipDate: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted())
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	assert.Equal(t, "HERMES", srv.shipment.TrackingKey.Carrier)
	assert.Equal(t, "2024-03-01T08:00:00Z", srv.shipment.ShipDate)
	assert.Equal(t, "01067", srv.shipment.ShipFromAddress.ZipCode)
	require.Len(t, srv.shipment.PositionItems, 2)
	assert.Equal(t, "so-1", srv.shipment.PositionItems[1].SalesOrderID)
	assert.Equal(t, "H123", srv.shipment.PositionItems[0].ReturnTrackingKey.TrackingNumber)
}

func TestOttoAdapter_UploadShipment_NoAddress(t *testing.T) {
	a := newTestOttoAdapter(t, "http://127.0.0.1:1")
	order, _ := integration.NewOrder(integration.MarketplaceOtto, "so-2")
	_, err := a.UploadShipment(context.Background(), integration.ShipmentRequest{Order: order, TrackingNumber: "X"})
	assert.ErrorIs(t, err, integration.ErrShipmentInvalid)
}
