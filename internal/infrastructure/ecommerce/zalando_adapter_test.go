package ecommerce

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m13/backoffice/internal/domain/integration"
)

const oeaFulfilled = `{
  "event_id": "70947cfd-c3fc-4421-91e5-9e62b10153c3",
  "order_id": "478d3ff7-f94a-41f7-8095-c62b3073f9b8",
  "order_number": "10103350851622",
  "state": "fulfilled",
  "store_id": "001",
  "timestamp": "2021-09-16T06:21:39.390060Z",
  "customer_billing_address": {"address_line_1": "Am Anger 28 b", "city": "Eichstätt", "country_code": "DE", "first_name": "R.", "last_name": "K.", "zip_code": "85072"},
  "delivery_details": {"delivery_carrier_name": "DHL_DE", "delivery_tracking_number": "00340414644694802419", "return_carrier_name": "DHL_DE", "return_tracking_number": "00340414644694802419"},
  "items": [{"article_location": "Chop Shop", "article_number": "NECKW-NA", "currency": "EUR", "ean": "0781491971467", "item_id": "b634ddef", "price": 24.95, "zalando_article_number": "MGQ54G005-K110ONE000"}]
}`

func TestParseOEAEvent_Fulfilled(t *testing.T) {
	e, err := ParseOEAEvent([]byte(oeaFulfilled))
	require.NoError(t, err)

	order, err := e.ToOrder()
	require.NoError(t, err)
	assert.Equal(t, integration.MarketplaceZalando, order.Marketplace)
	assert.Equal(t, "478d3ff7-f94a-41f7-8095-c62b3073f9b8", order.MarketplaceOrderID)
	assert.Equal(t, "10103350851622", order.OrderNumber)
	assert.Equal(t, "001", order.StoreID)
	assert.Equal(t, "fulfilled", order.Status)
	assert.Equal(t, "Am Anger 28 b", order.DeliveryAddress.Street)
	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "b634ddef", item.PositionItemID)
	assert.Equal(t, "24.95", item.Price.StringFixed(2))
	assert.Equal(t, "DHL_DE", item.Carrier)
	assert.Equal(t, "00340414644694802419", item.TrackingNumber)
	assert.Equal(t, "fulfilled", item.FulfillmentStatus)
}

func TestParseOEAEvent_Assigned(t *testing.T) {
	e, err := ParseOEAEvent([]byte(`{"order_id":"o-1","order_number":"1","state":"assigned","store_id":"001","timestamp":"2021-09-15T09:09:28Z","items":[{"item_id":"i-1","price":10}]}`))
	require.NoError(t, err)
	order, err := e.ToOrder()
	require.NoError(t, err)
	assert.Empty(t, order.Items)
	assert.Equal(t, "assigned", order.Status)
}

func TestParseOEAEvent_Invalid(t *testing.T) {
	_, err := ParseOEAEvent([]byte(`{"state":"fulfilled"}`))
	assert.ErrorIs(t, err, ErrOEAInvalid)

	_, err = ParseOEAEvent([]byte(`nope`))
	assert.ErrorIs(t, err, ErrOEAInvalid)

	e, err := ParseOEAEvent([]byte(`{"order_id":"o-1","state":"returned","timestamp":"2021-09-15T09:09:28Z"}`))
	require.NoError(t, err)
	_, err = e.ToOrder()
	assert.ErrorIs(t, err, ErrOEAMissingDeliveryDetails)
}

func newTestZalandoAdapter(t *testing.T, handler http.HandlerFunc) *ZalandoAdapter {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	a, err := NewZalandoAdapter(&ZalandoConfig{Enabled: true, ImporterURL: srv.URL, ClientID: "c-1", APIKey: "key"}, ClientOptions{})
	require.NoError(t, err)
	return a
}

func TestZalandoAdapter_ValidateFeed(t *testing.T) {
	feedCSV := []byte("\"store\";\"ean\"\r\n\"M13\";\"1\"\r\n\"M13\";\"\"\r\n")
	a := newTestZalandoAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/c-1/validate", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, feedCSV, body)
		_, _ = w.Write([]byte(`{"warnings":[{"message":"EAN missing","details":["ean"],"line_numbers":[{"line_number":2}]}]}`))
	})

	v, err := a.ValidateFeed(context.Background(), feedCSV)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, v.StatusCode)
	assert.Equal(t, "EAN missing (ean)\n\"M13\";\"\"\n\n", v.Summary)
}

func TestZalandoAdapter_ValidateFeed_Rejected(t *testing.T) {
	a := newTestZalandoAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"broken"}]}`))
	})
	v, err := a.ValidateFeed(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrZalandoFeedRejected)
	require.NotNil(t, v)
	assert.Equal(t, http.StatusBadRequest, v.StatusCode)
}

func TestZalandoAdapter_UploadFeed(t *testing.T) {
	a := newTestZalandoAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/c-1/20240301-101500.csv", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	status, _, err := a.UploadFeed(context.Background(), "20240301-101500.csv", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestSummarizeWarnings_OutOfRange(t *testing.T) {
	got := summarizeWarnings([]zalandoWarning{{Message: "m", LineNumbers: []zalandoLineNumber{{LineNumber: 9}}}}, []byte("a\n"))
	assert.Equal(t, "m\n\n", got)
}
