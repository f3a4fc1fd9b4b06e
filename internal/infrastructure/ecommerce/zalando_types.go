package ecommerce

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order Event API states
const (
	OEAStateAssigned  = "assigned"
	OEAStateFulfilled = "fulfilled"
	OEAStateReturned  = "returned"
	OEAStateCancelled = "cancelled"
)

// OEAEvent is one Order Event API message
type OEAEvent struct {
	EventID                string              `json:"event_id"`
	OrderID                string              `json:"order_id"`
	OrderNumber            string              `json:"order_number"`
	State                  string              `json:"state"`
	StoreID                string              `json:"store_id"`
	Timestamp              time.Time           `json:"timestamp"`
	Items                  []OEAItem           `json:"items"`
	CustomerBillingAddress *OEAAddress         `json:"customer_billing_address"`
	DeliveryDetails        *OEADeliveryDetails `json:"delivery_details"`
}

// OEAItem is an order item of an OEA message
type OEAItem struct {
	ItemID               string          `json:"item_id"`
	ArticleNumber        string          `json:"article_number"`
	ArticleLocation      string          `json:"article_location"`
	Currency             string          `json:"currency"`
	EAN                  string          `json:"ean"`
	Price                decimal.Decimal `json:"price"`
	ZalandoArticleNumber string          `json:"zalando_article_number"`
}

// OEAAddress is the billing address delivered on fulfilment
type OEAAddress struct {
	AddressLine1 string `json:"address_line_1"`
	City         string `json:"city"`
	CountryCode  string `json:"country_code"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ZipCode      string `json:"zip_code"`
}

// OEADeliveryDetails carries outbound and return tracking
type OEADeliveryDetails struct {
	DeliveryCarrierName    string `json:"delivery_carrier_name"`
	DeliveryTrackingNumber string `json:"delivery_tracking_number"`
	ReturnCarrierName      string `json:"return_carrier_name"`
	ReturnTrackingNumber   string `json:"return_tracking_number"`
}

type zalandoValidation struct {
	Warnings []zalandoWarning `json:"warnings"`
	Errors   []zalandoWarning `json:"errors"`
}

type zalandoWarning struct {
	Message     string              `json:"message"`
	Details     []string            `json:"details"`
	LineNumbers []zalandoLineNumber `json:"line_numbers"`
}

type zalandoLineNumber struct {
	LineNumber int `json:"line_number"`
}

// FeedValidation is Zalando's verdict on a feed
type FeedValidation struct {
	// StatusCode is the validation HTTP status
	StatusCode int
	// Summary lists the warnings with the offending feed lines
	Summary string
	// Raw is the response body
	Raw string
}
