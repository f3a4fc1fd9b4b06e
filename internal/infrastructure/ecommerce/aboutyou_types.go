package ecommerce

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ABOUT YOU API payloads

type aboutYouStockItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type aboutYouPrice struct {
	CountryCode string          `json:"country_code"`
	RetailPrice decimal.Decimal `json:"retail_price"`
}

type aboutYouPriceItem struct {
	SKU   string        `json:"sku"`
	Price aboutYouPrice `json:"price"`
}

type aboutYouItems[T any] struct {
	Items []T `json:"items"`
}

type aboutYouBatchResponse struct {
	BatchRequestID string `json:"batchRequestId"`
}

type aboutYouBatchStatus struct {
	Status string `json:"status"`
}

type aboutYouOrderPage struct {
	Items []aboutYouOrder `json:"items"`
}

type aboutYouOrder struct {
	OrderNumber                string              `json:"order_number"`
	Status                     string              `json:"status"`
	CreatedAt                  time.Time           `json:"created_at"`
	ShippingAdditional         string              `json:"shipping_additional"`
	ShippingCity               string              `json:"shipping_city"`
	ShippingCountryCode        string              `json:"shipping_country_code"`
	ShippingRecipientFirstName string              `json:"shipping_recipient_first_name"`
	ShippingRecipientLastName  string              `json:"shipping_recipient_last_name"`
	ShippingStreet             string              `json:"shipping_street"`
	ShippingZipCode            string              `json:"shipping_zip_code"`
	BillingAdditional          string              `json:"billing_additional"`
	BillingCity                string              `json:"billing_city"`
	BillingCountryCode         string              `json:"billing_country_code"`
	BillingRecipientFirstName  string              `json:"billing_recipient_first_name"`
	BillingRecipientLastName   string              `json:"billing_recipient_last_name"`
	BillingStreet              string              `json:"billing_street"`
	BillingZipCode             string              `json:"billing_zip_code"`
	OrderItems                 []aboutYouOrderItem `json:"order_items"`
}

type aboutYouOrderItem struct {
	ID           json.Number     `json:"id"`
	Status       string          `json:"status"`
	SKU          string          `json:"sku"`
	PriceWithTax int64           `json:"price_with_tax"`
	Vat          decimal.Decimal `json:"vat"`
}

type aboutYouShipItem struct {
	OrderItems          []int64 `json:"order_items"`
	CarrierKey          string  `json:"carrier_key"`
	ShipmentTrackingKey string  `json:"shipment_tracking_key"`
	ReturnTrackingKey   string  `json:"return_tracking_key"`
}
