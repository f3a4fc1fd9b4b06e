package ecommerce

import "encoding/json"

// Etsy API payloads

type etsyTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type etsyMoney struct {
	Amount       int64  `json:"amount"`
	Divisor      int64  `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

type etsyReceiptPage struct {
	Count   int           `json:"count"`
	Results []etsyReceipt `json:"results"`
}

type etsyReceipt struct {
	ReceiptID         json.Number       `json:"receipt_id"`
	Status            string            `json:"status"`
	BuyerEmail        string            `json:"buyer_email"`
	Name              string            `json:"name"`
	FirstLine         string            `json:"first_line"`
	SecondLine        string            `json:"second_line"`
	City              string            `json:"city"`
	Zip               string            `json:"zip"`
	CountryISO        string            `json:"country_iso"`
	FormattedAddress  string            `json:"formatted_address"`
	CreateTimestamp   int64             `json:"create_timestamp"`
	UpdateTimestamp   int64             `json:"update_timestamp"`
	TotalShippingCost etsyMoney         `json:"total_shipping_cost"`
	Shipments         []etsyShipment    `json:"shipments"`
	Transactions      []etsyTransaction `json:"transactions"`
}

type etsyShipment struct {
	CarrierName  string `json:"carrier_name"`
	TrackingCode string `json:"tracking_code"`
}

type etsyTransaction struct {
	TransactionID    json.Number `json:"transaction_id"`
	ListingID        json.Number `json:"listing_id"`
	Title            string      `json:"title"`
	SKU              string      `json:"sku"`
	Quantity         int         `json:"quantity"`
	ExpectedShipDate int64       `json:"expected_ship_date"`
	Price            etsyMoney   `json:"price"`
}

type etsyListingPage struct {
	Count   int           `json:"count"`
	Results []etsyListing `json:"results"`
}

type etsyListing struct {
	ListingID json.Number `json:"listing_id"`
	Title     string      `json:"title"`
	SKUs      []string    `json:"skus"`
	Quantity  int         `json:"quantity"`
	Price     etsyMoney   `json:"price"`
}

type etsyError struct {
	Error string `json:"error"`
}
