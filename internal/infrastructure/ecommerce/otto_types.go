package ecommerce

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OTTO API payloads

type ottoTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type ottoOrderPage struct {
	Resources []ottoOrder `json:"resources"`
	Links     []ottoLink  `json:"links"`
}

type ottoLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type ottoOrder struct {
	SalesOrderID        string             `json:"salesOrderId"`
	OrderNumber         string             `json:"orderNumber"`
	OrderDate           time.Time          `json:"orderDate"`
	LastModifiedDate    *time.Time         `json:"lastModifiedDate"`
	DeliveryAddress     *ottoAddress       `json:"deliveryAddress"`
	InvoiceAddress      *ottoAddress       `json:"invoiceAddress"`
	InitialDeliveryFees json.RawMessage    `json:"initialDeliveryFees"`
	PositionItems       []ottoPositionItem `json:"positionItems"`
}

type ottoAddress struct {
	Title       string `json:"title"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	Addition    string `json:"addition"`
	ZipCode     string `json:"zipCode"`
	City        string `json:"city"`
	CountryCode string `json:"countryCode"`
	Email       string `json:"email"`
}

type ottoPositionItem struct {
	PositionItemID       string            `json:"positionItemId"`
	FulfillmentStatus    string            `json:"fulfillmentStatus"`
	ExpectedDeliveryDate *time.Time        `json:"expectedDeliveryDate"`
	SentDate             *time.Time        `json:"sentDate"`
	ReturnedDate         *time.Time        `json:"returnedDate"`
	CancellationDate     *time.Time        `json:"cancellationDate"`
	ItemValueGrossPrice  ottoAmount        `json:"itemValueGrossPrice"`
	Product              ottoProduct       `json:"product"`
	TrackingInfo         *ottoTrackingInfo `json:"trackingInfo"`
}

type ottoAmount struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type ottoProduct struct {
	SKU           string          `json:"sku"`
	EAN           string          `json:"ean"`
	ArticleNumber string          `json:"articleNumber"`
	ProductTitle  string          `json:"productTitle"`
	VatRate       decimal.Decimal `json:"vatRate"`
}

type ottoTrackingInfo struct {
	Carrier            string `json:"carrier"`
	CarrierServiceCode string `json:"carrierServiceCode"`
	TrackingNumber     string `json:"trackingNumber"`
}

type ottoQuantity struct {
	LastModified string `json:"lastModified"`
	Quantity     int    `json:"quantity"`
	SKU          string `json:"sku"`
}

type ottoTrackingKey struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"trackingNumber"`
}

type ottoShipFromAddress struct {
	City        string `json:"city"`
	CountryCode string `json:"countryCode"`
	ZipCode     string `json:"zipCode"`
}

type ottoShipmentPosition struct {
	PositionItemID    string          `json:"positionItemId"`
	SalesOrderID      string          `json:"salesOrderId"`
	ReturnTrackingKey ottoTrackingKey `json:"returnTrackingKey"`
}

type ottoShipmentRequest struct {
	TrackingKey     ottoTrackingKey        `json:"trackingKey"`
	ShipDate        string                 `json:"shipDate"`
	ShipFromAddress ottoShipFromAddress    `json:"shipFromAddress"`
	PositionItems   []ottoShipmentPosition `json:"positionItems"`
}
