package integrationapp

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m13/backoffice/internal/domain/integration"
)

// AddressResponse represents a postal address in API responses
type AddressResponse struct {
	Title       string `json:"title,omitempty"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Street      string `json:"street"`
	HouseNumber string `json:"house_number,omitempty"`
	Addition    string `json:"addition,omitempty"`
	ZipCode     string `json:"zip_code"`
	City        string `json:"city"`
	CountryCode string `json:"country_code"`
}

// OrderItemResponse represents an order position in API responses
type OrderItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	PositionItemID    string          `json:"position_item_id"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	SKU               string          `json:"sku"`
	EAN               string          `json:"ean"`
	ProductTitle      string          `json:"product_title,omitempty"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	Currency          string          `json:"currency"`
	Carrier           string          `json:"carrier,omitempty"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	SentDate          *time.Time      `json:"sent_date,omitempty"`
	ReturnedDate      *time.Time      `json:"returned_date,omitempty"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	Marketplace        string              `json:"marketplace"`
	MarketplaceOrderID string              `json:"marketplace_order_id"`
	OrderNumber        string              `json:"order_number"`
	OrderDate          time.Time           `json:"order_date"`
	Status             string              `json:"status"`
	InternalStatus     string              `json:"internal_status"`
	Total              decimal.Decimal     `json:"total"`
	DeliveryAddress    *AddressResponse    `json:"delivery_address,omitempty"`
	InvoiceAddress     *AddressResponse    `json:"invoice_address,omitempty"`
	Items              []OrderItemResponse `json:"items,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// ShipmentResponse represents a tracking upload in API responses
type ShipmentResponse struct {
	ID                   uuid.UUID `json:"id"`
	Marketplace          string    `json:"marketplace"`
	MarketplaceOrderID   string    `json:"marketplace_order_id"`
	Carrier              string    `json:"carrier"`
	TrackingNumber       string    `json:"tracking_number"`
	ReturnTrackingNumber string    `json:"return_tracking_number,omitempty"`
	StatusCode           int       `json:"status_code"`
	Response             string    `json:"response,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// FeedUploadResponse represents a feed run in API responses
type FeedUploadResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Marketplace          string          `json:"marketplace"`
	OriginalPath         string          `json:"original_path"`
	TransformedPath      string          `json:"transformed_path"`
	ExtraPath            string          `json:"extra_path,omitempty"`
	ZFactor              decimal.Decimal `json:"z_factor"`
	ValidItems           int             `json:"valid_items"`
	ValidationStatusCode int             `json:"validation_status_code,omitempty"`
	ValidationSummary    string          `json:"validation_summary,omitempty"`
	UploadStatusCode     int             `json:"upload_status_code,omitempty"`
	Succeeded            bool            `json:"succeeded"`
	CreatedAt            time.Time       `json:"created_at"`
}

// ToAddressResponse converts an address, nil stays nil
func ToAddressResponse(a *integration.Address) *AddressResponse {
	if a.IsZero() {
		return nil
	}
	return &AddressResponse{
		Title:       a.Title,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Street:      a.Street,
		HouseNumber: a.HouseNumber,
		Addition:    a.Addition,
		ZipCode:     a.ZipCode,
		City:        a.City,
		CountryCode: a.CountryCode,
	}
}

// ToOrderResponse converts a domain order. Items are included when withItems is set.
func ToOrderResponse(o *integration.Order, withItems bool) OrderResponse {
	resp := OrderResponse{
		ID:                 o.ID,
		Marketplace:        string(o.Marketplace),
		MarketplaceOrderID: o.MarketplaceOrderID,
		OrderNumber:        o.OrderNumber,
		OrderDate:          o.OrderDate,
		Status:             o.Status,
		InternalStatus:     string(o.InternalStatus),
		Total:              o.Total(),
		DeliveryAddress:    ToAddressResponse(o.DeliveryAddress),
		InvoiceAddress:     ToAddressResponse(o.InvoiceAddress),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	if !withItems {
		return resp
	}
	resp.Items = make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:                it.ID,
			PositionItemID:    it.PositionItemID,
			FulfillmentStatus: it.FulfillmentStatus,
			SKU:               it.SKU,
			EAN:               it.EAN,
			ProductTitle:      it.ProductTitle,
			Quantity:          it.Quantity,
			Price:             it.Price,
			Currency:          it.Currency,
			Carrier:           it.Carrier,
			TrackingNumber:    it.TrackingNumber,
			SentDate:          it.SentDate,
			ReturnedDate:      it.ReturnedDate,
		})
	}
	return resp
}

// ToOrderResponses converts a list of orders without items
func ToOrderResponses(orders []*integration.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToOrderResponse(o, false))
	}
	return out
}

// ToShipmentResponses converts stored tracking uploads
func ToShipmentResponses(shipments []*integration.Shipment) []ShipmentResponse {
	out := make([]ShipmentResponse, 0, len(shipments))
	for _, s := range shipments {
		out = append(out, ShipmentResponse{
			ID:                   s.ID,
			Marketplace:          string(s.Marketplace),
			MarketplaceOrderID:   s.MarketplaceOrderID,
			Carrier:              s.Carrier,
			TrackingNumber:       s.TrackingNumber,
			ReturnTrackingNumber: s.ReturnTrackingNumber,
			StatusCode:           s.ResponseStatusCode,
			Response:             s.Response,
			CreatedAt:            s.CreatedAt,
		})
	}
	return out
}

// ToFeedUploadResponse converts a feed run
func ToFeedUploadResponse(u *integration.FeedUpload) FeedUploadResponse {
	return FeedUploadResponse{
		ID:                   u.ID,
		Marketplace:          string(u.Marketplace),
		OriginalPath:         u.OriginalPath,
		TransformedPath:      u.TransformedPath,
		ExtraPath:            u.ExtraPath,
		ZFactor:              u.ZFactor,
		ValidItems:           u.ValidItems,
		ValidationStatusCode: u.ValidationStatusCode,
		ValidationSummary:    u.ValidationSummary,
		UploadStatusCode:     u.UploadStatusCode,
		Succeeded:            u.Succeeded(),
		CreatedAt:            u.CreatedAt,
	}
}

// ToFeedUploadResponses converts a list of feed runs
func ToFeedUploadResponses(uploads []*integration.FeedUpload) []FeedUploadResponse {
	out := make([]FeedUploadResponse, 0, len(uploads))
	for _, u := range uploads {
		out = append(out, ToFeedUploadResponse(u))
	}
	return out
}
