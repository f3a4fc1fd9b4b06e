package integration

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m13/backoffice/internal/domain/shared"
)

// Carrier codes used for tracking uploads
const (
	CarrierDHL    = "DHL"
	CarrierHermes = "HERMES"
	CarrierDPD    = "DPD"
	CarrierGLS    = "GLS"
	CarrierUPS    = "UPS"
)

// KnownCarriers lists the carriers the shop ships with
var KnownCarriers = []string{CarrierDHL, CarrierHermes, CarrierDPD, CarrierGLS, CarrierUPS}

// ShipmentRequest carries the tracking data for one marketplace order
type ShipmentRequest struct {
	// Order is the stored order being shipped
	Order *Order
	// Carrier is the normalised carrier code
	Carrier string
	// TrackingNumber is the outbound tracking number
	TrackingNumber string
	// ReturnTrackingNumber is the prepaid return label number, if any
	ReturnTrackingNumber string
	// ShipDate is the shipping date (defaults to now)
	ShipDate time.Time
}

// Validate checks that the request is complete
func (r *ShipmentRequest) Validate() error {
	if r.Order == nil || strings.TrimSpace(r.TrackingNumber) == "" {
		return ErrShipmentInvalid
	}
	if r.ShipDate.IsZero() {
		r.ShipDate = time.Now()
	}
	if r.Carrier == "" {
		r.Carrier = CarrierDHL
	}
	return nil
}

// ShipmentResult is the marketplace answer to a tracking upload
type ShipmentResult struct {
	// StatusCode is the HTTP status code returned by the marketplace
	StatusCode int
	// Response is the raw response body
	Response string
	// BatchRequestID is set when the marketplace processes the upload asynchronously
	BatchRequestID string
}

// Accepted reports whether the marketplace accepted the upload
func (r *ShipmentResult) Accepted() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Shipment is a persisted tracking upload
type Shipment struct {
	shared.BaseEntity
	// OrderID is the shipped order
	OrderID uuid.UUID
	// Marketplace is the order's marketplace
	Marketplace Marketplace
	// MarketplaceOrderID is the order id on the marketplace
	MarketplaceOrderID string
	// Carrier is the normalised carrier code
	Carrier string
	// TrackingNumber is the outbound tracking number
	TrackingNumber string
	// ReturnTrackingNumber is the return label number
	ReturnTrackingNumber string
	// ResponseStatusCode is the HTTP status code of the upload
	ResponseStatusCode int
	// Response is the raw marketplace response
	Response string
}

// NewShipment records the outcome of a tracking upload
func NewShipment(req ShipmentRequest, res *ShipmentResult) *Shipment {
	s := &Shipment{
		BaseEntity:           shared.NewBaseEntity(),
		Carrier:              req.Carrier,
		TrackingNumber:       req.TrackingNumber,
		ReturnTrackingNumber: req.ReturnTrackingNumber,
	}
	if req.Order != nil {
		s.OrderID = req.Order.ID
		s.Marketplace = req.Order.Marketplace
		s.MarketplaceOrderID = req.Order.MarketplaceOrderID
	}
	if res != nil {
		s.ResponseStatusCode = res.StatusCode
		s.Response = res.Response
	}
	return s
}

// TrackingRow is one routed line of a shop tracking export
type TrackingRow struct {
	// Line is the 1-based line number in the uploaded file
	Line int
	// Marketplace is the detected marketplace
	Marketplace Marketplace
	// OrderID is the marketplace order id
	OrderID string
	// TrackingNumber is the outbound tracking number
	TrackingNumber string
	// ReturnTrackingNumber is the return code (AboutYou)
	ReturnTrackingNumber string
	// Carrier is the normalised carrier
	Carrier string
}
