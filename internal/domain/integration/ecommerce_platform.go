package integration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Marketplace Errors
// ---------------------------------------------------------------------------

var (
	// Marketplace errors
	ErrMarketplaceNotConfigured   = errors.New("integration: marketplace not configured")
	ErrMarketplaceNotSupported    = errors.New("integration: capability not supported by marketplace")
	ErrMarketplaceRequestFailed   = errors.New("integration: marketplace request failed")
	ErrMarketplaceInvalidResponse = errors.New("integration: invalid marketplace response")
	ErrMarketplaceAuthFailed      = errors.New("integration: marketplace authentication failed")
	ErrMarketplaceRateLimited     = errors.New("integration: marketplace rate limited")
	ErrInvalidMarketplace         = errors.New("integration: invalid marketplace code")

	// Order errors
	ErrOrderNotFound        = errors.New("integration: order not found")
	ErrOrderInvalid         = errors.New("integration: invalid order")
	ErrOrderItemInvalid     = errors.New("integration: invalid order item")
	ErrInvalidFulfillStatus = errors.New("integration: invalid fulfillment status filter")

	// Stock and price errors
	ErrStockSyncFailed = errors.New("integration: stock sync failed")
	ErrPriceSyncFailed = errors.New("integration: price sync failed")

	// Shipment errors
	ErrShipmentInvalid        = errors.New("integration: invalid shipment request")
	ErrShipmentUploadRejected = errors.New("integration: shipment upload rejected")

	// Batch errors
	ErrBatchNotCompleted = errors.New("integration: batch request not completed")
	ErrBatchNotFound     = errors.New("integration: batch request not found")

	// Tokens
	ErrAuthTokenNotFound = errors.New("integration: auth token not found")

	// Product mapping errors
	ErrProductNotFound = errors.New("integration: marketplace product not found")
	ErrProductInvalid  = errors.New("integration: invalid marketplace product")
)

// ---------------------------------------------------------------------------
// Marketplace represents a connected third-party marketplace
// ---------------------------------------------------------------------------

// Marketplace represents a connected third-party marketplace
type Marketplace string

const (
	// MarketplaceOtto represents otto.de
	MarketplaceOtto Marketplace = "OTTO"
	// MarketplaceZalando represents Zalando Connected Retail
	MarketplaceZalando Marketplace = "ZALANDO"
	// MarketplaceEtsy represents Etsy
	MarketplaceEtsy Marketplace = "ETSY"
	// MarketplaceTikTok represents TikTok Shop
	MarketplaceTikTok Marketplace = "TIKTOK"
	// MarketplaceAboutYou represents AboutYou
	MarketplaceAboutYou Marketplace = "ABOUTYOU"
	// MarketplaceMirapodo represents Mirapodo via Tradebyte
	MarketplaceMirapodo Marketplace = "MIRAPODO"
	// MarketplaceGalaxus represents Digitec Galaxus
	MarketplaceGalaxus Marketplace = "GALAXUS"
	// MarketplaceGaleria represents Galeria
	MarketplaceGaleria Marketplace = "GALERIA"
)

// AllMarketplaces lists every supported marketplace
var AllMarketplaces = []Marketplace{
	MarketplaceOtto,
	MarketplaceZalando,
	MarketplaceEtsy,
	MarketplaceTikTok,
	MarketplaceAboutYou,
	MarketplaceMirapodo,
	MarketplaceGalaxus,
	MarketplaceGaleria,
}

// IsValid returns true if the marketplace code is valid
func (m Marketplace) IsValid() bool {
	switch m {
	case MarketplaceOtto, MarketplaceZalando, MarketplaceEtsy, MarketplaceTikTok,
		MarketplaceAboutYou, MarketplaceMirapodo, MarketplaceGalaxus, MarketplaceGaleria:
		return true
	default:
		return false
	}
}

// String returns the string representation of Marketplace
func (m Marketplace) String() string {
	return string(m)
}

// DisplayName returns a human-readable name for the marketplace
func (m Marketplace) DisplayName() string {
	switch m {
	case MarketplaceOtto:
		return "OTTO"
	case MarketplaceZalando:
		return "Zalando"
	case MarketplaceEtsy:
		return "Etsy"
	case MarketplaceTikTok:
		return "TikTok Shop"
	case MarketplaceAboutYou:
		return "ABOUT YOU"
	case MarketplaceMirapodo:
		return "mirapodo"
	case MarketplaceGalaxus:
		return "Galaxus"
	case MarketplaceGaleria:
		return "GALERIA"
	default:
		return string(m)
	}
}

// ParseMarketplace parses a case-insensitive marketplace code
func ParseMarketplace(s string) (Marketplace, error) {
	m := Marketplace(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", ErrInvalidMarketplace
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// SyncStatus represents the outcome of a stock/price push
// ---------------------------------------------------------------------------

// SyncStatus represents the outcome of a stock/price push
type SyncStatus string

const (
	// SyncStatusSuccess indicates every item was accepted
	SyncStatusSuccess SyncStatus = "SUCCESS"
	// SyncStatusPartial indicates some items failed
	SyncStatusPartial SyncStatus = "PARTIAL"
	// SyncStatusFailed indicates no item was accepted
	SyncStatusFailed SyncStatus = "FAILED"
)

// ---------------------------------------------------------------------------
// Stock / Price value objects
// ---------------------------------------------------------------------------

// StockItem is a single stock level taken from the shop feed
type StockItem struct {
	// SKU is the shop article number
	SKU string
	// EAN is the article GTIN if known
	EAN string
	// Quantity is the available quantity, never negative
	Quantity int
	// Price is the shop price from the feed
	Price decimal.Decimal
	// PriceInvalid marks a feed row whose price is empty or unparseable.
	// Such items carry stock but no price may be derived from them.
	PriceInvalid bool
}

// PriceItem is a single price to push to a marketplace
type PriceItem struct {
	// SKU is the shop article number
	SKU string
	// CountryCode is the ISO country the price applies to
	CountryCode string
	// RetailPrice is the final sell price
	RetailPrice decimal.Decimal
}

// SyncFailure describes one item that could not be synced
type SyncFailure struct {
	// SKU is the affected article
	SKU string
	// Reason is a human readable failure reason
	Reason string
}

// SyncResult is the outcome of a stock or price push
type SyncResult struct {
	// Marketplace is the target marketplace
	Marketplace Marketplace
	// Status summarises the push
	Status SyncStatus
	// TotalCount is the number of items submitted
	TotalCount int
	// SuccessCount is the number of accepted items
	SuccessCount int
	// FailedCount is the number of rejected items
	FailedCount int
	// SkippedCount is the number of items skipped (already in sync or unknown)
	SkippedCount int
	// FailedItems lists rejected items
	FailedItems []SyncFailure
	// BatchRequestIDs lists asynchronous batch ids created by the push
	BatchRequestIDs []string
	// SyncedAt is when the push finished
	SyncedAt time.Time
}

// NewSyncResult creates an empty result for the marketplace
func NewSyncResult(m Marketplace, total int) *SyncResult {
	return &SyncResult{
		Marketplace: m,
		TotalCount:  total,
		FailedItems: make([]SyncFailure, 0),
	}
}

// AddFailure records a failed item
func (r *SyncResult) AddFailure(sku, reason string) {
	r.FailedCount++
	r.FailedItems = append(r.FailedItems, SyncFailure{SKU: sku, Reason: reason})
}

// Finish derives the status from the counters
func (r *SyncResult) Finish() *SyncResult {
	switch {
	case r.FailedCount == 0:
		r.Status = SyncStatusSuccess
	case r.SuccessCount == 0 && r.SkippedCount == 0:
		r.Status = SyncStatusFailed
	default:
		r.Status = SyncStatusPartial
	}
	r.SyncedAt = time.Now()
	return r
}

// ---------------------------------------------------------------------------
// Order query
// ---------------------------------------------------------------------------

// OrderQuery filters orders fetched from a marketplace
type OrderQuery struct {
	// FulfillmentStatus restricts to a marketplace specific status (optional)
	FulfillmentStatus string
	// Since restricts to orders created after this time (zero = marketplace default)
	Since time.Time
	// OrderID fetches a single order when set
	OrderID string
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// MarketplaceAdapter is implemented by every marketplace adapter
type MarketplaceAdapter interface {
	// Marketplace returns the marketplace this adapter serves
	Marketplace() Marketplace

	// IsEnabled reports whether the adapter is configured
	IsEnabled() bool
}

// OrderSource pulls orders from a marketplace
type OrderSource interface {
	MarketplaceAdapter

	// FetchOrders returns the orders matching the query
	FetchOrders(ctx context.Context, query OrderQuery) ([]*Order, error)
}

// StockTarget pushes stock levels to a marketplace
type StockTarget interface {
	MarketplaceAdapter

	// PushStock pushes stock levels and returns a summary
	PushStock(ctx context.Context, items []StockItem) (*SyncResult, error)
}

// PriceTarget pushes prices to a marketplace
type PriceTarget interface {
	MarketplaceAdapter

	// PushPrices pushes prices and returns a summary
	PushPrices(ctx context.Context, items []PriceItem) (*SyncResult, error)
}

// ShipmentTarget uploads tracking information to a marketplace
type ShipmentTarget interface {
	MarketplaceAdapter

	// UploadShipment uploads tracking information for all items of an order
	UploadShipment(ctx context.Context, req ShipmentRequest) (*ShipmentResult, error)
}

// Registry resolves adapters by marketplace and capability
type Registry interface {
	// OrderSource returns the order source for a marketplace
	OrderSource(m Marketplace) (OrderSource, error)

	// StockTarget returns the stock target for a marketplace
	StockTarget(m Marketplace) (StockTarget, error)

	// PriceTarget returns the price target for a marketplace
	PriceTarget(m Marketplace) (PriceTarget, error)

	// ShipmentTarget returns the shipment target for a marketplace
	ShipmentTarget(m Marketplace) (ShipmentTarget, error)

	// StockTargets returns every enabled stock target
	StockTargets() []StockTarget
}
