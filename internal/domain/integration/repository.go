package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for marketplace order persistence
type OrderRepository interface {
	// FindByID finds an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByMarketplaceOrderID finds an order by its marketplace key
	FindByMarketplaceOrderID(ctx context.Context, m Marketplace, marketplaceOrderID string) (*Order, error)

	// FindAll lists orders matching the filter
	FindAll(ctx context.Context, filter OrderFilter) ([]*Order, int64, error)

	// FindWithItemsCreatedBetween returns orders of a marketplace holding items created in [from, to).
	// Only the matching items are loaded.
	FindWithItemsCreatedBetween(ctx context.Context, m Marketplace, from, to time.Time) ([]*Order, error)

	// Save creates or updates the order and all of its items
	Save(ctx context.Context, order *Order) error
}

// ShipmentRepository persists tracking uploads
type ShipmentRepository interface {
	// Save stores a shipment
	Save(ctx context.Context, shipment *Shipment) error

	// FindAll lists shipments, optionally restricted to a marketplace
	FindAll(ctx context.Context, m Marketplace, limit int) ([]*Shipment, error)
}

// BatchRequestRepository persists asynchronous batch polling state
type BatchRequestRepository interface {
	// Save creates or updates a batch request
	Save(ctx context.Context, batch *BatchRequest) error

	// FindByBatchID finds a batch by the marketplace id
	FindByBatchID(ctx context.Context, m Marketplace, batchID string) (*BatchRequest, error)

	// FindPending lists batches of a marketplace that have not completed yet
	FindPending(ctx context.Context, m Marketplace) ([]*BatchRequest, error)
}

// FeedUploadRepository persists feed uploads
type FeedUploadRepository interface {
	// Save stores a feed upload
	Save(ctx context.Context, upload *FeedUpload) error

	// FindRecent lists the latest uploads, optionally restricted to a marketplace
	FindRecent(ctx context.Context, m Marketplace, limit int) ([]*FeedUpload, error)
}

// AuthTokenRepository persists rotating OAuth token pairs
type AuthTokenRepository interface {
	// FindLatest returns the newest token of a marketplace
	FindLatest(ctx context.Context, m Marketplace) (*AuthToken, error)

	// Save creates or updates a token
	Save(ctx context.Context, token *AuthToken) error
}

// MarketplaceProductRepository persists SKU to listing mappings
type MarketplaceProductRepository interface {
	// FindBySKU returns all mappings of a SKU on a marketplace (one per warehouse)
	FindBySKU(ctx context.Context, m Marketplace, sku string) ([]*MarketplaceProduct, error)

	// FindAll returns all mappings of a marketplace
	FindAll(ctx context.Context, m Marketplace) ([]*MarketplaceProduct, error)

	// Upsert creates or updates mappings by (marketplace, sku, warehouse)
	Upsert(ctx context.Context, products []*MarketplaceProduct) error
}

// WebhookMessageRepository persists raw inbound events
type WebhookMessageRepository interface {
	// Save stores a message
	Save(ctx context.Context, msg *WebhookMessage) error
}
