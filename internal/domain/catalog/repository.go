package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MarketplaceConfigRepository persists marketplace configurations
type MarketplaceConfigRepository interface {
	// FindActive returns the active configuration of a marketplace
	FindActive(ctx context.Context, name ConfigMarketplace) (*MarketplaceConfig, error)

	// FindAll lists every configuration, newest first
	FindAll(ctx context.Context) ([]*MarketplaceConfig, error)

	// FindByID finds a configuration
	FindByID(ctx context.Context, id uuid.UUID) (*MarketplaceConfig, error)

	// Save stores the configuration. Saving an active configuration
	// deactivates every other configuration of the same marketplace.
	Save(ctx context.Context, cfg *MarketplaceConfig) error
}

// PriceRepository persists the central price table
type PriceRepository interface {
	// FindBySKU finds a price by SKU (case-insensitive)
	FindBySKU(ctx context.Context, sku string) (*Price, error)

	// FindAll lists every price with its category
	FindAll(ctx context.Context) ([]*Price, error)

	// EnsureSKU creates a price row for an unknown SKU. Known SKUs get a missing EAN filled in.
	// It reports whether a row was created.
	EnsureSKU(ctx context.Context, sku, ean string) (bool, error)

	// Save creates or updates a price
	Save(ctx context.Context, price *Price) error
}

// CategoryRepository persists categories
type CategoryRepository interface {
	FindByName(ctx context.Context, name string) (*Category, error)
	FindAll(ctx context.Context) ([]*Category, error)
	Save(ctx context.Context, category *Category) error
}

// JobRepository persists job records
type JobRepository interface {
	// Save creates or updates a job
	Save(ctx context.Context, job *Job) error

	// FindRecent lists the latest jobs
	FindRecent(ctx context.Context, limit int) ([]*Job, error)

	// DeleteOlderThan removes jobs started before the cutoff and returns the count
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ErrorRecordRepository persists error records
type ErrorRecordRepository interface {
	Save(ctx context.Context, rec *ErrorRecord) error
	FindRecent(ctx context.Context, marketplace string, limit int) ([]*ErrorRecord, error)
}
