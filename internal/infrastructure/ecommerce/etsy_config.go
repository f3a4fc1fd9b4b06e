package ecommerce

import "errors"

// EtsyConfig holds configuration for the Etsy Open API v3
type EtsyConfig struct {
	// Enabled switches the adapter on
	Enabled bool
	// BaseURL is the API root
	BaseURL string
	// AuthURL is the root of the OAuth token endpoint
	AuthURL string
	// APIKey is the app keystring, also the OAuth client id
	APIKey string
	// ShopID is the numeric shop id
	ShopID string
	// OrderLookbackDays limits receipts to this many days
	OrderLookbackDays int
	// MaxQuantity caps stock levels sent to Etsy
	MaxQuantity int
	// RequestsPerSecond limits outbound calls
	RequestsPerSecond float64
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// EtsyProductionAPIURL is the production API endpoint
	EtsyProductionAPIURL = "https://openapi.etsy.com"
	// EtsyProductionAuthURL is the OAuth endpoint host
	EtsyProductionAuthURL = "https://api.etsy.com"
	// etsyListingPageSize is the listing page size
	etsyListingPageSize = 64
	// etsyReceiptLimit is the receipt page size
	etsyReceiptLimit = 100
)

// Errors for Etsy configuration
var (
	ErrEtsyConfigMissingAPIKey = errors.New("etsy: api key is required")
	ErrEtsyConfigMissingShopID = errors.New("etsy: shop id is required")
)

// Validate validates the configuration and fills defaults
func (c *EtsyConfig) Validate() error {
	if c.APIKey == "" {
		return ErrEtsyConfigMissingAPIKey
	}
	if c.ShopID == "" {
		return ErrEtsyConfigMissingShopID
	}
	if c.BaseURL == "" {
		c.BaseURL = EtsyProductionAPIURL
	}
	if c.AuthURL == "" {
		c.AuthURL = EtsyProductionAuthURL
	}
	if c.OrderLookbackDays <= 0 {
		c.OrderLookbackDays = 7
	}
	if c.MaxQuantity <= 0 {
		c.MaxQuantity = 999
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 60
	}
	return nil
}
