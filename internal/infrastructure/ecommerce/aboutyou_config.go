package ecommerce

import "errors"

// AboutYouConfig holds configuration for the ABOUT YOU partner API
type AboutYouConfig struct {
	// Enabled switches the adapter on
	Enabled bool
	// BaseURL is the API root
	BaseURL string
	// APIKey is sent as X-API-Key
	APIKey string
	// CarrierKey is the carrier used for shipments
	CarrierKey string
	// CountryCode is the price country
	CountryCode string
	// RequestsPerSecond limits outbound calls
	RequestsPerSecond float64
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// AboutYouProductionAPIURL is the production API endpoint
	AboutYouProductionAPIURL = "https://partner.aboutyou.com"
	// aboutYouChunkSize is the number of items per stock request
	aboutYouChunkSize = 100
)

// ErrAboutYouConfigMissingAPIKey is returned when no API key is configured
var ErrAboutYouConfigMissingAPIKey = errors.New("aboutyou: api key is required")

// Validate validates the configuration and fills defaults
func (c *AboutYouConfig) Validate() error {
	if c.APIKey == "" {
		return ErrAboutYouConfigMissingAPIKey
	}
	if c.BaseURL == "" {
		c.BaseURL = AboutYouProductionAPIURL
	}
	if c.CarrierKey == "" {
		c.CarrierKey = "DHL_STD_NATIONAL"
	}
	if c.CountryCode == "" {
		c.CountryCode = "DE"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 60
	}
	return nil
}
