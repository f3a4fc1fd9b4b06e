package ecommerce

import "errors"

// ZalandoConfig holds configuration for Zalando Connected Retail
type ZalandoConfig struct {
	// Enabled switches the adapter on
	Enabled bool
	// ImporterURL is the root of the merchants connector importer
	ImporterURL string
	// ClientID is the merchant client id, part of every feed URL
	ClientID string
	// APIKey authorises feed uploads
	APIKey string
	// WebhookToken, when set, must be presented by Order Event API calls
	WebhookToken string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// ZalandoImporterURL is the production importer endpoint
const ZalandoImporterURL = "https://merchants-connector-importer.zalandoapis.com"

// Errors for Zalando configuration
var (
	ErrZalandoConfigMissingClientID = errors.New("zalando: client id is required")
	ErrZalandoConfigMissingAPIKey   = errors.New("zalando: api key is required")
)

// Validate validates the configuration and fills defaults
func (c *ZalandoConfig) Validate() error {
	if c.ClientID == "" {
		return ErrZalandoConfigMissingClientID
	}
	if c.APIKey == "" {
		return ErrZalandoConfigMissingAPIKey
	}
	if c.ImporterURL == "" {
		c.ImporterURL = ZalandoImporterURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 120
	}
	return nil
}
