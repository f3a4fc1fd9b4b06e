package ecommerce

import (
	"errors"
	"slices"
)

// OttoConfig holds configuration for the OTTO Market API
type OttoConfig struct {
	// Enabled switches the adapter on
	Enabled bool
	// BaseURL is the API root
	BaseURL string
	// Username of the partner API user
	Username string
	// Password of the partner API user
	Password string
	// FallbackEmail is stored on addresses without email
	FallbackEmail string
	// OrderLookbackDays is the default fromOrderDate distance
	OrderLookbackDays int
	// RequestsPerSecond limits outbound calls
	RequestsPerSecond float64
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// OttoProductionAPIURL is the production API endpoint
	OttoProductionAPIURL = "https://api.otto.market"
	// ottoClientID is the fixed OAuth client of the partner API
	ottoClientID = "token-otto-api"
	// ottoStockChunkSize is the number of quantities per request
	ottoStockChunkSize = 100
)

// OttoFulfillmentStatuses lists the accepted position item states
var OttoFulfillmentStatuses = []string{
	"ANNOUNCED",
	"PROCESSABLE",
	"SENT",
	"RETURNED",
	"CANCELLED_BY_PARTNER",
	"CANCELLED_BY_MARKETPLACE",
}

// Errors for OTTO configuration
var (
	ErrOttoConfigMissingUsername = errors.New("otto: username is required")
	ErrOttoConfigMissingPassword = errors.New("otto: password is required")
)

// Validate validates the configuration and fills defaults
func (c *OttoConfig) Validate() error {
	if c.Username == "" {
		return ErrOttoConfigMissingUsername
	}
	if c.Password == "" {
		return ErrOttoConfigMissingPassword
	}
	if c.BaseURL == "" {
		c.BaseURL = OttoProductionAPIURL
	}
	if c.OrderLookbackDays <= 0 {
		c.OrderLookbackDays = 14
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 60
	}
	return nil
}

// IsOttoFulfillmentStatus reports whether s is a known position item status
func IsOttoFulfillmentStatus(s string) bool {
	return slices.Contains(OttoFulfillmentStatuses, s)
}
