package ecommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
)

// TikTokConfig holds configuration for the TikTok Shop partner API
type TikTokConfig struct {
	// Enabled switches the adapter on
	Enabled bool
	// AppKey is the application key from the partner center
	AppKey string
	// AppSecret is the application secret, also the signing key
	AppSecret string
	// APIBaseURL is the open API root
	APIBaseURL string
	// AuthBaseURL is the token service root
	AuthBaseURL string
	// ShippingProviderID is the provider used for self shipments
	ShippingProviderID string
	// PageSize is the page size for order and product searches
	PageSize int
	// RequestsPerSecond limits outbound calls
	RequestsPerSecond float64
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// TikTokProductionAPIURL is the production API endpoint
	TikTokProductionAPIURL = "https://open-api.tiktokglobalshop.com"
	// TikTokProductionAuthURL is the token service endpoint
	TikTokProductionAuthURL = "https://auth.tiktok-shops.com"
	// tiktokDefaultShippingProvider is the DHL provider id of the shop warehouse
	tiktokDefaultShippingProvider = "7207996952661722922"
)

// TikTokOrderStatuses lists the order statuses searched when no filter is given
var TikTokOrderStatuses = []string{
	"UNPAID",
	"ON_HOLD",
	"AWAITING_SHIPMENT",
	"PARTIALLY_SHIPPING",
	"AWAITING_COLLECTION",
	"IN_TRANSIT",
	"DELIVERED",
	"COMPLETED",
	"CANCELLED",
}

// Errors for TikTok configuration
var (
	ErrTikTokConfigMissingAppKey    = errors.New("tiktok: app key is required")
	ErrTikTokConfigMissingAppSecret = errors.New("tiktok: app secret is required")
)

// Validate validates the configuration and fills defaults
func (c *TikTokConfig) Validate() error {
	if c.AppKey == "" {
		return ErrTikTokConfigMissingAppKey
	}
	if c.AppSecret == "" {
		return ErrTikTokConfigMissingAppSecret
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = TikTokProductionAPIURL
	}
	if c.AuthBaseURL == "" {
		c.AuthBaseURL = TikTokProductionAuthURL
	}
	if c.ShippingProviderID == "" {
		c.ShippingProviderID = tiktokDefaultShippingProvider
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// Sign computes the request signature:
// hex(hmac_sha256(secret, secret + path + sorted(key+value) + body + secret)).
// The sign and access_token parameters are not signed.
func (c *TikTokConfig) Sign(path string, params map[string]string, body []byte) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" || k == "access_token" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	builder.WriteString(c.AppSecret)
	builder.WriteString(path)
	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString(params[k])
	}
	builder.Write(body)
	builder.WriteString(c.AppSecret)

	h := hmac.New(sha256.New, []byte(c.AppSecret))
	h.Write([]byte(builder.String()))
	return hex.EncodeToString(h.Sum(nil))
}
