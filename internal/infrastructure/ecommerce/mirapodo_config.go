package ecommerce

import "errors"

// MirapodoConfig holds configuration for Mirapodo orders served by the Tradebyte REST API
type MirapodoConfig struct {
	// Enabled switches the adapter on
	Enabled bool
	// OrderImportURL returns the receivable orders as ORDER_LIST
	OrderImportURL string
	// MessagesURL receives MESSAGES_LIST documents (default derived from HNR)
	MessagesURL string
	// HNR is the Tradebyte merchant number
	HNR string
	// Username for basic auth
	Username string
	// Password for basic auth
	Password string
	// Carrier is the CARRIER_PARCEL_TYPE of shipped items
	Carrier string
	// DeliveryFee is stored as delivery method of imported orders
	DeliveryFee string
	// FallbackEmail is used when SHIP_TO carries no email
	FallbackEmail string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// TradebyteRESTURL is the Tradebyte REST API root
	TradebyteRESTURL = "https://rest.trade-server.net"
	// mirapodoOrderPrefix prefixes stored Mirapodo order ids
	mirapodoOrderPrefix = "TB_"
)

// Errors for Mirapodo configuration
var (
	ErrMirapodoConfigMissingURL         = errors.New("mirapodo: order import url is required")
	ErrMirapodoConfigMissingCredentials = errors.New("mirapodo: username and password are required")
	ErrMirapodoConfigMissingHNR         = errors.New("mirapodo: hnr or messages url is required")
)

// Validate validates the configuration and fills defaults
func (c *MirapodoConfig) Validate() error {
	if c.OrderImportURL == "" {
		return ErrMirapodoConfigMissingURL
	}
	if c.Username == "" || c.Password == "" {
		return ErrMirapodoConfigMissingCredentials
	}
	if c.MessagesURL == "" {
		if c.HNR == "" {
			return ErrMirapodoConfigMissingHNR
		}
		c.MessagesURL = TradebyteRESTURL + "/" + c.HNR + "/messages/"
	}
	if c.Carrier == "" {
		c.Carrier = "DHL_STD_NATIONAL"
	}
	if c.DeliveryFee == "" {
		c.DeliveryFee = "DHL Paket (R)"
	}
	if c.FallbackEmail == "" {
		c.FallbackEmail = "not_available@manufaktur13.de"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 60
	}
	return nil
}
