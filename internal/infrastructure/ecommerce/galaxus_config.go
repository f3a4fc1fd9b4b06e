package ecommerce

import (
	"errors"
	"strconv"
)

// GalaxusConfig holds configuration for the Digitec Galaxus SFTP order exchange
type GalaxusConfig struct {
	// Enabled switches the adapter on
	Enabled bool
	// Host is the SFTP server
	Host string
	// Port is the SFTP port
	Port int
	// Username for password auth
	Username string
	// Password for password auth
	Password string
	// HostKey is the server key in authorized_keys format; empty skips verification
	HostKey string
	// Environment selects the Live or Test order directory
	Environment string
	// DeliveryFee is stored as delivery method of imported orders
	DeliveryFee string
	// FallbackEmail is used when the delivery party has no email
	FallbackEmail string
	// TimeoutSeconds bounds the SSH handshake
	TimeoutSeconds int
}

// Galaxus order data directories
const (
	GalaxusOrderRoot = "/OrderData"
	galaxusInbound   = "dg2partner"
	galaxusOutbound  = "partner2dg"
)

// Errors for Galaxus configuration
var (
	ErrGalaxusConfigMissingHost        = errors.New("galaxus: sftp host is required")
	ErrGalaxusConfigMissingCredentials = errors.New("galaxus: sftp username and password are required")
	ErrGalaxusConfigInvalidEnvironment = errors.New("galaxus: environment must be Live or Test")
)

// Validate validates the configuration and fills defaults
func (c *GalaxusConfig) Validate() error {
	if c.Host == "" {
		return ErrGalaxusConfigMissingHost
	}
	if c.Username == "" || c.Password == "" {
		return ErrGalaxusConfigMissingCredentials
	}
	if c.Port <= 0 {
		c.Port = 22
	}
	switch c.Environment {
	case "":
		c.Environment = "Live"
	case "Live", "Test":
	default:
		return ErrGalaxusConfigInvalidEnvironment
	}
	if c.DeliveryFee == "" {
		c.DeliveryFee = "DHL Paket (R)"
	}
	if c.FallbackEmail == "" {
		c.FallbackEmail = "not_available@manufaktur13.de"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// Addr returns host:port
func (c *GalaxusConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Directories lists the order data directories of both environments
func (c *GalaxusConfig) Directories() []string {
	dirs := []string{GalaxusOrderRoot + "/"}
	for _, env := range []string{"Live", "Test"} {
		base := GalaxusOrderRoot + "/" + env
		dirs = append(dirs, base+"/", base+"/"+galaxusInbound, base+"/"+galaxusOutbound)
	}
	return dirs
}

// InboundDir is where Galaxus drops order files for the configured environment
func (c *GalaxusConfig) InboundDir() string {
	return GalaxusOrderRoot + "/" + c.Environment + "/" + galaxusInbound
}
