package ecommerce

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/m13/backoffice/internal/domain/integration"
)

// ErrGalaxusNoDeliveryParty is returned for order files without a delivery party
var ErrGalaxusNoDeliveryParty = errors.New("galaxus: order has no delivery party")

// galaxusFS is the part of an SFTP session the adapter needs
type galaxusFS interface {
	ReadDir(p string) ([]os.FileInfo, error)
	Open(p string) (io.ReadCloser, error)
	Close() error
}

// sftpFS adapts *sftp.Client to galaxusFS and closes the SSH connection with it
type sftpFS struct {
	client *sftp.Client
	conn   *ssh.Client
}

func (f *sftpFS) ReadDir(p string) ([]os.FileInfo, error) { return f.client.ReadDir(p) }

func (f *sftpFS) Open(p string) (io.ReadCloser, error) { return f.client.Open(p) }

func (f *sftpFS) Close() error {
	err := f.client.Close()
	if cerr := f.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// GalaxusAdapter imports openTRANS order files from the Galaxus SFTP server
type GalaxusAdapter struct {
	config *GalaxusConfig
	dial   func(ctx context.Context) (galaxusFS, error)
	logger *zap.Logger
}

// NewGalaxusAdapter creates a new Galaxus adapter
func NewGalaxusAdapter(config *GalaxusConfig, logger *zap.Logger) (*GalaxusAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &GalaxusAdapter{
		config: config,
		logger: logger.With(zap.String("marketplace", string(integration.MarketplaceGalaxus))),
	}
	a.dial = a.dialSFTP
	return a, nil
}

// Marketplace returns Galaxus
func (a *GalaxusAdapter) Marketplace() integration.Marketplace {
	return integration.MarketplaceGalaxus
}

// IsEnabled reports whether the adapter is switched on
func (a *GalaxusAdapter) IsEnabled() bool {
	return a.config.Enabled
}

func (a *GalaxusAdapter) dialSFTP(ctx context.Context) (galaxusFS, error) {
	hostKey := ssh.InsecureIgnoreHostKey()
	if a.config.HostKey != "" {
		pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(a.config.HostKey))
		if err != nil {
			return nil, fmt.Errorf("galaxus: parse host key: %w", err)
		}
		hostKey = ssh.FixedHostKey(pub)
	}
	cfg := &ssh.ClientConfig{
		User:            a.config.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(a.config.Password)},
		HostKeyCallback: hostKey,
		Timeout:         time.Duration(a.config.TimeoutSeconds) * time.Second,
	}

	type result struct {
		conn *ssh.Client
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := ssh.Dial("tcp", a.config.Addr(), cfg)
		done <- result{conn, err}
	}()
	var conn *ssh.Client
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: galaxus: ssh: %v", integration.ErrMarketplaceRequestFailed, r.err)
		}
		conn = r.conn
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: galaxus: sftp: %v", integration.ErrMarketplaceRequestFailed, err)
	}
	return &sftpFS{client: client, conn: conn}, nil
}

// ListDirectories returns the file names of every order data directory
func (a *GalaxusAdapter) ListDirectories(ctx context.Context) (map[string][]string, error) {
	fs, err := a.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer fs.Close()

	out := make(map[string][]string)
	for _, dir := range a.config.Directories() {
		entries, err := fs.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("galaxus: list %s: %w", dir, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		sort.Strings(names)
		out[dir] = names
	}
	return out, nil
}

// FetchOrders downloads and parses every XML order file in the inbound directory.
// With OrderID set only that order is returned.
func (a *GalaxusAdapter) FetchOrders(ctx context.Context, query integration.OrderQuery) ([]*integration.Order, error) {
	fs, err := a.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer fs.Close()

	dir := a.config.InboundDir()
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("galaxus: list %s: %w", dir, err)
	}

	var orders []*integration.Order
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), ".xml") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := readAll(fs, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		order, err := a.ParseOrder(data)
		if err != nil {
			a.logger.Warn("Skipping Galaxus order file", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		if query.OrderID != "" && order.MarketplaceOrderID != query.OrderID {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func readAll(fs galaxusFS, p string) ([]byte, error) {
	f, err := fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("galaxus: open %s: %w", p, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// ParseOrder converts an openTRANS ORDER document
func (a *GalaxusAdapter) ParseOrder(data []byte) (*integration.Order, error) {
	var doc openTransOrder
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: galaxus: %v", integration.ErrMarketplaceInvalidResponse, err)
	}
	info := doc.Header.Info

	var delivery *openTransAddress
	for i := range info.Parties {
		if info.Parties[i].Role == "delivery" {
			delivery = &info.Parties[i].Address
			break
		}
	}
	if delivery == nil {
		return nil, ErrGalaxusNoDeliveryParty
	}

	order, err := integration.NewOrder(integration.MarketplaceGalaxus, strings.TrimSpace(info.OrderID))
	if err != nil {
		return nil, err
	}
	order.OrderDate = parseMarketplaceTime(info.OrderDate)
	order.DeliveryFee = a.config.DeliveryFee
	email := strings.TrimSpace(delivery.Email)
	if email == "" {
		email = a.config.FallbackEmail
	}
	order.Email = email

	addr := delivery.toDomain(email)
	order.DeliveryAddress = addr
	invoice := *addr
	order.InvoiceAddress = &invoice

	currency := info.Currency
	for _, it := range doc.Items {
		item := integration.NewOrderItem(strings.TrimSpace(it.LineItemID))
		item.EAN = strings.TrimSpace(it.Product.InternationalPID)
		item.SKU = strings.TrimSpace(it.Product.SupplierPID)
		item.ProductTitle = strings.TrimSpace(it.Product.DescriptionShort)
		if price, err := decimal.NewFromString(strings.TrimSpace(it.Price.Amount)); err == nil {
			item.Price = price
		}
		if q, err := strconv.ParseFloat(strings.TrimSpace(it.Quantity), 64); err == nil && q > 0 {
			item.Quantity = int(q)
		}
		if currency != "" {
			item.Currency = currency
		}
		if t := parseMarketplaceTime(it.DeliveryDate.Start); !t.IsZero() {
			item.ExpectedDeliveryDate = &t
		}
		if err := order.AddItem(item); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// toDomain maps private customers by contact details and company addresses by
// the NAME lines.
func (addr *openTransAddress) toDomain(email string) *integration.Address {
	out := &integration.Address{
		Street:      strings.TrimSpace(addr.Street),
		ZipCode:     strings.TrimSpace(addr.Zip),
		City:        strings.TrimSpace(addr.City),
		CountryCode: strings.TrimSpace(addr.Country),
		Email:       email,
	}
	if c := addr.Contact; c != nil && (c.FirstName != "" || c.ContactName != "") {
		out.Title = strings.TrimSpace(c.Title)
		out.FirstName = strings.TrimSpace(c.FirstName)
		out.LastName = strings.TrimSpace(c.ContactName)
		return out
	}
	if addr.Contact != nil {
		out.Title = strings.TrimSpace(addr.Contact.Title)
	}
	out.FirstName = strings.TrimSpace(addr.Name) + "\n" + strings.TrimSpace(addr.Name2)
	out.LastName = strings.TrimSpace(addr.Name3)
	return out
}

var _ integration.OrderSource = (*GalaxusAdapter)(nil)
