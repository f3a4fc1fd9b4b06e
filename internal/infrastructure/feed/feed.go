// Package feed reads the shop's stock and price feeds and writes the marketplace flavoured copies.
package feed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/csvutil"
	"github.com/shopspring/decimal"
)

// Feed errors
var (
	ErrFeedEmpty       = errors.New("feed: no rows")
	ErrFeedURLMissing  = errors.New("feed: url not configured")
	ErrInvalidQuantity = errors.New("feed: invalid quantity")
	ErrInvalidPrice    = errors.New("feed: invalid price")
)

// Shop feed columns in file order
const (
	ColStore                = "store"
	ColEAN                  = "ean"
	ColPrice                = "price"
	ColRetailPrice          = "retail_price"
	ColQuantity             = "quantity"
	ColArticleNumber        = "article_number"
	ColArticleColor         = "article_color"
	ColProductName          = "product_name"
	ColStoreArticleLocation = "store_article_location"
	ColProductNumber        = "product_number"
	ColArticleSize          = "article_size"
)

// ShopColumns is the column order of the shop feed
var ShopColumns = []string{
	ColStore, ColEAN, ColPrice, ColRetailPrice, ColQuantity, ColArticleNumber,
	ColArticleColor, ColProductName, ColStoreArticleLocation, ColProductNumber, ColArticleSize,
}

// Row is one line of the shop feed
type Row struct {
	Line                 int
	Store                string
	EAN                  string
	Price                string
	RetailPrice          string
	Quantity             string
	ArticleNumber        string
	ArticleColor         string
	ProductName          string
	StoreArticleLocation string
	ProductNumber        string
	ArticleSize          string
}

// SKU returns the shop article number
func (r Row) SKU() string {
	return r.ArticleNumber
}

// QuantityValue parses the quantity, negative values are clamped to 0.
// An empty quantity yields 0 and ok=false.
func (r Row) QuantityValue() (int, bool, error) {
	q := strings.TrimSpace(r.Quantity)
	if q == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(q)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q (line %d)", ErrInvalidQuantity, r.Quantity, r.Line)
	}
	if n < 0 {
		n = 0
	}
	return n, true, nil
}

// PriceValue parses the price, accepting a decimal comma
func (r Row) PriceValue() (decimal.Decimal, error) {
	return ParsePrice(r.Price)
}

// ParsePrice parses "19,95" or "19.95"
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidPrice
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return d, nil
}

// Record returns the row in shop column order
func (r Row) Record() []string {
	return []string{
		r.Store, r.EAN, r.Price, r.RetailPrice, r.Quantity, r.ArticleNumber,
		r.ArticleColor, r.ProductName, r.StoreArticleLocation, r.ProductNumber, r.ArticleSize,
	}
}

// Parse reads a `;` separated shop feed with header row
func Parse(r io.Reader) ([]Row, error) {
	hr, err := csvutil.NewHeaderReader(r, ';')
	if err != nil {
		if errors.Is(err, csvutil.ErrEmptyFile) {
			return nil, ErrFeedEmpty
		}
		return nil, fmt.Errorf("feed: parse header: %w", err)
	}
	if err := hr.Require(ColEAN, ColPrice, ColQuantity, ColArticleNumber); err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	records, err := hr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row{
			Line:                 rec.Line,
			Store:                rec.Get(ColStore),
			EAN:                  rec.Get(ColEAN),
			Price:                rec.Get(ColPrice),
			RetailPrice:          rec.Get(ColRetailPrice),
			Quantity:             rec.Get(ColQuantity),
			ArticleNumber:        rec.Get(ColArticleNumber),
			ArticleColor:         rec.Get(ColArticleColor),
			ProductName:          rec.Get(ColProductName),
			StoreArticleLocation: rec.Get(ColStoreArticleLocation),
			ProductNumber:        rec.Get(ColProductNumber),
			ArticleSize:          rec.Get(ColArticleSize),
		})
	}
	return rows, nil
}

// ParseBytes parses an in-memory feed
func ParseBytes(data []byte) ([]Row, error) {
	return Parse(bytes.NewReader(data))
}

// ---------------------------------------------------------------------------
// Filtering
// ---------------------------------------------------------------------------

// Blacklist holds skus that must never be sent to a marketplace
type Blacklist map[string]struct{}

// NewBlacklist builds a blacklist from sku strings
func NewBlacklist(skus ...string) Blacklist {
	b := make(Blacklist, len(skus))
	for _, s := range skus {
		if s = strings.TrimSpace(s); s != "" {
			b[s] = struct{}{}
		}
	}
	return b
}

// Contains reports whether the sku is blacklisted
func (b Blacklist) Contains(sku string) bool {
	_, ok := b[sku]
	return ok
}

// FilterStats counts why rows were dropped
type FilterStats struct {
	NoSKU       int
	NoQuantity  int
	Blacklisted int
	Invalid     int
	// InvalidPrice counts kept rows whose price could not be parsed
	InvalidPrice int
}

// Filter turns feed rows into stock items. Rows without sku or quantity and blacklisted
// skus are skipped, negative quantities become 0. A row with a bad price is kept for
// stock but flagged PriceInvalid.
func Filter(rows []Row, blacklist Blacklist) ([]integration.StockItem, FilterStats) {
	var stats FilterStats
	items := make([]integration.StockItem, 0, len(rows))
	for _, row := range rows {
		sku := strings.TrimSpace(row.SKU())
		if sku == "" {
			stats.NoSKU++
			continue
		}
		qty, ok, err := row.QuantityValue()
		if err != nil {
			stats.Invalid++
			continue
		}
		if !ok {
			stats.NoQuantity++
			continue
		}
		if blacklist.Contains(sku) {
			stats.Blacklisted++
			continue
		}
		price, err := row.PriceValue()
		if err != nil {
			stats.InvalidPrice++
		}
		items = append(items, integration.StockItem{
			SKU:          sku,
			EAN:          row.EAN,
			Quantity:     qty,
			Price:        price,
			PriceInvalid: err != nil,
		})
	}
	return items, stats
}

// Chunk splits items into consecutive slices of at most size elements
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	chunks := make([][]T, 0, (len(items)+size-1)/max(size, 1))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
