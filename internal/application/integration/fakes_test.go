package integrationapp

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/domain/pricing"
	"github.com/m13/backoffice/internal/domain/shared"
	"github.com/m13/backoffice/internal/infrastructure/ecommerce"
	"github.com/m13/backoffice/internal/infrastructure/feed"
)

// memOrders is an in-memory OrderRepository
type memOrders struct {
	mu     sync.Mutex
	orders map[string]*integration.Order
	saves  int
}

func newMemOrders(orders ...*integration.Order) *memOrders {
	r := &memOrders{orders: make(map[string]*integration.Order)}
	for _, o := range orders {
		r.orders[string(o.Marketplace)+"/"+o.MarketplaceOrderID] = o
	}
	return r
}

func (r *memOrders) FindByID(_ context.Context, id uuid.UUID) (*integration.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, integration.ErrOrderNotFound
}

func (r *memOrders) FindByMarketplaceOrderID(_ context.Context, m integration.Marketplace, id string) (*integration.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[string(m)+"/"+id]; ok {
		return o, nil
	}
	return nil, integration.ErrOrderNotFound
}

func (r *memOrders) FindAll(_ context.Context, _ integration.OrderFilter) ([]*integration.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*integration.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r *memOrders) FindWithItemsCreatedBetween(context.Context, integration.Marketplace, time.Time, time.Time) ([]*integration.Order, error) {
	return nil, nil
}

func (r *memOrders) Save(_ context.Context, o *integration.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[string(o.Marketplace)+"/"+o.MarketplaceOrderID] = o
	r.saves++
	return nil
}

// memPrices is an in-memory PriceRepository
// memPrices keys prices by lower-cased SKU like the database lookups
type memPrices struct {
	mu     sync.Mutex
	prices map[string]*catalog.Price
}

func newMemPrices(prices ...*catalog.Price) *memPrices {
	r := &memPrices{prices: make(map[string]*catalog.Price)}
	for _, p := range prices {
		r.prices[strings.ToLower(p.SKU)] = p
	}
	return r
}

func (r *memPrices) FindBySKU(_ context.Context, sku string) (*catalog.Price, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.prices[strings.ToLower(sku)]; ok {
		return p, nil
	}
	return nil, catalog.ErrPriceNotFound
}

func (r *memPrices) FindAll(context.Context) ([]*catalog.Price, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*catalog.Price, 0, len(r.prices))
	for _, p := range r.prices {
		out = append(out, p)
	}
	return out, nil
}

func (r *memPrices) EnsureSKU(_ context.Context, sku, ean string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prices[strings.ToLower(sku)]; ok {
		return false, nil
	}
	p, err := catalog.NewPrice(sku)
	if err != nil {
		return false, err
	}
	r.prices[strings.ToLower(sku)] = p.WithEAN(ean)
	return true, nil
}

func (r *memPrices) Save(_ context.Context, p *catalog.Price) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prices[strings.ToLower(p.SKU)] = p
	return nil
}

// memErrors collects error records
type memErrors struct {
	mu      sync.Mutex
	records []*catalog.ErrorRecord
}

func (r *memErrors) Save(_ context.Context, rec *catalog.ErrorRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *memErrors) FindRecent(_ context.Context, _ string, _ int) ([]*catalog.ErrorRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*catalog.ErrorRecord(nil), r.records...), nil
}

func (r *memErrors) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// fakeAdapter implements every adapter port for one marketplace
type fakeAdapter struct {
	market integration.Marketplace

	mu        sync.Mutex
	orders    []*integration.Order
	fetchErr  error
	queries   []integration.OrderQuery
	stock     []integration.StockItem
	stockErr  error
	prices    []integration.PriceItem
	shipments []integration.ShipmentRequest
	shipCode  int
	shipErr   error
}

func (a *fakeAdapter) Marketplace() integration.Marketplace { return a.market }
func (a *fakeAdapter) IsEnabled() bool                      { return true }

func (a *fakeAdapter) FetchOrders(_ context.Context, q integration.OrderQuery) ([]*integration.Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queries = append(a.queries, q)
	return a.orders, a.fetchErr
}

func (a *fakeAdapter) PushStock(_ context.Context, items []integration.StockItem) (*integration.SyncResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stockErr != nil {
		return nil, a.stockErr
	}
	a.stock = items
	res := integration.NewSyncResult(a.market, len(items))
	res.SuccessCount = len(items)
	return res.Finish(), nil
}

func (a *fakeAdapter) PushPrices(_ context.Context, items []integration.PriceItem) (*integration.SyncResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prices = items
	res := integration.NewSyncResult(a.market, len(items))
	res.SuccessCount = len(items)
	return res.Finish(), nil
}

func (a *fakeAdapter) UploadShipment(_ context.Context, req integration.ShipmentRequest) (*integration.ShipmentResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shipments = append(a.shipments, req)
	if a.shipErr != nil {
		return nil, a.shipErr
	}
	code := a.shipCode
	if code == 0 {
		code = 200
	}
	return &integration.ShipmentResult{StatusCode: code, Response: "{}"}, nil
}

// fakeRegistry resolves fake adapters
type fakeRegistry map[integration.Marketplace]*fakeAdapter

func (r fakeRegistry) get(m integration.Marketplace) (*fakeAdapter, error) {
	a, ok := r[m]
	if !ok {
		return nil, integration.ErrMarketplaceNotConfigured
	}
	return a, nil
}

func (r fakeRegistry) OrderSource(m integration.Marketplace) (integration.OrderSource, error) {
	return r.get(m)
}

func (r fakeRegistry) StockTarget(m integration.Marketplace) (integration.StockTarget, error) {
	return r.get(m)
}

func (r fakeRegistry) PriceTarget(m integration.Marketplace) (integration.PriceTarget, error) {
	return r.get(m)
}

func (r fakeRegistry) ShipmentTarget(m integration.Marketplace) (integration.ShipmentTarget, error) {
	return r.get(m)
}

func (r fakeRegistry) StockTargets() []integration.StockTarget {
	var out []integration.StockTarget
	for _, m := range integration.AllMarketplaces {
		if a, ok := r[m]; ok {
			out = append(out, a)
		}
	}
	return out
}

// fakeFeeds serves canned feeds
type fakeFeeds struct {
	raw       map[string][]byte
	jsonStock []integration.StockItem
	jsonCalls int
}

func (f *fakeFeeds) Fetch(_ context.Context, url string) ([]byte, error) {
	raw, ok := f.raw[url]
	if !ok {
		return nil, feed.ErrFeedEmpty
	}
	return raw, nil
}

func (f *fakeFeeds) Download(ctx context.Context, url string) (*feed.Downloaded, error) {
	raw, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	rows, err := feed.ParseBytes(raw)
	if err != nil {
		return nil, err
	}
	return &feed.Downloaded{Raw: raw, Rows: rows}, nil
}

func (f *fakeFeeds) DownloadJSONStock(context.Context, string) ([]integration.StockItem, error) {
	f.jsonCalls++
	return f.jsonStock, nil
}

// memPriceTools holds a single active factor
type memPriceTools struct {
	active *pricing.PriceTool
}

func newMemPriceTools(factor string) *memPriceTools {
	if factor == "" {
		return &memPriceTools{}
	}
	tool, _ := pricing.NewPriceTool(decimal.RequireFromString(factor))
	tool.Activate()
	return &memPriceTools{active: tool}
}

func (r *memPriceTools) FindActive(context.Context) (*pricing.PriceTool, error) {
	if r.active == nil {
		return nil, pricing.ErrNoActivePriceTool
	}
	return r.active, nil
}

func (r *memPriceTools) FindAll(context.Context) ([]*pricing.PriceTool, error) {
	if r.active == nil {
		return nil, nil
	}
	return []*pricing.PriceTool{r.active}, nil
}

func (r *memPriceTools) Activate(_ context.Context, zFactor decimal.Decimal) (*pricing.PriceTool, error) {
	tool, err := pricing.NewPriceTool(zFactor)
	if err != nil {
		return nil, err
	}
	tool.Activate()
	r.active = tool
	return tool, nil
}

// memShipments collects shipments
type memShipments struct {
	saved []*integration.Shipment
}

func (r *memShipments) Save(_ context.Context, s *integration.Shipment) error {
	r.saved = append(r.saved, s)
	return nil
}

func (r *memShipments) FindAll(_ context.Context, m integration.Marketplace, limit int) ([]*integration.Shipment, error) {
	var out []*integration.Shipment
	for _, s := range r.saved {
		if m == "" || s.Marketplace == m {
			out = append(out, s)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memFeedUploads collects feed uploads
type memFeedUploads struct {
	saved []*integration.FeedUpload
}

func (r *memFeedUploads) Save(_ context.Context, u *integration.FeedUpload) error {
	r.saved = append(r.saved, u)
	return nil
}

func (r *memFeedUploads) FindRecent(_ context.Context, _ integration.Marketplace, limit int) ([]*integration.FeedUpload, error) {
	if len(r.saved) > limit {
		return r.saved[:limit], nil
	}
	return r.saved, nil
}

// memStore is an in-memory FileStore
type memStore struct {
	files map[string][]byte
}

func newMemStore() *memStore { return &memStore{files: make(map[string][]byte)} }

func (s *memStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.files[key] = append([]byte(nil), data...)
	return nil
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := s.files[key]
	if !ok {
		return nil, shared.ErrFileNotFound
	}
	return data, nil
}

func (s *memStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.files[key]
	return ok, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.files, key)
	return nil
}

func (s *memStore) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "mem://" + key, nil
}

// fakeZalandoFeed records validated and uploaded feeds
type fakeZalandoFeed struct {
	validation  *ecommerce.FeedValidation
	validateErr error
	uploaded    map[string][]byte
}

func (z *fakeZalandoFeed) IsEnabled() bool { return true }

func (z *fakeZalandoFeed) ValidateFeed(context.Context, []byte) (*ecommerce.FeedValidation, error) {
	if z.validation == nil {
		return &ecommerce.FeedValidation{StatusCode: 200}, z.validateErr
	}
	return z.validation, z.validateErr
}

func (z *fakeZalandoFeed) UploadFeed(_ context.Context, name string, csv []byte) (int, string, error) {
	if z.uploaded == nil {
		z.uploaded = make(map[string][]byte)
	}
	z.uploaded[name] = csv
	return 200, "ok", nil
}

// memWebhooks collects webhook messages
type memWebhooks struct {
	saved []*integration.WebhookMessage
}

func (r *memWebhooks) Save(_ context.Context, msg *integration.WebhookMessage) error {
	r.saved = append(r.saved, msg)
	return nil
}

func newTestOrder(m integration.Marketplace, id string, items ...*integration.OrderItem) *integration.Order {
	o, err := integration.NewOrder(m, id)
	if err != nil {
		panic(err)
	}
	for _, it := range items {
		_ = o.AddItem(it)
	}
	return o
}

func newTestItem(pos, sku, ean, price string) *integration.OrderItem {
	it := integration.NewOrderItem(pos)
	it.SKU = sku
	it.EAN = ean
	it.Price = decimal.RequireFromString(price)
	return it
}
