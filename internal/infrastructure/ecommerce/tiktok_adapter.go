package ecommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/integration"
)

// TikTok errors
var (
	ErrTikTokNoShop        = errors.New("tiktok: no authorized shop")
	ErrTikTokMultipleShops = errors.New("tiktok: more than one authorized shop")
	ErrTikTokNoPackage     = errors.New("tiktok: order has no package")
)

const (
	tiktokShopsPath          = "/authorization/202309/shops"
	tiktokOrderSearchPath    = "/order/202309/orders/search"
	tiktokOrderDetailPath    = "/order/202309/orders"
	tiktokProductSearchPath  = "/product/202309/products/search"
	tiktokInventoryPathFmt   = "/product/202309/products/%s/inventory/update"
	tiktokShipPackagePathFmt = "/fulfillment/202309/packages/%s/ship"
)

// TikTokAdapter talks to the TikTok Shop partner API. Every call is signed
// with the app secret and carries the shop cipher of the single authorized shop.
type TikTokAdapter struct {
	config   *TikTokConfig
	client   *restClient
	auth     *restClient
	tokens   *tokenSource
	products integration.MarketplaceProductRepository
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	cipher string
}

// NewTikTokAdapter creates a new TikTok adapter. cache may be nil.
func NewTikTokAdapter(
	config *TikTokConfig,
	tokens integration.AuthTokenRepository,
	products integration.MarketplaceProductRepository,
	cache integration.TokenCache,
	opts ClientOptions,
) (*TikTokAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	opts.Timeout = time.Duration(config.TimeoutSeconds) * time.Second
	opts.RequestsPerSecond = config.RequestsPerSecond
	authOpts := opts
	authOpts.BaseURL = config.AuthBaseURL
	opts.BaseURL = config.APIBaseURL

	a := &TikTokAdapter{
		config:   config,
		client:   newRestClient(integration.MarketplaceTikTok, opts),
		auth:     newRestClient(integration.MarketplaceTikTok, authOpts),
		products: products,
		now:      time.Now,
	}
	a.logger = a.client.logger
	a.tokens = newTokenSource("token:TIKTOK", cache, persistedRefresh(integration.MarketplaceTikTok, tokens, a.refresh))
	return a, nil
}

// Marketplace returns TikTok
func (a *TikTokAdapter) Marketplace() integration.Marketplace {
	return integration.MarketplaceTikTok
}

// IsEnabled reports whether the adapter is switched on
func (a *TikTokAdapter) IsEnabled() bool {
	return a.config.Enabled
}

func (a *TikTokAdapter) refresh(ctx context.Context, refreshToken string) (string, string, time.Duration, error) {
	var out tiktokResponse[tiktokTokenData]
	resp, err := a.auth.R(ctx).
		SetQueryParams(map[string]string{
			"app_key":       a.config.AppKey,
			"app_secret":    a.config.AppSecret,
			"refresh_token": refreshToken,
			"grant_type":    "refresh_token",
		}).
		Get("/api/v2/token/refresh")
	if err := a.auth.decode(resp, err, &out); err != nil {
		return "", "", 0, err
	}
	if !out.IsSuccess() || out.Data.AccessToken == "" {
		return "", "", 0, fmt.Errorf("%w: tiktok: %d %s", integration.ErrMarketplaceAuthFailed, out.Code, out.Message)
	}
	var expiresIn time.Duration
	if out.Data.AccessTokenExpireIn > 0 {
		expiresIn = time.Unix(out.Data.AccessTokenExpireIn, 0).Sub(a.now())
	}
	return out.Data.AccessToken, out.Data.RefreshToken, expiresIn, nil
}

// call performs a signed request and decodes the data envelope into out.
// body is sent as JSON when not nil.
func (a *TikTokAdapter) call(ctx context.Context, method, path string, params map[string]string, body, out any) error {
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return err
		}
	}
	resp, err := withTokenRetry(ctx, a.tokens, func(token string) (*resty.Response, error) {
		signed := make(map[string]string, len(params)+3)
		for k, v := range params {
			signed[k] = v
		}
		signed["app_key"] = a.config.AppKey
		signed["timestamp"] = strconv.FormatInt(a.now().Unix(), 10)
		signed["sign"] = a.config.Sign(path, signed, raw)

		r := a.client.R(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeader("x-tts-access-token", token).
			SetQueryParams(signed)
		if raw != nil {
			r.SetBody(raw)
		}
		return r.Execute(method, path)
	})
	var envelope tiktokResponse[json.RawMessage]
	if err := a.client.decode(resp, err, &envelope); err != nil {
		return err
	}
	if !envelope.IsSuccess() {
		return fmt.Errorf("%w: tiktok: %d %s", integration.ErrMarketplaceRequestFailed, envelope.Code, envelope.Message)
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: tiktok: %v", integration.ErrMarketplaceInvalidResponse, err)
	}
	return nil
}

// ShopCipher returns the cipher of the single authorized shop
func (a *TikTokAdapter) ShopCipher(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cipher != "" {
		return a.cipher, nil
	}
	var data tiktokShopsData
	if err := a.call(ctx, http.MethodGet, tiktokShopsPath, nil, nil, &data); err != nil {
		return "", err
	}
	switch len(data.Shops) {
	case 0:
		return "", ErrTikTokNoShop
	case 1:
		a.cipher = data.Shops[0].Cipher
		return a.cipher, nil
	default:
		return "", fmt.Errorf("%w: %d shops", ErrTikTokMultipleShops, len(data.Shops))
	}
}

func (a *TikTokAdapter) shopCall(ctx context.Context, method, path string, params map[string]string, body, out any) error {
	cipher, err := a.ShopCipher(ctx)
	if err != nil {
		return err
	}
	if params == nil {
		params = make(map[string]string, 1)
	}
	params["shop_cipher"] = cipher
	return a.call(ctx, method, path, params, body, out)
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// FetchOrders searches orders in the requested status, or in every status when
// none is given. A single order is looked up by id.
func (a *TikTokAdapter) FetchOrders(ctx context.Context, query integration.OrderQuery) ([]*integration.Order, error) {
	if query.OrderID != "" {
		var data tiktokOrderSearchData
		if err := a.shopCall(ctx, http.MethodGet, tiktokOrderDetailPath,
			map[string]string{"ids": query.OrderID}, nil, &data); err != nil {
			return nil, err
		}
		return a.convertOrders(data.Orders), nil
	}

	statuses := TikTokOrderStatuses
	if query.FulfillmentStatus != "" {
		statuses = []string{strings.ToUpper(query.FulfillmentStatus)}
	}
	var orders []*integration.Order
	for _, status := range statuses {
		found, err := a.searchOrders(ctx, status)
		if err != nil {
			return nil, err
		}
		orders = append(orders, found...)
	}
	return orders, nil
}

func (a *TikTokAdapter) searchOrders(ctx context.Context, status string) ([]*integration.Order, error) {
	var orders []*integration.Order
	pageToken := ""
	for {
		params := map[string]string{"page_size": strconv.Itoa(a.config.PageSize)}
		if pageToken != "" {
			params["page_token"] = pageToken
		}
		var data tiktokOrderSearchData
		if err := a.shopCall(ctx, http.MethodPost, tiktokOrderSearchPath, params,
			map[string]string{"order_status": status}, &data); err != nil {
			return nil, err
		}
		orders = append(orders, a.convertOrders(data.Orders)...)
		a.logger.Debug("TikTok orders received", zap.String("status", status), zap.Int("count", len(data.Orders)))
		if data.NextPageToken == "" || len(data.Orders) == 0 {
			return orders, nil
		}
		pageToken = data.NextPageToken
	}
}

func (a *TikTokAdapter) convertOrders(entries []tiktokOrder) []*integration.Order {
	out := make([]*integration.Order, 0, len(entries))
	for i := range entries {
		order, err := convertTikTokOrder(&entries[i])
		if err != nil {
			a.logger.Warn("Skipping TikTok order", zap.String("order_id", entries[i].ID), zap.Error(err))
			continue
		}
		out = append(out, order)
	}
	return out
}

func convertTikTokOrder(entry *tiktokOrder) (*integration.Order, error) {
	order, err := integration.NewOrder(integration.MarketplaceTikTok, entry.ID)
	if err != nil {
		return nil, err
	}
	order.Status = entry.Status
	order.Email = entry.BuyerEmail
	order.OrderDate = time.Unix(entry.CreateTime, 0).UTC()
	if entry.UpdateTime > 0 {
		modified := time.Unix(entry.UpdateTime, 0).UTC()
		order.LastModifiedDate = &modified
	}
	order.DeliveryFee = entry.Payment.OriginalShippingFee

	ra := entry.RecipientAddress
	addr := &integration.Address{
		FirstName:   ra.FirstName,
		LastName:    ra.LastName,
		Street:      strings.TrimSpace(ra.AddressLine1 + " " + ra.AddressLine2),
		ZipCode:     ra.PostalCode,
		City:        ra.city(),
		CountryCode: ra.RegionCode,
		Email:       entry.BuyerEmail,
	}
	order.DeliveryAddress = addr
	invoice := *addr
	order.InvoiceAddress = &invoice

	var rts *time.Time
	if entry.RTSSLATime > 0 {
		t := time.Unix(entry.RTSSLATime, 0).UTC()
		rts = &t
	}
	for _, li := range entry.LineItems {
		item := integration.NewOrderItem(li.ID)
		item.FulfillmentStatus = li.DisplayStatus
		item.PackageID = li.PackageID
		if price, err := decimal.NewFromString(li.SalePrice); err == nil {
			item.Price = price
		}
		if li.Currency != "" {
			item.Currency = li.Currency
		} else if entry.Payment.Currency != "" {
			item.Currency = entry.Payment.Currency
		}
		item.SKU = li.SellerSKU
		item.ArticleNumber = li.SKUID
		item.ProductTitle = li.ProductName
		item.TrackingNumber = li.TrackingNumber
		item.Carrier = li.ShippingProviderName
		item.ExpectedDeliveryDate = rts
		if err := order.AddItem(item); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// city picks the city level of the district info, falling back to the last level
func (ra tiktokAddress) city() string {
	for _, d := range ra.DistrictInfo {
		if strings.EqualFold(d.AddressLevelName, "city") {
			return d.AddressName
		}
	}
	if len(ra.DistrictInfo) > 2 {
		return ra.DistrictInfo[2].AddressName
	}
	if n := len(ra.DistrictInfo); n > 0 {
		return ra.DistrictInfo[n-1].AddressName
	}
	return ""
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// SyncProducts pages through the active products and stores one mapping per
// seller sku and warehouse. It returns the number of stored mappings.
func (a *TikTokAdapter) SyncProducts(ctx context.Context) (int, error) {
	stored := 0
	pageToken := ""
	for {
		params := map[string]string{"page_size": strconv.Itoa(a.config.PageSize)}
		if pageToken != "" {
			params["page_token"] = pageToken
		}
		var data tiktokProductSearchData
		if err := a.shopCall(ctx, http.MethodPost, tiktokProductSearchPath, params,
			map[string]string{"status": "ACTIVATE"}, &data); err != nil {
			return stored, err
		}

		var mappings []*integration.MarketplaceProduct
		for _, p := range data.Products {
			for _, sku := range p.SKUs {
				for _, inv := range sku.Inventory {
					m, err := integration.NewMarketplaceProduct(integration.MarketplaceTikTok, sku.SellerSKU, p.ID)
					if err != nil {
						a.logger.Warn("Invalid TikTok sku", zap.String("product_id", p.ID), zap.String("sku_id", sku.ID), zap.Error(err))
						continue
					}
					m.VariantID = sku.ID
					m.WarehouseID = inv.WarehouseID
					m.Quantity = inv.Quantity
					m.Title = p.Title
					mappings = append(mappings, m)
				}
			}
		}
		if len(mappings) > 0 {
			if err := a.products.Upsert(ctx, mappings); err != nil {
				return stored, err
			}
			stored += len(mappings)
		}
		if data.NextPageToken == "" || len(data.Products) == 0 {
			return stored, nil
		}
		pageToken = data.NextPageToken
	}
}

// ---------------------------------------------------------------------------
// Stock
// ---------------------------------------------------------------------------

// PushStock updates the inventory of every known seller sku in all of its warehouses
func (a *TikTokAdapter) PushStock(ctx context.Context, items []integration.StockItem) (*integration.SyncResult, error) {
	result := integration.NewSyncResult(integration.MarketplaceTikTok, len(items))
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mappings, err := a.products.FindBySKU(ctx, integration.MarketplaceTikTok, it.SKU)
		if err != nil || len(mappings) == 0 {
			result.SkippedCount++
			continue
		}
		update := tiktokInventorySKU{ID: mappings[0].VariantID}
		for _, m := range mappings {
			update.Inventory = append(update.Inventory, tiktokInventory{WarehouseID: m.WarehouseID, Quantity: it.Quantity})
		}
		path := fmt.Sprintf(tiktokInventoryPathFmt, mappings[0].ProductID)
		if err := a.shopCall(ctx, http.MethodPost, path, nil, tiktokInventoryUpdate{SKUs: []tiktokInventorySKU{update}}, nil); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.AddFailure(it.SKU, err.Error())
			continue
		}
		result.SuccessCount++
	}
	return result.Finish(), nil
}

// ---------------------------------------------------------------------------
// Shipments
// ---------------------------------------------------------------------------

// UploadShipment ships every package of the order with the tracking number
func (a *TikTokAdapter) UploadShipment(ctx context.Context, req integration.ShipmentRequest) (*integration.ShipmentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var packages []string
	for _, it := range req.Order.Items {
		if it.PackageID != "" && !seen[it.PackageID] {
			seen[it.PackageID] = true
			packages = append(packages, it.PackageID)
		}
	}
	if len(packages) == 0 {
		return nil, fmt.Errorf("%w: %w: %s", integration.ErrShipmentInvalid, ErrTikTokNoPackage, req.Order.MarketplaceOrderID)
	}

	body := tiktokShipPackage{
		HandoverMethod: "PICKUP",
		SelfShipment: tiktokSelfShipment{
			TrackingNumber:     req.TrackingNumber,
			ShippingProviderID: a.config.ShippingProviderID,
		},
	}
	shipped := make([]string, 0, len(packages))
	for _, pkg := range packages {
		if err := a.shopCall(ctx, http.MethodPost, fmt.Sprintf(tiktokShipPackagePathFmt, pkg), nil, body, nil); err != nil {
			return &integration.ShipmentResult{
				StatusCode: http.StatusConflict,
				Response:   fmt.Sprintf("package %s: %v", pkg, err),
			}, nil
		}
		shipped = append(shipped, pkg)
	}
	return &integration.ShipmentResult{
		StatusCode: http.StatusOK,
		Response:   "shipped packages " + strings.Join(shipped, ","),
	}, nil
}

// Compile-time interface checks
var (
	_ integration.OrderSource    = (*TikTokAdapter)(nil)
	_ integration.StockTarget    = (*TikTokAdapter)(nil)
	_ integration.ShipmentTarget = (*TikTokAdapter)(nil)
)
