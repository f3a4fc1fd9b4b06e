package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/integration"
)

// etsyZeroOfferingError is returned by Etsy when the last enabled offering would drop to 0
const etsyZeroOfferingError = "One offering must have quantity greater than 0"

// ErrEtsyInventoryInvalid is returned when an inventory document has no offering
var ErrEtsyInventoryInvalid = errors.New("etsy: inventory has no product offering")

// EtsyStatuses maps Etsy receipt statuses onto stored order statuses
var EtsyStatuses = map[string]string{
	"Completed":          "COMPLETED",
	"Canceled":           "CANCELED",
	"Open":               "OPEN",
	"Paid":               "PAID",
	"Payment Processing": "PAYMENT_PROCESSING",
	"Partially Refunded": "PARTIALLY_REFUNDED",
}

// EtsyAdapter talks to the Etsy Open API v3
type EtsyAdapter struct {
	config   *EtsyConfig
	client   *restClient
	auth     *restClient
	tokens   *tokenSource
	products integration.MarketplaceProductRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewEtsyAdapter creates a new Etsy adapter. Access tokens are refreshed from the
// latest stored token pair; cache may be nil.
func NewEtsyAdapter(
	config *EtsyConfig,
	tokens integration.AuthTokenRepository,
	products integration.MarketplaceProductRepository,
	cache integration.TokenCache,
	opts ClientOptions,
) (*EtsyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	opts.Timeout = time.Duration(config.TimeoutSeconds) * time.Second
	opts.RequestsPerSecond = config.RequestsPerSecond

	authOpts := opts
	authOpts.BaseURL = config.AuthURL
	opts.BaseURL = config.BaseURL

	a := &EtsyAdapter{
		config:   config,
		client:   newRestClient(integration.MarketplaceEtsy, opts),
		auth:     newRestClient(integration.MarketplaceEtsy, authOpts),
		products: products,
		now:      time.Now,
	}
	a.client.http.SetHeader("x-api-key", config.APIKey)
	a.logger = a.client.logger
	a.tokens = newTokenSource("token:ETSY", cache, persistedRefresh(integration.MarketplaceEtsy, tokens, a.refresh))
	return a, nil
}

// Marketplace returns Etsy
func (a *EtsyAdapter) Marketplace() integration.Marketplace {
	return integration.MarketplaceEtsy
}

// IsEnabled reports whether the adapter is switched on
func (a *EtsyAdapter) IsEnabled() bool {
	return a.config.Enabled
}

func (a *EtsyAdapter) refresh(ctx context.Context, refreshToken string) (string, string, time.Duration, error) {
	var out etsyTokenResponse
	resp, err := a.auth.R(ctx).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"client_id":     a.config.APIKey,
			"refresh_token": refreshToken,
		}).
		Post("/v3/public/oauth/token")
	if err := a.auth.decode(resp, err, &out); err != nil {
		return "", "", 0, err
	}
	if out.AccessToken == "" {
		return "", "", 0, fmt.Errorf("%w: etsy: empty access token", integration.ErrMarketplaceAuthFailed)
	}
	return out.AccessToken, out.RefreshToken, time.Duration(out.ExpiresIn) * time.Second, nil
}

func (a *EtsyAdapter) authorized(ctx context.Context, build func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	return withTokenRetry(ctx, a.tokens, func(token string) (*resty.Response, error) {
		return build(a.client.R(ctx).SetAuthToken(token))
	})
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// FetchOrders returns the receipts created within the lookback window
func (a *EtsyAdapter) FetchOrders(ctx context.Context, query integration.OrderQuery) ([]*integration.Order, error) {
	since := query.Since
	if since.IsZero() {
		since = a.now().AddDate(0, 0, -a.config.OrderLookbackDays)
	}
	var page etsyReceiptPage
	resp, err := a.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("shop", a.config.ShopID).
			SetQueryParams(map[string]string{
				"limit":       strconv.Itoa(etsyReceiptLimit),
				"min_created": strconv.FormatInt(since.Unix(), 10),
			}).
			Get("/v3/application/shops/{shop}/receipts")
	})
	if err := a.client.decode(resp, err, &page); err != nil {
		return nil, err
	}

	orders := make([]*integration.Order, 0, len(page.Results))
	for i := range page.Results {
		rec := &page.Results[i]
		if query.OrderID != "" && rec.ReceiptID.String() != query.OrderID {
			continue
		}
		order, err := a.convertReceipt(rec)
		if err != nil {
			a.logger.Warn("Skipping Etsy receipt", zap.String("receipt_id", rec.ReceiptID.String()), zap.Error(err))
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (a *EtsyAdapter) convertReceipt(rec *etsyReceipt) (*integration.Order, error) {
	order, err := integration.NewOrder(integration.MarketplaceEtsy, rec.ReceiptID.String())
	if err != nil {
		return nil, err
	}
	status, ok := EtsyStatuses[rec.Status]
	if !ok {
		status = strings.ToUpper(strings.ReplaceAll(rec.Status, " ", "_"))
	}
	order.Status = status
	order.OrderDate = time.Unix(rec.CreateTimestamp, 0).UTC()
	if rec.UpdateTimestamp > 0 {
		modified := time.Unix(rec.UpdateTimestamp, 0).UTC()
		order.LastModifiedDate = &modified
	}
	order.Email = rec.BuyerEmail
	order.DeliveryFee = integration.PriceFromCents(rec.TotalShippingCost.Amount).StringFixed(2)

	addr := &integration.Address{
		LastName:    rec.Name,
		Street:      rec.FirstLine,
		Addition:    rec.SecondLine,
		ZipCode:     rec.Zip,
		City:        rec.City,
		CountryCode: rec.CountryISO,
		Email:       rec.BuyerEmail,
	}
	order.DeliveryAddress = addr
	invoice := *addr
	order.InvoiceAddress = &invoice

	var carrier, tracking string
	if len(rec.Shipments) > 0 {
		carrier = rec.Shipments[0].CarrierName
		tracking = rec.Shipments[0].TrackingCode
	}
	for _, t := range rec.Transactions {
		item := integration.NewOrderItem(t.TransactionID.String())
		item.FulfillmentStatus = status
		item.Price = integration.PriceFromCents(t.Price.Amount)
		if t.Price.CurrencyCode != "" {
			item.Currency = t.Price.CurrencyCode
		}
		item.EAN = t.ListingID.String()
		item.ProductTitle = t.Title
		item.SKU = t.SKU
		if t.Quantity > 0 {
			item.Quantity = t.Quantity
		}
		if t.ExpectedShipDate > 0 {
			expected := time.Unix(t.ExpectedShipDate, 0).UTC()
			item.ExpectedDeliveryDate = &expected
		}
		item.Carrier = carrier
		item.TrackingNumber = tracking
		if err := order.AddItem(item); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ---------------------------------------------------------------------------
// Listings
// ---------------------------------------------------------------------------

// SyncListings pages through the active listings and stores the SKU mapping of
// every listing carrying exactly one SKU. It returns the number of stored mappings.
func (a *EtsyAdapter) SyncListings(ctx context.Context) (int, error) {
	stored := 0
	for offset := 0; ; offset += etsyListingPageSize {
		var page etsyListingPage
		resp, err := a.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
			return r.SetPathParam("shop", a.config.ShopID).
				SetQueryParams(map[string]string{
					"offset": strconv.Itoa(offset),
					"limit":  strconv.Itoa(etsyListingPageSize),
				}).
				Get("/v3/application/shops/{shop}/listings/active")
		})
		if err := a.client.decode(resp, err, &page); err != nil {
			return stored, err
		}

		mappings := make([]*integration.MarketplaceProduct, 0, len(page.Results))
		for _, l := range page.Results {
			if len(l.SKUs) != 1 {
				a.logger.Warn("Etsy listing needs exactly one sku",
					zap.String("listing_id", l.ListingID.String()),
					zap.Strings("skus", l.SKUs))
				continue
			}
			p, err := integration.NewMarketplaceProduct(integration.MarketplaceEtsy, l.SKUs[0], l.ListingID.String())
			if err != nil {
				a.logger.Warn("Invalid Etsy listing", zap.String("listing_id", l.ListingID.String()), zap.Error(err))
				continue
			}
			p.Quantity = l.Quantity
			p.Title = l.Title
			mappings = append(mappings, p)
		}
		if len(mappings) > 0 {
			if err := a.products.Upsert(ctx, mappings); err != nil {
				return stored, err
			}
			stored += len(mappings)
		}
		if len(page.Results) < etsyListingPageSize || offset+etsyListingPageSize >= page.Count {
			break
		}
	}
	return stored, nil
}

// ---------------------------------------------------------------------------
// Stock
// ---------------------------------------------------------------------------

// PushStock updates the inventory of every known listing whose quantity differs.
// Quantities are capped at MaxQuantity.
func (a *EtsyAdapter) PushStock(ctx context.Context, items []integration.StockItem) (*integration.SyncResult, error) {
	result := integration.NewSyncResult(integration.MarketplaceEtsy, len(items))
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		listings, err := a.products.FindBySKU(ctx, integration.MarketplaceEtsy, it.SKU)
		if err != nil || len(listings) == 0 {
			result.SkippedCount++
			continue
		}
		qty := it.Quantity
		if qty > a.config.MaxQuantity {
			qty = a.config.MaxQuantity
		}
		synced, err := a.updateInventory(ctx, listings[0].ProductID, qty)
		switch {
		case err != nil:
			a.logger.Warn("Etsy inventory update failed", zap.String("sku", it.SKU), zap.Error(err))
			result.AddFailure(it.SKU, err.Error())
		case synced:
			result.SkippedCount++
		default:
			result.SuccessCount++
		}
	}
	return result.Finish(), nil
}

// updateInventory sets the quantity of the first offering of a listing.
// It reports true when the listing already had that quantity.
func (a *EtsyAdapter) updateInventory(ctx context.Context, listingID string, qty int) (bool, error) {
	resp, err := a.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("listing", listingID).Get("/v3/application/listings/{listing}/inventory")
	})
	if err := a.client.check(resp, err); err != nil {
		return false, err
	}
	inventory, offering, err := decodeEtsyInventory(resp.Body())
	if err != nil {
		return false, err
	}
	current, _ := strconv.Atoi(fmt.Sprint(offering["quantity"]))
	if current == qty {
		return true, nil
	}
	if err := cleanEtsyInventory(inventory, offering); err != nil {
		return false, err
	}
	offering["quantity"] = qty

	resp, err = a.putInventory(ctx, listingID, inventory)
	if err != nil {
		return false, a.client.check(resp, err)
	}
	if resp.IsSuccess() {
		return false, nil
	}
	var apiErr etsyError
	_ = json.Unmarshal(resp.Body(), &apiErr)
	if apiErr.Error != etsyZeroOfferingError {
		return false, a.client.check(resp, nil)
	}
	// park the listing with a disabled offering
	offering["is_enabled"] = false
	offering["quantity"] = 1
	resp, err = a.putInventory(ctx, listingID, inventory)
	return false, a.client.check(resp, err)
}

func (a *EtsyAdapter) putInventory(ctx context.Context, listingID string, inventory map[string]any) (*resty.Response, error) {
	return a.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("listing", listingID).SetBody(inventory).Put("/v3/application/listings/{listing}/inventory")
	})
}

func decodeEtsyInventory(body []byte) (map[string]any, map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var inventory map[string]any
	if err := dec.Decode(&inventory); err != nil {
		return nil, nil, fmt.Errorf("%w: etsy: %v", integration.ErrMarketplaceInvalidResponse, err)
	}
	products, _ := inventory["products"].([]any)
	if len(products) == 0 {
		return nil, nil, ErrEtsyInventoryInvalid
	}
	product, _ := products[0].(map[string]any)
	offerings, _ := product["offerings"].([]any)
	if len(offerings) == 0 {
		return nil, nil, ErrEtsyInventoryInvalid
	}
	offering, ok := offerings[0].(map[string]any)
	if !ok {
		return nil, nil, ErrEtsyInventoryInvalid
	}
	return inventory, offering, nil
}

// cleanEtsyInventory drops read-only fields and flattens the offering price
// so the document is accepted by the inventory PUT endpoint.
func cleanEtsyInventory(inventory, offering map[string]any) error {
	product := inventory["products"].([]any)[0].(map[string]any)
	delete(product, "product_id")
	delete(product, "is_deleted")
	delete(offering, "offering_id")
	delete(offering, "is_deleted")

	price, ok := offering["price"].(map[string]any)
	if !ok {
		return nil
	}
	amount, err := decimal.NewFromString(fmt.Sprint(price["amount"]))
	if err != nil {
		return fmt.Errorf("%w: etsy: price amount: %v", integration.ErrMarketplaceInvalidResponse, err)
	}
	divisor, err := decimal.NewFromString(fmt.Sprint(price["divisor"]))
	if err != nil || divisor.IsZero() {
		divisor = decimal.NewFromInt(100)
	}
	offering["price"] = json.Number(amount.Div(divisor).StringFixed(2))
	return nil
}

// ---------------------------------------------------------------------------
// Shipments
// ---------------------------------------------------------------------------

// UploadShipment submits the tracking code of a receipt
func (a *EtsyAdapter) UploadShipment(ctx context.Context, req integration.ShipmentRequest) (*integration.ShipmentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := a.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParams(map[string]string{
			"shop":    a.config.ShopID,
			"receipt": req.Order.MarketplaceOrderID,
		}).SetFormData(map[string]string{
			"tracking_code": req.TrackingNumber,
			"carrier_name":  strings.ToLower(req.Carrier),
		}).Post("/v3/application/shops/{shop}/receipts/{receipt}/tracking")
	})
	if err != nil {
		return nil, a.client.check(resp, err)
	}
	return &integration.ShipmentResult{StatusCode: resp.StatusCode(), Response: string(resp.Body())}, nil
}

// Compile-time interface checks
var (
	_ integration.OrderSource    = (*EtsyAdapter)(nil)
	_ integration.StockTarget    = (*EtsyAdapter)(nil)
	_ integration.ShipmentTarget = (*EtsyAdapter)(nil)
)
