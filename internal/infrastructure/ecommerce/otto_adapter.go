package ecommerce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/feed"
)

// OttoAdapter talks to the OTTO Market partner API
type OttoAdapter struct {
	config *OttoConfig
	client *restClient
	tokens *tokenSource
	logger *zap.Logger
	now    func() time.Time
}

// NewOttoAdapter creates a new OTTO adapter. cache may be nil.
func NewOttoAdapter(config *OttoConfig, cache integration.TokenCache, opts ClientOptions) (*OttoAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	opts.BaseURL = config.BaseURL
	opts.Timeout = time.Duration(config.TimeoutSeconds) * time.Second
	opts.RequestsPerSecond = config.RequestsPerSecond
	a := &OttoAdapter{
		config: config,
		client: newRestClient(integration.MarketplaceOtto, opts),
		now:    time.Now,
	}
	a.logger = a.client.logger
	a.tokens = newTokenSource("token:OTTO", cache, a.fetchToken)
	return a, nil
}

// Marketplace returns OTTO
func (a *OttoAdapter) Marketplace() integration.Marketplace {
	return integration.MarketplaceOtto
}

// IsEnabled reports whether the adapter is switched on
func (a *OttoAdapter) IsEnabled() bool {
	return a.config.Enabled
}

func (a *OttoAdapter) fetchToken(ctx context.Context) (string, time.Duration, error) {
	var out ottoTokenResponse
	resp, err := a.client.R(ctx).
		SetHeader("Cache-Control", "no-cache").
		SetFormData(map[string]string{
			"username":   a.config.Username,
			"password":   a.config.Password,
			"grant_type": "password",
			"client_id":  ottoClientID,
		}).
		Post("/v1/token")
	if err := a.client.decode(resp, err, &out); err != nil {
		return "", 0, err
	}
	if out.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: otto: empty access token", integration.ErrMarketplaceAuthFailed)
	}
	return out.AccessToken, time.Duration(out.ExpiresIn) * time.Second, nil
}

// authorized runs a request with the bearer token, renewing it once on 401
func (a *OttoAdapter) authorized(ctx context.Context, build func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	return withTokenRetry(ctx, a.tokens, func(token string) (*resty.Response, error) {
		return build(a.client.R(ctx).SetAuthToken(token))
	})
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// FetchOrders returns orders with position items in the requested fulfillment status.
// Orders without a delivery address (prepayment, ANNOUNCED) are skipped.
func (a *OttoAdapter) FetchOrders(ctx context.Context, query integration.OrderQuery) ([]*integration.Order, error) {
	if query.OrderID != "" {
		return a.fetchOrder(ctx, query.OrderID)
	}
	status := query.FulfillmentStatus
	if status == "" {
		status = "PROCESSABLE"
	}
	if !IsOttoFulfillmentStatus(status) {
		return nil, fmt.Errorf("%w: %s", integration.ErrInvalidFulfillStatus, status)
	}
	since := query.Since
	if since.IsZero() {
		since = a.now().AddDate(0, 0, -a.config.OrderLookbackDays)
	}

	var orders []*integration.Order
	next := ""
	for page := 0; ; page++ {
		var body ottoOrderPage
		resp, err := a.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
			if next != "" {
				return r.Get(next)
			}
			return r.SetQueryParams(map[string]string{
				"fulfillmentStatus": status,
				"fromOrderDate":     since.Truncate(time.Second).Format(time.RFC3339),
			}).Get("/v4/orders")
		})
		if err := a.client.decode(resp, err, &body); err != nil {
			return nil, err
		}
		orders = append(orders, a.convertOrders(body.Resources)...)

		next = ""
		for _, l := range body.Links {
			if l.Rel == "next" && l.Href != "" {
				next = l.Href
			}
		}
		if next == "" {
			break
		}
		a.logger.Debug("Fetching next OTTO order slice", zap.Int("page", page+1))
	}
	return orders, nil
}

func (a *OttoAdapter) fetchOrder(ctx context.Context, salesOrderID string) ([]*integration.Order, error) {
	var body ottoOrder
	resp, err := a.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("id", salesOrderID).Get("/v4/orders/{id}")
	})
	if err := a.client.decode(resp, err, &body); err != nil {
		return nil, err
	}
	return a.convertOrders([]ottoOrder{body}), nil
}

func (a *OttoAdapter) convertOrders(entries []ottoOrder) []*integration.Order {
	out := make([]*integration.Order, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		if entry.DeliveryAddress == nil {
			a.logger.Info("OTTO order has no delivery address",
				zap.String("sales_order_id", entry.SalesOrderID),
				zap.Int("position_items", len(entry.PositionItems)))
			continue
		}
		order, err := a.convertOrder(entry)
		if err != nil {
			a.logger.Warn("Skipping OTTO order", zap.String("sales_order_id", entry.SalesOrderID), zap.Error(err))
			continue
		}
		out = append(out, order)
	}
	return out
}

func (a *OttoAdapter) convertOrder(entry *ottoOrder) (*integration.Order, error) {
	order, err := integration.NewOrder(integration.MarketplaceOtto, entry.SalesOrderID)
	if err != nil {
		return nil, err
	}
	if entry.OrderNumber != "" {
		order.OrderNumber = entry.OrderNumber
	}
	order.OrderDate = entry.OrderDate
	order.LastModifiedDate = entry.LastModifiedDate
	if len(entry.InitialDeliveryFees) > 0 && string(entry.InitialDeliveryFees) != "null" {
		order.DeliveryFee = string(entry.InitialDeliveryFees)
	}

	email := a.config.FallbackEmail
	if entry.InvoiceAddress != nil && entry.InvoiceAddress.Email != "" {
		email = entry.InvoiceAddress.Email
	}
	order.Email = email
	// both addresses are taken from the delivery address
	order.DeliveryAddress = entry.DeliveryAddress.toDomain(email)
	order.InvoiceAddress = entry.DeliveryAddress.toDomain(email)

	for _, p := range entry.PositionItems {
		item := integration.NewOrderItem(p.PositionItemID)
		item.FulfillmentStatus = p.FulfillmentStatus
		item.Price = p.ItemValueGrossPrice.Amount
		if p.ItemValueGrossPrice.Currency != "" {
			item.Currency = p.ItemValueGrossPrice.Currency
		}
		item.SKU = p.Product.SKU
		item.EAN = p.Product.EAN
		item.ArticleNumber = p.Product.ArticleNumber
		item.ProductTitle = p.Product.ProductTitle
		item.VatRate = p.Product.VatRate
		item.SentDate = p.SentDate
		item.ReturnedDate = p.ReturnedDate
		item.ExpectedDeliveryDate = p.expectedDelivery()
		if p.TrackingInfo != nil {
			item.Carrier = p.TrackingInfo.Carrier
			item.TrackingNumber = p.TrackingInfo.TrackingNumber
		}
		if err := order.AddItem(item); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (p ottoPositionItem) expectedDelivery() *time.Time {
	if p.ExpectedDeliveryDate != nil {
		return p.ExpectedDeliveryDate
	}
	switch p.FulfillmentStatus {
	case "RETURNED":
		return p.ReturnedDate
	case "CANCELLED_BY_MARKETPLACE":
		return p.CancellationDate
	}
	return nil
}

func (addr *ottoAddress) toDomain(email string) *integration.Address {
	return &integration.Address{
		Title:       addr.Title,
		FirstName:   addr.FirstName,
		LastName:    addr.LastName,
		Street:      addr.Street,
		HouseNumber: addr.HouseNumber,
		Addition:    addr.Addition,
		ZipCode:     addr.ZipCode,
		City:        addr.City,
		CountryCode: addr.CountryCode,
		Email:       email,
	}
}

// ---------------------------------------------------------------------------
// Stock
// ---------------------------------------------------------------------------

// PushStock sends quantities in chunks of 100
func (a *OttoAdapter) PushStock(ctx context.Context, items []integration.StockItem) (*integration.SyncResult, error) {
	result := integration.NewSyncResult(integration.MarketplaceOtto, len(items))
	lastModified := a.now().UTC().Format("2006-01-02T15:04:05.000Z")

	for _, batch := range feed.Chunk(items, ottoStockChunkSize) {
		payload := make([]ottoQuantity, 0, len(batch))
		for _, it := range batch {
			payload = append(payload, ottoQuantity{LastModified: lastModified, Quantity: it.Quantity, SKU: it.SKU})
		}
		resp, err := a.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
			return r.SetBody(payload).Post("/v2/quantities")
		})
		if err := a.client.check(resp, err); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			for _, it := range batch {
				result.AddFailure(it.SKU, err.Error())
			}
			continue
		}
		result.SuccessCount += len(batch)
	}
	return result.Finish(), nil
}

// ---------------------------------------------------------------------------
// Shipments
// ---------------------------------------------------------------------------

// UploadShipment announces one tracking number for every position item of the order
func (a *OttoAdapter) UploadShipment(ctx context.Context, req integration.ShipmentRequest) (*integration.ShipmentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	order := req.Order
	if order.DeliveryAddress.IsZero() {
		return nil, fmt.Errorf("%w: order %s has no delivery address", integration.ErrShipmentInvalid, order.MarketplaceOrderID)
	}

	key := ottoTrackingKey{Carrier: strings.ToUpper(req.Carrier), TrackingNumber: req.TrackingNumber}
	payload := ottoShipmentRequest{
		TrackingKey: key,
		ShipDate:    req.ShipDate.UTC().Format("2006-01-02T15:04:05Z"),
		ShipFromAddress: ottoShipFromAddress{
			City:        order.DeliveryAddress.City,
			CountryCode: order.DeliveryAddress.CountryCode,
			ZipCode:     order.DeliveryAddress.ZipCode,
		},
	}
	returnKey := key
	if req.ReturnTrackingNumber != "" {
		returnKey.TrackingNumber = req.ReturnTrackingNumber
	}
	for _, it := range order.Items {
		payload.PositionItems = append(payload.PositionItems, ottoShipmentPosition{
			PositionItemID:    it.PositionItemID,
			SalesOrderID:      order.MarketplaceOrderID,
			ReturnTrackingKey: returnKey,
		})
	}

	resp, err := a.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(payload).Post("/v1/shipments")
	})
	if err != nil {
		return nil, a.client.check(resp, err)
	}
	return &integration.ShipmentResult{StatusCode: resp.StatusCode(), Response: string(resp.Body())}, nil
}

// Compile-time interface checks
var (
	_ integration.OrderSource    = (*OttoAdapter)(nil)
	_ integration.StockTarget    = (*OttoAdapter)(nil)
	_ integration.ShipmentTarget = (*OttoAdapter)(nil)
)
