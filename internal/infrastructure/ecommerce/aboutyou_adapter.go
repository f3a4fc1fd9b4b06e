package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/feed"
)

// AboutYouAdapter talks to the ABOUT YOU partner API. Stock, price and shipment
// updates are processed asynchronously and polled via their batch request id.
type AboutYouAdapter struct {
	config *AboutYouConfig
	client *restClient
	poller *BatchPoller
	logger *zap.Logger
}

// NewAboutYouAdapter creates a new ABOUT YOU adapter
func NewAboutYouAdapter(config *AboutYouConfig, poller *BatchPoller, opts ClientOptions) (*AboutYouAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	opts.BaseURL = config.BaseURL
	opts.Timeout = time.Duration(config.TimeoutSeconds) * time.Second
	opts.RequestsPerSecond = config.RequestsPerSecond
	client := newRestClient(integration.MarketplaceAboutYou, opts)
	client.http.SetHeader("X-API-Key", config.APIKey)
	if poller == nil {
		poller = NewBatchPoller(nil, client.logger)
	}
	return &AboutYouAdapter{config: config, client: client, poller: poller, logger: client.logger}, nil
}

// Marketplace returns ABOUTYOU
func (a *AboutYouAdapter) Marketplace() integration.Marketplace {
	return integration.MarketplaceAboutYou
}

// IsEnabled reports whether the adapter is switched on
func (a *AboutYouAdapter) IsEnabled() bool {
	return a.config.Enabled
}

// aboutYouResultPaths maps batch kinds to their result endpoints
var aboutYouResultPaths = map[integration.BatchKind]string{
	integration.BatchKindStock:    "/api/v1/results/stocks",
	integration.BatchKindPrice:    "/api/v1/results/prices",
	integration.BatchKindShipment: "/api/v1/results/ship-orders",
}

// submit sends a batch update and polls its result. A batch that does not complete in
// time is left pending and reported by id.
func (a *AboutYouAdapter) submit(ctx context.Context, kind integration.BatchKind, method, path string, body any) (string, int, string, error) {
	var out aboutYouBatchResponse
	resp, err := a.client.R(ctx).SetBody(body).Execute(method, path)
	if err := a.client.decode(resp, err, &out); err != nil {
		if resp != nil {
			return "", resp.StatusCode(), string(resp.Body()), err
		}
		return "", 0, "", err
	}
	if out.BatchRequestID == "" {
		return "", resp.StatusCode(), string(resp.Body()), fmt.Errorf("%w: aboutyou: missing batchRequestId", integration.ErrMarketplaceInvalidResponse)
	}

	batch := integration.NewBatchRequest(integration.MarketplaceAboutYou, kind, out.BatchRequestID)
	if err := a.poller.Poll(ctx, batch, a.batchStatus(kind, out.BatchRequestID)); err != nil {
		if !errors.Is(err, integration.ErrBatchNotCompleted) {
			return out.BatchRequestID, resp.StatusCode(), string(resp.Body()), err
		}
		a.logger.Warn("Batch request still pending", zap.String("batch_request_id", out.BatchRequestID), zap.String("kind", string(kind)))
	}
	return out.BatchRequestID, resp.StatusCode(), string(resp.Body()), nil
}

func (a *AboutYouAdapter) batchStatus(kind integration.BatchKind, id string) BatchStatusFunc {
	return func(ctx context.Context) (string, string, error) {
		var out aboutYouBatchStatus
		resp, err := a.client.R(ctx).SetQueryParam("batch_request_id", id).Get(aboutYouResultPaths[kind])
		if err := a.client.decode(resp, err, &out); err != nil {
			return "", "", err
		}
		return out.Status, string(resp.Body()), nil
	}
}

// RefreshBatch re-polls a stored pending batch once
func (a *AboutYouAdapter) RefreshBatch(ctx context.Context, batch *integration.BatchRequest) error {
	status, raw, err := a.batchStatus(batch.Kind, batch.BatchRequestID)(ctx)
	if err != nil {
		return err
	}
	batch.Record(status, raw)
	return nil
}

// ---------------------------------------------------------------------------
// Stock & prices
// ---------------------------------------------------------------------------

// PushStock sends stock levels in chunks of 100, one batch per chunk
func (a *AboutYouAdapter) PushStock(ctx context.Context, items []integration.StockItem) (*integration.SyncResult, error) {
	result := integration.NewSyncResult(integration.MarketplaceAboutYou, len(items))
	for _, batch := range feed.Chunk(items, aboutYouChunkSize) {
		payload := aboutYouItems[aboutYouStockItem]{Items: make([]aboutYouStockItem, 0, len(batch))}
		for _, it := range batch {
			payload.Items = append(payload.Items, aboutYouStockItem{SKU: it.SKU, Quantity: it.Quantity})
		}
		id, _, _, err := a.submit(ctx, integration.BatchKindStock, "PUT", "/api/v1/products/stocks", payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			for _, it := range batch {
				result.AddFailure(it.SKU, err.Error())
			}
			continue
		}
		result.SuccessCount += len(batch)
		result.BatchRequestIDs = append(result.BatchRequestIDs, id)
	}
	return result.Finish(), nil
}

// PushPrices sends retail prices in one batch
func (a *AboutYouAdapter) PushPrices(ctx context.Context, items []integration.PriceItem) (*integration.SyncResult, error) {
	result := integration.NewSyncResult(integration.MarketplaceAboutYou, len(items))
	if len(items) == 0 {
		return result.Finish(), nil
	}
	payload := aboutYouItems[aboutYouPriceItem]{Items: make([]aboutYouPriceItem, 0, len(items))}
	for _, it := range items {
		country := it.CountryCode
		if country == "" {
			country = a.config.CountryCode
		}
		payload.Items = append(payload.Items, aboutYouPriceItem{
			SKU:   it.SKU,
			Price: aboutYouPrice{CountryCode: country, RetailPrice: it.RetailPrice},
		})
	}
	id, _, _, err := a.submit(ctx, integration.BatchKindPrice, "PUT", "/api/v1/products/prices", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPriceSyncFailed, err)
	}
	result.SuccessCount = len(items)
	result.BatchRequestIDs = append(result.BatchRequestIDs, id)
	return result.Finish(), nil
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// FetchOrders returns the open orders
func (a *AboutYouAdapter) FetchOrders(ctx context.Context, _ integration.OrderQuery) ([]*integration.Order, error) {
	var page aboutYouOrderPage
	resp, err := a.client.R(ctx).Get("/api/v1/orders/")
	if err := a.client.decode(resp, err, &page); err != nil {
		return nil, err
	}
	orders := make([]*integration.Order, 0, len(page.Items))
	for _, entry := range page.Items {
		order, err := integration.NewOrder(integration.MarketplaceAboutYou, entry.OrderNumber)
		if err != nil {
			a.logger.Warn("Skipping ABOUT YOU order", zap.String("order_number", entry.OrderNumber), zap.Error(err))
			continue
		}
		order.Status = entry.Status
		order.OrderDate = entry.CreatedAt
		order.DeliveryAddress = &integration.Address{
			FirstName:   entry.ShippingRecipientFirstName,
			LastName:    entry.ShippingRecipientLastName,
			Street:      entry.ShippingStreet,
			Addition:    entry.ShippingAdditional,
			ZipCode:     entry.ShippingZipCode,
			City:        entry.ShippingCity,
			CountryCode: entry.ShippingCountryCode,
		}
		order.InvoiceAddress = &integration.Address{
			FirstName:   entry.BillingRecipientFirstName,
			LastName:    entry.BillingRecipientLastName,
			Street:      entry.BillingStreet,
			Addition:    entry.BillingAdditional,
			ZipCode:     entry.BillingZipCode,
			City:        entry.BillingCity,
			CountryCode: entry.BillingCountryCode,
		}
		for _, oi := range entry.OrderItems {
			item := integration.NewOrderItem(oi.ID.String())
			item.FulfillmentStatus = oi.Status
			item.SKU = oi.SKU
			item.Price = integration.PriceFromCents(oi.PriceWithTax)
			item.VatRate = oi.Vat
			if err := order.AddItem(item); err != nil {
				a.logger.Warn("Skipping ABOUT YOU order item", zap.String("order_number", entry.OrderNumber), zap.Error(err))
			}
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// ---------------------------------------------------------------------------
// Shipments
// ---------------------------------------------------------------------------

// UploadShipment ships every item of the order and waits for the batch result
func (a *AboutYouAdapter) UploadShipment(ctx context.Context, req integration.ShipmentRequest) (*integration.ShipmentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(req.Order.Items))
	for _, it := range req.Order.Items {
		id, err := strconv.ParseInt(it.PositionItemID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: order item id %q", integration.ErrShipmentInvalid, it.PositionItemID)
		}
		ids = append(ids, id)
	}
	payload := aboutYouItems[aboutYouShipItem]{Items: []aboutYouShipItem{{
		OrderItems:          ids,
		CarrierKey:          a.config.CarrierKey,
		ShipmentTrackingKey: req.TrackingNumber,
		ReturnTrackingKey:   req.ReturnTrackingNumber,
	}}}
	id, status, raw, err := a.submit(ctx, integration.BatchKindShipment, "POST", "/api/v1/orders/ship", payload)
	if err != nil {
		if status == 0 {
			return nil, err
		}
		a.logger.Warn("ABOUT YOU shipment upload failed",
			zap.String("order_number", req.Order.MarketplaceOrderID),
			zap.Int("status", status),
			zap.Error(err))
	}
	return &integration.ShipmentResult{StatusCode: status, Response: raw, BatchRequestID: id}, nil
}

// Compile-time interface checks
var (
	_ integration.OrderSource    = (*AboutYouAdapter)(nil)
	_ integration.StockTarget    = (*AboutYouAdapter)(nil)
	_ integration.PriceTarget    = (*AboutYouAdapter)(nil)
	_ integration.ShipmentTarget = (*AboutYouAdapter)(nil)
)
