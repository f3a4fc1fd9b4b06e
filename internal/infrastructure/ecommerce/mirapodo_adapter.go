package ecommerce

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/integration"
)

// ErrMirapodoShipmentFailed is returned in the shipment result when Tradebyte does not answer 201
var ErrMirapodoShipmentFailed = errors.New("mirapodo: shipment message rejected")

// mirapodoBillingTextLen bounds the stored billing text
const mirapodoBillingTextLen = 32

var marketplaceTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// MirapodoAdapter imports Mirapodo orders and reports shipments through Tradebyte
type MirapodoAdapter struct {
	config *MirapodoConfig
	client *restClient
	logger *zap.Logger
}

// NewMirapodoAdapter creates a new Mirapodo adapter
func NewMirapodoAdapter(config *MirapodoConfig, opts ClientOptions) (*MirapodoAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	opts.BaseURL = ""
	opts.Timeout = time.Duration(config.TimeoutSeconds) * time.Second
	a := &MirapodoAdapter{
		config: config,
		client: newRestClient(integration.MarketplaceMirapodo, opts),
	}
	a.client.http.SetBasicAuth(config.Username, config.Password)
	a.logger = a.client.logger
	return a, nil
}

// Marketplace returns Mirapodo
func (a *MirapodoAdapter) Marketplace() integration.Marketplace {
	return integration.MarketplaceMirapodo
}

// IsEnabled reports whether the adapter is switched on
func (a *MirapodoAdapter) IsEnabled() bool {
	return a.config.Enabled
}

// FetchOrders downloads the receivable orders. With OrderID set the single
// order is fetched from <import url>/<id>; a TB_ prefix is accepted.
func (a *MirapodoAdapter) FetchOrders(ctx context.Context, query integration.OrderQuery) ([]*integration.Order, error) {
	url := a.config.OrderImportURL
	if query.OrderID != "" {
		url = strings.TrimRight(url, "/") + "/" + strings.TrimPrefix(query.OrderID, mirapodoOrderPrefix)
	}
	resp, err := a.client.R(ctx).SetHeader("Accept", "application/xml").Get(url)
	if err := a.client.check(resp, err); err != nil {
		return nil, err
	}
	body := resp.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		a.logger.Info("No new Mirapodo orders")
		return nil, nil
	}
	return a.ParseOrders(body)
}

// ParseOrders converts an ORDER_LIST document holding one or many orders
func (a *MirapodoAdapter) ParseOrders(data []byte) ([]*integration.Order, error) {
	var list tradebyteOrderList
	if err := xml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: mirapodo: %v", integration.ErrMarketplaceInvalidResponse, err)
	}
	orders := make([]*integration.Order, 0, len(list.Orders))
	for i := range list.Orders {
		order, err := a.convertOrder(&list.Orders[i])
		if err != nil {
			a.logger.Warn("Skipping Mirapodo order", zap.String("tb_id", list.Orders[i].OrderData.TBID), zap.Error(err))
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (a *MirapodoAdapter) convertOrder(entry *tradebyteOrder) (*integration.Order, error) {
	order, err := integration.NewOrder(integration.MarketplaceMirapodo, mirapodoOrderPrefix+entry.OrderData.TBID)
	if err != nil {
		return nil, err
	}
	order.OrderDate = parseMarketplaceTime(entry.OrderData.DateCreated)
	order.DeliveryFee = a.config.DeliveryFee

	email := entry.ShipTo.Email
	if email == "" {
		email = a.config.FallbackEmail
	}
	order.Email = email

	street, number := integration.SplitStreetNumber(entry.ShipTo.StreetNo)
	addr := &integration.Address{
		Title:       entry.ShipTo.Title,
		FirstName:   entry.ShipTo.FirstName,
		LastName:    entry.ShipTo.LastName,
		Street:      street,
		HouseNumber: number,
		Addition:    entry.ShipTo.TBID,
		ZipCode:     entry.ShipTo.Zip,
		City:        entry.ShipTo.City,
		CountryCode: entry.ShipTo.Country,
		Email:       email,
	}
	order.DeliveryAddress = addr
	invoice := *addr
	order.InvoiceAddress = &invoice

	for _, it := range entry.Items {
		item := integration.NewOrderItem(it.TBID)
		item.SKU = it.SKU
		item.EAN = it.EAN
		item.ArticleNumber = it.ChannelSKU
		title := it.BillingText
		if len(title) > mirapodoBillingTextLen {
			title = title[:mirapodoBillingTextLen]
		}
		item.ProductTitle = title
		if it.Quantity > 0 {
			item.Quantity = it.Quantity
		}
		if price, err := decimal.NewFromString(strings.TrimSpace(it.ItemPrice)); err == nil {
			item.Price = price
		}
		if err := order.AddItem(item); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func parseMarketplaceTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range marketplaceTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ShipMessages builds the MESSAGES_LIST document with one SHIP message per item
func (a *MirapodoAdapter) ShipMessages(order *integration.Order, trackingNumber string) ([]byte, error) {
	orderID := strings.TrimPrefix(order.MarketplaceOrderID, mirapodoOrderPrefix)
	list := tradebyteMessageList{Messages: make([]tradebyteMessage, 0, len(order.Items))}
	for _, it := range order.Items {
		list.Messages = append(list.Messages, tradebyteMessage{
			MessageType:          "SHIP",
			TBOrderID:            orderID,
			TBOrderItemID:        it.PositionItemID,
			SKU:                  it.SKU,
			Quantity:             it.Quantity,
			CarrierParcelType:    a.config.Carrier,
			IDCode:               trackingNumber,
			IDCodeReturnProposal: "1",
		})
	}
	out, err := xml.Marshal(list)
	if err != nil {
		return nil, err
	}
	return append([]byte(`<?xml version="1.0" encoding="utf-8"?>`), out...), nil
}

// UploadShipment posts the SHIP messages. Only HTTP 201 counts as accepted;
// every other answer is reported with status 409.
func (a *MirapodoAdapter) UploadShipment(ctx context.Context, req integration.ShipmentRequest) (*integration.ShipmentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(req.Order.Items) == 0 {
		return nil, fmt.Errorf("%w: order %s has no items", integration.ErrShipmentInvalid, req.Order.MarketplaceOrderID)
	}
	payload, err := a.ShipMessages(req.Order, req.TrackingNumber)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.R(ctx).
		SetHeader("Content-Type", "application/xml").
		SetBody(payload).
		Post(a.config.MessagesURL)
	if err != nil {
		return nil, a.client.check(resp, err)
	}
	if resp.StatusCode() != http.StatusCreated {
		a.logger.Error("Mirapodo shipment rejected",
			zap.String("order_id", req.Order.MarketplaceOrderID),
			zap.Int("status", resp.StatusCode()),
			zap.String("response", truncate(string(resp.Body()))))
		return &integration.ShipmentResult{
			StatusCode: http.StatusConflict,
			Response:   fmt.Sprintf("%v: HTTP %d: %s", ErrMirapodoShipmentFailed, resp.StatusCode(), truncate(string(resp.Body()))),
		}, nil
	}
	return &integration.ShipmentResult{StatusCode: resp.StatusCode(), Response: string(resp.Body())}, nil
}

// Compile-time interface checks
var (
	_ integration.OrderSource    = (*MirapodoAdapter)(nil)
	_ integration.ShipmentTarget = (*MirapodoAdapter)(nil)
)
