package ecommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/integration"
)

// Zalando errors
var (
	ErrZalandoFeedRejected       = errors.New("zalando: feed rejected")
	ErrOEAInvalid                = errors.New("zalando: invalid order event")
	ErrOEAMissingDeliveryDetails = errors.New("zalando: order event without delivery details")
)

// ZalandoAdapter uploads stock and price feeds to Zalando Connected Retail and
// decodes Order Event API messages.
type ZalandoAdapter struct {
	config *ZalandoConfig
	client *restClient
	logger *zap.Logger
}

// NewZalandoAdapter creates a new Zalando adapter
func NewZalandoAdapter(config *ZalandoConfig, opts ClientOptions) (*ZalandoAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	opts.BaseURL = config.ImporterURL
	opts.Timeout = time.Duration(config.TimeoutSeconds) * time.Second
	client := newRestClient(integration.MarketplaceZalando, opts)
	client.http.SetHeaders(map[string]string{
		"x-api-key":     config.APIKey,
		"Content-Type":  "application/csv",
		"Cache-Control": "no-cache",
	})
	return &ZalandoAdapter{config: config, client: client, logger: client.logger}, nil
}

// Marketplace returns ZALANDO
func (a *ZalandoAdapter) Marketplace() integration.Marketplace {
	return integration.MarketplaceZalando
}

// IsEnabled reports whether the adapter is switched on
func (a *ZalandoAdapter) IsEnabled() bool {
	return a.config.Enabled
}

// WebhookToken returns the shared secret expected on OEA calls
func (a *ZalandoAdapter) WebhookToken() string {
	return a.config.WebhookToken
}

// ValidateFeed asks Zalando to validate a transformed feed. Any answer other than 200
// is returned as ErrZalandoFeedRejected together with the validation.
func (a *ZalandoAdapter) ValidateFeed(ctx context.Context, csv []byte) (*FeedValidation, error) {
	resp, err := a.client.R(ctx).
		SetPathParam("client", a.config.ClientID).
		SetBody(csv).
		Put("/{client}/validate")
	if err != nil {
		return nil, a.client.check(resp, err)
	}
	v := &FeedValidation{StatusCode: resp.StatusCode(), Raw: string(resp.Body())}
	if resp.StatusCode() != http.StatusOK {
		return v, fmt.Errorf("%w: validation HTTP %d: %s", ErrZalandoFeedRejected, resp.StatusCode(), truncate(v.Raw))
	}

	var body zalandoValidation
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return v, fmt.Errorf("%w: zalando: %v", integration.ErrMarketplaceInvalidResponse, err)
		}
	}
	v.Summary = summarizeWarnings(body.Warnings, csv)
	return v, nil
}

// UploadFeed uploads the transformed feed under name (e.g. 20240301-101500.csv)
func (a *ZalandoAdapter) UploadFeed(ctx context.Context, name string, csv []byte) (int, string, error) {
	resp, err := a.client.R(ctx).
		SetPathParams(map[string]string{"client": a.config.ClientID, "name": name}).
		SetBody(csv).
		Put("/{client}/{name}")
	if err != nil {
		return 0, "", a.client.check(resp, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return resp.StatusCode(), string(resp.Body()), fmt.Errorf("%w: upload HTTP %d", ErrZalandoFeedRejected, resp.StatusCode())
	}
	return resp.StatusCode(), string(resp.Body()), nil
}

// summarizeWarnings groups validation warnings with the feed lines they point at
func summarizeWarnings(warnings []zalandoWarning, csv []byte) string {
	if len(warnings) == 0 {
		return ""
	}
	lines := strings.SplitAfter(string(csv), "\n")
	var b strings.Builder
	for _, w := range warnings {
		b.WriteString(w.Message)
		if len(w.Details) > 0 {
			fmt.Fprintf(&b, " (%s)", w.Details[0])
		}
		b.WriteString("\n")
		for _, ln := range w.LineNumbers {
			if ln.LineNumber >= 0 && ln.LineNumber < len(lines) {
				b.WriteString(strings.TrimRight(lines[ln.LineNumber], "\r\n"))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string) string {
	if len(s) > maxErrorBodySize {
		return s[:maxErrorBodySize]
	}
	return s
}

// ---------------------------------------------------------------------------
// Order Event API
// ---------------------------------------------------------------------------

// ParseOEAEvent decodes an Order Event API message
func ParseOEAEvent(payload []byte) (*OEAEvent, error) {
	var e OEAEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOEAInvalid, err)
	}
	if e.OrderID == "" || e.State == "" {
		return nil, fmt.Errorf("%w: order_id and state are required", ErrOEAInvalid)
	}
	return &e, nil
}

// ToOrder converts the event into an order snapshot.
// Assigned events carry no items. Any later state needs delivery details, items take
// the event state as fulfillment status together with the outbound tracking.
func (e *OEAEvent) ToOrder() (*integration.Order, error) {
	order, err := integration.NewOrder(integration.MarketplaceZalando, e.OrderID)
	if err != nil {
		return nil, err
	}
	if e.OrderNumber != "" {
		order.OrderNumber = e.OrderNumber
	}
	order.StoreID = e.StoreID
	order.Status = e.State
	order.OrderDate = e.Timestamp
	ts := e.Timestamp
	order.LastModifiedDate = &ts

	if e.State == OEAStateAssigned {
		return order, nil
	}
	if e.DeliveryDetails == nil {
		return order, ErrOEAMissingDeliveryDetails
	}
	if a := e.CustomerBillingAddress; a != nil {
		addr := &integration.Address{
			FirstName:   a.FirstName,
			LastName:    a.LastName,
			Street:      a.AddressLine1,
			ZipCode:     a.ZipCode,
			City:        a.City,
			CountryCode: a.CountryCode,
		}
		order.DeliveryAddress = addr
		order.InvoiceAddress = addr
	}
	for _, it := range e.Items {
		item := integration.NewOrderItem(it.ItemID)
		item.FulfillmentStatus = e.State
		item.ArticleNumber = it.ArticleNumber
		item.SKU = it.ArticleNumber
		item.EAN = it.EAN
		item.Price = it.Price
		if it.Currency != "" {
			item.Currency = it.Currency
		}
		item.Carrier = e.DeliveryDetails.DeliveryCarrierName
		item.TrackingNumber = e.DeliveryDetails.DeliveryTrackingNumber
		if err := order.AddItem(item); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOEAInvalid, err)
		}
	}
	return order, nil
}
