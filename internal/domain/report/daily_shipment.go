package report

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m13/backoffice/internal/domain/shared"
)

// DailyShipment is one line of a Zalando daily shipment report
type DailyShipment struct {
	shared.BaseEntity
	// FileID is the transaction file the line was imported from
	FileID uuid.UUID
	// ArticleNumber is the shop SKU
	ArticleNumber string
	// EAN is the article GTIN
	EAN string
	// Cancel is set for cancelled lines
	Cancel bool
	// Returned is set for returned lines
	Returned bool
	// Shipment is set for shipped lines
	Shipment bool
	// ChannelOrderNumber is the Zalando order number
	ChannelOrderNumber string
	// OrderCreated is when the order was placed
	OrderCreated time.Time
	// OrderEventTime is when the shipment, return or cancellation happened
	OrderEventTime time.Time
	// PriceInCent is the line price
	PriceInCent int64
	// ReturnReason is the customer return reason
	ReturnReason string
	// MarketplaceConfigID is the Zalando cost configuration active at import, if any
	MarketplaceConfigID *uuid.UUID
}

// Key identifies a line across repeated imports of overlapping reports
func (d *DailyShipment) Key() string {
	return strings.Join([]string{
		d.ArticleNumber,
		d.ChannelOrderNumber,
		d.OrderEventTime.UTC().Format(time.RFC3339),
		strconv.FormatBool(d.Cancel),
		strconv.FormatBool(d.Returned),
		strconv.FormatBool(d.Shipment),
		strconv.FormatInt(d.PriceInCent, 10),
	}, "|")
}

// DailyShipmentRepository persists daily shipment lines
type DailyShipmentRepository interface {
	// SaveAll stores lines that are not known yet and returns how many were new
	SaveAll(ctx context.Context, lines []*DailyShipment) (int, error)
}
