package reportcsv

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/m13/backoffice/internal/domain/report"
	"github.com/m13/backoffice/internal/infrastructure/csvutil"
)

// lackOfDataPrefix starts the single line Zalando writes when a day has no data
const lackOfDataPrefix = "{'lack_of_data'"

// dailyFields names the columns of one daily report version
type dailyFields struct {
	articleNumber      string
	cancellation       string
	channelOrderNumber string
	ean                string
	orderCreated       string
	orderEventTime     string
	price              string
	returned           string
	returnReason       string
	shipment           string
}

var dailyFieldsV0 = dailyFields{
	articleNumber:      "Article Number",
	cancellation:       "Cancellation",
	channelOrderNumber: "Channel Order Number",
	ean:                "EAN",
	orderCreated:       "Order Created",
	orderEventTime:     "Order Event Time",
	price:              "Price",
	returned:           "Return",
	returnReason:       "Return Reason",
	shipment:           "Shipment",
}

var dailyFieldsV1 = dailyFields{
	articleNumber:      "article_number",
	cancellation:       "cancellation",
	channelOrderNumber: "channel_order_number",
	ean:                "ean",
	orderCreated:       "order_created_at",
	orderEventTime:     "order_event_time",
	price:              "line_price_amount",
	returned:           "return",
	returnReason:       "line_return_reason",
	shipment:           "shipment",
}

// ParseDailyShipments parses a comma separated daily shipment report.
// The header version is detected from the header row. A lack-of-data file yields no lines.
func ParseDailyShipments(r io.Reader) ([]*report.DailyShipment, *ErrorCollection, error) {
	errs := NewErrorCollection(0)
	hr, err := csvutil.NewHeaderReader(r, ',')
	if errors.Is(err, csvutil.ErrEmptyFile) {
		return nil, errs, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var fields dailyFields
	switch {
	case hr.HasHeader(dailyFieldsV0.articleNumber):
		fields = dailyFieldsV0
	case hr.HasHeader(dailyFieldsV1.articleNumber):
		fields = dailyFieldsV1
	case strings.HasPrefix(strings.Join(hr.Headers(), ","), lackOfDataPrefix):
		return nil, errs, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", report.ErrUnknownReportFormat, strings.Join(hr.Headers(), ","))
	}

	rows, err := hr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	lines := make([]*report.DailyShipment, 0, len(rows))
	for _, row := range rows {
		if line := parseDailyRow(row, fields, errs); line != nil {
			lines = append(lines, line)
		}
	}
	return lines, errs, nil
}

func parseDailyRow(row *csvutil.Row, f dailyFields, errs *ErrorCollection) *report.DailyShipment {
	article := row.Get(f.articleNumber)
	if article == "" {
		errs.addRequired(row.Line, f.articleNumber)
		return nil
	}
	price, ok := parseAmount(row.Get(f.price))
	if !ok {
		errs.addFormat(row.Line, f.price, ErrCodeInvalidNumber, "number", row.Get(f.price))
		return nil
	}
	created, ok := parseTime(row.Get(f.orderCreated))
	if !ok {
		errs.addFormat(row.Line, f.orderCreated, ErrCodeInvalidDate, "date", row.Get(f.orderCreated))
		return nil
	}
	eventTime, ok := parseTime(row.Get(f.orderEventTime))
	if !ok {
		eventTime = created
	}

	line := &report.DailyShipment{
		ArticleNumber:      article,
		EAN:                row.Get(f.ean),
		Cancel:             row.Get(f.cancellation) == "x",
		Returned:           row.Get(f.returned) == "x",
		Shipment:           row.Get(f.shipment) == "x",
		ChannelOrderNumber: row.Get(f.channelOrderNumber),
		OrderCreated:       created,
		OrderEventTime:     eventTime,
		PriceInCent:        price.Shift(2).Round(0).IntPart(),
		ReturnReason:       row.Get(f.returnReason),
	}
	return line
}
