package reportcsv

import (
	"io"

	"github.com/shopspring/decimal"

	"github.com/m13/backoffice/internal/domain/report"
	"github.com/m13/backoffice/internal/infrastructure/csvutil"
)

// Sales report columns. The order date column was renamed in 2024.
const (
	colOrderNumber        = "Zalando Order Number"
	colEAN                = "EAN"
	colOrderDate          = "ORDER_DATE"
	colOrderDateV1        = "Order Date"
	colShippingReturnDate = "Partner Shipping/Return Date"
	colType               = "Type"
	colSubtype            = "Subtype"
	colCurrency           = "Currency"
	colGrossRevenue       = "Gross Partner Revenue"
	colPaiFee             = "MKT/PAI"
	colPaymentServiceFee  = "Payment Service Fee"
)

// ParseSalesReport parses a comma separated monthly sales report.
// Amounts are stored as absolute values; lines with unreadable dates or amounts are skipped.
func ParseSalesReport(r io.Reader) ([]*report.SalesLine, *ErrorCollection, error) {
	hr, err := csvutil.NewHeaderReader(r, ',')
	if err != nil {
		return nil, nil, err
	}
	if err := hr.Require(colOrderNumber, colEAN, colShippingReturnDate, colType, colGrossRevenue); err != nil {
		return nil, nil, err
	}
	rows, err := hr.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	errs := NewErrorCollection(0)
	lines := make([]*report.SalesLine, 0, len(rows))
	for _, row := range rows {
		if line := parseSalesRow(row, errs); line != nil {
			lines = append(lines, line)
		}
	}
	return lines, errs, nil
}

func parseSalesRow(row *csvutil.Row, errs *ErrorCollection) *report.SalesLine {
	orderNumber := row.Get(colOrderNumber)
	if orderNumber == "" {
		errs.addRequired(row.Line, colOrderNumber)
		return nil
	}
	rawOrderDate := row.GetAny(colOrderDate, colOrderDateV1)
	orderDate, ok := parseGermanDate(rawOrderDate)
	if !ok {
		errs.addFormat(row.Line, colOrderDate, ErrCodeInvalidDate, "dd.mm.yyyy", rawOrderDate)
		return nil
	}
	shipped, ok := parseGermanDate(row.Get(colShippingReturnDate))
	if !ok {
		errs.addFormat(row.Line, colShippingReturnDate, ErrCodeInvalidDate, "dd.mm.yyyy", row.Get(colShippingReturnDate))
		return nil
	}

	line := &report.SalesLine{
		OrderNumber:        orderNumber,
		EAN:                report.PadEAN(row.Get(colEAN)),
		OrderDate:          orderDate,
		ShippingReturnDate: shipped,
		Type:               row.Get(colType),
		Subtype:            row.Get(colSubtype),
		Currency:           row.Get(colCurrency),
	}
	if line.Currency == "" {
		line.Currency = "EUR"
	}
	amounts := []struct {
		col string
		dst *decimal.Decimal
	}{
		{colGrossRevenue, &line.Price},
		{colPaiFee, &line.PaiFee},
		{colPaymentServiceFee, &line.PaymentServiceFee},
	}
	for _, a := range amounts {
		v, ok := parseAmount(row.Get(a.col))
		if !ok {
			errs.addFormat(row.Line, a.col, ErrCodeInvalidNumber, "number", row.Get(a.col))
			return nil
		}
		*a.dst = v.Abs()
	}
	return line
}
