package report

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m13/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleType is the Type value of sales report lines that are sales
const SaleType = "Sale"

// eanLength is the length EANs are padded to
const eanLength = 13

// SalesLine is one line of a Zalando monthly sales report
type SalesLine struct {
	shared.BaseEntity
	// FileID is the transaction file the line was imported from
	FileID uuid.UUID
	// OrderNumber is the Zalando order number
	OrderNumber string
	// EAN is the article GTIN, zero padded to 13 digits
	EAN string
	// OrderDate is when the order was placed
	OrderDate time.Time
	// ShippingReturnDate is when the partner shipped or received the return
	ShippingReturnDate time.Time
	// Type is Sale or Return
	Type string
	// Subtype refines the type
	Subtype string
	// Currency is the ISO currency code
	Currency string
	// Price is the absolute gross partner revenue
	Price decimal.Decimal
	// PaiFee is the absolute marketplace (MKT/PAI) fee
	PaiFee decimal.Decimal
	// PaymentServiceFee is the absolute payment service fee
	PaymentServiceFee decimal.Decimal
}

// PadEAN left pads an EAN with zeros to 13 digits
func PadEAN(ean string) string {
	ean = strings.TrimSpace(ean)
	if len(ean) >= eanLength {
		return ean
	}
	return strings.Repeat("0", eanLength-len(ean)) + ean
}

// IsSale reports whether the line is a sale (otherwise a return)
func (l *SalesLine) IsSale() bool {
	return l.Type == SaleType
}

// Fees is the sum of all fees of the line
func (l *SalesLine) Fees() decimal.Decimal {
	return l.PaiFee.Add(l.PaymentServiceFee)
}

// Transaction returns the line as a bookable transaction
func (l *SalesLine) Transaction() Transaction {
	return Transaction{
		OrderNumber: l.OrderNumber,
		OrderDate:   l.OrderDate,
		Price:       l.Price,
		Fees:        l.Fees(),
		Sale:        l.IsSale(),
	}
}

// Key identifies a line across repeated imports
func (l *SalesLine) Key() string {
	return strings.Join([]string{
		l.OrderNumber,
		l.EAN,
		l.Type,
		l.Subtype,
		l.ShippingReturnDate.Format("2006-01-02"),
		l.Price.StringFixed(2),
	}, "|")
}

// SalesLineRepository persists sales report lines
type SalesLineRepository interface {
	// SaveAll stores lines that are not known yet and returns how many were new
	SaveAll(ctx context.Context, lines []*SalesLine) (int, error)

	// FindByOrderDate lists lines with an order date in [from, to)
	FindByOrderDate(ctx context.Context, from, to time.Time) ([]*SalesLine, error)
}
