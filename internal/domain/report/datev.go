package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// DATEVColumns is the header row of a DATEV booking batch
var DATEVColumns = []string{
	"Umsatz (ohne Soll/Haben-Kz)",
	"Soll/Haben-Kennzeichen",
	"WKZ Umsatz",
	"Kurs",
	"Basis-Umsatz",
	"WKZ Basis-Umsatz",
	"Konto",
	"Gegenkonto (ohne BU-Schlüssel)",
	"BU-Schlüssel",
	"Belegdatum",
	"Belegfeld 1",
	"Belegfeld 2",
	"Skonto",
	"Buchungstext",
}

// Debit and credit indicators
const (
	Debit  = "S"
	Credit = "H"
)

// FeeBUKey is the BU key of fee bookings
const FeeBUKey = "9"

// OttoProvisionPercent is the fixed OTTO provision
var OttoProvisionPercent = decimal.NewFromInt(15)

// Accounts are the DATEV accounts used for one marketplace
type Accounts struct {
	// Offset is the clearing account of the marketplace (Konto)
	Offset int
	// Revenue is the revenue account (Gegenkonto of sales)
	Revenue int
	// Fee is the expense account for marketplace fees
	Fee int
}

// Validate checks that every account is set
func (a Accounts) Validate() error {
	if a.Offset <= 0 || a.Revenue <= 0 || a.Fee <= 0 {
		return ErrMissingAccountNumber
	}
	return nil
}

// OttoAccounts are the accounts used for OTTO
var OttoAccounts = Accounts{Offset: 11500, Revenue: 8404, Fee: 3101}

// Booking is one DATEV booking row
type Booking struct {
	Amount         decimal.Decimal
	DebitCredit    string
	Account        int
	OffsetAccount  int
	BUKey          string
	DocumentDate   time.Time
	DocumentField1 string
	Text           string
}

// Record renders the booking in DATEVColumns order
func (b Booking) Record() []string {
	return []string{
		FormatAmount(b.Amount),
		b.DebitCredit,
		"",
		"",
		"",
		"",
		strconv.Itoa(b.Account),
		strconv.Itoa(b.OffsetAccount),
		b.BUKey,
		b.DocumentDate.Format("0201"),
		b.DocumentField1,
		"",
		"",
		b.Text,
	}
}

// FormatAmount renders an absolute amount with two places and a decimal comma
func FormatAmount(d decimal.Decimal) string {
	return strings.Replace(d.Abs().StringFixed(2), ".", ",", 1)
}

// Transaction is a sale or return with its marketplace fees
type Transaction struct {
	OrderNumber string
	OrderDate   time.Time
	Price       decimal.Decimal
	Fees        decimal.Decimal
	Sale        bool
}

// Bookings returns the revenue and the fee booking of a transaction
func (t Transaction) Bookings(acc Accounts) [2]Booking {
	revenue := Booking{
		Amount:         t.Price,
		DebitCredit:    Credit,
		Account:        acc.Offset,
		OffsetAccount:  acc.Revenue,
		DocumentDate:   t.OrderDate,
		DocumentField1: t.OrderNumber,
		Text:           "Retoure",
	}
	fee := Booking{
		Amount:         t.Fees,
		DebitCredit:    Debit,
		Account:        acc.Offset,
		OffsetAccount:  acc.Fee,
		BUKey:          FeeBUKey,
		DocumentDate:   t.OrderDate,
		DocumentField1: t.OrderNumber,
		Text:           "Gebühr Retoure",
	}
	if t.Sale {
		revenue.DebitCredit = Debit
		revenue.Text = "Verkauf"
		fee.DebitCredit = Credit
		fee.Text = "Gebühr Verkauf"
	}
	return [2]Booking{revenue, fee}
}

// BuildBookings expands transactions into booking pairs
func BuildBookings(txs []Transaction, acc Accounts) []Booking {
	out := make([]Booking, 0, 2*len(txs))
	for _, tx := range txs {
		pair := tx.Bookings(acc)
		out = append(out, pair[0], pair[1])
	}
	return out
}

// OttoTransactions turns OTTO order items into transactions.
// Items in fulfillment status SENT are sales, all others returns.
func OttoTransactions(orders []*integration.Order) []Transaction {
	var txs []Transaction
	for _, o := range orders {
		for _, it := range o.Items {
			price := it.Price.Round(2)
			txs = append(txs, Transaction{
				OrderNumber: o.OrderNumber,
				OrderDate:   o.OrderDate,
				Price:       price,
				Fees:        price.Mul(OttoProvisionPercent).Div(decimal.NewFromInt(100)).Round(2),
				Sale:        it.FulfillmentStatus == "SENT",
			})
		}
	}
	return txs
}

// ZalandoTransactions turns sales report lines into transactions
func ZalandoTransactions(lines []*SalesLine) []Transaction {
	txs := make([]Transaction, 0, len(lines))
	for _, l := range lines {
		txs = append(txs, l.Transaction())
	}
	return txs
}

// Period is a calendar month
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod validates year and month
func NewPeriod(year, month int) (Period, error) {
	if year < 2000 || year > 2100 || month < 1 || month > 12 {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// Range returns [first day of month, first day of next month) in loc
func (p Period) Range(loc *time.Location) (time.Time, time.Time) {
	from := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

// FileName is the suggested export file name
func (p Period) FileName(m integration.Marketplace) string {
	from, to := p.Range(time.UTC)
	return from.Format("2006-01-02") + "_" + to.AddDate(0, 0, -1).Format("2006-01-02") +
		"_export_" + strings.ToLower(string(m)) + "_sales_report.csv"
}
