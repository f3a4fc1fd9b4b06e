package report

import (
	"testing"
	"time"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadEAN(t *testing.T) {
	assert.Equal(t, "0781491970002", PadEAN("781491970002"))
	assert.Equal(t, "4260000000001", PadEAN(" 4260000000001 "))
	assert.Equal(t, "0000000000000", PadEAN(""))
}

func TestParseFileKind(t *testing.T) {
	k, err := ParseFileKind("daily")
	require.NoError(t, err)
	assert.Equal(t, FileKindDaily, k)

	_, err = ParseFileKind("weekly")
	assert.ErrorIs(t, err, ErrInvalidFileKind)
}

func TestTransactionFile(t *testing.T) {
	_, err := NewTransactionFile(FileKindSales, " ", "k")
	assert.ErrorIs(t, err, ErrInvalidFileName)

	f, err := NewTransactionFile(FileKindSales, "Sales_Report_JAN_2024.CSV", "reports/x.csv")
	require.NoError(t, err)
	assert.False(t, f.Processed)
	f.MarkProcessed(12)
	assert.True(t, f.Processed)
	assert.NotNil(t, f.ProcessedAt)
	assert.Equal(t, 12, f.Rows)
}

func TestTransaction_Bookings(t *testing.T) {
	date := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	acc := Accounts{Offset: 11600, Revenue: 8405, Fee: 3101}

	tests := []struct {
		name    string
		sale    bool
		revenue string
		fee     string
		texts   [2]string
	}{
		{name: "sale", sale: true, revenue: Debit, fee: Credit, texts: [2]string{"Verkauf", "Gebühr Verkauf"}},
		{name: "return", sale: false, revenue: Credit, fee: Debit, texts: [2]string{"Retoure", "Gebühr Retoure"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := Transaction{OrderNumber: "10101", OrderDate: date, Price: decimal.RequireFromString("69.95"), Fees: decimal.RequireFromString("-10.49"), Sale: tt.sale}
			pair := tx.Bookings(acc)

			assert.Equal(t, []string{"69,95", tt.revenue, "", "", "", "", "11600", "8405", "", "0703", "10101", "", "", tt.texts[0]}, pair[0].Record())
			assert.Equal(t, []string{"10,49", tt.fee, "", "", "", "", "11600", "3101", "9", "0703", "10101", "", "", tt.texts[1]}, pair[1].Record())
		})
	}
}

func TestOttoTransactions(t *testing.T) {
	order, err := integration.NewOrder(integration.MarketplaceOtto, "so-1")
	require.NoError(t, err)
	order.OrderNumber = "ABC"
	order.OrderDate = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	sent := integration.NewOrderItem("p-1")
	sent.Price = decimal.RequireFromString("69.95")
	sent.FulfillmentStatus = "SENT"
	returned := integration.NewOrderItem("p-2")
	returned.Price = decimal.RequireFromString("24.50")
	returned.FulfillmentStatus = "RETURNED"
	require.NoError(t, order.AddItem(sent))
	require.NoError(t, order.AddItem(returned))

	bookings := BuildBookings(OttoTransactions([]*integration.Order{order}), OttoAccounts)
	require.Len(t, bookings, 4)
	assert.Equal(t, "69,95", FormatAmount(bookings[0].Amount))
	assert.Equal(t, Debit, bookings[0].DebitCredit)
	assert.Equal(t, 8404, bookings[0].OffsetAccount)
	assert.Equal(t, "10,49", FormatAmount(bookings[1].Amount))
	assert.Equal(t, 3101, bookings[1].OffsetAccount)
	assert.Equal(t, Credit, bookings[2].DebitCredit)
	assert.Equal(t, "3,68", FormatAmount(bookings[3].Amount))
	assert.Equal(t, "Gebühr Retoure", bookings[3].Text)
}

func TestSalesLine(t *testing.T) {
	l := &SalesLine{
		Type:              "Sale",
		PaiFee:            decimal.RequireFromString("5.25"),
		PaymentServiceFee: decimal.RequireFromString("1.10"),
	}
	assert.True(t, l.IsSale())
	assert.Equal(t, "6.35", l.Fees().StringFixed(2))
	l.Type = "Return"
	assert.False(t, l.Transaction().Sale)
}

func TestPeriod(t *testing.T) {
	_, err := NewPeriod(2024, 13)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	p, err := NewPeriod(2024, 2)
	require.NoError(t, err)
	from, to := p.Range(time.UTC)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), to)
	assert.Equal(t, "2024-02-01_2024-02-29_export_otto_sales_report.csv", p.FileName(integration.MarketplaceOtto))
}

func TestAccounts_Validate(t *testing.T) {
	assert.NoError(t, OttoAccounts.Validate())
	assert.ErrorIs(t, Accounts{Offset: 1}.Validate(), ErrMissingAccountNumber)
}
