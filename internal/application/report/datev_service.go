package reportapp

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/domain/report"
	infraconfig "github.com/m13/backoffice/internal/infrastructure/config"
	"github.com/m13/backoffice/internal/infrastructure/reportcsv"
	"github.com/m13/backoffice/internal/infrastructure/telemetry"
)

// Export is a rendered DATEV booking batch
type Export struct {
	FileName string
	Bookings int
	Data     []byte
}

// DATEVService renders the monthly DATEV booking batches
type DATEVService struct {
	orders          integration.OrderRepository
	sales           report.SalesLineRepository
	zalandoAccounts report.Accounts
	location        *time.Location
	logger          *zap.Logger
}

// NewDATEVService creates a new DATEVService. Order dates are bucketed into months in loc.
func NewDATEVService(
	orders integration.OrderRepository,
	sales report.SalesLineRepository,
	accounts infraconfig.AccountingConfig,
	loc *time.Location,
	logger *zap.Logger,
) *DATEVService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DATEVService{
		orders: orders,
		sales:  sales,
		zalandoAccounts: report.Accounts{
			Offset:  accounts.ZalandoOffsetAccount,
			Revenue: accounts.ZalandoRevenueAccount,
			Fee:     accounts.OnlineFeeAccount,
		},
		location: loc,
		logger:   logger,
	}
}

// Export renders the bookings of one marketplace for one month.
// OTTO bookings come from order items, Zalando bookings from imported sales reports.
func (s *DATEVService) Export(ctx context.Context, m integration.Marketplace, period report.Period) (*Export, error) {
	ctx, span := telemetry.StartSpan(ctx, "reports", "datev", telemetry.AttrMarketplace.String(string(m)))
	defer span.End()

	from, to := period.Range(s.location)
	var bookings []report.Booking
	switch m {
	case integration.MarketplaceOtto:
		orders, err := s.orders.FindWithItemsCreatedBetween(ctx, m, from, to)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		bookings = report.BuildBookings(report.OttoTransactions(orders), report.OttoAccounts)
	case integration.MarketplaceZalando:
		if err := s.zalandoAccounts.Validate(); err != nil {
			return nil, fmt.Errorf("zalando: %w", err)
		}
		lines, err := s.sales.FindByOrderDate(ctx, from, to)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		bookings = report.BuildBookings(report.ZalandoTransactions(lines), s.zalandoAccounts)
	default:
		return nil, fmt.Errorf("%w: %s", report.ErrExportNotSupported, m)
	}

	var buf bytes.Buffer
	if err := reportcsv.WriteDATEV(&buf, bookings); err != nil {
		return nil, fmt.Errorf("write datev: %w", err)
	}
	s.logger.Info("DATEV export rendered",
		zap.String("marketplace", string(m)),
		zap.Int("year", period.Year),
		zap.Int("month", int(period.Month)),
		zap.Int("bookings", len(bookings)))
	return &Export{
		FileName: period.FileName(m),
		Bookings: len(bookings),
		Data:     buf.Bytes(),
	}, nil
}
