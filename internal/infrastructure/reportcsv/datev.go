package reportcsv

import (
	"io"

	"github.com/m13/backoffice/internal/domain/report"
	"github.com/m13/backoffice/internal/infrastructure/csvutil"
)

// WriteDATEV writes a header row and one row per booking, semicolon separated with every field quoted
func WriteDATEV(w io.Writer, bookings []report.Booking) error {
	cw := csvutil.NewWriter(w, ';', csvutil.QuoteAll)
	if err := cw.Write(report.DATEVColumns); err != nil {
		return err
	}
	for _, b := range bookings {
		if err := cw.Write(b.Record()); err != nil {
			return err
		}
	}
	return cw.Flush()
}
