package integrationapp

import (
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/m13/backoffice/internal/domain/integration"
)

// Markers of the shop tracking export
const (
	ottoMarker          = "OTTO"
	aboutYouMarker      = "ayou-"
	mirapodoMarker      = "TB_"
	tiktokMarker        = "TT"
	tiktokOrderIDLength = 20
)

// Columns of the shop tracking export
const (
	colOrderRef       = 0
	colTracking       = 3
	colCarrier        = 4
	colReturnTracking = 5
	colOttoTracking   = 17
	colOttoOrder      = 18
	colOttoCarrier    = 19
)

// carrierMatchThreshold is the minimum Jaro-Winkler similarity for a fuzzy carrier match
const carrierMatchThreshold = 0.8

// RouteTrackingRow assigns one line of the shop tracking export to its marketplace.
// ok is false for lines no marketplace claims.
func RouteTrackingRow(line int, rec []string) (integration.TrackingRow, bool) {
	row := integration.TrackingRow{Line: line, Carrier: integration.CarrierDHL}
	ref := column(rec, colOrderRef)

	switch {
	case strings.HasPrefix(column(rec, colOttoOrder), ottoMarker):
		row.Marketplace = integration.MarketplaceOtto
		row.OrderID = strings.TrimSpace(strings.TrimPrefix(column(rec, colOttoOrder), ottoMarker+" "))
		row.TrackingNumber = column(rec, colOttoTracking)
		row.Carrier = NormalizeCarrier(column(rec, colOttoCarrier))
	case strings.HasPrefix(ref, aboutYouMarker):
		row.Marketplace = integration.MarketplaceAboutYou
		row.OrderID = ref
		row.TrackingNumber = column(rec, colTracking)
		row.ReturnTrackingNumber = column(rec, colReturnTracking)
	case strings.HasPrefix(ref, mirapodoMarker):
		row.Marketplace = integration.MarketplaceMirapodo
		row.OrderID = ref
		row.TrackingNumber = column(rec, colTracking)
	case strings.HasPrefix(ref, tiktokMarker) && len(ref) == tiktokOrderIDLength:
		row.Marketplace = integration.MarketplaceTikTok
		row.OrderID = strings.TrimPrefix(ref, tiktokMarker)
		row.TrackingNumber = column(rec, colTracking)
	case isReceiptNumber(ref):
		row.Marketplace = integration.MarketplaceEtsy
		row.OrderID = ref
		row.TrackingNumber = column(rec, colTracking)
		row.Carrier = NormalizeCarrier(column(rec, colCarrier))
	default:
		return row, false
	}
	return row, true
}

// NormalizeCarrier maps a free text carrier name onto a known carrier code.
// Hermes and DHL variants are matched by prefix, anything else by similarity,
// falling back to DHL.
func NormalizeCarrier(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	switch {
	case n == "":
		return integration.CarrierDHL
	case strings.HasPrefix(n, integration.CarrierHermes):
		return integration.CarrierHermes
	case strings.HasPrefix(n, integration.CarrierDHL):
		return integration.CarrierDHL
	}

	metric := metrics.NewJaroWinkler()
	best, bestScore := integration.CarrierDHL, 0.0
	for _, c := range integration.KnownCarriers {
		if score := strutil.Similarity(n, c, metric); score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < carrierMatchThreshold {
		return integration.CarrierDHL
	}
	return best
}

func column(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isReceiptNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
