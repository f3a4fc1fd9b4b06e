package integrationapp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m13/backoffice/internal/domain/integration"
)

func trackingRecord(cols map[int]string) []string {
	rec := make([]string, 20)
	for i, v := range cols {
		rec[i] = v
	}
	return rec
}

func TestRouteTrackingRow(t *testing.T) {
	tests := []struct {
		name   string
		rec    []string
		want   integration.TrackingRow
		routed bool
	}{
		{
			name:   "otto",
			rec:    trackingRecord(map[int]string{0: "4711", 17: "H123", 18: "OTTO abc-1", 19: "Hermes Paket"}),
			want:   integration.TrackingRow{Line: 1, Marketplace: integration.MarketplaceOtto, OrderID: "abc-1", TrackingNumber: "H123", Carrier: integration.CarrierHermes},
			routed: true,
		},
		{
			name:   "aboutyou with return code",
			rec:    trackingRecord(map[int]string{0: "ayou-991", 3: "0034", 5: "R-77"}),
			want:   integration.TrackingRow{Line: 1, Marketplace: integration.MarketplaceAboutYou, OrderID: "ayou-991", TrackingNumber: "0034", ReturnTrackingNumber: "R-77", Carrier: integration.CarrierDHL},
			routed: true,
		},
		{
			name:   "mirapodo",
			rec:    trackingRecord(map[int]string{0: "TB_1234", 3: "0035"}),
			want:   integration.TrackingRow{Line: 1, Marketplace: integration.MarketplaceMirapodo, OrderID: "TB_1234", TrackingNumber: "0035", Carrier: integration.CarrierDHL},
			routed: true,
		},
		{
			name:   "tiktok",
			rec:    trackingRecord(map[int]string{0: "TT576461413038785752", 3: "0036"}),
			want:   integration.TrackingRow{Line: 1, Marketplace: integration.MarketplaceTikTok, OrderID: "576461413038785752", TrackingNumber: "0036", Carrier: integration.CarrierDHL},
			routed: true,
		},
		{
			name:   "etsy receipt",
			rec:    trackingRecord(map[int]string{0: "2950112345", 3: "0037", 4: "DPD Classic"}),
			want:   integration.TrackingRow{Line: 1, Marketplace: integration.MarketplaceEtsy, OrderID: "2950112345", TrackingNumber: "0037", Carrier: integration.CarrierDPD},
			routed: true,
		},
		{
			name: "shop order",
			rec:  trackingRecord(map[int]string{0: "SHOP-1", 3: "0038"}),
		},
		{
			name: "short tt reference is not tiktok",
			rec:  trackingRecord(map[int]string{0: "TT123", 3: "0039"}),
		},
		{
			name: "short record",
			rec:  []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RouteTrackingRow(1, tt.rec)
			assert.Equal(t, tt.routed, ok)
			if tt.routed {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizeCarrier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", integration.CarrierDHL},
		{"Hermes", integration.CarrierHermes},
		{"hermes international", integration.CarrierHermes},
		{"DHL Paket", integration.CarrierDHL},
		{"dhl", integration.CarrierDHL},
		{"GLS Paket", integration.CarrierGLS},
		{"UPS Standard", integration.CarrierUPS},
		{"DPD Classic", integration.CarrierDPD},
		{"Deutsche Post", integration.CarrierDHL},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCarrier(tt.in))
		})
	}
}
