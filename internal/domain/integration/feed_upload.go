package integration

import (
	"github.com/m13/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FeedUpload records one transformed feed pushed to (or prepared for) a marketplace
type FeedUpload struct {
	shared.BaseEntity
	// Marketplace is the receiving marketplace
	Marketplace Marketplace
	// OriginalPath is the archive key of the downloaded shop feed
	OriginalPath string
	// TransformedPath is the archive key of the transformed feed
	TransformedPath string
	// ExtraPath holds an additional artefact (e.g. the XLSX copy)
	ExtraPath string
	// ZFactor is the markup factor applied to prices
	ZFactor decimal.Decimal
	// ValidItems is the number of rows in the transformed feed
	ValidItems int
	// ValidationStatusCode is the HTTP status of the validation call (0 = none)
	ValidationStatusCode int
	// ValidationSummary summarises validation warnings per line
	ValidationSummary string
	// UploadStatusCode is the HTTP status of the upload call (0 = none)
	UploadStatusCode int
	// UploadResponse is the raw upload response
	UploadResponse string
}

// NewFeedUpload creates an empty upload record
func NewFeedUpload(m Marketplace, zFactor decimal.Decimal) *FeedUpload {
	return &FeedUpload{
		BaseEntity:  shared.NewBaseEntity(),
		Marketplace: m,
		ZFactor:     zFactor,
	}
}

// Succeeded reports whether the upload step (if any) was accepted
func (f *FeedUpload) Succeeded() bool {
	if f.UploadStatusCode == 0 {
		return f.TransformedPath != ""
	}
	return f.UploadStatusCode >= 200 && f.UploadStatusCode < 300
}
