package integration

import (
	"time"

	"github.com/m13/backoffice/internal/domain/shared"
)

// BatchStatusCompleted is the status reported by marketplaces once a batch is processed
const BatchStatusCompleted = "completed"

// BatchKind identifies what an asynchronous batch was created for
type BatchKind string

const (
	BatchKindStock    BatchKind = "STOCK"
	BatchKindPrice    BatchKind = "PRICE"
	BatchKindShipment BatchKind = "SHIPMENT"
)

// BatchRequest tracks an asynchronous marketplace batch until it completes
type BatchRequest struct {
	shared.BaseEntity
	// Marketplace is the marketplace that owns the batch
	Marketplace Marketplace
	// Kind is what the batch was created for
	Kind BatchKind
	// BatchRequestID is the id assigned by the marketplace
	BatchRequestID string
	// Status is the last status reported by the marketplace
	Status string
	// Attempts is the number of polls so far
	Attempts int
	// Response is the last raw status response
	Response string
	// Started is when polling began
	Started time.Time
	// Completed is set once the batch reported completion
	Completed *time.Time
}

// NewBatchRequest creates a batch record in the pending state
func NewBatchRequest(m Marketplace, kind BatchKind, batchID string) *BatchRequest {
	return &BatchRequest{
		BaseEntity:     shared.NewBaseEntity(),
		Marketplace:    m,
		Kind:           kind,
		BatchRequestID: batchID,
		Status:         "pending",
		Started:        time.Now(),
	}
}

// Record stores the outcome of one poll attempt
func (b *BatchRequest) Record(status, response string) {
	b.Attempts++
	b.Status = status
	b.Response = response
	b.Touch()
	if status == BatchStatusCompleted && b.Completed == nil {
		now := time.Now()
		b.Completed = &now
	}
}

// IsCompleted reports whether the batch finished
func (b *BatchRequest) IsCompleted() bool {
	return b.Status == BatchStatusCompleted
}
