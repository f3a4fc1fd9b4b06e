package integration

import (
	"github.com/m13/backoffice/internal/domain/shared"
)

// WebhookMessage stores a raw inbound marketplace event
type WebhookMessage struct {
	shared.BaseEntity
	// Marketplace sending the event
	Marketplace Marketplace
	// OrderID is the marketplace order the event refers to
	OrderID string
	// State is the event state (assigned, fulfilled, returned, cancelled)
	State string
	// Payload is the raw JSON body
	Payload string
}

// NewWebhookMessage creates a new message record
func NewWebhookMessage(m Marketplace, orderID, state, payload string) *WebhookMessage {
	return &WebhookMessage{
		BaseEntity:  shared.NewBaseEntity(),
		Marketplace: m,
		OrderID:     orderID,
		State:       state,
		Payload:     payload,
	}
}
