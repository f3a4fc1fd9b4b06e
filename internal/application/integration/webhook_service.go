package integrationapp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/ecommerce"
)

// OrderUpserter stores order snapshots
type OrderUpserter interface {
	Upsert(ctx context.Context, incoming *integration.Order) (*integration.Order, bool, error)
}

// WebhookService applies Zalando Order Event API messages
type WebhookService struct {
	orders   OrderUpserter
	messages integration.WebhookMessageRepository
	token    string
	failures failureLog
	logger   *zap.Logger
}

// NewWebhookService creates a new WebhookService. token is the shared secret
// Zalando sends with every call.
func NewWebhookService(
	orders OrderUpserter,
	messages integration.WebhookMessageRepository,
	token string,
	errorRepo catalog.ErrorRecordRepository,
	logger *zap.Logger,
) *WebhookService {
	logger = nopIfNil(logger)
	return &WebhookService{
		orders:   orders,
		messages: messages,
		token:    token,
		failures: failureLog{repo: errorRepo, logger: logger},
		logger:   logger,
	}
}

// HandleZalandoOEA verifies, stores and applies one order event.
// Events without delivery details still refresh the order status.
func (s *WebhookService) HandleZalandoOEA(ctx context.Context, token string, payload []byte) (*integration.Order, error) {
	if s.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
		return nil, ErrWebhookUnauthorized
	}
	event, err := ecommerce.ParseOEAEvent(payload)
	if err != nil {
		return nil, err
	}

	msg := integration.NewWebhookMessage(integration.MarketplaceZalando, event.OrderID, event.State, string(payload))
	if err := s.messages.Save(ctx, msg); err != nil {
		return nil, fmt.Errorf("store webhook message: %w", err)
	}

	snapshot, err := event.ToOrder()
	switch {
	case errors.Is(err, ecommerce.ErrOEAMissingDeliveryDetails):
		s.failures.record(ctx, integration.MarketplaceZalando, "oea "+event.OrderID, err)
	case err != nil:
		return nil, err
	}

	order, created, err := s.orders.Upsert(ctx, snapshot)
	if err != nil {
		s.failures.record(ctx, integration.MarketplaceZalando, "oea "+event.OrderID, err)
		return nil, err
	}
	s.logger.Info("Zalando order event applied",
		zap.String("order_id", event.OrderID),
		zap.String("state", event.State),
		zap.Bool("created", created),
		zap.Int("items", len(order.Items)))
	return order, nil
}
