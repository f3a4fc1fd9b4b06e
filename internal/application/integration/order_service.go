package integrationapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/telemetry"
)

// ImportResult summarises one order import run
type ImportResult struct {
	Marketplace integration.Marketplace `json:"marketplace"`
	Fetched     int                     `json:"fetched"`
	Created     int                     `json:"created"`
	Updated     int                     `json:"updated"`
	ItemsAdded  int                     `json:"items_added"`
	NewPrices   int                     `json:"new_prices"`
	Failed      int                     `json:"failed"`
}

// upsertOutcome is what storing one order snapshot changed
type upsertOutcome struct {
	order      *integration.Order
	created    bool
	itemsAdded int
	newPrices  int
}

// OrderService imports marketplace orders into the local order book
type OrderService struct {
	registry integration.Registry
	orders   integration.OrderRepository
	prices   catalog.PriceRepository
	failures failureLog
	recorder SyncRecorder
	logger   *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	registry integration.Registry,
	orders integration.OrderRepository,
	prices catalog.PriceRepository,
	errorRepo catalog.ErrorRecordRepository,
	recorder SyncRecorder,
	logger *zap.Logger,
) *OrderService {
	logger = nopIfNil(logger)
	return &OrderService{
		registry: registry,
		orders:   orders,
		prices:   prices,
		failures: failureLog{repo: errorRepo, logger: logger},
		recorder: recorderOrNoop(recorder),
		logger:   logger,
	}
}

// ImportOrders fetches orders from one marketplace and upserts them.
// A failing order is recorded and skipped; a failing fetch aborts the run.
func (s *OrderService) ImportOrders(ctx context.Context, m integration.Marketplace, query integration.OrderQuery) (*ImportResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "orders", "import", telemetry.AttrMarketplace.String(string(m)))
	defer span.End()

	src, err := s.registry.OrderSource(m)
	if err != nil {
		return nil, err
	}
	fetched, err := src.FetchOrders(ctx, query)
	if err != nil {
		err = fmt.Errorf("fetch %s orders: %w", m, err)
		s.failures.record(ctx, m, "orders import", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	res := &ImportResult{Marketplace: m, Fetched: len(fetched)}
	for _, incoming := range fetched {
		out, err := s.upsert(ctx, incoming)
		if err != nil {
			res.Failed++
			s.failures.record(ctx, m, "orders import "+incoming.MarketplaceOrderID, err)
			continue
		}
		if out.created {
			res.Created++
		} else {
			res.Updated++
		}
		res.ItemsAdded += out.itemsAdded
		res.NewPrices += out.newPrices
	}

	s.recorder.RecordOrdersSynced(ctx, string(m), res.Created+res.Updated)
	s.logger.Info("Orders imported",
		zap.String("marketplace", string(m)),
		zap.Int("fetched", res.Fetched),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("items_added", res.ItemsAdded),
		zap.Int("failed", res.Failed))
	return res, nil
}

// ImportAll runs ImportOrders for every enabled order source
func (s *OrderService) ImportAll(ctx context.Context, query integration.OrderQuery) ([]*ImportResult, error) {
	var (
		results []*ImportResult
		errs    []error
	)
	for _, m := range integration.AllMarketplaces {
		if _, err := s.registry.OrderSource(m); err != nil {
			continue
		}
		res, err := s.ImportOrders(ctx, m, query)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// ImportSingleOrder fetches one order by its marketplace id (Mirapodo, Galaxus)
func (s *OrderService) ImportSingleOrder(ctx context.Context, m integration.Marketplace, orderID string) (*integration.Order, error) {
	src, err := s.registry.OrderSource(m)
	if err != nil {
		return nil, err
	}
	fetched, err := src.FetchOrders(ctx, integration.OrderQuery{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	if len(fetched) == 0 {
		return nil, fmt.Errorf("%w: %s %s", integration.ErrOrderNotFound, m, orderID)
	}
	out, err := s.upsert(ctx, fetched[0])
	if err != nil {
		return nil, err
	}
	return out.order, nil
}

// Upsert stores one order snapshot. A known order gets its status refreshed and
// unknown items appended; known items only get fulfillment and tracking refreshed.
func (s *OrderService) Upsert(ctx context.Context, incoming *integration.Order) (*integration.Order, bool, error) {
	out, err := s.upsert(ctx, incoming)
	if err != nil {
		return nil, false, err
	}
	return out.order, out.created, nil
}

func (s *OrderService) upsert(ctx context.Context, incoming *integration.Order) (*upsertOutcome, error) {
	if incoming == nil {
		return nil, integration.ErrOrderInvalid
	}
	out := &upsertOutcome{}
	existing, err := s.orders.FindByMarketplaceOrderID(ctx, incoming.Marketplace, incoming.MarketplaceOrderID)
	switch {
	case errors.Is(err, integration.ErrOrderNotFound):
		out.order = incoming
		out.created = true
		out.itemsAdded = len(incoming.Items)
	case err != nil:
		return nil, err
	default:
		out.itemsAdded = existing.Merge(incoming)
		out.order = existing
	}

	if err := s.orders.Save(ctx, out.order); err != nil {
		return nil, fmt.Errorf("save order %s: %w", incoming.MarketplaceOrderID, err)
	}
	out.newPrices = s.ensurePrices(ctx, out.order)
	return out, nil
}

// ensurePrices creates price rows for skus seen the first time. OTTO orders
// seed vk_otto with the item price.
func (s *OrderService) ensurePrices(ctx context.Context, order *integration.Order) int {
	if s.prices == nil {
		return 0
	}
	created := 0
	for _, it := range order.Items {
		if it.SKU == "" {
			continue
		}
		isNew, err := s.prices.EnsureSKU(ctx, it.SKU, it.EAN)
		if err != nil {
			s.logger.Warn("Failed to ensure price", zap.String("sku", it.SKU), zap.Error(err))
			continue
		}
		if !isNew {
			continue
		}
		created++
		s.logger.Info("New price entry created", zap.String("sku", it.SKU), zap.String("ean", it.EAN))
		if order.Marketplace != integration.MarketplaceOtto || !it.Price.IsPositive() {
			continue
		}
		p, err := s.prices.FindBySKU(ctx, it.SKU)
		if err != nil {
			continue
		}
		vk := it.Price
		p.VkOtto = &vk
		if err := s.prices.Save(ctx, p); err != nil {
			s.logger.Warn("Failed to store vk_otto", zap.String("sku", it.SKU), zap.Error(err))
		}
	}
	return created
}

// ListOrders lists stored orders
func (s *OrderService) ListOrders(ctx context.Context, filter integration.OrderFilter) ([]*integration.Order, int64, error) {
	filter.Normalize()
	return s.orders.FindAll(ctx, filter)
}

// GetOrder returns one stored order with its items
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*integration.Order, error) {
	return s.orders.FindByID(ctx, id)
}
