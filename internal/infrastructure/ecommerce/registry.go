package ecommerce

import (
	"fmt"
	"sync"

	"github.com/m13/backoffice/internal/domain/integration"
)

// Registry resolves marketplace adapters by code and capability
type Registry struct {
	mu       sync.RWMutex
	adapters map[integration.Marketplace]integration.MarketplaceAdapter
	order    []integration.Marketplace
}

// NewRegistry creates a registry holding the given adapters
func NewRegistry(adapters ...integration.MarketplaceAdapter) *Registry {
	r := &Registry{adapters: make(map[integration.Marketplace]integration.MarketplaceAdapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces the adapter of its marketplace
func (r *Registry) Register(a integration.MarketplaceAdapter) {
	if a == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m := a.Marketplace()
	if _, ok := r.adapters[m]; !ok {
		r.order = append(r.order, m)
	}
	r.adapters[m] = a
}

// Adapter returns the enabled adapter of a marketplace
func (r *Registry) Adapter(m integration.Marketplace) (integration.MarketplaceAdapter, error) {
	r.mu.RLock()
	a, ok := r.adapters[m]
	r.mu.RUnlock()
	if !ok || !a.IsEnabled() {
		return nil, fmt.Errorf("%w: %s", integration.ErrMarketplaceNotConfigured, m)
	}
	return a, nil
}

// Enabled lists the codes of all enabled adapters in registration order
func (r *Registry) Enabled() []integration.Marketplace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]integration.Marketplace, 0, len(r.order))
	for _, m := range r.order {
		if r.adapters[m].IsEnabled() {
			out = append(out, m)
		}
	}
	return out
}

// OrderSource returns the order source for a marketplace
func (r *Registry) OrderSource(m integration.Marketplace) (integration.OrderSource, error) {
	return capability[integration.OrderSource](r, m)
}

// StockTarget returns the stock target for a marketplace
func (r *Registry) StockTarget(m integration.Marketplace) (integration.StockTarget, error) {
	return capability[integration.StockTarget](r, m)
}

// PriceTarget returns the price target for a marketplace
func (r *Registry) PriceTarget(m integration.Marketplace) (integration.PriceTarget, error) {
	return capability[integration.PriceTarget](r, m)
}

// ShipmentTarget returns the shipment target for a marketplace
func (r *Registry) ShipmentTarget(m integration.Marketplace) (integration.ShipmentTarget, error) {
	return capability[integration.ShipmentTarget](r, m)
}

// StockTargets returns every enabled stock target
func (r *Registry) StockTargets() []integration.StockTarget {
	var out []integration.StockTarget
	for _, m := range r.Enabled() {
		if t, err := r.StockTarget(m); err == nil {
			out = append(out, t)
		}
	}
	return out
}

func capability[T any](r *Registry, m integration.Marketplace) (T, error) {
	var zero T
	a, err := r.Adapter(m)
	if err != nil {
		return zero, err
	}
	t, ok := a.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s", integration.ErrMarketplaceNotSupported, m)
	}
	return t, nil
}

var _ integration.Registry = (*Registry)(nil)
