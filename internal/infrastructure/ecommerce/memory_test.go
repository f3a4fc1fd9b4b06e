package ecommerce

import (
	"context"
	"sync"

	"github.com/m13/backoffice/internal/domain/integration"
)

type memoryTokenRepo struct {
	mu     sync.Mutex
	tokens []*integration.AuthToken
}

func (r *memoryTokenRepo) FindLatest(_ context.Context, m integration.Marketplace) (*integration.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.tokens) - 1; i >= 0; i-- {
		if r.tokens[i].Marketplace == m {
			return r.tokens[i], nil
		}
	}
	return nil, integration.ErrTokenNotCached
}

func (r *memoryTokenRepo) Save(_ context.Context, t *integration.AuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, t)
	return nil
}

type memoryProductRepo struct {
	mu       sync.Mutex
	products map[string]*integration.MarketplaceProduct
}

func newMemoryProductRepo(products ...*integration.MarketplaceProduct) *memoryProductRepo {
	r := &memoryProductRepo{products: make(map[string]*integration.MarketplaceProduct)}
	_ = r.Upsert(context.Background(), products)
	return r
}

func (r *memoryProductRepo) FindBySKU(_ context.Context, m integration.Marketplace, sku string) ([]*integration.MarketplaceProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*integration.MarketplaceProduct
	for _, p := range r.products {
		if p.Marketplace == m && p.SKU == sku {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryProductRepo) FindAll(_ context.Context, m integration.Marketplace) ([]*integration.MarketplaceProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*integration.MarketplaceProduct
	for _, p := range r.products {
		if p.Marketplace == m {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryProductRepo) Upsert(_ context.Context, products []*integration.MarketplaceProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range products {
		r.products[p.Key()] = p
	}
	return nil
}

func mustProduct(m integration.Marketplace, sku, productID string) *integration.MarketplaceProduct {
	p, err := integration.NewMarketplaceProduct(m, sku, productID)
	if err != nil {
		panic(err)
	}
	return p
}
