package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	integrationapp "github.com/m13/backoffice/internal/application/integration"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/ecommerce"
	"github.com/m13/backoffice/internal/infrastructure/persistence"
)

type adapterSet struct {
	registry   *ecommerce.Registry
	zalando    *ecommerce.ZalandoAdapter
	refreshers []integrationapp.SyncOption
}

// buildAdapters creates an adapter for every enabled marketplace. Disabled
// marketplaces stay out of the registry and resolve to ErrMarketplaceNotConfigured.
func (c *Container) buildAdapters(db *gorm.DB) (*adapterSet, error) {
	cfg := c.Config
	opts := ecommerce.ClientOptions{Logger: c.Logger.Named("ecommerce")}
	if c.Metrics != nil {
		opts.Recorder = c.Metrics
	}
	tokens := persistence.NewGormAuthTokenRepository(db)
	products := persistence.NewGormMarketplaceProductRepository(db)

	set := &adapterSet{registry: ecommerce.NewRegistry()}
	wrap := func(m integration.Marketplace, err error) error {
		return fmt.Errorf("%s adapter: %w", m, err)
	}

	if cfg.Otto.Enabled {
		a, err := ecommerce.NewOttoAdapter(&cfg.Otto, c.TokenCache, opts)
		if err != nil {
			return nil, wrap(integration.MarketplaceOtto, err)
		}
		set.registry.Register(a)
	}
	if cfg.Zalando.Enabled {
		a, err := ecommerce.NewZalandoAdapter(&cfg.Zalando, opts)
		if err != nil {
			return nil, wrap(integration.MarketplaceZalando, err)
		}
		set.registry.Register(a)
		set.zalando = a
	}
	if cfg.AboutYou.Enabled {
		poller := ecommerce.NewBatchPoller(persistence.NewGormBatchRequestRepository(db), c.Logger.Named("aboutyou-batches"))
		a, err := ecommerce.NewAboutYouAdapter(&cfg.AboutYou, poller, opts)
		if err != nil {
			return nil, wrap(integration.MarketplaceAboutYou, err)
		}
		set.registry.Register(a)
	}
	if cfg.Etsy.Enabled {
		a, err := ecommerce.NewEtsyAdapter(&cfg.Etsy, tokens, products, c.TokenCache, opts)
		if err != nil {
			return nil, wrap(integration.MarketplaceEtsy, err)
		}
		set.registry.Register(a)
		set.refreshers = append(set.refreshers, integrationapp.WithCatalogRefresher(integration.MarketplaceEtsy, a.SyncListings))
	}
	if cfg.TikTok.Enabled {
		a, err := ecommerce.NewTikTokAdapter(&cfg.TikTok, tokens, products, c.TokenCache, opts)
		if err != nil {
			return nil, wrap(integration.MarketplaceTikTok, err)
		}
		set.registry.Register(a)
		set.refreshers = append(set.refreshers, integrationapp.WithCatalogRefresher(integration.MarketplaceTikTok, a.SyncProducts))
	}
	if cfg.Mirapodo.Enabled {
		a, err := ecommerce.NewMirapodoAdapter(&cfg.Mirapodo, opts)
		if err != nil {
			return nil, wrap(integration.MarketplaceMirapodo, err)
		}
		set.registry.Register(a)
	}
	if cfg.Galaxus.Enabled {
		a, err := ecommerce.NewGalaxusAdapter(&cfg.Galaxus, c.Logger.Named("galaxus"))
		if err != nil {
			return nil, wrap(integration.MarketplaceGalaxus, err)
		}
		set.registry.Register(a)
		c.Galaxus = a
	}
	return set, nil
}
