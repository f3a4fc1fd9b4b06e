package bootstrap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/infrastructure/config"
	"github.com/m13/backoffice/internal/infrastructure/ecommerce"
)

func TestCloseRunsInReverseOrder(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	c := &Container{closers: []func() error{
		func() error { order = append(order, "db"); return nil },
		func() error { order = append(order, "cache"); return boom },
	}}

	err := c.Close()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"cache", "db"}, order)
	assert.NoError(t, c.Close())
}

func TestBuildAdapters_SkipsDisabled(t *testing.T) {
	c := &Container{Config: &config.Config{}, Logger: zap.NewNop()}
	set, err := c.buildAdapters(nil)
	assert.NoError(t, err)
	assert.Empty(t, set.registry.Enabled())
	assert.Nil(t, set.zalando)
	assert.Empty(t, set.refreshers)
}

func TestBuildAdapters_ReportsInvalidConfig(t *testing.T) {
	c := &Container{Config: &config.Config{Etsy: ecommerce.EtsyConfig{Enabled: true}}, Logger: zap.NewNop()}
	_, err := c.buildAdapters(nil)
	assert.ErrorIs(t, err, ecommerce.ErrEtsyConfigMissingAPIKey)
}

func TestGaleriaURL(t *testing.T) {
	assert.Empty(t, galeriaURL(config.GaleriaConfig{FeedURL: "https://shop/galeria.csv"}))
	assert.Equal(t, "https://shop/galeria.csv", galeriaURL(config.GaleriaConfig{Enabled: true, FeedURL: "https://shop/galeria.csv"}))
}
