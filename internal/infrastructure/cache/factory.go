package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/config"
)

// TokenCacheFactory picks Redis when configured and reachable, memory otherwise
type TokenCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption configures the factory
type FactoryOption func(*TokenCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *TokenCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to memory (default true)
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *TokenCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewTokenCacheFactory creates a factory
func NewTokenCacheFactory(cfg config.RedisConfig, opts ...FactoryOption) *TokenCacheFactory {
	f := &TokenCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// TokenCache is an integration.TokenCache that can be closed
type TokenCache interface {
	integration.TokenCache
	Close() error
}

// Create returns the token cache
func (f *TokenCacheFactory) Create(ctx context.Context) (TokenCache, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("No Redis host configured, caching marketplace tokens in memory")
		return NewInMemoryTokenCache(), nil
	}

	c, err := NewRedisTokenCache(ctx, RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("Using Redis token cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis token cache unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, caching marketplace tokens in memory", zap.Error(err))
	return NewInMemoryTokenCache(), nil
}
