package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m13/backoffice/internal/domain/integration"
)

const defaultTokenKeyPrefix = "m13:token:"

// RedisTokenCache shares access tokens between the server and m13ctl processes
type RedisTokenCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisTokenCache connects to Redis and pings it
func NewRedisTokenCache(ctx context.Context, cfg RedisConfig) (*RedisTokenCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisTokenCacheWithClient(client, ""), nil
}

// NewRedisTokenCacheWithClient wraps an existing client
func NewRedisTokenCacheWithClient(client *redis.Client, keyPrefix string) *RedisTokenCache {
	if keyPrefix == "" {
		keyPrefix = defaultTokenKeyPrefix
	}
	return &RedisTokenCache{client: client, keyPrefix: keyPrefix}
}

// Get returns the token or integration.ErrTokenNotCached
func (c *RedisTokenCache) Get(ctx context.Context, key string) (string, error) {
	tok, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", integration.ErrTokenNotCached
	}
	if err != nil {
		return "", fmt.Errorf("read token %s: %w", key, err)
	}
	return tok, nil
}

// Set stores the token for ttl
func (c *RedisTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, token, ttl).Err(); err != nil {
		return fmt.Errorf("store token %s: %w", key, err)
	}
	return nil
}

// Delete evicts the token
func (c *RedisTokenCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete token %s: %w", key, err)
	}
	return nil
}

// Close closes the client
func (c *RedisTokenCache) Close() error {
	return c.client.Close()
}

var _ integration.TokenCache = (*RedisTokenCache)(nil)
