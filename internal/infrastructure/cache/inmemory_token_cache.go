// Package cache holds the marketplace access-token caches.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/m13/backoffice/internal/domain/integration"
)

type tokenEntry struct {
	token     string
	expiresAt time.Time // zero = no expiry
}

func (e tokenEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// InMemoryTokenCache keeps tokens in process memory. Used when no Redis is configured.
type InMemoryTokenCache struct {
	mu        sync.RWMutex
	entries   map[string]tokenEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryTokenCache creates the cache and starts the expiry sweeper
func NewInMemoryTokenCache() *InMemoryTokenCache {
	c := &InMemoryTokenCache{
		entries:  make(map[string]tokenEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.sweepLoop()
	return c
}

// Get returns the token or integration.ErrTokenNotCached
func (c *InMemoryTokenCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.expired(c.now()) {
		return "", integration.ErrTokenNotCached
	}
	return e.token, nil
}

// Set stores the token for ttl
func (c *InMemoryTokenCache) Set(_ context.Context, key, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := tokenEntry{token: token}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Delete evicts the token
func (c *InMemoryTokenCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (c *InMemoryTokenCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Len returns the number of entries, expired ones included
func (c *InMemoryTokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *InMemoryTokenCache) sweepLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *InMemoryTokenCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
}

var _ integration.TokenCache = (*InMemoryTokenCache)(nil)
