package integration

import (
	"context"
	"errors"
	"time"

	"github.com/m13/backoffice/internal/domain/shared"
)

// ErrTokenNotCached is returned by TokenCache.Get on a miss
var ErrTokenNotCached = errors.New("integration: token not cached")

// AuthToken is a persisted OAuth token pair for marketplaces with rotating refresh tokens
type AuthToken struct {
	shared.BaseEntity
	// Marketplace owning the token
	Marketplace Marketplace
	// AccessToken is the bearer token
	AccessToken string
	// RefreshToken is used to obtain the next pair
	RefreshToken string
	// ExpiresAt is when the access token expires (zero = unknown)
	ExpiresAt time.Time
}

// NewAuthToken creates a new token pair
func NewAuthToken(m Marketplace, access, refresh string, expiresIn time.Duration) *AuthToken {
	t := &AuthToken{
		BaseEntity:   shared.NewBaseEntity(),
		Marketplace:  m,
		AccessToken:  access,
		RefreshToken: refresh,
	}
	if expiresIn > 0 {
		t.ExpiresAt = time.Now().Add(expiresIn)
	}
	return t
}

// Rotate replaces the pair with a refreshed one
func (t *AuthToken) Rotate(access, refresh string, expiresIn time.Duration) {
	t.AccessToken = access
	if refresh != "" {
		t.RefreshToken = refresh
	}
	if expiresIn > 0 {
		t.ExpiresAt = time.Now().Add(expiresIn)
	} else {
		t.ExpiresAt = time.Time{}
	}
	t.Touch()
}

// Expired reports whether the access token is known to be expired
func (t *AuthToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// TokenCache caches short-lived marketplace access tokens
type TokenCache interface {
	// Get returns the cached token or ErrTokenNotCached
	Get(ctx context.Context, key string) (string, error)

	// Set caches the token for ttl (zero = no expiry)
	Set(ctx context.Context, key, token string, ttl time.Duration) error

	// Delete evicts the token
	Delete(ctx context.Context, key string) error
}
