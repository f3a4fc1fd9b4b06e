package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/m13/backoffice/internal/domain/integration"
)

// tokenRefreshMargin is subtracted from the announced lifetime of an access token
const tokenRefreshMargin = 60 * time.Second

// tokenFetchFunc obtains a fresh access token and its lifetime
type tokenFetchFunc func(ctx context.Context) (token string, expiresIn time.Duration, err error)

// tokenSource hands out access tokens, caching them in a TokenCache when one is
// configured and in memory otherwise.
type tokenSource struct {
	key   string
	cache integration.TokenCache
	fetch tokenFetchFunc
	now   func() time.Time

	mu      sync.Mutex
	local   string
	expires time.Time
}

func newTokenSource(key string, cache integration.TokenCache, fetch tokenFetchFunc) *tokenSource {
	return &tokenSource{key: key, cache: cache, fetch: fetch, now: time.Now}
}

// Token returns a cached token or fetches a new one
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		tok, err := s.cache.Get(ctx, s.key)
		if err == nil && tok != "" {
			return tok, nil
		}
		if err != nil && !errors.Is(err, integration.ErrTokenNotCached) {
			return "", err
		}
	} else if s.local != "" && s.now().Before(s.expires) {
		return s.local, nil
	}
	return s.refreshLocked(ctx)
}

// Invalidate drops the cached token
func (s *tokenSource) Invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local = ""
	if s.cache != nil {
		_ = s.cache.Delete(ctx, s.key)
	}
}

func (s *tokenSource) refreshLocked(ctx context.Context) (string, error) {
	tok, expiresIn, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	ttl := expiresIn - tokenRefreshMargin
	if ttl <= 0 {
		ttl = expiresIn
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, s.key, tok, ttl); err != nil {
			return "", err
		}
		return tok, nil
	}
	s.local = tok
	s.expires = s.now().Add(ttl)
	return tok, nil
}

// refreshFunc exchanges a refresh token for a new token pair
type refreshFunc func(ctx context.Context, refreshToken string) (access, refresh string, expiresIn time.Duration, err error)

// persistedRefresh builds a tokenFetchFunc that refreshes the latest stored token pair
// of the marketplace and stores the rotated pair as a new record.
func persistedRefresh(m integration.Marketplace, repo integration.AuthTokenRepository, refresh refreshFunc) tokenFetchFunc {
	return func(ctx context.Context) (string, time.Duration, error) {
		latest, err := repo.FindLatest(ctx, m)
		if err != nil {
			return "", 0, fmt.Errorf("%w: %s: no refresh token stored: %v", integration.ErrMarketplaceNotConfigured, m, err)
		}
		access, newRefresh, expiresIn, err := refresh(ctx, latest.RefreshToken)
		if err != nil {
			return "", 0, err
		}
		if newRefresh == "" {
			newRefresh = latest.RefreshToken
		}
		if err := repo.Save(ctx, integration.NewAuthToken(m, access, newRefresh, expiresIn)); err != nil {
			return "", 0, fmt.Errorf("store %s token: %w", m, err)
		}
		return access, expiresIn, nil
	}
}

// withTokenRetry runs do with a bearer token. On HTTP 401 the token is renewed once
// and the call is repeated.
func withTokenRetry(ctx context.Context, ts *tokenSource, do func(token string) (*resty.Response, error)) (*resty.Response, error) {
	tok, err := ts.Token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := do(tok)
	if err != nil || resp.StatusCode() != http.StatusUnauthorized {
		return resp, err
	}
	ts.Invalidate(ctx)
	if tok, err = ts.Token(ctx); err != nil {
		return nil, err
	}
	return do(tok)
}
