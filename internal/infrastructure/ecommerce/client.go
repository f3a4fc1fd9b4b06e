package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/logger"
)

// maxErrorBodySize bounds how much of an error body ends up in error messages
const maxErrorBodySize = 512

// CallRecorder records outbound marketplace calls (metrics)
type CallRecorder interface {
	RecordCall(ctx context.Context, marketplace string, status int, duration time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordCall(context.Context, string, int, time.Duration, error) {}

// ClientOptions configures the shared REST client of an adapter
type ClientOptions struct {
	// BaseURL is the API root
	BaseURL string
	// Timeout is the per-request timeout
	Timeout time.Duration
	// RequestsPerSecond limits outbound calls (0 = unlimited)
	RequestsPerSecond float64
	// Burst is the limiter burst size
	Burst int
	// Logger receives one entry per call
	Logger *zap.Logger
	// Recorder receives one observation per call
	Recorder CallRecorder
}

// restClient wraps resty with rate limiting, call logging and error mapping
type restClient struct {
	marketplace integration.Marketplace
	http        *resty.Client
	limiter     *rate.Limiter
	logger      *zap.Logger
	recorder    CallRecorder
}

func newRestClient(m integration.Marketplace, opts ClientOptions) *restClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &restClient{
		marketplace: m,
		http:        resty.New().SetBaseURL(opts.BaseURL).SetTimeout(opts.Timeout),
		limiter:     rate.NewLimiter(limit, burst),
		logger:      opts.Logger.With(zap.String("marketplace", string(m))),
		recorder:    opts.Recorder,
	}

	c.http.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		return c.limiter.Wait(r.Context())
	})
	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.OutboundCall(c.logger, string(m), resp.Request.Method, resp.Request.URL, resp.StatusCode(), resp.Time(), nil)
		c.recorder.RecordCall(resp.Request.Context(), string(m), resp.StatusCode(), resp.Time(), nil)
		return nil
	})
	c.http.OnError(func(r *resty.Request, err error) {
		logger.OutboundCall(c.logger, string(m), r.Method, r.URL, 0, 0, err)
		c.recorder.RecordCall(r.Context(), string(m), 0, 0, err)
	})
	return c
}

// R returns a new request bound to ctx
func (c *restClient) R(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// check maps transport errors and non-2xx answers onto integration errors
func (c *restClient) check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", integration.ErrMarketplaceRequestFailed, c.marketplace, err)
	}
	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		return nil
	}
	body := string(resp.Body())
	if len(body) > maxErrorBodySize {
		body = body[:maxErrorBodySize]
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s: HTTP %d", integration.ErrMarketplaceAuthFailed, c.marketplace, status)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", integration.ErrMarketplaceRateLimited, c.marketplace)
	default:
		return fmt.Errorf("%w: %s: HTTP %d: %s", integration.ErrMarketplaceRequestFailed, c.marketplace, status, body)
	}
}

// decode checks the response and unmarshals its JSON body into out
func (c *restClient) decode(resp *resty.Response, err error, out any) error {
	if err := c.check(resp, err); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: %s: %v", integration.ErrMarketplaceInvalidResponse, c.marketplace, err)
	}
	return nil
}
