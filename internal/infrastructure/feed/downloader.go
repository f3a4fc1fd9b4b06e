package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/logger"
)

// Downloaded is a fetched feed together with its raw bytes for archiving
type Downloaded struct {
	// Raw is the body as delivered by the shop
	Raw []byte
	// Rows are the parsed feed rows
	Rows []Row
}

// Downloader fetches shop feeds over HTTP
type Downloader struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewDownloader creates a downloader with the given timeout
func NewDownloader(timeout time.Duration, log *zap.Logger) *Downloader {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Downloader{
		http:   resty.New().SetTimeout(timeout),
		logger: log,
	}
}

// Fetch returns the raw body behind url
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, ErrFeedURLMissing
	}
	start := time.Now()
	resp, err := d.http.R().SetContext(ctx).Get(url)
	if err != nil {
		logger.OutboundCall(d.logger, "SHOP", "GET", url, 0, time.Since(start), err)
		return nil, fmt.Errorf("feed: download %s: %w", url, err)
	}
	logger.OutboundCall(d.logger, "SHOP", "GET", url, resp.StatusCode(), resp.Time(), nil)
	if resp.IsError() {
		return nil, fmt.Errorf("feed: download %s: HTTP %d", url, resp.StatusCode())
	}
	if len(resp.Body()) == 0 {
		return nil, ErrFeedEmpty
	}
	return resp.Body(), nil
}

// Download fetches and parses the CSV shop feed
func (d *Downloader) Download(ctx context.Context, url string) (*Downloaded, error) {
	raw, err := d.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	rows, err := ParseBytes(raw)
	if err != nil {
		return nil, err
	}
	d.logger.Info("Shop feed downloaded", zap.Int("rows", len(rows)))
	return &Downloaded{Raw: raw, Rows: rows}, nil
}

// DownloadJSONStock fetches and parses the JSON stock feed
func (d *Downloader) DownloadJSONStock(ctx context.Context, url string) ([]integration.StockItem, error) {
	raw, err := d.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParseJSONStock(raw)
}
