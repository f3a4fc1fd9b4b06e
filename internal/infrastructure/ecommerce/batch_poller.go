package ecommerce

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/integration"
)

// DefaultBatchDelays is the wait sequence between batch status polls
var DefaultBatchDelays = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
	32 * time.Second,
}

// BatchStatusFunc fetches the current status of a batch and its raw response
type BatchStatusFunc func(ctx context.Context) (status string, raw string, err error)

// BatchPoller polls asynchronous marketplace batches until they complete
type BatchPoller struct {
	repo   integration.BatchRequestRepository
	delays []time.Duration
	logger *zap.Logger
	after  func(time.Duration) <-chan time.Time
}

// BatchPollerOption configures a BatchPoller
type BatchPollerOption func(*BatchPoller)

// WithBatchDelays overrides the wait sequence
func WithBatchDelays(delays []time.Duration) BatchPollerOption {
	return func(p *BatchPoller) {
		p.delays = delays
	}
}

// NewBatchPoller creates a poller. repo may be nil when status need not be persisted.
func NewBatchPoller(repo integration.BatchRequestRepository, logger *zap.Logger, opts ...BatchPollerOption) *BatchPoller {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &BatchPoller{
		repo:   repo,
		delays: DefaultBatchDelays,
		logger: logger,
		after:  time.After,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll calls fetch once per delay step. It returns nil as soon as the batch reports
// completion and ErrBatchNotCompleted once all steps are used up. Every attempt is
// recorded on batch and persisted.
func (p *BatchPoller) Poll(ctx context.Context, batch *integration.BatchRequest, fetch BatchStatusFunc) error {
	p.save(ctx, batch)

	for _, delay := range p.delays {
		status, raw, err := fetch(ctx)
		if err != nil {
			return fmt.Errorf("poll batch %s: %w", batch.BatchRequestID, err)
		}
		batch.Record(status, raw)
		p.save(ctx, batch)

		p.logger.Info("Batch request status",
			zap.String("marketplace", string(batch.Marketplace)),
			zap.String("batch_request_id", batch.BatchRequestID),
			zap.String("status", status),
			zap.Int("attempt", batch.Attempts),
		)

		if batch.IsCompleted() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.after(delay):
		}
	}
	return fmt.Errorf("%w: %s (last status %q)", integration.ErrBatchNotCompleted, batch.BatchRequestID, batch.Status)
}

func (p *BatchPoller) save(ctx context.Context, batch *integration.BatchRequest) {
	if p.repo == nil {
		return
	}
	if err := p.repo.Save(ctx, batch); err != nil {
		p.logger.Warn("Failed to persist batch request",
			zap.String("batch_request_id", batch.BatchRequestID),
			zap.Error(err),
		)
	}
}
