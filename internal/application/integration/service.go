// Package integrationapp holds the marketplace use cases: order imports, stock and
// price pushes, tracking uploads, feed uploads and the Zalando order webhook.
package integrationapp

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/integration"
)

var (
	// ErrWebhookUnauthorized is returned for webhook calls with a wrong token
	ErrWebhookUnauthorized = errors.New("integrationapp: invalid webhook token")
	// ErrNoStockTargets is returned when no enabled marketplace accepts stock
	ErrNoStockTargets = errors.New("integrationapp: no stock target enabled")
	// ErrFeedNotConfigured is returned when a feed pipeline lacks its source URL or marketplace
	ErrFeedNotConfigured = errors.New("integrationapp: feed not configured")
)

// SyncRecorder receives sync counters
type SyncRecorder interface {
	RecordOrdersSynced(ctx context.Context, marketplace string, n int)
	RecordItemsPushed(ctx context.Context, marketplace string, ok, failed int)
}

type noopRecorder struct{}

func (noopRecorder) RecordOrdersSynced(context.Context, string, int)     {}
func (noopRecorder) RecordItemsPushed(context.Context, string, int, int) {}

func recorderOrNoop(r SyncRecorder) SyncRecorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}

// failureLog logs unattended failures and keeps them as error records
type failureLog struct {
	repo   catalog.ErrorRecordRepository
	logger *zap.Logger
}

func (f failureLog) record(ctx context.Context, m integration.Marketplace, where string, err error) {
	f.logger.Error("Marketplace operation failed",
		zap.String("marketplace", string(m)),
		zap.String("context", where),
		zap.Error(err))
	if f.repo == nil {
		return
	}
	if saveErr := f.repo.Save(context.WithoutCancel(ctx), catalog.NewErrorRecord(string(m), where, err)); saveErr != nil {
		f.logger.Warn("Failed to store error record", zap.Error(saveErr))
	}
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
