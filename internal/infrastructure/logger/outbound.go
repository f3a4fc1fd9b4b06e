package logger

import (
	"time"

	"go.uber.org/zap"
)

// OutboundCall logs one request to a marketplace API.
// Failed calls and 4xx/5xx answers are logged at warn level.
func OutboundCall(l *zap.Logger, marketplace, method, endpoint string, status int, duration time.Duration, err error) {
	if l == nil {
		return
	}
	fields := []zap.Field{
		zap.String("marketplace", marketplace),
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", status),
		zap.Duration("duration", duration),
	}
	switch {
	case err != nil:
		l.Warn("Marketplace call failed", append(fields, zap.Error(err))...)
	case status >= 400:
		l.Warn("Marketplace call rejected", fields...)
	default:
		l.Debug("Marketplace call", fields...)
	}
}
