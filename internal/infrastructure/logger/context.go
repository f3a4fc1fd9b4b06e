package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey      contextKey = "logger"
	requestIDKey   contextKey = "request_id"
	marketplaceKey contextKey = "marketplace"
	subjectKey     contextKey = "subject"
)

// WithContext attaches a logger to ctx
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the attached logger, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

func with(ctx context.Context, l *zap.Logger, key contextKey, value string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, key, value)
	l = l.With(zap.String(string(key), value))
	return WithContext(ctx, l), l
}

// WithRequestID stores the request id and a logger carrying it
func WithRequestID(ctx context.Context, l *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return with(ctx, l, requestIDKey, requestID)
}

// WithMarketplace stores the marketplace code a job or request works on
func WithMarketplace(ctx context.Context, l *zap.Logger, marketplace string) (context.Context, *zap.Logger) {
	return with(ctx, l, marketplaceKey, marketplace)
}

// WithSubject stores the authenticated token subject
func WithSubject(ctx context.Context, l *zap.Logger, subject string) (context.Context, *zap.Logger) {
	return with(ctx, l, subjectKey, subject)
}

func value(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// GetRequestID returns the request id stored in ctx
func GetRequestID(ctx context.Context) string { return value(ctx, requestIDKey) }

// GetMarketplace returns the marketplace code stored in ctx
func GetMarketplace(ctx context.Context) string { return value(ctx, marketplaceKey) }

// GetSubject returns the token subject stored in ctx
func GetSubject(ctx context.Context) string { return value(ctx, subjectKey) }

// TraceFields returns trace_id and span_id of the active span, if any
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// ContextLogger logs with the trace ids of its context attached
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns the context logger of ctx.
//
//	logger.L(ctx).Warn("Upload rejected", zap.String("sku", sku))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

// Zap returns the logger with trace fields applied
func (cl *ContextLogger) Zap() *zap.Logger {
	if fields := TraceFields(cl.ctx); fields != nil {
		return cl.logger.With(fields...)
	}
	return cl.logger
}

// With returns a child logger with extra fields
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, logger: cl.logger.With(fields...)}
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.Zap().Debug(msg, fields...) }
func (cl *ContextLogger) Info(msg string, fields ...zap.Field)  { cl.Zap().Info(msg, fields...) }
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field)  { cl.Zap().Warn(msg, fields...) }
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.Zap().Error(msg, fields...) }
