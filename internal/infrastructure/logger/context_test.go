package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func spanContext() context.Context {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a, 0x0b},
		SpanID:     trace.SpanID{0x01},
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestEnrichment(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := context.Background()

	ctx, l := WithRequestID(ctx, zap.New(core), "req-1")
	ctx, l = WithMarketplace(ctx, l, "ZALANDO")
	ctx, _ = WithSubject(ctx, l, "ops")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "ZALANDO", GetMarketplace(ctx))
	assert.Equal(t, "ops", GetSubject(ctx))

	FromContext(ctx).Info("Orders imported")
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "ZALANDO", fields["marketplace"])
	assert.Equal(t, "ops", fields["subject"])
}

func TestGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetMarketplace(ctx))
	assert.Empty(t, GetSubject(ctx))
}

func TestTraceFields(t *testing.T) {
	assert.Nil(t, TraceFields(context.Background()))

	fields := TraceFields(spanContext())
	assert.Len(t, fields, 2)
	assert.Equal(t, "trace_id", fields[0].Key)
	assert.Equal(t, "0a0b0000000000000000000000000000", fields[0].String)
}

func TestL(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := WithContext(spanContext(), zap.New(core))

	L(ctx).With(zap.String("sku", "M13-1")).Warn("Price missing")
	L(context.Background()).Error("goes nowhere")

	entries := logs.All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "M13-1", fields["sku"])
	assert.Equal(t, "0100000000000000", fields["span_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}
