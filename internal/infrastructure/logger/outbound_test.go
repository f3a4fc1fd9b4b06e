package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOutboundCall(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core)

	OutboundCall(l, "OTTO", "GET", "/v4/orders", 200, 15*time.Millisecond, nil)
	OutboundCall(l, "OTTO", "POST", "/v1/shipments", 409, time.Millisecond, nil)
	OutboundCall(l, "ETSY", "PUT", "/inventory", 0, time.Millisecond, errors.New("connection reset"))
	OutboundCall(nil, "ETSY", "PUT", "/inventory", 0, 0, nil)

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "OTTO", entries[0].ContextMap()["marketplace"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "Marketplace call rejected", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "connection reset", entries[2].ContextMap()["error"])
}
