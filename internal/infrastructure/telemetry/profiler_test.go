package telemetry

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "m13"}, zap.NewNop())
	assert.ErrorContains(t, err, "server address")

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, zap.NewNop())
	assert.ErrorContains(t, err, "application name")
}

func TestWithJobLabels(t *testing.T) {
	var jobType, marketplace string
	var hasMarketplace bool

	WithJobLabels(context.Background(), "order_import", "otto", func(ctx context.Context) {
		jobType, _ = pprof.Label(ctx, "job_type")
		marketplace, hasMarketplace = pprof.Label(ctx, "marketplace")
	})
	assert.Equal(t, "order_import", jobType)
	assert.True(t, hasMarketplace)
	assert.Equal(t, "otto", marketplace)

	WithJobLabels(context.Background(), "report_import", "", func(ctx context.Context) {
		_, hasMarketplace = pprof.Label(ctx, "marketplace")
	})
	assert.False(t, hasMarketplace)
}
