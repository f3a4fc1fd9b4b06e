package bootstrap

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/m13/backoffice/internal/infrastructure/config"
	"github.com/m13/backoffice/internal/infrastructure/logger"
	"github.com/m13/backoffice/internal/infrastructure/telemetry"
)

// Telemetry owns the OpenTelemetry providers and the profiler of a process
type Telemetry struct {
	Tracer   *telemetry.TracerProvider
	Meters   *telemetry.MeterProvider
	Logs     *telemetry.LoggerProvider
	Profiler *telemetry.Profiler
}

// SetupTelemetry starts tracing, metrics, log export and profiling as configured
// and returns base teed into the OTel log bridge.
func SetupTelemetry(ctx context.Context, cfg *config.Config, base *zap.Logger) (*Telemetry, *zap.Logger, error) {
	tc := cfg.Telemetry
	name := tc.ServiceName
	if name == "" {
		name = cfg.App.Name
	}
	t := &Telemetry{}

	var err error
	t.Tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       name,
		Insecure:          tc.Insecure,
	}, base)
	if err != nil {
		return nil, base, err
	}

	t.Meters, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       name,
		Insecure:          tc.Insecure,
	}, base)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, base, err
	}

	t.Logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       name,
		Insecure:          tc.Insecure,
	}, base)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, base, err
	}

	log := base
	if t.Logs.IsEnabled() {
		level, lerr := logger.ParseLevel(cfg.Log.Level)
		if lerr != nil {
			base.Warn("Invalid log level for OTLP export", zap.Error(lerr))
		}
		log = telemetry.NewBridgedLogger(base.Core(), telemetry.NewZapOTELCore(name, t.Logs, level),
			zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	t.Profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         tc.ProfilingEnabled,
		ServerAddress:   tc.ProfilingAddress,
		ApplicationName: name,
	}, log)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, base, err
	}
	if tc.SpanProfiles && t.Profiler.IsEnabled() {
		t.Tracer.EnableSpanProfiles()
	}
	return t, log, nil
}

// Meter returns the application meter, nil while metrics are disabled
func (t *Telemetry) Meter(name string) metric.Meter {
	if t == nil || t.Meters == nil || !t.Meters.IsEnabled() {
		return nil
	}
	return t.Meters.Meter(name)
}

// Shutdown flushes and stops every provider that was started
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	if t.Meters != nil {
		errs = append(errs, t.Meters.Shutdown(ctx))
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
