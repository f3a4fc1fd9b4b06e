// Package telemetry wires OpenTelemetry traces, metrics and logs plus Pyroscope
// profiling for the back-office.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// ServiceVersion is reported on every exported signal
const ServiceVersion = "1.0.0"

// shutdownTimeout bounds the flush of a provider on shutdown
const shutdownTimeout = 10 * time.Second

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdownWithTimeout flushes p, giving it at most shutdownTimeout
func shutdownWithTimeout(ctx context.Context, what string, p shutdowner) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown %s provider: %w", what, err)
	}
	return nil
}
