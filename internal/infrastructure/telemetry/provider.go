package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// ServiceVersion is reported as the service.version resource attribute
const ServiceVersion = "1.0.0"

// shutdownTimeout caps how long a provider may spend flushing on exit
const shutdownTimeout = 10 * time.Second

// otlpOptions builds the endpoint and transport options shared by the three
// OTLP gRPC exporters, whose option types are distinct.
func otlpOptions[O any](endpoint string, insecure bool, withEndpoint func(string) O, withInsecure func() O) []O {
	opts := []O{withEndpoint(endpoint)}
	if insecure {
		opts = append(opts, withInsecure())
	}
	return opts
}

// shutdownProvider flushes and stops one signal pipeline under shutdownTimeout
func shutdownProvider(ctx context.Context, signal string, log *zap.Logger, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		log.Error("OpenTelemetry provider shutdown failed", zap.String("signal", signal), zap.Error(err))
		return fmt.Errorf("failed to shutdown %s provider: %w", signal, err)
	}
	log.Info("OpenTelemetry provider shut down", zap.String("signal", signal))
	return nil
}

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
