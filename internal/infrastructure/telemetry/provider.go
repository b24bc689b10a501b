package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// providerShutdownTimeout bounds the final flush of each signal pipeline.
const providerShutdownTimeout = 10 * time.Second

// serviceResource identifies the catalog service on every exported span,
// metric and log record.
func serviceResource(name, version string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(name),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// shutdownSignal flushes and stops one SDK provider. A nil shutdown means the
// signal was never enabled.
func shutdownSignal(ctx context.Context, logger *zap.Logger, signal string, shutdown func(context.Context) error) error {
	if shutdown == nil {
		logger.Debug("Signal disabled, nothing to shut down", zap.String("signal", signal))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, providerShutdownTimeout)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		logger.Error("Error shutting down telemetry provider",
			zap.String("signal", signal),
			zap.Error(err),
		)
		return fmt.Errorf("failed to shutdown %s provider: %w", signal, err)
	}

	logger.Info("Telemetry provider shut down", zap.String("signal", signal))
	return nil
}
