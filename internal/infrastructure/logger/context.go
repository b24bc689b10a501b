package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
	skuKey
	operationKey
)

// WithContext attaches logger to ctx.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID tags ctx with the HTTP request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithScope tags ctx with the catalog operation and the SKU it acts on.
func WithScope(ctx context.Context, operation, sku string) context.Context {
	ctx = context.WithValue(ctx, operationKey, operation)
	return context.WithValue(ctx, skuKey, sku)
}

// RequestID returns the request ID carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Sku returns the SKU carried by ctx.
func Sku(ctx context.Context) string {
	sku, _ := ctx.Value(skuKey).(string)
	return sku
}

// Operation returns the catalog operation carried by ctx.
func Operation(ctx context.Context) string {
	op, _ := ctx.Value(operationKey).(string)
	return op
}

// Fields returns the correlation fields carried by ctx: request_id,
// operation, sku, trace_id and span_id. Absent values are skipped.
func Fields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 5)
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if op := Operation(ctx); op != "" {
		fields = append(fields, zap.String("operation", op))
	}
	if sku := Sku(ctx); sku != "" {
		fields = append(fields, zap.String("sku", sku))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return fields
}

// For returns base enriched with the correlation fields of ctx.
// A nil base falls back to the logger attached to ctx.
func For(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = FromContext(ctx)
	}
	fields := Fields(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// L returns the logger attached to ctx enriched with its correlation fields.
func L(ctx context.Context) *zap.Logger {
	return For(ctx, FromContext(ctx))
}
