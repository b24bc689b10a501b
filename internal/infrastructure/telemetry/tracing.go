package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for catalog spans.
const TracerName = "catalogo-backend"

// Span attribute keys for catalog operations.
var (
	SpanAttrSku       = attribute.Key("produto.sku")
	SpanAttrVersion   = attribute.Key("produto.version")
	SpanAttrOperation = attribute.Key("catalogo.operation")

	SpanAttrKitInserted = attribute.Key("kit.inserted")
	SpanAttrKitUpdated  = attribute.Key("kit.updated")
	SpanAttrKitDeleted  = attribute.Key("kit.deleted")
)

// StartSpan starts an internal span on the global tracer provider.
// The caller ends it, usually through EndSpan.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// ProdutoAttrs returns the attributes identifying a product revision.
func ProdutoAttrs(sku string, version int) []attribute.KeyValue {
	return []attribute.KeyValue{
		SpanAttrSku.String(sku),
		SpanAttrVersion.Int(version),
	}
}

// EndSpan sets the span status from err and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// RecordKitReconciled adds a kit_reconciled event carrying the line counts
// of one reconciliation pass. Passes that changed nothing are not recorded.
func RecordKitReconciled(span trace.Span, inserted, updated, deleted int) {
	if inserted+updated+deleted == 0 {
		return
	}
	span.AddEvent("kit_reconciled", trace.WithAttributes(
		SpanAttrKitInserted.Int(inserted),
		SpanAttrKitUpdated.Int(updated),
		SpanAttrKitDeleted.Int(deleted),
	))
}

// TraceID returns the hex trace ID of the span in ctx, or "" when there is none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
