package event

import (
	"context"

	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/catalogo/backend/internal/domain/shared"
	"github.com/catalogo/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LoggingHandler writes one log line per product event
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a new LoggingHandler
func NewLoggingHandler(zapLogger *zap.Logger) *LoggingHandler {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &LoggingHandler{logger: zapLogger}
}

// EventTypes implements shared.EventHandler
func (h *LoggingHandler) EventTypes() []string {
	return []string{catalog.EventTypeProdutoCriado, catalog.EventTypeProdutoAtualizado}
}

// Handle implements shared.EventHandler
func (h *LoggingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("produto_id", event.AggregateID().String()),
	}
	if e, ok := event.(*catalog.ProdutoAtualizadoEvent); ok {
		fields = append(fields,
			zap.Int("version", e.Version),
			zap.Int("kit_items", len(e.Kit)),
		)
	}
	logger.For(ctx, h.logger).Info("product event", fields...)
	return nil
}
