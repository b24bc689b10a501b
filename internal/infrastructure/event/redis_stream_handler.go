package event

import (
	"context"
	"fmt"
	"strconv"

	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/catalogo/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultStream is the stream product updates are appended to
const DefaultStream = "produto-atualizacao"

// StreamAdder is the subset of the redis client the handler needs
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamConfig configures the stream handler
type RedisStreamConfig struct {
	Stream string
	// MaxLen caps the stream approximately; 0 keeps every entry
	MaxLen int64
}

// RedisStreamHandler appends product events to a redis stream so other
// services can follow catalog changes
type RedisStreamHandler struct {
	client     StreamAdder
	serializer *EventSerializer
	stream     string
	maxLen     int64
}

// NewRedisStreamHandler creates a handler writing through client
func NewRedisStreamHandler(client StreamAdder, serializer *EventSerializer, cfg RedisStreamConfig) *RedisStreamHandler {
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	if serializer == nil {
		serializer = NewProdutoEventSerializer()
	}
	return &RedisStreamHandler{
		client:     client,
		serializer: serializer,
		stream:     cfg.Stream,
		maxLen:     cfg.MaxLen,
	}
}

// EventTypes implements shared.EventHandler
func (h *RedisStreamHandler) EventTypes() []string {
	return []string{catalog.EventTypeProdutoCriado, catalog.EventTypeProdutoAtualizado}
}

// Handle implements shared.EventHandler
func (h *RedisStreamHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}

	values := map[string]any{
		"event_id":     event.EventID().String(),
		"event_type":   event.EventType(),
		"aggregate_id": event.AggregateID().String(),
		"payload":      string(payload),
	}
	if e, ok := event.(*catalog.ProdutoAtualizadoEvent); ok {
		values["sku"] = e.Sku
		values["version"] = strconv.Itoa(e.Version)
	}

	args := &redis.XAddArgs{
		Stream: h.stream,
		Values: values,
	}
	if h.maxLen > 0 {
		args.MaxLen = h.maxLen
		args.Approx = true
	}

	if err := h.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append %s to stream %s: %w", event.EventType(), h.stream, err)
	}
	return nil
}
