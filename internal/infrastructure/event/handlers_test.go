package event

import (
	"context"
	"errors"
	"testing"

	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/catalogo/backend/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeStream struct {
	args []*redis.XAddArgs
	err  error
}

func (f *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = append(f.args, a)
	return redis.NewStringResult("1700000000000-0", f.err)
}

func TestRedisStreamHandler_Handle(t *testing.T) {
	stream := &fakeStream{}
	h := NewRedisStreamHandler(stream, nil, RedisStreamConfig{MaxLen: 1000})
	produto := newKitProduto(t, 5)
	event := catalog.NewProdutoAtualizadoEvent(produto)

	require.NoError(t, h.Handle(context.Background(), event))

	require.Len(t, stream.args, 1)
	args := stream.args[0]
	assert.Equal(t, DefaultStream, args.Stream)
	assert.Equal(t, int64(1000), args.MaxLen)
	assert.True(t, args.Approx)

	values, ok := args.Values.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, catalog.EventTypeProdutoAtualizado, values["event_type"])
	assert.Equal(t, "KIT001", values["sku"])
	assert.Equal(t, "5", values["version"])
	assert.Equal(t, produto.ID.String(), values["aggregate_id"])

	decoded, err := NewProdutoEventSerializer().Deserialize(event.EventType(), []byte(values["payload"].(string)))
	require.NoError(t, err)
	assert.Equal(t, event.EventID(), decoded.EventID())
}

func TestRedisStreamHandler_Unbounded(t *testing.T) {
	stream := &fakeStream{}
	h := NewRedisStreamHandler(stream, nil, RedisStreamConfig{Stream: "catalogo-test"})

	require.NoError(t, h.Handle(context.Background(), catalog.NewProdutoAtualizadoEvent(newKitProduto(t, 0))))

	assert.Equal(t, "catalogo-test", stream.args[0].Stream)
	assert.Zero(t, stream.args[0].MaxLen)
	assert.False(t, stream.args[0].Approx)
}

func TestRedisStreamHandler_Error(t *testing.T) {
	stream := &fakeStream{err: errors.New("READONLY")}
	h := NewRedisStreamHandler(stream, nil, RedisStreamConfig{})

	err := h.Handle(context.Background(), catalog.NewProdutoAtualizadoEvent(newKitProduto(t, 1)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), DefaultStream)
	assert.Contains(t, err.Error(), "READONLY")
}

func TestRedisStreamHandler_SubscribesToProductEvents(t *testing.T) {
	h := NewRedisStreamHandler(&fakeStream{}, nil, RedisStreamConfig{})
	assert.ElementsMatch(t,
		[]string{catalog.EventTypeProdutoCriado, catalog.EventTypeProdutoAtualizado},
		h.EventTypes())
}

func TestLoggingHandler_Handle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewLoggingHandler(zap.New(core))
	produto := newKitProduto(t, 3)

	ctx := logger.WithRequestID(context.Background(), "req-42")
	require.NoError(t, h.Handle(ctx, catalog.NewProdutoAtualizadoEvent(produto)))

	entries := logs.FilterMessage("product event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, catalog.EventTypeProdutoAtualizado, fields["event_type"])
	assert.Equal(t, produto.ID.String(), fields["produto_id"])
	assert.EqualValues(t, 3, fields["version"])
	assert.EqualValues(t, 1, fields["kit_items"])
	assert.Equal(t, "req-42", fields["request_id"])
}
