package event

import (
	"context"

	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/catalogo/backend/internal/domain/shared"
)

// PublicationRecorder counts event publications
type PublicationRecorder interface {
	RecordEventPublished(ctx context.Context, eventType string)
	RecordEventFailed(ctx context.Context, eventType string)
}

// BusProdutoPublisher announces product snapshots on an event bus
type BusProdutoPublisher struct {
	bus      shared.EventPublisher
	recorder PublicationRecorder
}

// NewBusProdutoPublisher creates a publisher; recorder may be nil
func NewBusProdutoPublisher(bus shared.EventPublisher, recorder PublicationRecorder) *BusProdutoPublisher {
	return &BusProdutoPublisher{bus: bus, recorder: recorder}
}

// Publish snapshots produto and hands the event to the bus
func (p *BusProdutoPublisher) Publish(ctx context.Context, produto *catalog.Produto) error {
	event := catalog.NewProdutoAtualizadoEvent(produto)
	if err := p.bus.Publish(ctx, event); err != nil {
		if p.recorder != nil {
			p.recorder.RecordEventFailed(ctx, event.EventType())
		}
		return err
	}
	if p.recorder != nil {
		p.recorder.RecordEventPublished(ctx, event.EventType())
	}
	return nil
}

var _ catalog.ProdutoEventPublisher = (*BusProdutoPublisher)(nil)
