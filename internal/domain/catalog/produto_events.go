package catalog

import (
	"github.com/catalogo/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeProduto = "Produto"

// Event type constants
const (
	EventTypeProdutoCriado     = "ProdutoCriado"
	EventTypeProdutoAtualizado = "ProdutoAtualizado"
)

// PrecoSnapshot is the serialized form of a Preco
type PrecoSnapshot struct {
	PrecoLista    decimal.Decimal `json:"preco_lista"`
	PrecoDesconto decimal.Decimal `json:"preco_desconto"`
}

// EstoqueSnapshot is the serialized form of an Estoque
type EstoqueSnapshot struct {
	EmEstoque int `json:"em_estoque"`
	Reservado int `json:"reservado"`
}

// ItemKitSnapshot is the serialized form of a kit line
type ItemKitSnapshot struct {
	ID        uuid.UUID     `json:"id"`
	Version   int           `json:"version"`
	ProdutoID uuid.UUID     `json:"produto_id"`
	Qtd       int           `json:"qtd"`
	Preco     PrecoSnapshot `json:"preco"`
}

// ProdutoAtualizadoEvent carries the full state of a product after a successful write
type ProdutoAtualizadoEvent struct {
	shared.BaseDomainEvent
	ProdutoID uuid.UUID         `json:"produto_id"`
	Sku       string            `json:"sku"`
	Nome      string            `json:"nome"`
	Descr     string            `json:"descr"`
	URLImagem string            `json:"url_imagem"`
	Version   int               `json:"version"`
	Preco     *PrecoSnapshot    `json:"preco,omitempty"`
	Estoque   *EstoqueSnapshot  `json:"estoque,omitempty"`
	Kit       []ItemKitSnapshot `json:"kit"`
}

// NewProdutoAtualizadoEvent snapshots the product.
// A product at version 0 has just been created.
func NewProdutoAtualizadoEvent(produto *Produto) *ProdutoAtualizadoEvent {
	eventType := EventTypeProdutoAtualizado
	if produto.Version == 0 {
		eventType = EventTypeProdutoCriado
	}

	event := &ProdutoAtualizadoEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProduto, produto.ID),
		ProdutoID:       produto.ID,
		Sku:             produto.Sku,
		Nome:            produto.Nome,
		Descr:           produto.Descr,
		URLImagem:       produto.URLImagem,
		Version:         produto.Version,
		Kit:             []ItemKitSnapshot{},
	}
	if produto.Preco != nil {
		event.Preco = &PrecoSnapshot{
			PrecoLista:    produto.Preco.PrecoLista,
			PrecoDesconto: produto.Preco.PrecoDesconto,
		}
	}
	if produto.Estoque != nil {
		event.Estoque = &EstoqueSnapshot{
			EmEstoque: produto.Estoque.EmEstoque,
			Reservado: produto.Estoque.Reservado,
		}
	}
	for _, item := range produto.Kit() {
		event.Kit = append(event.Kit, ItemKitSnapshot{
			ID:        item.ID,
			Version:   item.Version,
			ProdutoID: item.ProdutoID,
			Qtd:       item.Qtd,
			Preco: PrecoSnapshot{
				PrecoLista:    item.Preco.PrecoLista,
				PrecoDesconto: item.Preco.PrecoDesconto,
			},
		})
	}
	return event
}
