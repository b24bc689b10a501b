package catalog

import (
	"github.com/google/uuid"
)

// ItemKitDetalhe describes one desired kit line before it is attached to a Produto
type ItemKitDetalhe struct {
	ProdutoID uuid.UUID
	Qtd       int
	Preco     Preco
}

// NewItemKitDetalhe validates the input of a kit line
func NewItemKitDetalhe(produtoID uuid.UUID, qtd int, preco *Preco) (ItemKitDetalhe, error) {
	if preco == nil {
		return ItemKitDetalhe{}, newError(CodePrecoInvalido, "Kit item price is required")
	}
	if qtd < 1 {
		return ItemKitDetalhe{}, newError(CodeItemKitInvalido, "Kit item quantity must be at least 1, got %d", qtd)
	}
	return ItemKitDetalhe{
		ProdutoID: produtoID,
		Qtd:       qtd,
		Preco:     *preco,
	}, nil
}

// ItemKit is one bundle line of a kit Produto.
// ID is uuid.Nil until the line is persisted; Version is the line's own
// optimistic-lock token.
type ItemKit struct {
	ID        uuid.UUID
	Version   int
	KitID     uuid.UUID
	ProdutoID uuid.UUID
	Qtd       int
	Preco     Preco
}

// NewItemKit creates an unattached kit line owned by kitID
func NewItemKit(kitID uuid.UUID, detalhe ItemKitDetalhe) (ItemKit, error) {
	if detalhe.ProdutoID == uuid.Nil {
		return ItemKit{}, newError(CodeItemKitInvalido, "Kit item product is required")
	}
	if kitID != uuid.Nil && kitID == detalhe.ProdutoID {
		return ItemKit{}, newError(CodeItemKitInvalido, "Product cannot be a kit item of itself")
	}
	if detalhe.Qtd < 1 {
		return ItemKit{}, newError(CodeItemKitInvalido, "Kit item quantity must be at least 1, got %d", detalhe.Qtd)
	}
	return ItemKit{
		KitID:     kitID,
		ProdutoID: detalhe.ProdutoID,
		Qtd:       detalhe.Qtd,
		Preco:     detalhe.Preco,
	}, nil
}

// RestoreItemKit rebuilds a persisted kit line without validation
func RestoreItemKit(id uuid.UUID, version int, kitID, produtoID uuid.UUID, qtd int, preco Preco) ItemKit {
	return ItemKit{
		ID:        id,
		Version:   version,
		KitID:     kitID,
		ProdutoID: produtoID,
		Qtd:       qtd,
		Preco:     preco,
	}
}

// IsPersisted reports whether the line already has a storage identity
func (i ItemKit) IsPersisted() bool {
	return i.ID != uuid.Nil
}

// SameContent reports whether two lines carry the same quantity and price
func (i ItemKit) SameContent(other ItemKit) bool {
	return i.Qtd == other.Qtd && i.Preco.Equals(other.Preco)
}
