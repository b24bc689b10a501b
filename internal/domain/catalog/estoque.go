package catalog

import "github.com/google/uuid"

// Estoque holds on-hand and reserved quantities of a Produto
type Estoque struct {
	ID        uuid.UUID
	EmEstoque int
	Reservado int
}

// NewEstoque creates a validated stock position
func NewEstoque(emEstoque, reservado int) (Estoque, error) {
	if emEstoque < 0 {
		return Estoque{}, newError(CodeEstoqueInvalido, "Quantity in stock cannot be negative")
	}
	if reservado < 0 {
		return Estoque{}, newError(CodeEstoqueInvalido, "Reserved quantity cannot be negative")
	}
	return Estoque{
		EmEstoque: emEstoque,
		Reservado: reservado,
	}, nil
}

// RestoreEstoque rebuilds a persisted stock position without validation
func RestoreEstoque(id uuid.UUID, emEstoque, reservado int) Estoque {
	return Estoque{
		ID:        id,
		EmEstoque: emEstoque,
		Reservado: reservado,
	}
}

// Equals compares quantities only
func (e Estoque) Equals(other Estoque) bool {
	return e.EmEstoque == other.EmEstoque && e.Reservado == other.Reservado
}

// Disponivel returns the quantity that is not reserved
func (e Estoque) Disponivel() int {
	return e.EmEstoque - e.Reservado
}
