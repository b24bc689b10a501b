package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Preco is a list/discount price pair.
// It is immutable once built and is owned by exactly one Produto or ItemKit.
type Preco struct {
	ID            uuid.UUID
	PrecoLista    decimal.Decimal
	PrecoDesconto decimal.Decimal
}

// NewPreco creates a validated price
func NewPreco(precoLista, precoDesconto decimal.Decimal) (Preco, error) {
	if precoLista.IsNegative() {
		return Preco{}, newError(CodePrecoInvalido, "List price cannot be negative")
	}
	if precoDesconto.IsNegative() {
		return Preco{}, newError(CodePrecoInvalido, "Discount price cannot be negative")
	}
	if precoDesconto.GreaterThan(precoLista) {
		return Preco{}, newError(CodePrecoInvalido, "Discount price %s cannot exceed list price %s",
			precoDesconto.String(), precoLista.String())
	}
	return Preco{
		PrecoLista:    precoLista,
		PrecoDesconto: precoDesconto,
	}, nil
}

// NewPrecoFromFloat is a convenience constructor for float inputs
func NewPrecoFromFloat(precoLista, precoDesconto float64) (Preco, error) {
	return NewPreco(decimal.NewFromFloat(precoLista), decimal.NewFromFloat(precoDesconto))
}

// RestorePreco rebuilds a persisted price without validation
func RestorePreco(id uuid.UUID, precoLista, precoDesconto decimal.Decimal) Preco {
	return Preco{
		ID:            id,
		PrecoLista:    precoLista,
		PrecoDesconto: precoDesconto,
	}
}

// WithID returns a copy of the price bound to a storage identifier
func (p Preco) WithID(id uuid.UUID) Preco {
	p.ID = id
	return p
}

// Equals compares amounts only; the storage identifier is not part of the value
func (p Preco) Equals(other Preco) bool {
	return p.PrecoLista.Equal(other.PrecoLista) && p.PrecoDesconto.Equal(other.PrecoDesconto)
}
