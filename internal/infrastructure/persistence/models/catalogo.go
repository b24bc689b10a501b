package models

import (
	"time"

	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PrecoModel is the persistence model for a price row.
// A row belongs either to one product or to one kit line.
type PrecoModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PrecoLista    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PrecoDesconto decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PrecoModel) TableName() string {
	return "precos"
}

// ToDomain converts the row to a Preco
func (m *PrecoModel) ToDomain() catalog.Preco {
	return catalog.RestorePreco(m.ID, m.PrecoLista, m.PrecoDesconto)
}

// PrecoModelFromDomain builds a price row with the given identity
func PrecoModelFromDomain(id uuid.UUID, p catalog.Preco) *PrecoModel {
	return &PrecoModel{
		ID:            id,
		PrecoLista:    p.PrecoLista,
		PrecoDesconto: p.PrecoDesconto,
	}
}

// EstoqueModel is the persistence model for a stock row
type EstoqueModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmEstoque int       `gorm:"not null"`
	Reservado int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EstoqueModel) TableName() string {
	return "estoques"
}

// ToDomain converts the row to an Estoque
func (m *EstoqueModel) ToDomain() catalog.Estoque {
	return catalog.RestoreEstoque(m.ID, m.EmEstoque, m.Reservado)
}

// EstoqueModelFromDomain builds a stock row with the given identity
func EstoqueModelFromDomain(id uuid.UUID, e catalog.Estoque) *EstoqueModel {
	return &EstoqueModel{
		ID:        id,
		EmEstoque: e.EmEstoque,
		Reservado: e.Reservado,
	}
}

// ProdutoModel is the persistence model for the Produto aggregate root
type ProdutoModel struct {
	AggregateModel
	Sku       string        `gorm:"type:varchar(50);not null;uniqueIndex:uix_produtos_sku"`
	Nome      string        `gorm:"type:varchar(255);not null"`
	Descr     string        `gorm:"type:text;not null"`
	URLImagem string        `gorm:"column:url_imagem;type:varchar(255);not null"`
	PrecoID   *uuid.UUID    `gorm:"type:uuid"`
	EstoqueID *uuid.UUID    `gorm:"type:uuid"`
	Preco     *PrecoModel   `gorm:"foreignKey:PrecoID"`
	Estoque   *EstoqueModel `gorm:"foreignKey:EstoqueID"`
}

// TableName returns the table name for GORM
func (ProdutoModel) TableName() string {
	return "produtos"
}

// ToDomain converts the row and its preloaded price and stock to a Produto.
// The kit is not attached.
func (m *ProdutoModel) ToDomain() *catalog.Produto {
	var preco *catalog.Preco
	if m.Preco != nil {
		p := m.Preco.ToDomain()
		preco = &p
	}
	var estoque *catalog.Estoque
	if m.Estoque != nil {
		e := m.Estoque.ToDomain()
		estoque = &e
	}
	return catalog.RestoreProduto(
		m.ID,
		m.Version,
		m.Sku,
		m.Nome,
		m.Descr,
		m.URLImagem,
		preco,
		estoque,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// ProdutoModelFromDomain builds the product row. Price and stock links are set by the caller.
func ProdutoModelFromDomain(p *catalog.Produto) *ProdutoModel {
	return &ProdutoModel{
		AggregateModel: aggregateModelFrom(p.BaseAggregateRoot),
		Sku:            p.Sku,
		Nome:           p.Nome,
		Descr:          p.Descr,
		URLImagem:      p.URLImagem,
	}
}

// ItemKitModel is the persistence model for a kit line.
// (kit_id, produto_id) is unique: a product appears at most once per kit.
type ItemKitModel struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Version   int           `gorm:"not null"`
	KitID     uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uix_itens_kit_kit_produto,priority:1"`
	ProdutoID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uix_itens_kit_kit_produto,priority:2;index"`
	Qtd       int           `gorm:"not null"`
	PrecoID   uuid.UUID     `gorm:"type:uuid;not null"`
	CreatedAt time.Time     `gorm:"not null"`
	UpdatedAt time.Time     `gorm:"not null"`
	Preco     *PrecoModel   `gorm:"foreignKey:PrecoID"`
	Kit       *ProdutoModel `gorm:"foreignKey:KitID"`
	Produto   *ProdutoModel `gorm:"foreignKey:ProdutoID"`
}

// TableName returns the table name for GORM
func (ItemKitModel) TableName() string {
	return "itens_kit"
}

// ToDomain converts the row and its preloaded price to an ItemKit
func (m *ItemKitModel) ToDomain() catalog.ItemKit {
	var preco catalog.Preco
	if m.Preco != nil {
		preco = m.Preco.ToDomain()
	} else {
		preco = catalog.RestorePreco(m.PrecoID, decimal.Zero, decimal.Zero)
	}
	return catalog.RestoreItemKit(m.ID, m.Version, m.KitID, m.ProdutoID, m.Qtd, preco)
}

// CatalogModels lists the models in dependency order for AutoMigrate
func CatalogModels() []any {
	return []any{
		&PrecoModel{},
		&EstoqueModel{},
		&ProdutoModel{},
		&ItemKitModel{},
	}
}
