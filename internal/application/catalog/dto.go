package catalog

import (
	"time"

	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PrecoRequest carries a list/discount price pair
type PrecoRequest struct {
	PrecoLista    decimal.Decimal `json:"preco_lista"`
	PrecoDesconto decimal.Decimal `json:"preco_desconto"`
}

// EstoqueRequest carries stock quantities
type EstoqueRequest struct {
	EmEstoque int `json:"em_estoque"`
	Reservado int `json:"reservado"`
}

// CriarProdutoRequest represents a request to create a product
type CriarProdutoRequest struct {
	Sku       string          `json:"sku" binding:"required,max=50"`
	Nome      string          `json:"nome" binding:"required,max=255"`
	Descr     string          `json:"descr" binding:"required"`
	URLImagem string          `json:"url_imagem" binding:"required,max=255"`
	Preco     *PrecoRequest   `json:"preco"`
	Estoque   *EstoqueRequest `json:"estoque"`
}

// AtualizarProdutoRequest represents a request to update a product.
// Version is the version the caller last read.
type AtualizarProdutoRequest struct {
	Nome      string          `json:"nome" binding:"required,max=255"`
	Descr     string          `json:"descr" binding:"required"`
	URLImagem string          `json:"url_imagem" binding:"required,max=255"`
	Preco     *PrecoRequest   `json:"preco"`
	Estoque   *EstoqueRequest `json:"estoque"`
	Version   int             `json:"version" binding:"min=0"`
}

// ItemKitDetalheRequest describes one kit line to insert
type ItemKitDetalheRequest struct {
	ProdutoID uuid.UUID     `json:"produto_id" binding:"required"`
	Qtd       int           `json:"qtd"`
	Preco     *PrecoRequest `json:"preco"`
}

// InserirItensKitRequest is the body of a kit insertion
type InserirItensKitRequest struct {
	Itens []ItemKitDetalheRequest `json:"itens" binding:"dive"`
}

// AtualizarItemKitRequest represents a request to change a kit line
type AtualizarItemKitRequest struct {
	Qtd   int           `json:"qtd"`
	Preco *PrecoRequest `json:"preco"`
}

// PrecoResponse represents a price in API responses
type PrecoResponse struct {
	PrecoLista    decimal.Decimal `json:"preco_lista"`
	PrecoDesconto decimal.Decimal `json:"preco_desconto"`
}

// EstoqueResponse represents stock in API responses
type EstoqueResponse struct {
	EmEstoque  int `json:"em_estoque"`
	Reservado  int `json:"reservado"`
	Disponivel int `json:"disponivel"`
}

// ItemKitResponse represents a kit line in API responses
type ItemKitResponse struct {
	ID        uuid.UUID     `json:"id"`
	Version   int           `json:"version"`
	KitID     uuid.UUID     `json:"kit_id"`
	ProdutoID uuid.UUID     `json:"produto_id"`
	Qtd       int           `json:"qtd"`
	Preco     PrecoResponse `json:"preco"`
}

// ProdutoResponse represents a product in API responses
type ProdutoResponse struct {
	ID        uuid.UUID         `json:"id"`
	Sku       string            `json:"sku"`
	Nome      string            `json:"nome"`
	Descr     string            `json:"descr"`
	URLImagem string            `json:"url_imagem"`
	Preco     *PrecoResponse    `json:"preco,omitempty"`
	Estoque   *EstoqueResponse  `json:"estoque,omitempty"`
	Kit       []ItemKitResponse `json:"kit"`
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (r *PrecoRequest) toDomain() (*catalog.Preco, error) {
	if r == nil {
		return nil, nil
	}
	preco, err := catalog.NewPreco(r.PrecoLista, r.PrecoDesconto)
	if err != nil {
		return nil, err
	}
	return &preco, nil
}

func (r *EstoqueRequest) toDomain() (*catalog.Estoque, error) {
	if r == nil {
		return nil, nil
	}
	estoque, err := catalog.NewEstoque(r.EmEstoque, r.Reservado)
	if err != nil {
		return nil, err
	}
	return &estoque, nil
}

func (r ItemKitDetalheRequest) toDomain() (catalog.ItemKitDetalhe, error) {
	preco, err := r.Preco.toDomain()
	if err != nil {
		return catalog.ItemKitDetalhe{}, err
	}
	return catalog.NewItemKitDetalhe(r.ProdutoID, r.Qtd, preco)
}

// ToProdutoResponse converts the aggregate to its response form
func ToProdutoResponse(produto *catalog.Produto) ProdutoResponse {
	resp := ProdutoResponse{
		ID:        produto.ID,
		Sku:       produto.Sku,
		Nome:      produto.Nome,
		Descr:     produto.Descr,
		URLImagem: produto.URLImagem,
		Kit:       ToItemKitResponses(produto.Kit()),
		Version:   produto.Version,
		CreatedAt: produto.CreatedAt,
		UpdatedAt: produto.UpdatedAt,
	}
	if produto.Preco != nil {
		preco := toPrecoResponse(*produto.Preco)
		resp.Preco = &preco
	}
	if produto.Estoque != nil {
		resp.Estoque = &EstoqueResponse{
			EmEstoque:  produto.Estoque.EmEstoque,
			Reservado:  produto.Estoque.Reservado,
			Disponivel: produto.Estoque.Disponivel(),
		}
	}
	return resp
}

// ToItemKitResponse converts a kit line to its response form
func ToItemKitResponse(item catalog.ItemKit) ItemKitResponse {
	return ItemKitResponse{
		ID:        item.ID,
		Version:   item.Version,
		KitID:     item.KitID,
		ProdutoID: item.ProdutoID,
		Qtd:       item.Qtd,
		Preco:     toPrecoResponse(item.Preco),
	}
}

// ToItemKitResponses converts kit lines, never returning nil
func ToItemKitResponses(items []catalog.ItemKit) []ItemKitResponse {
	responses := make([]ItemKitResponse, len(items))
	for i, item := range items {
		responses[i] = ToItemKitResponse(item)
	}
	return responses
}

func toPrecoResponse(preco catalog.Preco) PrecoResponse {
	return PrecoResponse{
		PrecoLista:    preco.PrecoLista,
		PrecoDesconto: preco.PrecoDesconto,
	}
}
