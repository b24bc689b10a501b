package catalog

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/catalogo/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Minimum summed prices of a non-empty kit
var (
	KitMinPrecoLista    = decimal.NewFromInt(15)
	KitMinPrecoDesconto = decimal.NewFromInt(10)
)

const skuMinLength = 3

// Produto is the catalog aggregate root.
// It owns its Preco, its Estoque and the lines of its kit.
//
// A nil kit means the kit was not loaded, so persisting the aggregate
// leaves the stored kit lines alone. A non-nil empty kit means the kit is empty.
type Produto struct {
	shared.BaseAggregateRoot
	Sku       string
	Nome      string
	Descr     string
	URLImagem string
	Preco     *Preco
	Estoque   *Estoque
	kit       []ItemKit
}

// NewProduto creates a validated product with a fresh identity at version 0.
// The kit is left unloaded.
func NewProduto(sku, nome, descr, urlImagem string, preco *Preco, estoque *Estoque) (*Produto, error) {
	sku = strings.TrimSpace(sku)
	if err := ValidarSku(sku); err != nil {
		return nil, err
	}
	nome, descr, err := normalizeDetails(nome, descr, urlImagem)
	if err != nil {
		return nil, err
	}

	return &Produto{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Sku:               sku,
		Nome:              nome,
		Descr:             descr,
		URLImagem:         urlImagem,
		Preco:             copyPreco(preco),
		Estoque:           copyEstoque(estoque),
	}, nil
}

// RestoreProduto rebuilds a persisted product without validation.
// Call LoadKit to attach its persisted kit lines.
func RestoreProduto(
	id uuid.UUID,
	version int,
	sku, nome, descr, urlImagem string,
	preco *Preco,
	estoque *Estoque,
	createdAt, updatedAt time.Time,
) *Produto {
	return &Produto{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        id,
				CreatedAt: createdAt,
				UpdatedAt: updatedAt,
			},
			Version: version,
		},
		Sku:       sku,
		Nome:      nome,
		Descr:     descr,
		URLImagem: urlImagem,
		Preco:     copyPreco(preco),
		Estoque:   copyEstoque(estoque),
	}
}

// ValidarSku checks the SKU format used to address products
func ValidarSku(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return newError(CodeSkuInvalido, "SKU is required")
	}
	if utf8.RuneCountInString(sku) < skuMinLength {
		return newError(CodeSkuInvalido, "SKU must have at least %d characters", skuMinLength)
	}
	return nil
}

func normalizeDetails(nome, descr, urlImagem string) (string, string, error) {
	nome = norm.NFC.String(strings.TrimSpace(nome))
	if nome == "" {
		return "", "", newError(CodeProdutoInvalido, "Product name cannot be empty")
	}
	descr = norm.NFC.String(strings.TrimSpace(descr))
	if descr == "" {
		return "", "", newError(CodeProdutoInvalido, "Product description cannot be empty")
	}
	if !strings.HasPrefix(urlImagem, "http://") && !strings.HasPrefix(urlImagem, "https://") {
		return "", "", newError(CodeProdutoInvalido, "Image URL must start with http:// or https://")
	}
	return nome, descr, nil
}

// ChangeDetails replaces the descriptive fields, price and stock of the product
func (p *Produto) ChangeDetails(nome, descr, urlImagem string, preco *Preco, estoque *Estoque) error {
	nome, descr, err := normalizeDetails(nome, descr, urlImagem)
	if err != nil {
		return err
	}

	p.Nome = nome
	p.Descr = descr
	p.URLImagem = urlImagem
	p.Preco = copyPreco(preco)
	p.Estoque = copyEstoque(estoque)
	p.touch()
	return nil
}

// Kit returns a copy of the kit lines, nil when the kit is not loaded
func (p *Produto) Kit() []ItemKit {
	if p.kit == nil {
		return nil
	}
	kit := make([]ItemKit, len(p.kit))
	copy(kit, p.kit)
	return kit
}

// KitLoaded reports whether the aggregate carries its kit
func (p *Produto) KitLoaded() bool {
	return p.kit != nil
}

// IsKit reports whether the product bundles other products
func (p *Produto) IsKit() bool {
	return len(p.kit) > 0
}

// LoadKit attaches persisted kit lines. No validation is performed.
func (p *Produto) LoadKit(items []ItemKit) {
	kit := make([]ItemKit, len(items))
	copy(kit, items)
	p.kit = kit
}

// ClearKit empties the kit; persisting the product then removes every stored line
func (p *Produto) ClearKit() {
	p.kit = []ItemKit{}
	p.touch()
}

// InsertKitItems appends new unattached lines to the kit
func (p *Produto) InsertKitItems(detalhes []ItemKitDetalhe) error {
	if len(detalhes) == 0 {
		return newError(CodeListaItemKitInvalida, "Kit item list cannot be empty")
	}

	candidate := p.Kit()
	seen := make(map[uuid.UUID]bool, len(candidate)+len(detalhes))
	for _, item := range candidate {
		seen[item.ProdutoID] = true
	}
	for _, detalhe := range detalhes {
		if seen[detalhe.ProdutoID] {
			return newError(CodeItemKitInvalido, "Product %s is already a kit item", detalhe.ProdutoID)
		}
		item, err := NewItemKit(p.ID, detalhe)
		if err != nil {
			return err
		}
		candidate = append(candidate, item)
		seen[item.ProdutoID] = true
	}

	return p.swapKit(candidate)
}

// UpdateKitItem replaces quantity and price of the line for produtoID.
// The line keeps its identity and version.
func (p *Produto) UpdateKitItem(produtoID uuid.UUID, qtd int, preco *Preco) error {
	idx := p.kitIndex(produtoID)
	if idx < 0 {
		return newError(CodeItemKitNaoEncontrado, "Kit item %s not found", produtoID)
	}
	detalhe, err := NewItemKitDetalhe(produtoID, qtd, preco)
	if err != nil {
		return err
	}

	candidate := p.Kit()
	candidate[idx].Qtd = detalhe.Qtd
	candidate[idx].Preco = detalhe.Preco.WithID(candidate[idx].Preco.ID)

	return p.swapKit(candidate)
}

// RemoveKitItem drops the line for produtoID. The remaining kit is validated again.
func (p *Produto) RemoveKitItem(produtoID uuid.UUID) error {
	idx := p.kitIndex(produtoID)
	if idx < 0 {
		return newError(CodeItemKitNaoEncontrado, "Kit item %s not found", produtoID)
	}

	candidate := make([]ItemKit, 0, len(p.kit)-1)
	candidate = append(candidate, p.kit[:idx]...)
	candidate = append(candidate, p.kit[idx+1:]...)

	return p.swapKit(candidate)
}

// GetKitItem returns the line for produtoID
func (p *Produto) GetKitItem(produtoID uuid.UUID) (ItemKit, error) {
	idx := p.kitIndex(produtoID)
	if idx < 0 {
		return ItemKit{}, newError(CodeItemKitNaoEncontrado, "Kit item %s not found", produtoID)
	}
	return p.kit[idx], nil
}

// swapKit validates the candidate and only then installs it
func (p *Produto) swapKit(candidate []ItemKit) error {
	if err := p.validateKit(candidate); err != nil {
		return err
	}
	p.kit = candidate
	p.touch()
	return nil
}

func (p *Produto) validateKit(kit []ItemKit) error {
	if len(kit) == 0 {
		return nil
	}

	totalLista := decimal.Zero
	totalDesconto := decimal.Zero
	seen := make(map[uuid.UUID]bool, len(kit))
	for _, item := range kit {
		if item.ProdutoID == p.ID {
			return newError(CodeListaItemKitInvalida, "Product cannot be a kit item of itself")
		}
		if seen[item.ProdutoID] {
			return newError(CodeItemKitInvalido, "Product %s appears more than once in the kit", item.ProdutoID)
		}
		seen[item.ProdutoID] = true
		totalLista = totalLista.Add(item.Preco.PrecoLista)
		totalDesconto = totalDesconto.Add(item.Preco.PrecoDesconto)
	}

	if totalLista.LessThan(KitMinPrecoLista) {
		return newError(CodeListaItemKitInvalida, "Kit list price total %s is below the minimum %s",
			totalLista.String(), KitMinPrecoLista.String())
	}
	if totalDesconto.LessThan(KitMinPrecoDesconto) {
		return newError(CodeListaItemKitInvalida, "Kit discount price total %s is below the minimum %s",
			totalDesconto.String(), KitMinPrecoDesconto.String())
	}
	return nil
}

func (p *Produto) kitIndex(produtoID uuid.UUID) int {
	for i, item := range p.kit {
		if item.ProdutoID == produtoID {
			return i
		}
	}
	return -1
}

func (p *Produto) touch() {
	p.UpdatedAt = time.Now()
}

func copyPreco(preco *Preco) *Preco {
	if preco == nil {
		return nil
	}
	c := *preco
	return &c
}

func copyEstoque(estoque *Estoque) *Estoque {
	if estoque == nil {
		return nil
	}
	c := *estoque
	return &c
}
