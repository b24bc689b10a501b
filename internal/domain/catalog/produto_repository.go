package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProdutoRepository persists the Produto aggregate
type ProdutoRepository interface {
	// Insert stores a new product with its price, stock and kit lines.
	// Returns ErrProdutoJaExiste when the SKU is taken.
	Insert(ctx context.Context, produto *Produto) error

	// FindBySku loads a product with its kit.
	// Returns ErrProdutoNaoEncontrado when absent.
	FindBySku(ctx context.Context, sku string) (*Produto, error)

	// Delete removes a product, its kit lines, price and stock.
	// Returns ErrProdutoNaoEncontrado when absent.
	Delete(ctx context.Context, sku string) error

	// Update reconciles the stored product with the aggregate in one transaction.
	// The aggregate must carry the version it was read at; on success its
	// version and kit are refreshed from storage.
	// Returns ErrProdutoNaoEncontrado, ErrProdutoDesatualizado or ErrProdutoOuItemKitDuplicado.
	Update(ctx context.Context, produto *Produto) error

	// ListKitItems returns the stored lines of the kit identified by kitID
	ListKitItems(ctx context.Context, kitID uuid.UUID) ([]ItemKit, error)
}

// ProdutoEventPublisher notifies other services about product changes.
// Publication is best effort; callers log failures and carry on.
type ProdutoEventPublisher interface {
	Publish(ctx context.Context, produto *Produto) error
}
