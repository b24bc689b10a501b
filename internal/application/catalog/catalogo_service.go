package catalog

import (
	"context"

	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/catalogo/backend/internal/domain/shared"
	"github.com/catalogo/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogoService orchestrates product and kit operations.
// Inputs are validated by the aggregate before any storage access, and
// every successful write is announced through the event publisher.
type CatalogoService struct {
	repo      catalog.ProdutoRepository
	publisher catalog.ProdutoEventPublisher
	logger    *zap.Logger
}

// NewCatalogoService creates a new CatalogoService
func NewCatalogoService(
	repo catalog.ProdutoRepository,
	publisher catalog.ProdutoEventPublisher,
	zapLogger *zap.Logger,
) *CatalogoService {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &CatalogoService{
		repo:      repo,
		publisher: publisher,
		logger:    zapLogger,
	}
}

// CriarProduto creates a product
func (s *CatalogoService) CriarProduto(ctx context.Context, req CriarProdutoRequest) (*ProdutoResponse, error) {
	const op = "CriarProduto"
	ctx = scope(ctx, op, req.Sku)

	preco, err := req.Preco.toDomain()
	if err != nil {
		return nil, err
	}
	estoque, err := req.Estoque.toDomain()
	if err != nil {
		return nil, err
	}
	produto, err := catalog.NewProduto(req.Sku, req.Nome, req.Descr, req.URLImagem, preco, estoque)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, produto); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.publish(ctx, produto)
	resp := ToProdutoResponse(produto)
	return &resp, nil
}

// ObterProduto returns a product with its kit
func (s *CatalogoService) ObterProduto(ctx context.Context, sku string) (*ProdutoResponse, error) {
	const op = "ObterProduto"
	ctx = scope(ctx, op, sku)

	produto, err := s.load(ctx, op, sku)
	if err != nil {
		return nil, err
	}
	resp := ToProdutoResponse(produto)
	return &resp, nil
}

// AtualizarProduto replaces the descriptive fields, price and stock of a product.
// The kit is left unchanged.
func (s *CatalogoService) AtualizarProduto(ctx context.Context, sku string, req AtualizarProdutoRequest) (*ProdutoResponse, error) {
	const op = "AtualizarProduto"
	ctx = scope(ctx, op, sku)

	preco, err := req.Preco.toDomain()
	if err != nil {
		return nil, err
	}
	estoque, err := req.Estoque.toDomain()
	if err != nil {
		return nil, err
	}
	produto, err := catalog.NewProduto(sku, req.Nome, req.Descr, req.URLImagem, preco, estoque)
	if err != nil {
		return nil, err
	}
	produto.Version = req.Version

	if err := s.repo.Update(ctx, produto); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.publish(ctx, produto)
	resp := ToProdutoResponse(produto)
	return &resp, nil
}

// DeletarProduto removes a product
func (s *CatalogoService) DeletarProduto(ctx context.Context, sku string) error {
	const op = "DeletarProduto"
	ctx = scope(ctx, op, sku)

	if err := catalog.ValidarSku(sku); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sku); err != nil {
		return s.fail(ctx, op, err)
	}
	return nil
}

// InserirItensKit adds lines to the kit of a product
func (s *CatalogoService) InserirItensKit(ctx context.Context, sku string, itens []ItemKitDetalheRequest) (*ProdutoResponse, error) {
	const op = "InserirItensKit"
	ctx = scope(ctx, op, sku)

	if err := catalog.ValidarSku(sku); err != nil {
		return nil, err
	}
	detalhes := make([]catalog.ItemKitDetalhe, 0, len(itens))
	for _, item := range itens {
		detalhe, err := item.toDomain()
		if err != nil {
			return nil, err
		}
		detalhes = append(detalhes, detalhe)
	}

	produto, err := s.load(ctx, op, sku)
	if err != nil {
		return nil, err
	}
	if err := produto.InsertKitItems(detalhes); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, produto); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.publish(ctx, produto)
	resp := ToProdutoResponse(produto)
	return &resp, nil
}

// AtualizarItemKit changes quantity and price of one kit line
func (s *CatalogoService) AtualizarItemKit(ctx context.Context, sku string, produtoID uuid.UUID, req AtualizarItemKitRequest) (*ItemKitResponse, error) {
	const op = "AtualizarItemKit"
	ctx = scope(ctx, op, sku)

	if err := catalog.ValidarSku(sku); err != nil {
		return nil, err
	}
	preco, err := req.Preco.toDomain()
	if err != nil {
		return nil, err
	}
	if _, err := catalog.NewItemKitDetalhe(produtoID, req.Qtd, preco); err != nil {
		return nil, err
	}

	produto, err := s.load(ctx, op, sku)
	if err != nil {
		return nil, err
	}
	if err := produto.UpdateKitItem(produtoID, req.Qtd, preco); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, produto); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.publish(ctx, produto)
	item, err := produto.GetKitItem(produtoID)
	if err != nil {
		return nil, err
	}
	resp := ToItemKitResponse(item)
	return &resp, nil
}

// ObterItemKit returns one kit line
func (s *CatalogoService) ObterItemKit(ctx context.Context, sku string, produtoID uuid.UUID) (*ItemKitResponse, error) {
	const op = "ObterItemKit"
	ctx = scope(ctx, op, sku)

	produto, err := s.load(ctx, op, sku)
	if err != nil {
		return nil, err
	}
	item, err := produto.GetKitItem(produtoID)
	if err != nil {
		return nil, err
	}
	resp := ToItemKitResponse(item)
	return &resp, nil
}

// DeletarItemKit removes one kit line
func (s *CatalogoService) DeletarItemKit(ctx context.Context, sku string, produtoID uuid.UUID) error {
	const op = "DeletarItemKit"
	ctx = scope(ctx, op, sku)

	produto, err := s.load(ctx, op, sku)
	if err != nil {
		return err
	}
	if err := produto.RemoveKitItem(produtoID); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, produto); err != nil {
		return s.fail(ctx, op, err)
	}

	s.publish(ctx, produto)
	return nil
}

// ListarItensKit returns the stored lines of a product's kit
func (s *CatalogoService) ListarItensKit(ctx context.Context, sku string) ([]ItemKitResponse, error) {
	const op = "ListarItensKit"
	ctx = scope(ctx, op, sku)

	produto, err := s.load(ctx, op, sku)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListKitItems(ctx, produto.ID)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return ToItemKitResponses(items), nil
}

func (s *CatalogoService) load(ctx context.Context, op, sku string) (*catalog.Produto, error) {
	if err := catalog.ValidarSku(sku); err != nil {
		return nil, err
	}
	produto, err := s.repo.FindBySku(ctx, sku)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return produto, nil
}

// fail lets catalog errors through and wraps everything else
func (s *CatalogoService) fail(ctx context.Context, op string, err error) error {
	if catalog.IsKnownError(err) {
		return err
	}
	logger.For(ctx, s.logger).Error("catalog operation failed",
		zap.String("code", shared.CodeOf(err)),
		zap.Error(err),
	)
	return catalog.NewOperationFailedError(op, err)
}

// scope tags ctx with the operation and SKU so service and SQL logs carry them
func scope(ctx context.Context, op, sku string) context.Context {
	return logger.WithScope(ctx, op, sku)
}

func (s *CatalogoService) publish(ctx context.Context, produto *catalog.Produto) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, produto); err != nil {
		logger.For(ctx, s.logger).Warn("failed to publish product change",
			zap.String("produto_id", produto.ID.String()),
			zap.Int("version", produto.Version),
			zap.Error(err),
		)
	}
}
