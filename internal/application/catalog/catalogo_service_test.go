package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// MockProdutoRepository is a mock implementation of ProdutoRepository
type MockProdutoRepository struct {
	mock.Mock
}

func (m *MockProdutoRepository) Insert(ctx context.Context, produto *catalog.Produto) error {
	args := m.Called(ctx, produto)
	return args.Error(0)
}

func (m *MockProdutoRepository) FindBySku(ctx context.Context, sku string) (*catalog.Produto, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Produto), args.Error(1)
}

func (m *MockProdutoRepository) Delete(ctx context.Context, sku string) error {
	args := m.Called(ctx, sku)
	return args.Error(0)
}

func (m *MockProdutoRepository) Update(ctx context.Context, produto *catalog.Produto) error {
	args := m.Called(ctx, produto)
	return args.Error(0)
}

func (m *MockProdutoRepository) ListKitItems(ctx context.Context, kitID uuid.UUID) ([]catalog.ItemKit, error) {
	args := m.Called(ctx, kitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ItemKit), args.Error(1)
}

// MockProdutoPublisher is a mock implementation of ProdutoEventPublisher
type MockProdutoPublisher struct {
	mock.Mock
}

func (m *MockProdutoPublisher) Publish(ctx context.Context, produto *catalog.Produto) error {
	args := m.Called(ctx, produto)
	return args.Error(0)
}

func setupService() (*CatalogoService, *MockProdutoRepository, *MockProdutoPublisher, *observer.ObservedLogs) {
	repo := new(MockProdutoRepository)
	publisher := new(MockProdutoPublisher)
	core, logs := observer.New(zap.DebugLevel)
	return NewCatalogoService(repo, publisher, zap.New(core)), repo, publisher, logs
}

func validCriarRequest() CriarProdutoRequest {
	return CriarProdutoRequest{
		Sku:       "SKU123",
		Nome:      "X",
		Descr:     "Y",
		URLImagem: "http://img",
		Preco:     &PrecoRequest{PrecoLista: decimal.NewFromInt(20), PrecoDesconto: decimal.NewFromInt(15)},
		Estoque:   &EstoqueRequest{EmEstoque: 10},
	}
}

func storedProduto(t *testing.T, sku string) *catalog.Produto {
	t.Helper()
	preco, err := catalog.NewPrecoFromFloat(20, 15)
	require.NoError(t, err)
	produto, err := catalog.NewProduto(sku, "Kit", "Kit descr", "http://img", &preco, nil)
	require.NoError(t, err)
	produto.Version = 4
	produto.LoadKit([]catalog.ItemKit{})
	return produto
}

func kitLine(lista, desconto int64) ItemKitDetalheRequest {
	return ItemKitDetalheRequest{
		ProdutoID: uuid.New(),
		Qtd:       1,
		Preco:     &PrecoRequest{PrecoLista: decimal.NewFromInt(lista), PrecoDesconto: decimal.NewFromInt(desconto)},
	}
}

func TestCatalogoService_CriarProduto(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts and publishes", func(t *testing.T) {
		svc, repo, publisher, _ := setupService()
		repo.On("Insert", mock.Anything, mock.AnythingOfType("*catalog.Produto")).Return(nil)
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(p *catalog.Produto) bool {
			return p.Sku == "SKU123" && p.Version == 0
		})).Return(nil)

		resp, err := svc.CriarProduto(ctx, validCriarRequest())
		require.NoError(t, err)
		assert.Equal(t, "SKU123", resp.Sku)
		assert.Equal(t, 0, resp.Version)
		require.NotNil(t, resp.Preco)
		assert.True(t, resp.Preco.PrecoLista.Equal(decimal.NewFromInt(20)))
		assert.Empty(t, resp.Kit)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("duplicate sku propagates unchanged", func(t *testing.T) {
		svc, repo, publisher, _ := setupService()
		repo.On("Insert", mock.Anything, mock.Anything).Return(catalog.ErrProdutoJaExiste)

		_, err := svc.CriarProduto(ctx, validCriarRequest())
		assert.ErrorIs(t, err, catalog.ErrProdutoJaExiste)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("invalid input never reaches storage", func(t *testing.T) {
		svc, repo, _, _ := setupService()

		req := validCriarRequest()
		req.Sku = "AB"
		_, err := svc.CriarProduto(ctx, req)
		assert.ErrorIs(t, err, catalog.ErrSkuInvalido)

		req = validCriarRequest()
		req.Preco.PrecoDesconto = decimal.NewFromInt(30)
		_, err = svc.CriarProduto(ctx, req)
		assert.ErrorIs(t, err, catalog.ErrPrecoInvalido)

		req = validCriarRequest()
		req.Estoque.Reservado = -1
		_, err = svc.CriarProduto(ctx, req)
		assert.ErrorIs(t, err, catalog.ErrEstoqueInvalido)

		repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("unclassified failure is wrapped with the operation", func(t *testing.T) {
		svc, repo, _, logs := setupService()
		cause := errors.New("connection refused")
		repo.On("Insert", mock.Anything, mock.Anything).Return(catalog.NewStorageError("insert", cause))

		_, err := svc.CriarProduto(ctx, validCriarRequest())
		require.Error(t, err)
		assert.ErrorIs(t, err, catalog.ErrOperacaoFalhou)
		assert.ErrorIs(t, err, catalog.ErrArmazenamento)
		assert.ErrorIs(t, err, cause)
		failed := logs.FilterMessage("catalog operation failed").All()
		require.Len(t, failed, 1)
		fields := failed[0].ContextMap()
		assert.Equal(t, "CriarProduto", fields["operation"])
		assert.Equal(t, validCriarRequest().Sku, fields["sku"])
		assert.Equal(t, catalog.CodeErroArmazenamento, fields["code"])
	})

	t.Run("publish failure is logged and swallowed", func(t *testing.T) {
		svc, repo, publisher, logs := setupService()
		repo.On("Insert", mock.Anything, mock.Anything).Return(nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		resp, err := svc.CriarProduto(ctx, validCriarRequest())
		require.NoError(t, err)
		assert.NotNil(t, resp)
		assert.Equal(t, 1, logs.FilterMessage("failed to publish product change").Len())
	})
}

func TestCatalogoService_ObterProduto(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the product", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		produto := storedProduto(t, "SKU123")
		repo.On("FindBySku", mock.Anything, "SKU123").Return(produto, nil)

		resp, err := svc.ObterProduto(ctx, "SKU123")
		require.NoError(t, err)
		assert.Equal(t, produto.ID, resp.ID)
		assert.Equal(t, 4, resp.Version)
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		repo.On("FindBySku", mock.Anything, "SKU404").Return(nil, catalog.ErrProdutoNaoEncontrado)

		_, err := svc.ObterProduto(ctx, "SKU404")
		assert.ErrorIs(t, err, catalog.ErrProdutoNaoEncontrado)
	})

	t.Run("invalid sku", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		_, err := svc.ObterProduto(ctx, "x")
		assert.ErrorIs(t, err, catalog.ErrSkuInvalido)
		repo.AssertNotCalled(t, "FindBySku", mock.Anything, mock.Anything)
	})
}

func TestCatalogoService_AtualizarProduto(t *testing.T) {
	ctx := context.Background()
	req := AtualizarProdutoRequest{
		Nome:      "Novo",
		Descr:     "Nova",
		URLImagem: "https://img",
		Preco:     &PrecoRequest{PrecoLista: decimal.NewFromInt(10), PrecoDesconto: decimal.NewFromInt(9)},
		Version:   3,
	}

	t.Run("presents the caller's version without touching the kit", func(t *testing.T) {
		svc, repo, publisher, _ := setupService()
		repo.On("Update", mock.Anything, mock.MatchedBy(func(p *catalog.Produto) bool {
			return p.Sku == "SKU123" && p.Version == 3 && !p.KitLoaded() && p.Nome == "Novo"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*catalog.Produto).Version = 4
		}).Return(nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.AtualizarProduto(ctx, "SKU123", req)
		require.NoError(t, err)
		assert.Equal(t, 4, resp.Version)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("stale version", func(t *testing.T) {
		svc, repo, publisher, _ := setupService()
		repo.On("Update", mock.Anything, mock.Anything).Return(catalog.ErrProdutoDesatualizado)

		_, err := svc.AtualizarProduto(ctx, "SKU123", req)
		assert.ErrorIs(t, err, catalog.ErrProdutoDesatualizado)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("invalid details", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		bad := req
		bad.URLImagem = "img"
		_, err := svc.AtualizarProduto(ctx, "SKU123", bad)
		assert.ErrorIs(t, err, catalog.ErrProdutoInvalido)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestCatalogoService_DeletarProduto(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes without publishing", func(t *testing.T) {
		svc, repo, publisher, _ := setupService()
		repo.On("Delete", mock.Anything, "SKU123").Return(nil)

		require.NoError(t, svc.DeletarProduto(ctx, "SKU123"))
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		repo.On("Delete", mock.Anything, "SKU404").Return(catalog.ErrProdutoNaoEncontrado)
		assert.ErrorIs(t, svc.DeletarProduto(ctx, "SKU404"), catalog.ErrProdutoNaoEncontrado)
	})

	t.Run("invalid sku", func(t *testing.T) {
		svc, _, _, _ := setupService()
		assert.ErrorIs(t, svc.DeletarProduto(ctx, ""), catalog.ErrSkuInvalido)
	})
}

func TestCatalogoService_InserirItensKit(t *testing.T) {
	ctx := context.Background()

	t.Run("adds lines and persists", func(t *testing.T) {
		svc, repo, publisher, _ := setupService()
		produto := storedProduto(t, "KIT001")
		repo.On("FindBySku", mock.Anything, "KIT001").Return(produto, nil)
		repo.On("Update", mock.Anything, produto).Return(nil)
		publisher.On("Publish", mock.Anything, produto).Return(nil)

		resp, err := svc.InserirItensKit(ctx, "KIT001", []ItemKitDetalheRequest{kitLine(10, 5), kitLine(10, 5)})
		require.NoError(t, err)
		assert.Len(t, resp.Kit, 2)
		assert.Len(t, produto.Kit(), 2)
		repo.AssertExpectations(t)
	})

	t.Run("kit below minimum is rejected before update", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		repo.On("FindBySku", mock.Anything, "KIT001").Return(storedProduto(t, "KIT001"), nil)

		_, err := svc.InserirItensKit(ctx, "KIT001", []ItemKitDetalheRequest{kitLine(5, 5)})
		assert.ErrorIs(t, err, catalog.ErrListaItemKitInvalida)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("missing price is rejected before any lookup", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		line := kitLine(20, 10)
		line.Preco = nil

		_, err := svc.InserirItensKit(ctx, "KIT001", []ItemKitDetalheRequest{line})
		assert.ErrorIs(t, err, catalog.ErrPrecoInvalido)
		repo.AssertNotCalled(t, "FindBySku", mock.Anything, mock.Anything)
	})

	t.Run("duplicate association from storage", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		repo.On("FindBySku", mock.Anything, "KIT001").Return(storedProduto(t, "KIT001"), nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(catalog.ErrProdutoOuItemKitDuplicado)

		_, err := svc.InserirItensKit(ctx, "KIT001", []ItemKitDetalheRequest{kitLine(20, 10)})
		assert.ErrorIs(t, err, catalog.ErrProdutoOuItemKitDuplicado)
	})
}

func TestCatalogoService_ItemKitLines(t *testing.T) {
	ctx := context.Background()
	componente := uuid.New()

	withLine := func(t *testing.T) *catalog.Produto {
		produto := storedProduto(t, "KIT001")
		preco, err := catalog.NewPrecoFromFloat(20, 15)
		require.NoError(t, err)
		produto.LoadKit([]catalog.ItemKit{
			catalog.RestoreItemKit(uuid.New(), 2, produto.ID, componente, 1, preco),
		})
		return produto
	}

	t.Run("get line", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		repo.On("FindBySku", mock.Anything, "KIT001").Return(withLine(t), nil)

		resp, err := svc.ObterItemKit(ctx, "KIT001", componente)
		require.NoError(t, err)
		assert.Equal(t, componente, resp.ProdutoID)
		assert.Equal(t, 2, resp.Version)

		_, err = svc.ObterItemKit(ctx, "KIT001", uuid.New())
		assert.ErrorIs(t, err, catalog.ErrItemKitNaoEncontrado)
	})

	t.Run("update line", func(t *testing.T) {
		svc, repo, publisher, _ := setupService()
		produto := withLine(t)
		repo.On("FindBySku", mock.Anything, "KIT001").Return(produto, nil)
		repo.On("Update", mock.Anything, produto).Return(nil)
		publisher.On("Publish", mock.Anything, produto).Return(nil)

		resp, err := svc.AtualizarItemKit(ctx, "KIT001", componente, AtualizarItemKitRequest{
			Qtd:   3,
			Preco: &PrecoRequest{PrecoLista: decimal.NewFromInt(30), PrecoDesconto: decimal.NewFromInt(20)},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Qtd)
		publisher.AssertExpectations(t)
	})

	t.Run("update line with invalid quantity skips storage", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		_, err := svc.AtualizarItemKit(ctx, "KIT001", componente, AtualizarItemKitRequest{
			Qtd:   0,
			Preco: &PrecoRequest{PrecoLista: decimal.NewFromInt(30), PrecoDesconto: decimal.NewFromInt(20)},
		})
		assert.ErrorIs(t, err, catalog.ErrItemKitInvalido)
		repo.AssertNotCalled(t, "FindBySku", mock.Anything, mock.Anything)
	})

	t.Run("delete line clears the kit", func(t *testing.T) {
		svc, repo, publisher, _ := setupService()
		produto := withLine(t)
		repo.On("FindBySku", mock.Anything, "KIT001").Return(produto, nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(p *catalog.Produto) bool {
			return p.KitLoaded() && len(p.Kit()) == 0
		})).Return(nil)
		publisher.On("Publish", mock.Anything, produto).Return(nil)

		require.NoError(t, svc.DeletarItemKit(ctx, "KIT001", componente))
		repo.AssertExpectations(t)
	})

	t.Run("delete unknown line", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		repo.On("FindBySku", mock.Anything, "KIT001").Return(withLine(t), nil)

		err := svc.DeletarItemKit(ctx, "KIT001", uuid.New())
		assert.ErrorIs(t, err, catalog.ErrItemKitNaoEncontrado)
	})

	t.Run("list lines", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		produto := withLine(t)
		repo.On("FindBySku", mock.Anything, "KIT001").Return(produto, nil)
		repo.On("ListKitItems", mock.Anything, produto.ID).Return(produto.Kit(), nil)

		resp, err := svc.ListarItensKit(ctx, "KIT001")
		require.NoError(t, err)
		require.Len(t, resp, 1)
		assert.Equal(t, componente, resp[0].ProdutoID)
	})

	t.Run("list lines storage failure", func(t *testing.T) {
		svc, repo, _, _ := setupService()
		produto := withLine(t)
		repo.On("FindBySku", mock.Anything, "KIT001").Return(produto, nil)
		repo.On("ListKitItems", mock.Anything, produto.ID).Return(nil, errors.New("timeout"))

		_, err := svc.ListarItensKit(ctx, "KIT001")
		assert.ErrorIs(t, err, catalog.ErrOperacaoFalhou)
	})
}
