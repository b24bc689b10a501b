package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	catalogapp "github.com/catalogo/backend/internal/application/catalog"
	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/catalogo/backend/internal/interfaces/http/dto"
	"github.com/catalogo/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProdutoRepository is a mock implementation of catalog.ProdutoRepository
type MockProdutoRepository struct {
	mock.Mock
}

func (m *MockProdutoRepository) Insert(ctx context.Context, produto *catalog.Produto) error {
	return m.Called(ctx, produto).Error(0)
}

func (m *MockProdutoRepository) FindBySku(ctx context.Context, sku string) (*catalog.Produto, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Produto), args.Error(1)
}

func (m *MockProdutoRepository) Delete(ctx context.Context, sku string) error {
	return m.Called(ctx, sku).Error(0)
}

func (m *MockProdutoRepository) Update(ctx context.Context, produto *catalog.Produto) error {
	return m.Called(ctx, produto).Error(0)
}

func (m *MockProdutoRepository) ListKitItems(ctx context.Context, kitID uuid.UUID) ([]catalog.ItemKit, error) {
	args := m.Called(ctx, kitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ItemKit), args.Error(1)
}

var fixedTime = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

func setupProdutoRouter() (*gin.Engine, *MockProdutoRepository) {
	middleware.SetupValidator()
	repo := new(MockProdutoRepository)
	h := NewProdutoHandler(catalogapp.NewCatalogoService(repo, nil, nil))

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1")
	api.POST("/produto", h.Create)
	api.GET("/produto/:sku", h.Get)
	api.PUT("/produto/:sku", h.Update)
	api.DELETE("/produto/:sku", h.Delete)
	api.GET("/produto/:sku/item-kit", h.ListKit)
	api.POST("/produto/:sku/item-kit", h.InsertKitItems)
	api.GET("/produto/:sku/item-kit/:produtoId", h.GetKitItem)
	api.PUT("/produto/:sku/item-kit/:produtoId", h.UpdateKitItem)
	api.DELETE("/produto/:sku/item-kit/:produtoId", h.DeleteKitItem)
	return r, repo
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func storedProduto(t *testing.T, kit ...catalog.ItemKit) *catalog.Produto {
	t.Helper()
	preco, err := catalog.NewPreco(decimal.NewFromInt(20), decimal.NewFromInt(15))
	require.NoError(t, err)
	produto := catalog.RestoreProduto(uuid.New(), 3, "SKU123", "Caneta", "Azul", "http://img/1",
		&preco, nil, fixedTime, fixedTime)
	produto.LoadKit(kit)
	return produto
}

func storedLine(kitID uuid.UUID, lista, desconto int64) catalog.ItemKit {
	preco := catalog.RestorePreco(uuid.New(), decimal.NewFromInt(lista), decimal.NewFromInt(desconto))
	return catalog.RestoreItemKit(uuid.New(), 1, kitID, uuid.New(), 2, preco)
}

func criarBody() map[string]any {
	return map[string]any{
		"sku":        "SKU123",
		"nome":       "Caneta",
		"descr":      "Azul",
		"url_imagem": "http://img/1",
		"preco":      map[string]any{"preco_lista": "20", "preco_desconto": "15"},
		"estoque":    map[string]any{"em_estoque": 10, "reservado": 2},
	}
}

func TestProdutoHandler_Create(t *testing.T) {
	t.Run("creates the product", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		repo.On("Insert", mock.Anything, mock.AnythingOfType("*catalog.Produto")).Return(nil)

		w, env := doRequest(t, r, http.MethodPost, "/api/v1/produto", criarBody())

		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, env.Success)
		var produto catalogapp.ProdutoResponse
		require.NoError(t, json.Unmarshal(env.Data, &produto))
		assert.Equal(t, "SKU123", produto.Sku)
		assert.Equal(t, 0, produto.Version)
		require.NotNil(t, produto.Estoque)
		assert.Equal(t, 8, produto.Estoque.Disponivel)
		assert.True(t, decimal.NewFromInt(15).Equal(produto.Preco.PrecoDesconto))
		repo.AssertExpectations(t)
	})

	t.Run("rejects a missing field", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		body := criarBody()
		delete(body, "nome")

		w, env := doRequest(t, r, http.MethodPost, "/api/v1/produto", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "nome", env.Error.Details[0].Field)
		assert.NotEmpty(t, env.Error.RequestID)
		repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		r, _ := setupProdutoRouter()

		w, env := doRequest(t, r, http.MethodPost, "/api/v1/produto", `{"sku":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, env.Error.Code)
	})

	t.Run("rejects a short SKU", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		body := criarBody()
		body["sku"] = "AB"

		w, env := doRequest(t, r, http.MethodPost, "/api/v1/produto", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, catalog.CodeSkuInvalido, env.Error.Code)
		repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("rejects a discount above the list price", func(t *testing.T) {
		r, _ := setupProdutoRouter()
		body := criarBody()
		body["preco"] = map[string]any{"preco_lista": "10", "preco_desconto": "12"}

		w, env := doRequest(t, r, http.MethodPost, "/api/v1/produto", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, catalog.CodePrecoInvalido, env.Error.Code)
	})

	t.Run("conflicts on a taken SKU", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		repo.On("Insert", mock.Anything, mock.Anything).Return(catalog.ErrProdutoJaExiste)

		w, env := doRequest(t, r, http.MethodPost, "/api/v1/produto", criarBody())

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, catalog.CodeProdutoJaExiste, env.Error.Code)
	})

	t.Run("hides storage failures", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		repo.On("Insert", mock.Anything, mock.Anything).
			Return(catalog.NewStorageError("Insert", errors.New("dial tcp: connection refused")))

		w, env := doRequest(t, r, http.MethodPost, "/api/v1/produto", criarBody())

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, catalog.CodeOperacaoFalhou, env.Error.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestProdutoHandler_Get(t *testing.T) {
	t.Run("returns the product", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		repo.On("FindBySku", mock.Anything, "SKU123").Return(storedProduto(t), nil)

		w, env := doRequest(t, r, http.MethodGet, "/api/v1/produto/SKU123", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var produto catalogapp.ProdutoResponse
		require.NoError(t, json.Unmarshal(env.Data, &produto))
		assert.Equal(t, 3, produto.Version)
		assert.Empty(t, produto.Kit)
	})

	t.Run("404 when absent", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		repo.On("FindBySku", mock.Anything, "SKU404").Return(nil, catalog.ErrProdutoNaoEncontrado)

		w, env := doRequest(t, r, http.MethodGet, "/api/v1/produto/SKU404", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, catalog.CodeProdutoNaoEncontrado, env.Error.Code)
	})
}

func TestProdutoHandler_Update(t *testing.T) {
	body := map[string]any{
		"nome":       "Caneta",
		"descr":      "Vermelha",
		"url_imagem": "http://img/2",
		"version":    3,
	}

	t.Run("updates the product", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		repo.On("Update", mock.Anything, mock.MatchedBy(func(p *catalog.Produto) bool {
			return p.Sku == "SKU123" && p.Version == 3 && p.Descr == "Vermelha"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*catalog.Produto).Version = 4
		}).Return(nil)

		w, env := doRequest(t, r, http.MethodPut, "/api/v1/produto/SKU123", body)

		require.Equal(t, http.StatusOK, w.Code)
		var produto catalogapp.ProdutoResponse
		require.NoError(t, json.Unmarshal(env.Data, &produto))
		assert.Equal(t, 4, produto.Version)
		repo.AssertExpectations(t)
	})

	t.Run("409 when stale", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		repo.On("Update", mock.Anything, mock.Anything).Return(catalog.ErrProdutoDesatualizado)

		w, env := doRequest(t, r, http.MethodPut, "/api/v1/produto/SKU123", body)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, catalog.CodeProdutoDesatualizado, env.Error.Code)
	})

	t.Run("rejects a negative version", func(t *testing.T) {
		r, _ := setupProdutoRouter()
		bad := map[string]any{"nome": "a", "descr": "b", "url_imagem": "c", "version": -1}

		w, env := doRequest(t, r, http.MethodPut, "/api/v1/produto/SKU123", bad)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	})
}

func TestProdutoHandler_Delete(t *testing.T) {
	t.Run("204 on success", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		repo.On("Delete", mock.Anything, "SKU123").Return(nil)

		w, _ := doRequest(t, r, http.MethodDelete, "/api/v1/produto/SKU123", nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("404 when absent", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		repo.On("Delete", mock.Anything, "SKU404").Return(catalog.ErrProdutoNaoEncontrado)

		w, _ := doRequest(t, r, http.MethodDelete, "/api/v1/produto/SKU404", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProdutoHandler_Kit(t *testing.T) {
	t.Run("inserts kit lines", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		produto := storedProduto(t)
		repo.On("FindBySku", mock.Anything, "SKU123").Return(produto, nil)
		repo.On("Update", mock.Anything, produto).Return(nil)

		body := map[string]any{"itens": []map[string]any{{
			"produto_id": uuid.New().String(),
			"qtd":        2,
			"preco":      map[string]any{"preco_lista": "20", "preco_desconto": "12"},
		}}}
		w, env := doRequest(t, r, http.MethodPost, "/api/v1/produto/SKU123/item-kit", body)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp catalogapp.ProdutoResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		require.Len(t, resp.Kit, 1)
		assert.Equal(t, 2, resp.Kit[0].Qtd)
	})

	t.Run("rejects a kit below the minimum total", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		repo.On("FindBySku", mock.Anything, "SKU123").Return(storedProduto(t), nil)

		body := map[string]any{"itens": []map[string]any{{
			"produto_id": uuid.New().String(),
			"qtd":        1,
			"preco":      map[string]any{"preco_lista": "5", "preco_desconto": "4"},
		}}}
		w, env := doRequest(t, r, http.MethodPost, "/api/v1/produto/SKU123/item-kit", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, catalog.CodeListaItemKitInvalida, env.Error.Code)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("lists stored lines", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		produto := storedProduto(t)
		line := storedLine(produto.ID, 20, 15)
		repo.On("FindBySku", mock.Anything, "SKU123").Return(produto, nil)
		repo.On("ListKitItems", mock.Anything, produto.ID).Return([]catalog.ItemKit{line}, nil)

		w, env := doRequest(t, r, http.MethodGet, "/api/v1/produto/SKU123/item-kit", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var itens []catalogapp.ItemKitResponse
		require.NoError(t, json.Unmarshal(env.Data, &itens))
		require.Len(t, itens, 1)
		assert.Equal(t, line.ProdutoID, itens[0].ProdutoID)
	})

	t.Run("gets one line", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		produto := storedProduto(t)
		line := storedLine(produto.ID, 20, 15)
		produto.LoadKit([]catalog.ItemKit{line})
		repo.On("FindBySku", mock.Anything, "SKU123").Return(produto, nil)

		w, env := doRequest(t, r, http.MethodGet, "/api/v1/produto/SKU123/item-kit/"+line.ProdutoID.String(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		var item catalogapp.ItemKitResponse
		require.NoError(t, json.Unmarshal(env.Data, &item))
		assert.Equal(t, line.ID, item.ID)
	})

	t.Run("404 for an unknown line", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		repo.On("FindBySku", mock.Anything, "SKU123").Return(storedProduto(t), nil)

		w, env := doRequest(t, r, http.MethodGet, "/api/v1/produto/SKU123/item-kit/"+uuid.NewString(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, catalog.CodeItemKitNaoEncontrado, env.Error.Code)
	})

	t.Run("400 for a malformed product id", func(t *testing.T) {
		r, repo := setupProdutoRouter()

		w, env := doRequest(t, r, http.MethodGet, "/api/v1/produto/SKU123/item-kit/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		repo.AssertNotCalled(t, "FindBySku", mock.Anything, mock.Anything)
	})

	t.Run("updates one line", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		produto := storedProduto(t)
		line := storedLine(produto.ID, 20, 15)
		produto.LoadKit([]catalog.ItemKit{line})
		repo.On("FindBySku", mock.Anything, "SKU123").Return(produto, nil)
		repo.On("Update", mock.Anything, produto).Return(nil)

		body := map[string]any{"qtd": 5, "preco": map[string]any{"preco_lista": "30", "preco_desconto": "25"}}
		w, env := doRequest(t, r, http.MethodPut, "/api/v1/produto/SKU123/item-kit/"+line.ProdutoID.String(), body)

		require.Equal(t, http.StatusOK, w.Code)
		var item catalogapp.ItemKitResponse
		require.NoError(t, json.Unmarshal(env.Data, &item))
		assert.Equal(t, 5, item.Qtd)
		assert.Equal(t, line.ID, item.ID)
	})

	t.Run("deletes the last line", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		produto := storedProduto(t)
		line := storedLine(produto.ID, 20, 15)
		produto.LoadKit([]catalog.ItemKit{line})
		repo.On("FindBySku", mock.Anything, "SKU123").Return(produto, nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(p *catalog.Produto) bool {
			return p.KitLoaded() && !p.IsKit()
		})).Return(nil)

		w, _ := doRequest(t, r, http.MethodDelete, "/api/v1/produto/SKU123/item-kit/"+line.ProdutoID.String(), nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		repo.AssertExpectations(t)
	})

	t.Run("409 on a concurrent kit change", func(t *testing.T) {
		r, repo := setupProdutoRouter()
		produto := storedProduto(t)
		line := storedLine(produto.ID, 20, 15)
		produto.LoadKit([]catalog.ItemKit{line})
		repo.On("FindBySku", mock.Anything, "SKU123").Return(produto, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(catalog.ErrProdutoOuItemKitDuplicado)

		body := map[string]any{"qtd": 1, "preco": map[string]any{"preco_lista": "20", "preco_desconto": "15"}}
		w, env := doRequest(t, r, http.MethodPut, "/api/v1/produto/SKU123/item-kit/"+line.ProdutoID.String(), body)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, catalog.CodeProdutoOuItemKitDuplicado, env.Error.Code)
	})
}
