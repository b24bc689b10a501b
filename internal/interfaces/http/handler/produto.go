package handler

import (
	catalogapp "github.com/catalogo/backend/internal/application/catalog"
	"github.com/catalogo/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProdutoHandler handles product and kit endpoints
type ProdutoHandler struct {
	BaseHandler
	service *catalogapp.CatalogoService
}

// NewProdutoHandler creates a new ProdutoHandler
func NewProdutoHandler(service *catalogapp.CatalogoService) *ProdutoHandler {
	return &ProdutoHandler{service: service}
}

// Create handles POST /produto
func (h *ProdutoHandler) Create(c *gin.Context) {
	var req catalogapp.CriarProdutoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	produto, err := h.service.CriarProduto(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, produto)
}

// Get handles GET /produto/:sku
func (h *ProdutoHandler) Get(c *gin.Context) {
	var uri dto.SkuRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	produto, err := h.service.ObterProduto(c.Request.Context(), uri.Sku)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, produto)
}

// Update handles PUT /produto/:sku
func (h *ProdutoHandler) Update(c *gin.Context) {
	var uri dto.SkuRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var req catalogapp.AtualizarProdutoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	produto, err := h.service.AtualizarProduto(c.Request.Context(), uri.Sku, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, produto)
}

// Delete handles DELETE /produto/:sku
func (h *ProdutoHandler) Delete(c *gin.Context) {
	var uri dto.SkuRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.service.DeletarProduto(c.Request.Context(), uri.Sku); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListKit handles GET /produto/:sku/item-kit
func (h *ProdutoHandler) ListKit(c *gin.Context) {
	var uri dto.SkuRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	itens, err := h.service.ListarItensKit(c.Request.Context(), uri.Sku)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, itens)
}

// InsertKitItems handles POST /produto/:sku/item-kit
func (h *ProdutoHandler) InsertKitItems(c *gin.Context) {
	var uri dto.SkuRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var req catalogapp.InserirItensKitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	produto, err := h.service.InserirItensKit(c.Request.Context(), uri.Sku, req.Itens)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, produto)
}

// GetKitItem handles GET /produto/:sku/item-kit/:produtoId
func (h *ProdutoHandler) GetKitItem(c *gin.Context) {
	sku, produtoID, ok := h.bindItemKit(c)
	if !ok {
		return
	}

	item, err := h.service.ObterItemKit(c.Request.Context(), sku, produtoID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// UpdateKitItem handles PUT /produto/:sku/item-kit/:produtoId
func (h *ProdutoHandler) UpdateKitItem(c *gin.Context) {
	sku, produtoID, ok := h.bindItemKit(c)
	if !ok {
		return
	}
	var req catalogapp.AtualizarItemKitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	item, err := h.service.AtualizarItemKit(c.Request.Context(), sku, produtoID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// DeleteKitItem handles DELETE /produto/:sku/item-kit/:produtoId
func (h *ProdutoHandler) DeleteKitItem(c *gin.Context) {
	sku, produtoID, ok := h.bindItemKit(c)
	if !ok {
		return
	}

	if err := h.service.DeletarItemKit(c.Request.Context(), sku, produtoID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *ProdutoHandler) bindItemKit(c *gin.Context) (string, uuid.UUID, bool) {
	var uri dto.ItemKitRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return "", uuid.Nil, false
	}
	// binding already checked the uuid format
	return uri.Sku, uuid.MustParse(uri.ProdutoID), true
}
