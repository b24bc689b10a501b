package router

import (
	"net/http"

	"github.com/catalogo/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// NewProdutoRoutes maps the product and kit endpoints onto h, behind mw
func NewProdutoRoutes(h *handler.ProdutoHandler, mw ...gin.HandlerFunc) Resource {
	return Resource{Path: "/produto", Middleware: mw}.
		Handle(http.MethodPost, "", h.Create).
		Handle(http.MethodGet, "/:sku", h.Get).
		Handle(http.MethodPut, "/:sku", h.Update).
		Handle(http.MethodDelete, "/:sku", h.Delete).
		Handle(http.MethodGet, "/:sku/item-kit", h.ListKit).
		Handle(http.MethodPost, "/:sku/item-kit", h.InsertKitItems).
		Handle(http.MethodGet, "/:sku/item-kit/:produtoId", h.GetKitItem).
		Handle(http.MethodPut, "/:sku/item-kit/:produtoId", h.UpdateKitItem).
		Handle(http.MethodDelete, "/:sku/item-kit/:produtoId", h.DeleteKitItem)
}
