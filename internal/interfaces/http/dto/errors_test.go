package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeRequestTooBig, http.StatusRequestEntityTooLarge},
		{catalog.CodeSkuInvalido, http.StatusBadRequest},
		{catalog.CodeProdutoInvalido, http.StatusBadRequest},
		{catalog.CodePrecoInvalido, http.StatusBadRequest},
		{catalog.CodeEstoqueInvalido, http.StatusBadRequest},
		{catalog.CodeItemKitInvalido, http.StatusBadRequest},
		{catalog.CodeListaItemKitInvalida, http.StatusBadRequest},
		{catalog.CodeProdutoNaoEncontrado, http.StatusNotFound},
		{catalog.CodeItemKitNaoEncontrado, http.StatusNotFound},
		{catalog.CodeProdutoJaExiste, http.StatusConflict},
		{catalog.CodeProdutoOuItemKitDuplicado, http.StatusConflict},
		{catalog.CodeProdutoDesatualizado, http.StatusConflict},
		{catalog.CodeErroArmazenamento, http.StatusInternalServerError},
		{catalog.CodeOperacaoFalhou, http.StatusInternalServerError},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(catalog.CodeProdutoNaoEncontrado, "Product not found", "req-123")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, catalog.CodeProdutoNaoEncontrado, resp.Error.Code)
	assert.Equal(t, "Product not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "sku", Message: "This field is required"},
		{Field: "nome", Message: "Must be at most 255 characters"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-456", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-456", resp.Error.RequestID)
	assert.Equal(t, details, resp.Error.Details)
}

func TestErrorResponseJSON(t *testing.T) {
	data, err := json.Marshal(NewErrorResponse(catalog.CodeProdutoDesatualizado, "stale"))
	require.NoError(t, err)

	assert.JSONEq(t, `{"success":false,"error":{"code":"PRODUTO_DESATUALIZADO","message":"stale"}}`, string(data))
}

func TestSuccessResponseJSON(t *testing.T) {
	data, err := json.Marshal(NewSuccessResponse(map[string]string{"sku": "SKU123"}))
	require.NoError(t, err)

	assert.JSONEq(t, `{"success":true,"data":{"sku":"SKU123"}}`, string(data))
}
