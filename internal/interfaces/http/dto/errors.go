package dto

import (
	"net/http"

	"github.com/catalogo/backend/internal/domain/catalog"
)

// Transport error codes, raised before a request reaches the catalog
const (
	ErrCodeInternal       = "ERR_INTERNAL"
	ErrCodeValidation     = "ERR_VALIDATION"
	ErrCodeBadRequest     = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON    = "ERR_INVALID_JSON"
	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeRequestTooBig  = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnavailable    = "ERR_SERVICE_UNAVAILABLE"
	ErrCodeRequestTimeout = "ERR_REQUEST_TIMEOUT"
	ErrCodeRateLimited    = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Catalog validation kinds are 400, lookups 404, and write conflicts 409.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeInvalidJSON:    http.StatusBadRequest,
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeRequestTooBig:  http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:    http.StatusServiceUnavailable,
	ErrCodeRequestTimeout: http.StatusGatewayTimeout,
	ErrCodeRateLimited:    http.StatusTooManyRequests,

	catalog.CodeSkuInvalido:          http.StatusBadRequest,
	catalog.CodeProdutoInvalido:      http.StatusBadRequest,
	catalog.CodePrecoInvalido:        http.StatusBadRequest,
	catalog.CodeEstoqueInvalido:      http.StatusBadRequest,
	catalog.CodeItemKitInvalido:      http.StatusBadRequest,
	catalog.CodeListaItemKitInvalida: http.StatusBadRequest,

	catalog.CodeProdutoNaoEncontrado: http.StatusNotFound,
	catalog.CodeItemKitNaoEncontrado: http.StatusNotFound,

	catalog.CodeProdutoJaExiste:           http.StatusConflict,
	catalog.CodeProdutoOuItemKitDuplicado: http.StatusConflict,
	catalog.CodeProdutoDesatualizado:      http.StatusConflict,

	catalog.CodeErroArmazenamento: http.StatusInternalServerError,
	catalog.CodeOperacaoFalhou:    http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
