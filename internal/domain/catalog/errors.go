package catalog

import (
	"fmt"

	"github.com/catalogo/backend/internal/domain/shared"
)

// Error codes of the catalog taxonomy
const (
	CodeSkuInvalido               = "SKU_INVALIDO"
	CodeProdutoInvalido           = "PRODUTO_INVALIDO"
	CodePrecoInvalido             = "PRECO_INVALIDO"
	CodeEstoqueInvalido           = "ESTOQUE_INVALIDO"
	CodeItemKitInvalido           = "ITEM_KIT_INVALIDO"
	CodeListaItemKitInvalida      = "LISTA_ITEM_KIT_INVALIDA"
	CodeProdutoNaoEncontrado      = "PRODUTO_NAO_ENCONTRADO"
	CodeItemKitNaoEncontrado      = "ITEM_KIT_NAO_ENCONTRADO"
	CodeProdutoJaExiste           = "PRODUTO_JA_EXISTE"
	CodeProdutoOuItemKitDuplicado = "PRODUTO_OU_ITEM_KIT_DUPLICADO"
	CodeProdutoDesatualizado      = "PRODUTO_DESATUALIZADO"
	CodeErroArmazenamento         = "ERRO_ARMAZENAMENTO"
	CodeOperacaoFalhou            = "OPERACAO_FALHOU"
)

// Sentinel errors, compared by code through errors.Is
var (
	ErrSkuInvalido               = shared.NewDomainError(CodeSkuInvalido, "Invalid SKU")
	ErrProdutoInvalido           = shared.NewDomainError(CodeProdutoInvalido, "Invalid product")
	ErrPrecoInvalido             = shared.NewDomainError(CodePrecoInvalido, "Invalid price")
	ErrEstoqueInvalido           = shared.NewDomainError(CodeEstoqueInvalido, "Invalid stock")
	ErrItemKitInvalido           = shared.NewDomainError(CodeItemKitInvalido, "Invalid kit item")
	ErrListaItemKitInvalida      = shared.NewDomainError(CodeListaItemKitInvalida, "Invalid kit item list")
	ErrProdutoNaoEncontrado      = shared.NewDomainError(CodeProdutoNaoEncontrado, "Product not found")
	ErrItemKitNaoEncontrado      = shared.NewDomainError(CodeItemKitNaoEncontrado, "Kit item not found")
	ErrProdutoJaExiste           = shared.NewDomainError(CodeProdutoJaExiste, "Product already exists")
	ErrProdutoOuItemKitDuplicado = shared.NewDomainError(CodeProdutoOuItemKitDuplicado, "Duplicated product or kit item")
	ErrProdutoDesatualizado      = shared.NewDomainError(CodeProdutoDesatualizado, "Product was modified by another request")
	ErrArmazenamento             = shared.NewDomainError(CodeErroArmazenamento, "Storage failure")
	ErrOperacaoFalhou            = shared.NewDomainError(CodeOperacaoFalhou, "Operation failed")
)

// knownCodes are the kinds that cross the service boundary unchanged
var knownCodes = map[string]bool{
	CodeSkuInvalido:               true,
	CodeProdutoInvalido:           true,
	CodePrecoInvalido:             true,
	CodeEstoqueInvalido:           true,
	CodeItemKitInvalido:           true,
	CodeListaItemKitInvalida:      true,
	CodeProdutoNaoEncontrado:      true,
	CodeItemKitNaoEncontrado:      true,
	CodeProdutoJaExiste:           true,
	CodeProdutoOuItemKitDuplicado: true,
	CodeProdutoDesatualizado:      true,
}

// IsKnownError reports whether err is one of the catalog's recognized error kinds.
// Generic storage and operation failures are not recognized kinds.
func IsKnownError(err error) bool {
	return knownCodes[shared.CodeOf(err)]
}

func newError(code, format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(code, fmt.Sprintf(format, args...))
}

// NewStorageError wraps an unclassified persistence failure, naming the failed operation
func NewStorageError(op string, cause error) *shared.DomainError {
	return shared.WrapDomainError(CodeErroArmazenamento, op, "storage failure in "+op, cause)
}

// NewOperationFailedError wraps an unrecognized failure of a catalog operation
func NewOperationFailedError(op string, cause error) *shared.DomainError {
	return shared.WrapDomainError(CodeOperacaoFalhou, op, op+" failed", cause)
}
