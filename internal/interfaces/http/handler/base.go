package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/catalogo/backend/internal/domain/shared"
	"github.com/catalogo/backend/internal/infrastructure/telemetry"
	"github.com/catalogo/backend/internal/interfaces/http/dto"
	"github.com/catalogo/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

const unexpectedErrorMessage = "An unexpected error occurred"

// BaseHandler writes the response envelope shared by every endpoint.
type BaseHandler struct{}

// requestID prefers the ID assigned by the RequestID middleware over the raw header.
func requestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success answers 200 with data
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created answers 201 with data
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent answers 204
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error answers with an error envelope tagged with the request and trace IDs.
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	resp := dto.NewErrorResponseWithRequestID(code, message, requestID(c))
	if c.Request != nil {
		resp.Error.TraceID = telemetry.TraceID(c.Request.Context())
	}
	c.JSON(status, resp)
}

// BadRequest answers 400 with ERR_BAD_REQUEST
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// BindError answers a request whose path or body failed to bind
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError answers with the status mapped from the catalog error code,
// or 504 when the request deadline expired underneath it. The error is attached to the gin context for the access log; the client
// only sees the message of known catalog errors.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	if errors.Is(err, context.DeadlineExceeded) {
		h.Error(c, http.StatusGatewayTimeout, dto.ErrCodeRequestTimeout, "Request timed out")
		return
	}

	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, unexpectedErrorMessage)
		return
	}

	message := domainErr.Message
	if !catalog.IsKnownError(domainErr) {
		message = unexpectedErrorMessage
	}
	h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, message)
}
