// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"belgeno/internal/core/apperror"
	"belgeno/internal/core/numerator"
	"belgeno/internal/core/tenant"
	"belgeno/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindOptionalJSON binds the body when one was sent.
func (h *BaseHandler) BindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.BindJSON(c, obj)
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// CompanyID returns the company scope set by middleware.CompanyScope.
func (h *BaseHandler) CompanyID(c *gin.Context) (string, bool) {
	companyID, err := tenant.RequireCompanyID(c.Request.Context())
	if err != nil {
		h.Error(c, apperror.NewValidation("company is required"))
		return "", false
	}
	return companyID, true
}

// Kind parses the :kind path parameter.
func (h *BaseHandler) Kind(c *gin.Context) (numerator.DocumentKind, bool) {
	raw := c.Param("kind")
	kind, ok := numerator.ParseDocumentKind(raw)
	if !ok {
		h.Error(c, apperror.NewNotFound("document kind", raw))
		return "", false
	}
	return kind, true
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
