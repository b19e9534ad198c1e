package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"scandex/internal/domain"
	"scandex/internal/schema"
	"scandex/internal/service"
)

// SchemaHandler handles index schema library endpoints.
type SchemaHandler struct {
	schemaService service.SchemaService
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(schemaService service.SchemaService) *SchemaHandler {
	return &SchemaHandler{schemaService: schemaService}
}

// List handles GET /api/v1/schemas
func (h *SchemaHandler) List(c *gin.Context) {
	infos, err := h.schemaService.List(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, infos)
}

// Get handles GET /api/v1/schemas/:name
func (h *SchemaHandler) Get(c *gin.Context) {
	s, err := h.schemaService.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, s)
}

// Create handles POST /api/v1/schemas
// The body is the full schema document; creating over an existing name is a conflict.
func (h *SchemaHandler) Create(c *gin.Context) {
	var s schema.IndexSchema
	if err := c.ShouldBindJSON(&s); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if s.Name == "" {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "schema name is required")
		return
	}

	if _, err := h.schemaService.Get(c.Request.Context(), s.Name); err == nil {
		HandleError(c, fmt.Errorf("%q: %w", s.Name, domain.ErrDuplicateSchema))
		return
	} else if !errors.Is(err, domain.ErrSchemaNotFound) {
		HandleError(c, err)
		return
	}

	if err := h.schemaService.Save(c.Request.Context(), &s); err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, &s)
}

// Save handles PUT /api/v1/schemas/:name
// The body is the full schema document; the path name wins over the body name.
func (h *SchemaHandler) Save(c *gin.Context) {
	var s schema.IndexSchema
	if err := c.ShouldBindJSON(&s); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	s.Name = c.Param("name")

	if err := h.schemaService.Save(c.Request.Context(), &s); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, &s)
}

// Delete handles DELETE /api/v1/schemas/:name
func (h *SchemaHandler) Delete(c *gin.Context) {
	if err := h.schemaService.Delete(c.Request.Context(), c.Param("name")); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": c.Param("name")})
}

// DuplicateRequest is the body for POST /api/v1/schemas/:name/duplicate.
type DuplicateRequest struct {
	NewName string `json:"new_name" binding:"required"`
}

// Duplicate handles POST /api/v1/schemas/:name/duplicate
func (h *SchemaHandler) Duplicate(c *gin.Context) {
	var req DuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	copied, err := h.schemaService.Duplicate(c.Request.Context(), c.Param("name"), req.NewName)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, copied)
}

// Refresh handles POST /api/v1/schemas/:name/refresh
// It reloads the schema from disk, discarding the cached copy.
func (h *SchemaHandler) Refresh(c *gin.Context) {
	s, err := h.schemaService.Refresh(c.Request.Context(), c.Param("name"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, s)
}
