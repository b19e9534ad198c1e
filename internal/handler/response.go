package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"scandex/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrSchemaNotFound):
		return http.StatusNotFound, "SCHEMA_NOT_FOUND", "schema not found"
	case errors.Is(err, domain.ErrBatchNotFound):
		return http.StatusNotFound, "BATCH_NOT_FOUND", "batch not found"
	case errors.Is(err, domain.ErrAssignmentNotFound):
		return http.StatusNotFound, "ASSIGNMENT_NOT_FOUND", "assignment not found"
	case errors.Is(err, domain.ErrFileNotFound):
		return http.StatusNotFound, "FILE_NOT_FOUND", "scanned file not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrInvalidSchema):
		return http.StatusBadRequest, "INVALID_SCHEMA", err.Error()
	case errors.Is(err, domain.ErrDuplicateField):
		return http.StatusConflict, "DUPLICATE_FIELD", "field name already exists in schema"
	case errors.Is(err, domain.ErrDuplicateSchema):
		return http.StatusConflict, "DUPLICATE_SCHEMA", "schema name already exists"
	case errors.Is(err, domain.ErrPageConflict):
		return http.StatusConflict, "PAGE_CONFLICT", err.Error()
	case errors.Is(err, domain.ErrFileConflict):
		return http.StatusConflict, "FILE_CONFLICT", "output file already exists"
	case errors.Is(err, domain.ErrInvalidPageNumber):
		return http.StatusBadRequest, "INVALID_PAGE_NUMBER", err.Error()
	case errors.Is(err, domain.ErrBatchInvalid):
		return http.StatusUnprocessableEntity, "BATCH_INVALID", err.Error()
	case errors.Is(err, domain.ErrProcessingActive):
		return http.StatusConflict, "PROCESSING_ACTIVE", "batch processing already in progress"
	case errors.Is(err, domain.ErrNotProcessing):
		return http.StatusConflict, "NOT_PROCESSING", "no processing run is active"
	case errors.Is(err, domain.ErrUnsupportedFile):
		return http.StatusBadRequest, "UNSUPPORTED_FILE", "unsupported file type; only PDF is accepted"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
