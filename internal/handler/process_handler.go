package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scandex/internal/service"
)

// ProcessHandler handles batch processing endpoints.
type ProcessHandler struct {
	processService service.ProcessService
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(processService service.ProcessService) *ProcessHandler {
	return &ProcessHandler{processService: processService}
}

// Start handles POST /api/v1/batches/:id/process
// The run continues in the background; poll Status for progress.
func (h *ProcessHandler) Start(c *gin.Context) {
	var input service.StartProcessingInput
	if err := c.ShouldBindJSON(&input); err != nil && c.Request.ContentLength > 0 {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.processService.Start(c.Request.Context(), c.Param("id"), input); err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: gin.H{"started": true}})
}

// Cancel handles POST /api/v1/process/cancel
func (h *ProcessHandler) Cancel(c *gin.Context) {
	if err := h.processService.Cancel(c.Request.Context()); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"cancelling": true})
}

// Status handles GET /api/v1/process/status
func (h *ProcessHandler) Status(c *gin.Context) {
	RespondOK(c, h.processService.Status(c.Request.Context()))
}

// LastResult handles GET /api/v1/process/result
func (h *ProcessHandler) LastResult(c *gin.Context) {
	result, err := h.processService.LastResult(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}
