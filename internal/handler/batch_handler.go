package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"scandex/internal/assignment"
	"scandex/internal/batch"
	"scandex/internal/service"
)

// BatchView is the detail DTO for a batch.
type BatchView struct {
	ID              string    `json:"id"`
	Description     string    `json:"description"`
	State           string    `json:"state"`
	SchemaName      string    `json:"schema_name,omitempty"`
	FileCount       int       `json:"file_count"`
	TotalPages      int       `json:"total_pages"`
	AssignmentCount int       `json:"assignment_count"`
	UnassignedPages int       `json:"unassigned_pages"`
	CreatedAt       time.Time `json:"created_at"`
	ModifiedAt      time.Time `json:"modified_at"`
}

func batchView(b *batch.DocumentBatch) BatchView {
	view := BatchView{
		ID:              b.ID,
		Description:     b.Description,
		State:           string(b.State()),
		FileCount:       b.FileCount(),
		TotalPages:      b.TotalPages(),
		AssignmentCount: b.Assignments.Count(),
		UnassignedPages: len(b.UnassignedPages()),
		CreatedAt:       b.CreatedAt(),
		ModifiedAt:      b.ModifiedAt(),
	}
	if s := b.Schema(); s != nil {
		view.SchemaName = s.Name
	}
	return view
}

// BatchHandler handles batch, file, and assignment endpoints.
type BatchHandler struct {
	batchService service.BatchService
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(batchService service.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// CreateBatchRequest is the body for POST /api/v1/batches.
type CreateBatchRequest struct {
	Description string `json:"description"`
}

// Create handles POST /api/v1/batches
func (h *BatchHandler) Create(c *gin.Context) {
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	b, err := h.batchService.Create(c.Request.Context(), req.Description)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, batchView(b))
}

// List handles GET /api/v1/batches
func (h *BatchHandler) List(c *gin.Context) {
	RespondOK(c, h.batchService.List(c.Request.Context()))
}

// Get handles GET /api/v1/batches/:id
func (h *BatchHandler) Get(c *gin.Context) {
	b, err := h.batchService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, batchView(b))
}

// Activate handles POST /api/v1/batches/:id/activate
func (h *BatchHandler) Activate(c *gin.Context) {
	if err := h.batchService.SetActive(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"active": c.Param("id")})
}

// Delete handles DELETE /api/v1/batches/:id
func (h *BatchHandler) Delete(c *gin.Context) {
	if err := h.batchService.Remove(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": c.Param("id")})
}

// AddFileRequest is the body for POST /api/v1/batches/:id/files.
type AddFileRequest struct {
	Path string `json:"path" binding:"required"`
}

// AddFile handles POST /api/v1/batches/:id/files
func (h *BatchHandler) AddFile(c *gin.Context) {
	var req AddFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	file, err := h.batchService.AddFile(c.Request.Context(), c.Param("id"), req.Path)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, file)
}

// RemoveFile handles DELETE /api/v1/batches/:id/files/:fileId
func (h *BatchHandler) RemoveFile(c *gin.Context) {
	if err := h.batchService.RemoveFile(c.Request.Context(), c.Param("id"), c.Param("fileId")); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"removed": c.Param("fileId")})
}

// Thumbnail handles GET /api/v1/batches/:id/files/:fileId/pages/:page/thumbnail
func (h *BatchHandler) Thumbnail(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "page must be an integer")
		return
	}

	data, err := h.batchService.Thumbnail(c.Request.Context(), c.Param("id"), c.Param("fileId"), page)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

// SetSchemaRequest is the body for PUT /api/v1/batches/:id/schema.
type SetSchemaRequest struct {
	SchemaName string `json:"schema_name" binding:"required"`
}

// SetSchema handles PUT /api/v1/batches/:id/schema
func (h *BatchHandler) SetSchema(c *gin.Context) {
	var req SetSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.batchService.SetSchema(c.Request.Context(), c.Param("id"), req.SchemaName); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"schema": req.SchemaName})
}

// Assign handles POST /api/v1/batches/:id/assignments
func (h *BatchHandler) Assign(c *gin.Context) {
	var input service.AssignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	b, assignmentID, err := h.batchService.Assign(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, gin.H{
		"assignment_id":    assignmentID,
		"unassigned_pages": len(b.UnassignedPages()),
	})
}

// ListAssignments handles GET /api/v1/batches/:id/assignments
func (h *BatchHandler) ListAssignments(c *gin.Context) {
	b, err := h.batchService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	all := b.Assignments.All()
	snaps := make([]assignment.Snapshot, 0, len(all))
	for _, a := range all {
		snaps = append(snaps, a.ToSnapshot())
	}
	RespondOK(c, snaps)
}

// Unassigned handles GET /api/v1/batches/:id/unassigned
func (h *BatchHandler) Unassigned(c *gin.Context) {
	b, err := h.batchService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	pages := b.UnassignedPages()
	RespondOK(c, gin.H{
		"count": len(pages),
		"pages": pages,
	})
}

// RemoveAssignment handles DELETE /api/v1/batches/:id/assignments/:assignmentId
func (h *BatchHandler) RemoveAssignment(c *gin.Context) {
	err := h.batchService.RemoveAssignment(c.Request.Context(), c.Param("id"), c.Param("assignmentId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"removed": c.Param("assignmentId")})
}

// Validate handles POST /api/v1/batches/:id/validate
func (h *BatchHandler) Validate(c *gin.Context) {
	report, err := h.batchService.Validate(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}

// Preview handles GET /api/v1/batches/:id/preview
func (h *BatchHandler) Preview(c *gin.Context) {
	plan, err := h.batchService.Plan(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, plan)
}

// Backup handles GET /api/v1/batches/:id/backup
func (h *BatchHandler) Backup(c *gin.Context) {
	data, err := h.batchService.Backup(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="batch_backup.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// RestoreRequest is the body for POST /api/v1/batches/restore.
type RestoreRequest struct {
	SchemaName string          `json:"schema_name" binding:"required"`
	Backup     json.RawMessage `json:"backup" binding:"required"`
}

// Restore handles POST /api/v1/batches/restore
func (h *BatchHandler) Restore(c *gin.Context) {
	var req RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	b, err := h.batchService.Restore(c.Request.Context(), req.Backup, req.SchemaName)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, batchView(b))
}
