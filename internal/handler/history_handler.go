package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"scandex/internal/csvexport"
	"scandex/internal/port"
	"scandex/internal/report"
	"scandex/internal/service"
)

// HistoryHandler handles processing history endpoints.
type HistoryHandler struct {
	historyService service.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

func historyQuery(c *gin.Context) port.HistoryQuery {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return port.HistoryQuery{
		BatchID: c.Query("batch_id"),
		State:   c.Query("state"),
		Limit:   limit,
		Offset:  offset,
	}
}

// List handles GET /api/v1/history
func (h *HistoryHandler) List(c *gin.Context) {
	runs, err := h.historyService.List(c.Request.Context(), historyQuery(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, runs)
}

// Get handles GET /api/v1/history/:id
func (h *HistoryHandler) Get(c *gin.Context) {
	run, err := h.historyService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, run)
}

// Delete handles DELETE /api/v1/history/:id
func (h *HistoryHandler) Delete(c *gin.Context) {
	if err := h.historyService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": c.Param("id")})
}

// ExportCSV handles GET /api/v1/history/export.csv
func (h *HistoryHandler) ExportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+csvexport.BuildFilename("processing_history")+`"`)
	c.Status(http.StatusOK)

	if err := h.historyService.ExportCSV(c.Request.Context(), c.Writer, historyQuery(c)); err != nil {
		// Headers are already sent; log through gin's error list.
		_ = c.Error(err)
	}
}

// ExportXLSX handles GET /api/v1/history/report.xlsx
func (h *HistoryHandler) ExportXLSX(c *gin.Context) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+report.BuildFilename()+`"`)
	c.Status(http.StatusOK)

	if err := h.historyService.ExportXLSX(c.Request.Context(), c.Writer, historyQuery(c)); err != nil {
		_ = c.Error(err)
	}
}

// ExportRunXLSX handles GET /api/v1/history/:id/report.xlsx
func (h *HistoryHandler) ExportRunXLSX(c *gin.Context) {
	// Look up first so a missing run still gets a JSON 404.
	if _, err := h.historyService.Get(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+report.BuildFilename()+`"`)
	c.Status(http.StatusOK)

	if err := h.historyService.ExportRunXLSX(c.Request.Context(), c.Writer, c.Param("id")); err != nil {
		_ = c.Error(err)
	}
}
