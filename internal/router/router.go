package router

import (
	"github.com/gin-gonic/gin"

	"scandex/internal/config"
	"scandex/internal/handler"
	"scandex/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	schemaH *handler.SchemaHandler,
	batchH *handler.BatchHandler,
	processH *handler.ProcessHandler,
	historyH *handler.HistoryHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Schema library
	schemas := v1.Group("/schemas")
	schemas.GET("", schemaH.List)
	schemas.POST("", schemaH.Create)
	schemas.GET("/:name", schemaH.Get)
	schemas.PUT("/:name", schemaH.Save)
	schemas.DELETE("/:name", schemaH.Delete)
	schemas.POST("/:name/duplicate", schemaH.Duplicate)
	schemas.POST("/:name/refresh", schemaH.Refresh)

	// Batches, files, and assignments
	batches := v1.Group("/batches")
	batches.POST("", batchH.Create)
	batches.GET("", batchH.List)
	batches.POST("/restore", batchH.Restore)
	batches.GET("/:id", batchH.Get)
	batches.DELETE("/:id", batchH.Delete)
	batches.POST("/:id/activate", batchH.Activate)
	batches.POST("/:id/files", batchH.AddFile)
	batches.DELETE("/:id/files/:fileId", batchH.RemoveFile)
	batches.GET("/:id/files/:fileId/pages/:page/thumbnail", batchH.Thumbnail)
	batches.PUT("/:id/schema", batchH.SetSchema)
	batches.GET("/:id/assignments", batchH.ListAssignments)
	batches.POST("/:id/assignments", batchH.Assign)
	batches.DELETE("/:id/assignments/:assignmentId", batchH.RemoveAssignment)
	batches.GET("/:id/unassigned", batchH.Unassigned)
	batches.POST("/:id/validate", batchH.Validate)
	batches.GET("/:id/preview", batchH.Preview)
	batches.GET("/:id/backup", batchH.Backup)
	batches.POST("/:id/process", processH.Start)
	batches.POST("/:id/cancel", processH.Cancel)
	batches.GET("/:id/status", processH.Status)

	// The processor runs at most one batch at a time, so run control is
	// also reachable without a batch id.
	process := v1.Group("/process")
	process.POST("/cancel", processH.Cancel)
	process.GET("/status", processH.Status)
	process.GET("/result", processH.LastResult)

	// Processing history
	history := v1.Group("/history")
	history.GET("", historyH.List)
	history.GET("/export.csv", historyH.ExportCSV)
	history.GET("/report.xlsx", historyH.ExportXLSX)
	history.GET("/:id", historyH.Get)
	history.GET("/:id/report.xlsx", historyH.ExportRunXLSX)
	history.DELETE("/:id", historyH.Delete)

	return r
}
