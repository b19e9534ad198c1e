package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"scandex/internal/batch"
	"scandex/internal/cache"
	"scandex/internal/config"
	"scandex/internal/events"
	"scandex/internal/handler"
	"scandex/internal/monitor"
	"scandex/internal/pdf"
	"scandex/internal/port"
	"scandex/internal/processing"
	"scandex/internal/repository/sqlite"
	"scandex/internal/router"
	"scandex/internal/schema"
	"scandex/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sqlite.NewDB(cfg.History.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	bus := events.NewBus()

	// Core components
	schemaStore, err := schema.NewStore(cfg.Schemas.Directory, bus)
	if err != nil {
		return fmt.Errorf("failed to open schema library: %w", err)
	}
	pdfSvc := pdf.NewService()
	batchManager := batch.NewManager(bus)
	thumbnails := cache.NewLRU(cfg.Cache.MaxBytes)
	historyRepo := sqlite.NewHistoryRepo(db)
	processor := processing.NewProcessor(pdfSvc, bus)

	// Initialize services
	schemaSvc := service.NewSchemaService(schemaStore)
	batchSvc := service.NewBatchService(
		batchManager,
		schemaSvc,
		pdfSvc,
		thumbnails,
		port.ThumbnailSize{Width: cfg.Cache.ThumbnailWidth, Height: cfg.Cache.ThumbnailHeight},
		filepath.Join(dataRoot(cfg), "staging"),
		bus,
	)
	processSvc := service.NewProcessService(processor, batchManager, historyRepo, cfg.Processing)
	historySvc := service.NewHistoryService(historyRepo)

	// Prune history past its retention window on startup.
	if cfg.History.RetentionDays > 0 {
		if n, err := historySvc.PurgeOlderThan(context.Background(), cfg.History.RetentionDays); err != nil {
			log.Printf("history purge failed: %v", err)
		} else if n > 0 {
			log.Printf("purged %d history runs older than %d days", n, cfg.History.RetentionDays)
		}
	}

	// Staging directory watcher feeds the active batch.
	if cfg.Monitor.Enabled {
		watcher := monitor.New(cfg.Monitor.StagingDirectory, cfg.Monitor.PollInterval, bus)
		bus.Subscribe(events.MonitorFileDetected, func(ev events.Event) {
			detected := ev.Payload.(monitor.DetectedFile)
			active := batchManager.Active()
			if active == nil {
				log.Printf("monitor: no active batch for %s", detected.Path)
				return
			}
			if _, err := batchSvc.AddFile(context.Background(), active.ID, detected.Path); err != nil {
				log.Printf("monitor: adding %s: %v", detected.Path, err)
			}
		})
		if err := os.MkdirAll(cfg.Monitor.StagingDirectory, 0o755); err != nil {
			return fmt.Errorf("failed to create staging directory: %w", err)
		}
		watcher.Start(context.Background())
		defer watcher.Stop()
	}

	// Initialize handlers
	schemaH := handler.NewSchemaHandler(schemaSvc)
	batchH := handler.NewBatchHandler(batchSvc)
	processH := handler.NewProcessHandler(processSvc)
	historyH := handler.NewHistoryHandler(historySvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, schemaH, batchH, processH, historyH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// dataRoot derives the application data directory from configured paths.
func dataRoot(cfg *config.Config) string {
	return filepath.Dir(cfg.History.DatabasePath)
}
