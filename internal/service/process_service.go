package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"scandex/internal/batch"
	"scandex/internal/config"
	"scandex/internal/domain"
	"scandex/internal/port"
	"scandex/internal/processing"
)

// StartProcessingInput is the DTO for launching a processing run. Empty
// fields fall back to the configured defaults.
type StartProcessingInput struct {
	OutputDirectory    string `json:"output_directory"`
	ConflictStrategy   string `json:"conflict_strategy"`
	PDFQuality         string `json:"pdf_quality"`
	WriteMetadata      *bool  `json:"write_metadata"`
	PreserveTimestamps *bool  `json:"preserve_timestamps"`
}

// ProcessService runs batch exports in the background and records finished
// runs in history.
type ProcessService interface {
	Start(ctx context.Context, batchID string, input StartProcessingInput) error
	Cancel(ctx context.Context) error
	Status(ctx context.Context) processing.Progress
	LastResult(ctx context.Context) (*processing.RunResult, error)
}

type processService struct {
	processor *processing.Processor
	batches   *batch.Manager
	history   port.HistoryRepository
	defaults  config.ProcessingConfig

	mu   sync.Mutex
	last *processing.RunResult
}

// NewProcessService creates a ProcessService.
func NewProcessService(
	processor *processing.Processor,
	batches *batch.Manager,
	history port.HistoryRepository,
	defaults config.ProcessingConfig,
) ProcessService {
	return &processService{
		processor: processor,
		batches:   batches,
		history:   history,
		defaults:  defaults,
	}
}

func (s *processService) Start(ctx context.Context, batchID string, input StartProcessingInput) error {
	b := s.batches.Get(batchID)
	if b == nil {
		return fmt.Errorf("%w: %s", domain.ErrBatchNotFound, batchID)
	}

	opts := s.buildOptions(input)
	if !domain.ConflictResolution(opts.ConflictStrategy).Valid() {
		return fmt.Errorf("unknown conflict strategy %q", opts.ConflictStrategy)
	}
	if opts.Quality != "" && !opts.Quality.Valid() {
		return fmt.Errorf("unknown pdf quality %q", opts.Quality)
	}

	// Early check for callers; the processor enforces the real single-run
	// guard when the goroutine reaches Process.
	if st := s.processor.Status().State; st.Active() {
		return domain.ErrProcessingActive
	}

	// Detach from the request context; the run outlives the HTTP call and is
	// stopped through Cancel.
	go s.run(context.Background(), b, opts)
	return nil
}

func (s *processService) buildOptions(input StartProcessingInput) processing.Options {
	opts := processing.Options{
		OutputDirectory:    s.defaults.OutputDirectory,
		ConflictStrategy:   domain.ConflictResolution(s.defaults.ConflictStrategy),
		Quality:            domain.PDFQuality(s.defaults.PDFQuality),
		WriteMetadata:      s.defaults.WriteMetadata,
		PreserveTimestamps: s.defaults.PreserveTimestamps,
		WriteSummary:       s.defaults.WriteSummary,
	}
	if input.OutputDirectory != "" {
		opts.OutputDirectory = input.OutputDirectory
	}
	if input.ConflictStrategy != "" {
		opts.ConflictStrategy = domain.ConflictResolution(input.ConflictStrategy)
	}
	if input.PDFQuality != "" {
		opts.Quality = domain.PDFQuality(input.PDFQuality)
	}
	if input.WriteMetadata != nil {
		opts.WriteMetadata = *input.WriteMetadata
	}
	if input.PreserveTimestamps != nil {
		opts.PreserveTimestamps = *input.PreserveTimestamps
	}
	return opts
}

func (s *processService) run(ctx context.Context, b *batch.DocumentBatch, opts processing.Options) {
	result, err := s.processor.Process(ctx, b, opts)
	if err != nil {
		log.Printf("ProcessService.run: batch %s: %v", b.ID, err)
	}
	if result == nil {
		return
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	if err := s.history.Create(ctx, runRecord(result)); err != nil {
		log.Printf("ProcessService.run: recording run %s: %v", result.RunID, err)
	}
}

func (s *processService) Cancel(ctx context.Context) error {
	return s.processor.Cancel()
}

func (s *processService) Status(ctx context.Context) processing.Progress {
	return s.processor.Status()
}

func (s *processService) LastResult(ctx context.Context) (*processing.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil, fmt.Errorf("%w: no completed runs", domain.ErrNotFound)
	}
	return s.last, nil
}

// runRecord converts a run result into its history row.
func runRecord(result *processing.RunResult) *port.ProcessingRun {
	var failures []string
	for _, d := range result.Documents {
		if !d.Success && !d.Skipped && d.Error != "" {
			failures = append(failures, d.Error)
		}
	}
	return &port.ProcessingRun{
		ID:              result.RunID,
		BatchID:         result.BatchID,
		SchemaName:      result.SchemaName,
		OutputDirectory: result.OutputDirectory,
		State:           string(result.State),
		TotalDocuments:  len(result.Documents),
		SuccessCount:    result.SuccessCount,
		FailureCount:    result.FailureCount,
		TotalPages:      result.TotalPages,
		StartedAt:       result.StartedAt,
		CompletedAt:     result.CompletedAt,
		DurationMillis:  result.Duration().Milliseconds(),
		ErrorSummary:    strings.Join(failures, "; "),
	}
}
