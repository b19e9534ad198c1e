// Package processing exports validated batches as merged, organized PDFs.
package processing

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"scandex/internal/assignment"
	"scandex/internal/batch"
	"scandex/internal/domain"
	"scandex/internal/events"
	"scandex/internal/port"
	"scandex/internal/validator"
)

const metadataFieldPrefix = "Custom_"

// Options controls one processing run.
type Options struct {
	OutputDirectory    string
	ConflictStrategy   domain.ConflictResolution
	Quality            domain.PDFQuality
	WriteMetadata      bool
	PreserveTimestamps bool
	WriteSummary       bool
}

// Progress is a point-in-time snapshot of a run, also published with
// events.ProcessingProgress.
type Progress struct {
	State         domain.ProcessingState `json:"state"`
	Current       int                    `json:"current"`
	Total         int                    `json:"total"`
	CurrentOutput string                 `json:"current_output,omitempty"`
}

// documentPlan is one assignment resolved to its final output location.
// Plans are fixed during preparation so filenames cannot shift while the
// batch is being written.
type documentPlan struct {
	assignment *assignment.PageAssignment
	folder     string
	filename   string
	outputPath string
	skip       bool
	skipReason string
}

// Processor runs batch exports. At most one run is active at a time.
type Processor struct {
	pdf    port.PDFService
	engine *validator.Engine
	bus    *events.Bus

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	progress Progress
}

// NewProcessor creates a processor using the given PDF backend.
func NewProcessor(pdf port.PDFService, bus *events.Bus) *Processor {
	return &Processor{
		pdf:      pdf,
		engine:   validator.NewEngine(),
		bus:      bus,
		progress: Progress{State: domain.StateIdle},
	}
}

// Status returns the current run state and progress.
func (p *Processor) Status() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// Cancel requests cancellation of the active run. The run stops at the next
// document boundary; the document being written is finished first.
func (p *Processor) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return domain.ErrNotProcessing
	}
	p.cancel()
	return nil
}

// Process exports every valid assignment of the batch into
// opts.OutputDirectory. The batch must pass validation first; nothing is
// written otherwise. One failing document does not stop the rest.
func (p *Processor) Process(ctx context.Context, b *batch.DocumentBatch, opts Options) (*RunResult, error) {
	if opts.OutputDirectory == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.ConflictStrategy == "" {
		opts.ConflictStrategy = domain.ResolveAutoRename
	}
	if !opts.ConflictStrategy.Valid() {
		return nil, fmt.Errorf("unknown conflict strategy %q", opts.ConflictStrategy)
	}
	if opts.Quality == "" {
		opts.Quality = domain.QualityHigh
	}
	if !opts.Quality.Valid() {
		return nil, fmt.Errorf("unknown pdf quality %q", opts.Quality)
	}

	ctx, cancel := context.WithCancel(ctx)
	if err := p.begin(cancel); err != nil {
		cancel()
		return nil, err
	}
	defer p.finish()

	result := &RunResult{
		RunID:           uuid.NewString(),
		BatchID:         b.ID,
		OutputDirectory: opts.OutputDirectory,
		State:           domain.StatePreparing,
		StartedAt:       time.Now(),
	}
	if s := b.Schema(); s != nil {
		result.SchemaName = s.Name
	}

	b.SetState(domain.StatePreparing)
	p.setProgress(Progress{State: domain.StatePreparing})
	p.bus.Publish(events.ProcessingStarted, result.RunID)
	log.Printf("Processor.Process: run %s for batch %s started", result.RunID, b.ID)

	plans, err := p.prepare(b, opts)
	if err != nil {
		b.SetState(domain.StateError)
		result.complete(domain.StateError)
		p.bus.Publish(events.ProcessingFailed, err.Error())
		return result, err
	}

	b.SetState(domain.StateProcessing)
	cancelled := false
	for i, plan := range plans {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		p.setProgress(Progress{
			State:         domain.StateProcessing,
			Current:       i + 1,
			Total:         len(plans),
			CurrentOutput: plan.outputPath,
		})
		p.bus.Publish(events.ProcessingProgress, p.Status())

		result.addDocument(p.exportDocument(ctx, b, plan, opts))
	}

	if cancelled {
		b.SetState(domain.StateCancelled)
		result.complete(domain.StateCancelled)
		p.bus.Publish(events.ProcessingCancelled, result.RunID)
		log.Printf("Processor.Process: run %s cancelled after %d of %d documents",
			result.RunID, len(result.Documents), len(plans))
		return result, nil
	}

	b.SetState(domain.StateCompleting)
	p.setProgress(Progress{State: domain.StateCompleting, Current: len(plans), Total: len(plans)})

	if opts.WriteSummary {
		if err := writeSummary(opts, result); err != nil {
			log.Printf("Processor.Process: run %s summary not written: %v", result.RunID, err)
		}
	}

	b.SetState(domain.StateCompleted)
	result.complete(domain.StateCompleted)
	p.bus.Publish(events.ProcessingCompleted, result.RunID)
	log.Printf("Processor.Process: run %s completed, %d succeeded, %d failed, %d skipped",
		result.RunID, result.SuccessCount, result.FailureCount, result.SkippedCount)
	return result, nil
}

func (p *Processor) begin(cancel context.CancelFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return domain.ErrProcessingActive
	}
	p.running = true
	p.cancel = cancel
	p.progress = Progress{State: domain.StatePreparing}
	return nil
}

func (p *Processor) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancel()
	p.running = false
	p.cancel = func() {}
	p.progress = Progress{State: domain.StateIdle}
}

func (p *Processor) setProgress(pr Progress) {
	p.mu.Lock()
	p.progress = pr
	p.mu.Unlock()
}

// prepare validates the batch and freezes every assignment's output path.
// Filenames get per-folder sequential numbers in assignment order, and
// collisions with files already on disk are resolved according to the
// conflict strategy.
func (p *Processor) prepare(b *batch.DocumentBatch, opts Options) ([]documentPlan, error) {
	valid, issues := p.engine.ValidateBatch(b)
	if !valid {
		blocking := 0
		for _, issue := range issues {
			if issue.Severity.BlocksProcessing() {
				blocking++
			}
		}
		return nil, fmt.Errorf("%w: %d blocking issues", domain.ErrBatchInvalid, blocking)
	}

	assignments := b.Assignments.All()
	if len(assignments) == 0 {
		return nil, fmt.Errorf("%w: batch has no assignments", domain.ErrBatchInvalid)
	}

	if err := os.MkdirAll(opts.OutputDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	s := b.Schema()
	plans := make([]documentPlan, 0, len(assignments))
	folderSeq := make(map[string]int)
	claimed := make(map[string]bool)

	for _, a := range assignments {
		folder := s.GenerateFolderStructure(a.IndexValues)
		folderSeq[folder]++
		filename := s.GenerateFilename(a.IndexValues, a.CreatedAt, folderSeq[folder])

		plan := documentPlan{
			assignment: a,
			folder:     folder,
			filename:   filename,
		}
		// The schema's separator joins folder segments; each segment
		// becomes one directory level on disk.
		fsFolder := filepath.Join(s.FolderComponents(folder)...)
		plan.outputPath, plan.skip, plan.skipReason =
			resolveOutputPath(opts, fsFolder, filename, claimed)
		if !plan.skip {
			claimed[strings.ToLower(plan.outputPath)] = true
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// resolveOutputPath turns a filesystem folder and filename into an output
// path, applying the conflict strategy against files on disk and paths
// already claimed in this run.
func resolveOutputPath(opts Options, fsFolder, filename string, claimed map[string]bool) (path string, skip bool, reason string) {
	dir := opts.OutputDirectory
	if fsFolder != "" {
		dir = filepath.Join(dir, fsFolder)
	}
	candidate := filepath.Join(dir, filename+".pdf")

	taken := func(p string) bool {
		if claimed[strings.ToLower(p)] {
			return true
		}
		_, err := os.Stat(p)
		return err == nil
	}

	if !taken(candidate) {
		return candidate, false, ""
	}

	switch opts.ConflictStrategy {
	case domain.ResolveOverwrite:
		if claimed[strings.ToLower(candidate)] {
			// Another document in this run owns the path; overwrite only
			// applies to preexisting files.
			break
		}
		return candidate, false, ""
	case domain.ResolveSkipDuplicate:
		return candidate, true, fmt.Sprintf("%s already exists", candidate)
	}

	// Auto-rename, also the fallback for prompt_user in unattended runs.
	for n := 1; ; n++ {
		renamed := filepath.Join(dir, fmt.Sprintf("%s_%d.pdf", filename, n))
		if !taken(renamed) {
			return renamed, false, ""
		}
	}
}

// exportDocument merges one assignment's pages into its output file.
func (p *Processor) exportDocument(ctx context.Context, b *batch.DocumentBatch, plan documentPlan, opts Options) DocumentResult {
	a := plan.assignment
	started := time.Now()
	res := DocumentResult{
		AssignmentID: a.ID,
		Filename:     plan.filename,
		FolderPath:   plan.folder,
		PageCount:    a.PageCount(),
		ProcessedAt:  started,
	}

	sources := make(map[string]bool)
	picks := make([]port.PagePick, 0, len(a.Pages))
	for _, ref := range a.Pages {
		file, ok := b.FileByID(ref.FileID)
		if !ok {
			res.Error = fmt.Sprintf("source file %s is no longer in the batch", ref.FileID)
			res.Duration = time.Since(started)
			log.Printf("Processor.exportDocument: assignment %s: %s", a.ID, res.Error)
			return res
		}
		sources[file.Path] = true
		picks = append(picks, port.PagePick{SourcePath: file.Path, PageNumber: ref.PageNumber})
	}
	for path := range sources {
		res.SourceFiles = append(res.SourceFiles, path)
	}
	sort.Strings(res.SourceFiles)

	if plan.skip {
		res.Skipped = true
		res.Error = plan.skipReason
		res.Duration = time.Since(started)
		log.Printf("Processor.exportDocument: assignment %s skipped: %s", a.ID, plan.skipReason)
		return res
	}

	if err := p.pdf.MergePages(ctx, picks, plan.outputPath); err != nil {
		res.Error = err.Error()
		res.Duration = time.Since(started)
		log.Printf("Processor.exportDocument: assignment %s merge failed: %v", a.ID, err)
		return res
	}
	res.OutputPath = plan.outputPath

	if opts.Quality.Compress() {
		if err := p.pdf.OptimizePDF(ctx, plan.outputPath); err != nil {
			// The merged document stands; it just keeps its original size.
			log.Printf("Processor.exportDocument: assignment %s not optimized: %v", a.ID, err)
		}
	}

	if opts.WriteMetadata {
		if err := p.pdf.AddMetadata(ctx, plan.outputPath, documentProperties(a, plan)); err != nil {
			// The document itself is written; metadata failure is not fatal.
			log.Printf("Processor.exportDocument: assignment %s metadata not written: %v", a.ID, err)
		}
	}

	if opts.PreserveTimestamps {
		if err := os.Chtimes(plan.outputPath, time.Now(), a.CreatedAt); err != nil {
			log.Printf("Processor.exportDocument: assignment %s timestamps not set: %v", a.ID, err)
		}
	}

	res.Success = true
	res.Duration = time.Since(started)
	return res
}

// documentProperties builds the PDF property set for an exported document:
// standard identification plus one prefixed entry per index field.
func documentProperties(a *assignment.PageAssignment, plan documentPlan) map[string]string {
	props := map[string]string{
		"Title":        plan.filename,
		"Creator":      "scandex",
		"Producer":     "scandex",
		"CreationDate": a.CreatedAt.Format(time.RFC3339),
	}
	for field, value := range a.IndexValues {
		if strings.TrimSpace(value) == "" {
			continue
		}
		props[metadataFieldPrefix+domain.SafeFileName(field)] = value
	}
	return props
}
