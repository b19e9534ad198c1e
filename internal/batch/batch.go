// Package batch tracks the working set of scanned files and page
// assignments, and computes batch-level validation and output previews.
package batch

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"scandex/internal/assignment"
	"scandex/internal/domain"
	"scandex/internal/schema"
)

// ValidationResults aggregates per-assignment and batch-level validation.
type ValidationResults struct {
	IsValid           bool                                    `json:"is_valid"`
	AssignmentResults map[string]assignment.ValidationOutcome `json:"assignment_results"`
	BatchErrors       []string                                `json:"batch_errors"`
	BatchWarnings     []string                                `json:"batch_warnings"`
	Statistics        ValidationStatistics                    `json:"statistics"`
}

// ValidationStatistics summarizes a validation pass.
type ValidationStatistics struct {
	TotalAssignments   int `json:"total_assignments"`
	ValidAssignments   int `json:"valid_assignments"`
	InvalidAssignments int `json:"invalid_assignments"`
	TotalErrors        int `json:"total_errors"`
	TotalWarnings      int `json:"total_warnings"`
	UnassignedPages    int `json:"unassigned_pages"`
	FilenameConflicts  int `json:"filename_conflicts"`
}

// OutputFolder is one folder in the output-structure preview.
type OutputFolder struct {
	Path  string       `json:"path"`
	Files []OutputFile `json:"files"`
}

// OutputFile is one document in the output-structure preview.
type OutputFile struct {
	FullPath      string `json:"full_path"`
	Folder        string `json:"folder"`
	Filename      string `json:"filename"`
	PageCount     int    `json:"page_count"`
	EstimatedSize int64  `json:"estimated_size"`
	AssignmentID  string `json:"assignment_id"`
}

// OutputPreview is the rendered output folder structure.
type OutputPreview struct {
	Folders        []OutputFolder `json:"folders"`
	Files          []OutputFile   `json:"files"`
	TotalDocuments int            `json:"total_documents"`
	TotalFolders   int            `json:"total_folders"`
	EstimatedSize  int64          `json:"estimated_size"`
}

// OutputStatistics describes the documents a processing run would produce.
type OutputStatistics struct {
	DocumentCount       int            `json:"document_count"`
	TotalPages          int            `json:"total_pages"`
	EstimatedTotalSize  int64          `json:"estimated_total_size"`
	FolderCount         int            `json:"folder_count"`
	AveragePagesPerDoc  float64        `json:"average_pages_per_document"`
	LargestDocumentPgs  int            `json:"largest_document_pages"`
	SmallestDocumentPgs int            `json:"smallest_document_pages"`
	FilesByFolder       map[string]int `json:"files_by_folder"`
	PageDistribution    map[string]int `json:"page_distribution"`
}

// DocumentBatch owns the scanned files and assignments of one working set.
// All methods are safe for concurrent use; validation and mutation exclude
// each other so the page index is never read mid-update.
type DocumentBatch struct {
	ID               string
	StagingDirectory string
	Description      string
	CreatedBy        string

	Assignments *assignment.Manager

	mu            sync.Mutex
	files         []domain.ScannedFile
	fileByID      map[string]int
	fileByPath    map[string]int
	appliedSchema *schema.IndexSchema
	state         domain.ProcessingState
	createdAt     time.Time
	modifiedAt    time.Time
	totalPages    int
}

// NewBatch creates an empty batch.
func NewBatch(stagingDir string) *DocumentBatch {
	now := time.Now()
	return &DocumentBatch{
		ID:               uuid.NewString(),
		StagingDirectory: stagingDir,
		Assignments:      assignment.NewManager(),
		fileByID:         make(map[string]int),
		fileByPath:       make(map[string]int),
		state:            domain.StateIdle,
		createdAt:        now,
		modifiedAt:       now,
	}
}

// AddFile registers a scanned file. Re-adding a path returns the existing
// entry.
func (b *DocumentBatch) AddFile(file domain.ScannedFile) domain.ScannedFile {
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx, exists := b.fileByPath[file.Path]; exists {
		log.Printf("DocumentBatch.AddFile: file already in batch: %s", file.Path)
		return b.files[idx]
	}
	b.files = append(b.files, file)
	idx := len(b.files) - 1
	b.fileByID[file.FileID] = idx
	b.fileByPath[file.Path] = idx
	b.totalPages += file.PageCount
	b.modifiedAt = time.Now()
	log.Printf("DocumentBatch.AddFile: added %s (%d pages) to batch %s", file.Path, file.PageCount, b.ID)
	return file
}

// RemoveFile drops a source file and strips its pages from every assignment.
// Assignments left empty are removed entirely.
func (b *DocumentBatch) RemoveFile(fileID string) bool {
	b.mu.Lock()
	idx, ok := b.fileByID[fileID]
	if !ok {
		b.mu.Unlock()
		return false
	}
	removed := b.files[idx]
	b.files = append(b.files[:idx], b.files[idx+1:]...)
	delete(b.fileByID, fileID)
	delete(b.fileByPath, removed.Path)
	for i := idx; i < len(b.files); i++ {
		b.fileByID[b.files[i].FileID] = i
		b.fileByPath[b.files[i].Path] = i
	}
	b.totalPages -= removed.PageCount
	b.modifiedAt = time.Now()
	b.mu.Unlock()

	for _, a := range b.Assignments.All() {
		pages := a.PagesFromFile(fileID)
		if len(pages) == 0 {
			continue
		}
		b.Assignments.Remove(a.ID)
		for _, ref := range pages {
			a.RemovePage(ref)
		}
		if a.PageCount() > 0 {
			b.Assignments.Add(a)
		}
	}

	log.Printf("DocumentBatch.RemoveFile: removed file %s from batch %s", fileID, b.ID)
	return true
}

// FileByID returns a registered file by ID.
func (b *DocumentBatch) FileByID(fileID string) (domain.ScannedFile, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx, ok := b.fileByID[fileID]; ok {
		return b.files[idx], true
	}
	return domain.ScannedFile{}, false
}

// FileByPath returns a registered file by path.
func (b *DocumentBatch) FileByPath(path string) (domain.ScannedFile, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx, ok := b.fileByPath[path]; ok {
		return b.files[idx], true
	}
	return domain.ScannedFile{}, false
}

// Files returns the registered files in insertion order.
func (b *DocumentBatch) Files() []domain.ScannedFile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.ScannedFile(nil), b.files...)
}

// FileCount returns the number of registered files.
func (b *DocumentBatch) FileCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

// TotalPages returns the page count across all registered files.
func (b *DocumentBatch) TotalPages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalPages
}

// AllPageReferences enumerates every page of every registered file.
func (b *DocumentBatch) AllPageReferences() []domain.PageReference {
	b.mu.Lock()
	defer b.mu.Unlock()
	var refs []domain.PageReference
	for _, f := range b.files {
		refs = append(refs, f.Pages()...)
	}
	return refs
}

// UnassignedPages returns pages not held by any assignment.
func (b *DocumentBatch) UnassignedPages() []domain.PageReference {
	return b.Assignments.UnassignedPages(b.AllPageReferences())
}

// Schema returns the schema applied to the batch, or nil.
func (b *DocumentBatch) Schema() *schema.IndexSchema {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appliedSchema
}

// SetSchema applies a schema to the batch and every existing assignment.
func (b *DocumentBatch) SetSchema(s *schema.IndexSchema) {
	b.mu.Lock()
	b.appliedSchema = s
	b.modifiedAt = time.Now()
	b.mu.Unlock()

	for _, a := range b.Assignments.All() {
		a.Schema = s
	}
	log.Printf("DocumentBatch.SetSchema: applied schema %q to batch %s", s.Name, b.ID)
}

// State returns the batch's processing state.
func (b *DocumentBatch) State() domain.ProcessingState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetState records the batch's processing state.
func (b *DocumentBatch) SetState(state domain.ProcessingState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
}

// CreatedAt returns the batch creation time.
func (b *DocumentBatch) CreatedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.createdAt
}

// ModifiedAt returns the last modification time.
func (b *DocumentBatch) ModifiedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modifiedAt
}

// AssignPagesToIndex creates an assignment binding pages to index values.
// It fails with ErrPageConflict if any page is already claimed.
func (b *DocumentBatch) AssignPagesToIndex(refs []domain.PageReference, values map[string]string) (*assignment.PageAssignment, error) {
	conflicts := b.Assignments.CheckPageConflicts(refs)
	if len(conflicts) > 0 {
		ids := make([]string, 0, len(conflicts))
		for _, ref := range conflicts {
			ids = append(ids, ref.PageID())
		}
		return nil, fmt.Errorf("pages already assigned: %v: %w", ids, domain.ErrPageConflict)
	}

	a := assignment.NewAssignment(b.Schema())
	a.AddPages(refs)
	a.UpdateIndexValues(values)
	b.Assignments.Add(a)

	b.mu.Lock()
	b.modifiedAt = time.Now()
	b.mu.Unlock()

	log.Printf("DocumentBatch.AssignPagesToIndex: created assignment %s with %d pages", a.ID, len(refs))
	return a, nil
}

// RemoveAssignment deletes an assignment by ID.
func (b *DocumentBatch) RemoveAssignment(assignmentID string) bool {
	if b.Assignments.Remove(assignmentID) {
		b.mu.Lock()
		b.modifiedAt = time.Now()
		b.mu.Unlock()
		return true
	}
	return false
}

// AssignmentsForFile returns assignments holding pages from one source file.
func (b *DocumentBatch) AssignmentsForFile(fileID string) []*assignment.PageAssignment {
	var out []*assignment.PageAssignment
	for _, a := range b.Assignments.All() {
		if len(a.PagesFromFile(fileID)) > 0 {
			out = append(out, a)
		}
	}
	return out
}

// ValidateAssignments validates every assignment plus batch-level concerns:
// schema presence, unassigned pages, and cross-assignment filename conflicts.
func (b *DocumentBatch) ValidateAssignments() ValidationResults {
	results := ValidationResults{
		AssignmentResults: b.Assignments.ValidateAll(),
	}

	if b.Assignments.Count() == 0 {
		results.BatchWarnings = append(results.BatchWarnings, "batch has no page assignments")
	}

	unassigned := len(b.UnassignedPages())
	if unassigned > 0 {
		results.BatchWarnings = append(results.BatchWarnings,
			fmt.Sprintf("%d pages are not assigned to any document", unassigned))
	}

	conflicts := b.Assignments.FilenameConflicts()
	for _, c := range conflicts {
		results.BatchErrors = append(results.BatchErrors,
			fmt.Sprintf("filename conflict between assignments %s and %s: %s", c.AssignmentA, c.AssignmentB, c.Path))
	}

	if b.Schema() == nil {
		results.BatchErrors = append(results.BatchErrors, "no schema applied to batch")
	}

	valid := 0
	totalErrors := len(results.BatchErrors)
	totalWarnings := len(results.BatchWarnings)
	for _, outcome := range results.AssignmentResults {
		if outcome.IsValid {
			valid++
		}
		totalErrors += len(outcome.Errors)
		totalWarnings += len(outcome.Warnings)
	}

	results.IsValid = len(results.BatchErrors) == 0 && valid == len(results.AssignmentResults)
	results.Statistics = ValidationStatistics{
		TotalAssignments:   len(results.AssignmentResults),
		ValidAssignments:   valid,
		InvalidAssignments: len(results.AssignmentResults) - valid,
		TotalErrors:        totalErrors,
		TotalWarnings:      totalWarnings,
		UnassignedPages:    unassigned,
		FilenameConflicts:  len(conflicts),
	}
	return results
}

// PreviewOutputStructure renders the folder tree a processing run would
// create from the batch's valid assignments.
func (b *DocumentBatch) PreviewOutputStructure() OutputPreview {
	preview := OutputPreview{}
	byFolder := make(map[string][]OutputFile)

	b.Assignments.WithAssignments(func(assignments []*assignment.PageAssignment) {
		for _, a := range assignments {
			if !a.IsValid {
				continue
			}
			p, err := a.Preview()
			if err != nil {
				log.Printf("DocumentBatch.PreviewOutputStructure: preview for %s failed: %v", a.ID, err)
				continue
			}
			folder := p.FolderPath
			if folder == "" {
				folder = "Root"
			}
			file := OutputFile{
				FullPath:      p.FullPath(),
				Folder:        folder,
				Filename:      p.Filename + ".pdf",
				PageCount:     p.PageCount,
				EstimatedSize: p.EstimatedSize,
				AssignmentID:  a.ID,
			}
			byFolder[folder] = append(byFolder[folder], file)
			preview.Files = append(preview.Files, file)
			preview.TotalDocuments++
			preview.EstimatedSize += p.EstimatedSize
		}
	})

	folders := make([]string, 0, len(byFolder))
	for f := range byFolder {
		folders = append(folders, f)
	}
	sort.Strings(folders)
	for _, f := range folders {
		preview.Folders = append(preview.Folders, OutputFolder{Path: f, Files: byFolder[f]})
	}
	preview.TotalFolders = len(byFolder)
	return preview
}

// OutputStatistics summarizes the documents the batch's valid assignments
// would produce.
func (b *DocumentBatch) OutputStatistics() OutputStatistics {
	stats := OutputStatistics{
		FilesByFolder:    make(map[string]int),
		PageDistribution: make(map[string]int),
	}

	var pageCounts []int
	folders := make(map[string]struct{})
	b.Assignments.WithAssignments(func(assignments []*assignment.PageAssignment) {
		for _, a := range assignments {
			if !a.IsValid {
				continue
			}
			p, err := a.Preview()
			if err != nil {
				continue
			}
			stats.DocumentCount++
			stats.TotalPages += p.PageCount
			stats.EstimatedTotalSize += p.EstimatedSize
			pageCounts = append(pageCounts, p.PageCount)

			folder := p.FolderPath
			if folder == "" {
				folder = "Root"
			}
			folders[folder] = struct{}{}
			stats.FilesByFolder[folder]++
			stats.PageDistribution[pageRangeBucket(p.PageCount)]++
		}
	})

	if len(pageCounts) > 0 {
		total := 0
		largest, smallest := pageCounts[0], pageCounts[0]
		for _, c := range pageCounts {
			total += c
			if c > largest {
				largest = c
			}
			if c < smallest {
				smallest = c
			}
		}
		stats.AveragePagesPerDoc = float64(total) / float64(len(pageCounts))
		stats.LargestDocumentPgs = largest
		stats.SmallestDocumentPgs = smallest
	}
	stats.FolderCount = len(folders)
	return stats
}

func pageRangeBucket(pages int) string {
	switch {
	case pages == 1:
		return "1 page"
	case pages <= 5:
		return "2-5 pages"
	case pages <= 10:
		return "6-10 pages"
	case pages <= 25:
		return "11-25 pages"
	case pages <= 50:
		return "26-50 pages"
	default:
		return "50+ pages"
	}
}

// EstimateProcessingTime predicts a run's duration from page, file, and
// assignment counts.
func (b *DocumentBatch) EstimateProcessingTime() time.Duration {
	base := 5 * time.Second
	pages := time.Duration(b.TotalPages()) * 500 * time.Millisecond
	files := time.Duration(b.FileCount()) * 2 * time.Second
	assignments := time.Duration(b.Assignments.Count()) * time.Second
	return base + pages + files + assignments
}

// Backup is the serialized batch form written by CreateBackup.
type Backup struct {
	BatchID          string                 `json:"batch_id"`
	StagingDirectory string                 `json:"staging_directory,omitempty"`
	CreatedAt        time.Time              `json:"batch_timestamp"`
	ModifiedAt       time.Time              `json:"last_modified"`
	CreatedBy        string                 `json:"created_by,omitempty"`
	Description      string                 `json:"description,omitempty"`
	ProcessingState  domain.ProcessingState `json:"processing_state"`
	SchemaName       string                 `json:"applied_schema_name,omitempty"`
	ScannedFiles     []domain.ScannedFile   `json:"scanned_files"`
	Assignments      []assignment.Snapshot  `json:"assignments"`
	Statistics       map[string]int         `json:"statistics"`
	BackupCreated    time.Time              `json:"backup_created"`
	BackupVersion    string                 `json:"backup_version"`
}

// ToBackup captures the batch for serialization.
func (b *DocumentBatch) ToBackup() Backup {
	backup := Backup{
		BatchID:          b.ID,
		StagingDirectory: b.StagingDirectory,
		CreatedAt:        b.CreatedAt(),
		ModifiedAt:       b.ModifiedAt(),
		CreatedBy:        b.CreatedBy,
		Description:      b.Description,
		ProcessingState:  b.State(),
		ScannedFiles:     b.Files(),
		BackupCreated:    time.Now(),
		BackupVersion:    "1.0",
	}
	if s := b.Schema(); s != nil {
		backup.SchemaName = s.Name
	}
	for _, a := range b.Assignments.All() {
		backup.Assignments = append(backup.Assignments, a.ToSnapshot())
	}
	backup.Statistics = map[string]int{
		"total_pages":      b.TotalPages(),
		"unassigned_pages": len(b.UnassignedPages()),
		"assignment_count": b.Assignments.Count(),
		"file_count":       b.FileCount(),
	}
	return backup
}

// MarshalBackup serializes the batch backup as indented JSON.
func (b *DocumentBatch) MarshalBackup() ([]byte, error) {
	return json.MarshalIndent(b.ToBackup(), "", "  ")
}

// RestoreBackup rebuilds a batch from a backup. s may be nil when the
// referenced schema is unavailable.
func RestoreBackup(data []byte, s *schema.IndexSchema) (*DocumentBatch, error) {
	var backup Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, fmt.Errorf("restore batch backup: %w", err)
	}

	b := NewBatch(backup.StagingDirectory)
	if backup.BatchID != "" {
		b.ID = backup.BatchID
	}
	b.Description = backup.Description
	b.CreatedBy = backup.CreatedBy
	if !backup.CreatedAt.IsZero() {
		b.createdAt = backup.CreatedAt
	}
	if backup.ProcessingState != "" {
		b.state = backup.ProcessingState
	}
	if s != nil {
		b.SetSchema(s)
	}
	for _, f := range backup.ScannedFiles {
		b.AddFile(f)
	}
	for _, snap := range backup.Assignments {
		b.Assignments.Add(assignment.FromSnapshot(snap, s))
	}
	if !backup.ModifiedAt.IsZero() {
		b.mu.Lock()
		b.modifiedAt = backup.ModifiedAt
		b.mu.Unlock()
	}
	return b, nil
}
