// Package assignment binds scanned pages to index values under a schema and
// tracks the collection of assignments that make up a batch.
package assignment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"scandex/internal/domain"
	"scandex/internal/schema"
)

// Soft-warning thresholds for unusually large assignments.
const (
	largePageCountThreshold = 100
	manySourceFilesWarning  = 10
)

// PageAssignment links an ordered set of pages to one set of index values
// under one schema, producing a single output document.
//
// The derived document preview is cached against a version counter bumped on
// every mutation, so a stale preview can never be observed through Preview.
type PageAssignment struct {
	ID          string
	Pages       []domain.PageReference
	IndexValues map[string]string
	Schema      *schema.IndexSchema

	IsValid  bool
	Errors   []string
	Warnings []string

	CreatedAt  time.Time
	ModifiedAt time.Time

	version        uint64
	preview        *DocumentPreview
	previewVersion uint64
}

// NewAssignment creates an empty assignment. schema may be nil and set later.
func NewAssignment(s *schema.IndexSchema) *PageAssignment {
	now := time.Now()
	return &PageAssignment{
		ID:          uuid.NewString(),
		IndexValues: make(map[string]string),
		Schema:      s,
		CreatedAt:   now,
		ModifiedAt:  now,
		version:     1,
	}
}

func (a *PageAssignment) touch() {
	a.version++
	a.ModifiedAt = time.Now()
	a.IsValid = false
}

// AddPage appends a page unless it is already present.
func (a *PageAssignment) AddPage(ref domain.PageReference) {
	for _, existing := range a.Pages {
		if existing == ref {
			return
		}
	}
	a.Pages = append(a.Pages, ref)
	a.touch()
}

// AddPages appends the given pages, skipping those already present. The
// modification timestamp moves only if at least one page was added.
func (a *PageAssignment) AddPages(refs []domain.PageReference) {
	added := false
	for _, ref := range refs {
		present := false
		for _, existing := range a.Pages {
			if existing == ref {
				present = true
				break
			}
		}
		if !present {
			a.Pages = append(a.Pages, ref)
			added = true
		}
	}
	if added {
		a.touch()
	}
}

// RemovePage removes a page. Returns false if the page was not present.
func (a *PageAssignment) RemovePage(ref domain.PageReference) bool {
	for i, existing := range a.Pages {
		if existing == ref {
			a.Pages = append(a.Pages[:i], a.Pages[i+1:]...)
			a.touch()
			return true
		}
	}
	return false
}

// ClearPages removes all pages.
func (a *PageAssignment) ClearPages() {
	if len(a.Pages) == 0 {
		return
	}
	a.Pages = nil
	a.touch()
}

// SetIndexValue sets one field value.
func (a *PageAssignment) SetIndexValue(field, value string) {
	a.IndexValues[field] = value
	a.touch()
}

// UpdateIndexValues merges the given values over the existing ones.
func (a *PageAssignment) UpdateIndexValues(values map[string]string) {
	for k, v := range values {
		a.IndexValues[k] = v
	}
	a.touch()
}

// IndexValue returns one field value, or "".
func (a *PageAssignment) IndexValue(field string) string {
	return a.IndexValues[field]
}

// PageCount returns the number of assigned pages.
func (a *PageAssignment) PageCount() int {
	return len(a.Pages)
}

// FileIDs returns the distinct source files this assignment draws from.
func (a *PageAssignment) FileIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, ref := range a.Pages {
		if _, ok := seen[ref.FileID]; !ok {
			seen[ref.FileID] = struct{}{}
			ids = append(ids, ref.FileID)
		}
	}
	return ids
}

// PagesFromFile returns this assignment's pages belonging to one source file.
func (a *PageAssignment) PagesFromFile(fileID string) []domain.PageReference {
	var out []domain.PageReference
	for _, ref := range a.Pages {
		if ref.FileID == fileID {
			out = append(out, ref)
		}
	}
	return out
}

// Validate checks the assignment's completeness and records the outcome on
// the assignment. IsValid is true after the call iff no errors were found.
func (a *PageAssignment) Validate() (bool, []string, []string) {
	var errs, warnings []string

	if len(a.Pages) == 0 {
		errs = append(errs, "assignment has no pages")
	}

	if a.Schema == nil {
		errs = append(errs, "assignment has no schema")
		a.IsValid = false
		a.Errors = errs
		a.Warnings = warnings
		return false, errs, warnings
	}

	errs = append(errs, a.Schema.ValidateAssignmentValues(a.IndexValues)...)

	// Required fields are re-checked here independently of the schema-level
	// pass; both checks must hold.
	for _, field := range a.Schema.RequiredFields() {
		if strings.TrimSpace(a.IndexValues[field.Name]) == "" {
			errs = append(errs, fmt.Sprintf("required field %q is missing", field.Name))
		}
	}

	preview, err := a.Preview()
	if err != nil {
		errs = append(errs, fmt.Sprintf("cannot generate document preview: %v", err))
	} else {
		errs = append(errs, preview.ValidatePaths()...)
	}

	if a.PageCount() > largePageCountThreshold {
		warnings = append(warnings, fmt.Sprintf("large document (%d pages) may be slow to process", a.PageCount()))
	}
	if n := len(a.FileIDs()); n > manySourceFilesWarning {
		warnings = append(warnings, fmt.Sprintf("pages from many files (%d) may affect performance", n))
	}

	a.IsValid = len(errs) == 0
	a.Errors = errs
	a.Warnings = warnings
	return a.IsValid, errs, warnings
}

// Preview returns the derived document preview, recomputing it when the
// assignment has changed since the last computation. The preview uses the
// assignment's creation timestamp and a placeholder sequence number; the
// processor substitutes real per-folder sequence numbers at run time.
func (a *PageAssignment) Preview() (*DocumentPreview, error) {
	if a.Schema == nil {
		return nil, fmt.Errorf("cannot generate preview without schema: %w", domain.ErrInvalidSchema)
	}
	if a.preview != nil && a.previewVersion == a.version {
		return a.preview, nil
	}

	filename := a.Schema.GenerateFilename(a.IndexValues, a.CreatedAt, 1)
	folder := a.Schema.GenerateFolderStructure(a.IndexValues)

	a.preview = NewDocumentPreview(filename, folder, a.Schema.FolderSeparator, a.Pages)
	a.previewVersion = a.version
	return a.preview, nil
}

// CachedPreview returns the current preview without recomputation, or nil if
// the assignment changed since the last Preview call.
func (a *PageAssignment) CachedPreview() *DocumentPreview {
	if a.preview != nil && a.previewVersion == a.version {
		return a.preview
	}
	return nil
}

// Clone copies the assignment's pages and values under a fresh ID.
func (a *PageAssignment) Clone() *PageAssignment {
	clone := NewAssignment(a.Schema)
	clone.Pages = append([]domain.PageReference(nil), a.Pages...)
	for k, v := range a.IndexValues {
		clone.IndexValues[k] = v
	}
	return clone
}

// Summary reports headline numbers about the assignment.
func (a *PageAssignment) Summary() map[string]any {
	schemaName := ""
	if a.Schema != nil {
		schemaName = a.Schema.Name
	}
	return map[string]any{
		"assignment_id": a.ID,
		"page_count":    a.PageCount(),
		"file_count":    len(a.FileIDs()),
		"field_count":   len(a.IndexValues),
		"is_valid":      a.IsValid,
		"error_count":   len(a.Errors),
		"warning_count": len(a.Warnings),
		"created":       a.CreatedAt,
		"modified":      a.ModifiedAt,
		"schema_name":   schemaName,
	}
}

// Snapshot is the serialized form of an assignment used in batch backups.
type Snapshot struct {
	AssignmentID string                 `json:"assignment_id"`
	Pages        []domain.PageReference `json:"page_references"`
	IndexValues  map[string]string      `json:"index_values"`
	SchemaName   string                 `json:"schema_name,omitempty"`
	Filename     string                 `json:"output_filename,omitempty"`
	FolderPath   string                 `json:"output_folder_path,omitempty"`
	CreatedAt    time.Time              `json:"created_timestamp"`
	ModifiedAt   time.Time              `json:"modified_timestamp"`
	IsValid      bool                   `json:"is_valid"`
}

// ToSnapshot captures the assignment for serialization.
func (a *PageAssignment) ToSnapshot() Snapshot {
	snap := Snapshot{
		AssignmentID: a.ID,
		Pages:        append([]domain.PageReference(nil), a.Pages...),
		IndexValues:  make(map[string]string, len(a.IndexValues)),
		CreatedAt:    a.CreatedAt,
		ModifiedAt:   a.ModifiedAt,
		IsValid:      a.IsValid,
	}
	for k, v := range a.IndexValues {
		snap.IndexValues[k] = v
	}
	if a.Schema != nil {
		snap.SchemaName = a.Schema.Name
	}
	if p := a.CachedPreview(); p != nil {
		snap.Filename = p.Filename
		snap.FolderPath = p.FolderPath
	}
	return snap
}

// FromSnapshot restores an assignment. schema may be nil when the referenced
// schema is no longer available.
func FromSnapshot(snap Snapshot, s *schema.IndexSchema) *PageAssignment {
	a := NewAssignment(s)
	if snap.AssignmentID != "" {
		a.ID = snap.AssignmentID
	}
	a.Pages = append([]domain.PageReference(nil), snap.Pages...)
	for k, v := range snap.IndexValues {
		a.IndexValues[k] = v
	}
	if !snap.CreatedAt.IsZero() {
		a.CreatedAt = snap.CreatedAt
	}
	if !snap.ModifiedAt.IsZero() {
		a.ModifiedAt = snap.ModifiedAt
	}
	a.IsValid = snap.IsValid
	return a
}
