// Package validator provides the stateless validation engine applied to a
// batch before processing. It re-derives paths and page ownership from the
// assignments themselves rather than trusting cached state.
package validator

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"scandex/internal/assignment"
	"scandex/internal/batch"
	"scandex/internal/domain"
)

// Issue is one structured validation finding.
type Issue struct {
	Type                   domain.ConflictType       `json:"type"`
	Severity               domain.ValidationSeverity `json:"severity"`
	AssignmentID           string                    `json:"assignment_id,omitempty"`
	FieldName              string                    `json:"field_name,omitempty"`
	Path                   string                    `json:"path,omitempty"`
	PageID                 string                    `json:"page_id,omitempty"`
	ConflictingAssignments []string                  `json:"conflicting_assignments,omitempty"`
	Message                string                    `json:"message"`
}

// Engine validates batches. It holds no per-batch state and is safe to share.
type Engine struct{}

// NewEngine creates a validation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// ValidateBatch runs the full validation pass over a batch's assignments:
// per-assignment field checks, cross-assignment naming conflicts, folder
// path legality, and duplicate page detection. The last check re-derives
// page ownership independently of the assignment manager's index.
func (e *Engine) ValidateBatch(b *batch.DocumentBatch) (bool, []Issue) {
	var issues []Issue
	empty := false

	// The whole pass runs under the assignment manager's lock so preview
	// regeneration cannot interleave with adds, removes, or another pass.
	b.Assignments.WithAssignments(func(assignments []*assignment.PageAssignment) {
		log.Printf("Engine.ValidateBatch: validating batch %s with %d assignments", b.ID, len(assignments))
		if len(assignments) == 0 {
			empty = true
			return
		}
		for _, a := range assignments {
			issues = append(issues, e.validateAssignment(a)...)
		}
		issues = append(issues, e.namingConflicts(assignments)...)
		issues = append(issues, e.folderStructure(assignments)...)
		issues = append(issues, e.duplicatePages(assignments)...)
	})
	if empty {
		return true, nil
	}

	valid := true
	for _, issue := range issues {
		if issue.Severity.BlocksProcessing() {
			valid = false
			break
		}
	}
	log.Printf("Engine.ValidateBatch: batch %s valid=%t issues=%d", b.ID, valid, len(issues))
	return valid, issues
}

func (e *Engine) validateAssignment(a *assignment.PageAssignment) []Issue {
	var issues []Issue

	if a.PageCount() == 0 {
		issues = append(issues, Issue{
			Type:         domain.ConflictInvalidFieldValue,
			Severity:     domain.SeverityError,
			AssignmentID: a.ID,
			Message:      "assignment has no page references",
		})
	}

	if a.Schema == nil {
		issues = append(issues, Issue{
			Type:         domain.ConflictInvalidFieldValue,
			Severity:     domain.SeverityError,
			AssignmentID: a.ID,
			Message:      "assignment has no schema",
		})
		return issues
	}

	for _, field := range a.Schema.Fields {
		value := a.IndexValues[field.Name]
		if field.Required && strings.TrimSpace(value) == "" {
			issues = append(issues, Issue{
				Type:         domain.ConflictMissingRequired,
				Severity:     domain.SeverityError,
				AssignmentID: a.ID,
				FieldName:    field.Name,
				Message:      fmt.Sprintf("required field %q is empty", field.Name),
			})
			continue
		}
		if err := field.ValidateValue(value); err != nil {
			issues = append(issues, Issue{
				Type:         domain.ConflictInvalidFieldValue,
				Severity:     domain.SeverityError,
				AssignmentID: a.ID,
				FieldName:    field.Name,
				Message:      err.Error(),
			})
		}
	}
	return issues
}

// namingConflicts regenerates every assignment's full output path and groups
// by the lowercased path, mirroring case-insensitive filesystem semantics.
func (e *Engine) namingConflicts(assignments []*assignment.PageAssignment) []Issue {
	var issues []Issue
	pathOwners := make(map[string][]string)
	displayPath := make(map[string]string)
	var order []string

	for _, a := range assignments {
		if a.Schema == nil {
			continue
		}
		preview, err := a.Preview()
		if err != nil {
			issues = append(issues, Issue{
				Type:         domain.ConflictInvalidPath,
				Severity:     domain.SeverityError,
				AssignmentID: a.ID,
				Message:      fmt.Sprintf("cannot generate path for assignment: %v", err),
			})
			continue
		}
		full := preview.FullPath()
		normalized := strings.ToLower(full)
		if _, seen := pathOwners[normalized]; !seen {
			order = append(order, normalized)
			displayPath[normalized] = full
		}
		pathOwners[normalized] = append(pathOwners[normalized], a.ID)
	}

	for _, normalized := range order {
		owners := pathOwners[normalized]
		if len(owners) > 1 {
			issues = append(issues, Issue{
				Type:                   domain.ConflictDuplicateFilename,
				Severity:               domain.SeverityError,
				Path:                   displayPath[normalized],
				ConflictingAssignments: owners,
				Message:                fmt.Sprintf("multiple assignments would create the same file: %s", displayPath[normalized]),
			})
		}
	}
	return issues
}

// folderStructure checks every generated folder path for component legality
// and total length.
func (e *Engine) folderStructure(assignments []*assignment.PageAssignment) []Issue {
	var issues []Issue
	for _, a := range assignments {
		if a.Schema == nil {
			continue
		}
		folder := a.Schema.GenerateFolderStructure(a.IndexValues)
		if folder == "" {
			continue
		}

		if len(folder) > domain.MaxPathLength {
			issues = append(issues, Issue{
				Type:         domain.ConflictPathTooLong,
				Severity:     domain.SeverityError,
				AssignmentID: a.ID,
				Path:         folder,
				Message:      fmt.Sprintf("path exceeds maximum length (%d): %s", domain.MaxPathLength, folder),
			})
		}
		for _, component := range a.Schema.FolderComponents(folder) {
			if domain.HasInvalidChars(component) {
				issues = append(issues, Issue{
					Type:         domain.ConflictInvalidCharacters,
					Severity:     domain.SeverityError,
					AssignmentID: a.ID,
					Path:         folder,
					Message:      fmt.Sprintf("folder name %q contains invalid characters", component),
				})
			}
			if domain.IsReservedName(component) {
				issues = append(issues, Issue{
					Type:         domain.ConflictReservedName,
					Severity:     domain.SeverityError,
					AssignmentID: a.ID,
					Path:         folder,
					Message:      fmt.Sprintf("folder name %q is a reserved system name", component),
				})
			}
		}
	}
	return issues
}

// duplicatePages builds a fresh page-to-assignments map across all
// assignments. A page claimed by more than one assignment means the page
// index invariant was bypassed somewhere upstream.
func (e *Engine) duplicatePages(assignments []*assignment.PageAssignment) []Issue {
	claims := make(map[string][]string)
	var order []string
	for _, a := range assignments {
		for _, ref := range a.Pages {
			id := ref.PageID()
			if _, seen := claims[id]; !seen {
				order = append(order, id)
			}
			claims[id] = append(claims[id], a.ID)
		}
	}

	var issues []Issue
	for _, pageID := range order {
		owners := claims[pageID]
		if len(owners) > 1 {
			sorted := append([]string(nil), owners...)
			sort.Strings(sorted)
			issues = append(issues, Issue{
				Type:                   domain.ConflictDuplicatePage,
				Severity:               domain.SeverityCritical,
				PageID:                 pageID,
				ConflictingAssignments: sorted,
				Message:                fmt.Sprintf("page %s is assigned to multiple assignments", pageID),
			})
		}
	}
	return issues
}
