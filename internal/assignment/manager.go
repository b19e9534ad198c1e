package assignment

import (
	"sync"

	"scandex/internal/domain"
)

// FilenameConflict records two assignments that would write the same output
// path.
type FilenameConflict struct {
	AssignmentA string `json:"assignment_a"`
	AssignmentB string `json:"assignment_b"`
	Path        string `json:"path"`
}

// Manager owns a batch's assignments and a page-to-assignment index used to
// detect page overlap in constant time per page.
//
// The index is kept exactly in sync with assignment membership: a page id is
// present iff some managed assignment currently contains that page. Callers
// must consult CheckPageConflicts before adding an assignment whose pages may
// already be claimed; Add itself overwrites silently.
type Manager struct {
	mu          sync.Mutex
	assignments map[string]*PageAssignment
	order       []string
	pageIndex   map[string]string // page_id -> assignment_id
}

// NewManager creates an empty assignment manager.
func NewManager() *Manager {
	return &Manager{
		assignments: make(map[string]*PageAssignment),
		pageIndex:   make(map[string]string),
	}
}

// Add inserts an assignment and indexes its pages.
func (m *Manager) Add(a *PageAssignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.assignments[a.ID]; !exists {
		m.order = append(m.order, a.ID)
	}
	m.assignments[a.ID] = a
	for _, ref := range a.Pages {
		m.pageIndex[ref.PageID()] = a.ID
	}
}

// Remove deletes an assignment and clears its pages from the index.
// Returns false if the assignment was not present.
func (m *Manager) Remove(assignmentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[assignmentID]
	if !ok {
		return false
	}
	for _, ref := range a.Pages {
		delete(m.pageIndex, ref.PageID())
	}
	delete(m.assignments, assignmentID)
	for i, id := range m.order {
		if id == assignmentID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns an assignment by ID, or nil.
func (m *Manager) Get(assignmentID string) *PageAssignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignments[assignmentID]
}

// AssignmentForPage returns the assignment currently holding a page, or nil.
func (m *Manager) AssignmentForPage(ref domain.PageReference) *PageAssignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.pageIndex[ref.PageID()]; ok {
		return m.assignments[id]
	}
	return nil
}

// All returns the managed assignments in insertion order.
func (m *Manager) All() []*PageAssignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allLocked()
}

// allLocked snapshots the assignments in insertion order. m.mu must be held.
func (m *Manager) allLocked() []*PageAssignment {
	out := make([]*PageAssignment, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.assignments[id])
	}
	return out
}

// WithAssignments runs fn with the manager lock held, so a full pass that
// reads or rewrites per-assignment validation state cannot interleave with
// Add, Remove, or another pass. fn must not call back into the Manager.
func (m *Manager) WithAssignments(fn func(assignments []*PageAssignment)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.allLocked())
}

// Count returns the number of managed assignments.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.assignments)
}

// CheckPageConflicts returns the subset of refs already claimed by an
// existing assignment.
func (m *Manager) CheckPageConflicts(refs []domain.PageReference) []domain.PageReference {
	m.mu.Lock()
	defer m.mu.Unlock()
	var conflicts []domain.PageReference
	for _, ref := range refs {
		if _, taken := m.pageIndex[ref.PageID()]; taken {
			conflicts = append(conflicts, ref)
		}
	}
	return conflicts
}

// UnassignedPages filters allPages down to those not held by any assignment.
func (m *Manager) UnassignedPages(allPages []domain.PageReference) []domain.PageReference {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PageReference
	for _, ref := range allPages {
		if _, taken := m.pageIndex[ref.PageID()]; !taken {
			out = append(out, ref)
		}
	}
	return out
}

// ValidationOutcome is the recorded result of validating one assignment.
type ValidationOutcome struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// ValidateAll validates every assignment under the manager lock and returns
// the per-assignment outcome keyed by assignment ID.
func (m *Manager) ValidateAll() map[string]ValidationOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make(map[string]ValidationOutcome)
	for _, a := range m.allLocked() {
		ok, errs, warnings := a.Validate()
		results[a.ID] = ValidationOutcome{IsValid: ok, Errors: errs, Warnings: warnings}
	}
	return results
}

// FilenameConflicts reports every pair of assignments whose cached previews
// resolve to the same output path. Assignments without a current preview are
// not considered; validation generates previews and should run first.
func (m *Manager) FilenameConflicts() []FilenameConflict {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filenameConflictsLocked()
}

func (m *Manager) filenameConflictsLocked() []FilenameConflict {
	assignments := m.allLocked()

	var conflicts []FilenameConflict
	pathOwner := make(map[string]string)
	for _, a := range assignments {
		preview := a.CachedPreview()
		if preview == nil {
			continue
		}
		full := preview.FullPath()
		if owner, seen := pathOwner[full]; seen {
			conflicts = append(conflicts, FilenameConflict{
				AssignmentA: owner,
				AssignmentB: a.ID,
				Path:        full,
			})
		} else {
			pathOwner[full] = a.ID
		}
	}
	return conflicts
}

// Statistics summarizes the managed assignments.
func (m *Manager) Statistics() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	assignments := m.allLocked()

	totalPages := 0
	valid := 0
	files := make(map[string]struct{})
	for _, a := range assignments {
		totalPages += a.PageCount()
		if a.IsValid {
			valid++
		}
		for _, id := range a.FileIDs() {
			files[id] = struct{}{}
		}
	}
	return map[string]any{
		"total_assignments":   len(assignments),
		"valid_assignments":   valid,
		"invalid_assignments": len(assignments) - valid,
		"total_pages":         totalPages,
		"unique_files":        len(files),
		"filename_conflicts":  len(m.filenameConflictsLocked()),
	}
}

// Clear removes every assignment and resets the page index.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments = make(map[string]*PageAssignment)
	m.pageIndex = make(map[string]string)
	m.order = nil
}
