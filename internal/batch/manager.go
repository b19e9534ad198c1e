package batch

import (
	"log"
	"os"
	"sync"
	"time"

	"scandex/internal/domain"
	"scandex/internal/events"
)

// Summary is the headline view of one batch in listings.
type Summary struct {
	BatchID         string                 `json:"batch_id"`
	Description     string                 `json:"description"`
	Created         time.Time              `json:"created"`
	Modified        time.Time              `json:"modified"`
	FileCount       int                    `json:"file_count"`
	PageCount       int                    `json:"page_count"`
	AssignmentCount int                    `json:"assignment_count"`
	ProcessingState domain.ProcessingState `json:"processing_state"`
	IsActive        bool                   `json:"is_active"`
}

// Manager owns the set of open batches and tracks which one is active.
type Manager struct {
	mu       sync.Mutex
	batches  map[string]*DocumentBatch
	order    []string
	activeID string
	bus      *events.Bus
}

// NewManager creates an empty batch manager. bus may be nil.
func NewManager(bus *events.Bus) *Manager {
	return &Manager{
		batches: make(map[string]*DocumentBatch),
		bus:     bus,
	}
}

// Create opens a new batch and makes it active.
func (m *Manager) Create(stagingDir, description string) *DocumentBatch {
	b := NewBatch(stagingDir)
	b.Description = description

	m.mu.Lock()
	m.batches[b.ID] = b
	m.order = append(m.order, b.ID)
	m.activeID = b.ID
	m.mu.Unlock()

	log.Printf("Manager.Create: created batch %s", b.ID)
	if m.bus != nil {
		m.bus.Publish(events.BatchCreated, b.ID)
	}
	return b
}

// Get returns a batch by ID, or nil.
func (m *Manager) Get(batchID string) *DocumentBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches[batchID]
}

// Active returns the active batch, or nil.
func (m *Manager) Active() *DocumentBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID == "" {
		return nil
	}
	return m.batches[m.activeID]
}

// Adopt registers an externally built batch, such as one restored from a
// backup, and makes it active.
func (m *Manager) Adopt(b *DocumentBatch) {
	m.mu.Lock()
	if _, ok := m.batches[b.ID]; !ok {
		m.order = append(m.order, b.ID)
	}
	m.batches[b.ID] = b
	m.activeID = b.ID
	m.mu.Unlock()

	log.Printf("Manager.Adopt: adopted batch %s", b.ID)
	if m.bus != nil {
		m.bus.Publish(events.BatchCreated, b.ID)
	}
}

// SetActive marks a batch active. Returns false for unknown IDs.
func (m *Manager) SetActive(batchID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.batches[batchID]; !ok {
		return false
	}
	m.activeID = batchID
	return true
}

// Remove closes a batch and cleans up its staging directory.
func (m *Manager) Remove(batchID string) bool {
	m.mu.Lock()
	b, ok := m.batches[batchID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.batches, batchID)
	for i, id := range m.order {
		if id == batchID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.activeID == batchID {
		m.activeID = ""
	}
	m.mu.Unlock()

	cleanupStaging(b)
	log.Printf("Manager.Remove: removed batch %s", batchID)
	return true
}

// List returns summaries of all open batches in creation order.
func (m *Manager) List() []Summary {
	m.mu.Lock()
	ids := append([]string(nil), m.order...)
	activeID := m.activeID
	byID := make(map[string]*DocumentBatch, len(m.batches))
	for id, b := range m.batches {
		byID[id] = b
	}
	m.mu.Unlock()

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		b := byID[id]
		summaries = append(summaries, Summary{
			BatchID:         b.ID,
			Description:     b.Description,
			Created:         b.CreatedAt(),
			Modified:        b.ModifiedAt(),
			FileCount:       b.FileCount(),
			PageCount:       b.TotalPages(),
			AssignmentCount: b.Assignments.Count(),
			ProcessingState: b.State(),
			IsActive:        b.ID == activeID,
		})
	}
	return summaries
}

// Statistics aggregates counts across all open batches.
func (m *Manager) Statistics() map[string]any {
	m.mu.Lock()
	batches := make([]*DocumentBatch, 0, len(m.batches))
	for _, b := range m.batches {
		batches = append(batches, b)
	}
	activeID := m.activeID
	m.mu.Unlock()

	totalFiles, totalPages, totalAssignments := 0, 0, 0
	byState := make(map[string]int)
	for _, b := range batches {
		totalFiles += b.FileCount()
		totalPages += b.TotalPages()
		totalAssignments += b.Assignments.Count()
		byState[string(b.State())]++
	}
	return map[string]any{
		"total_batches":     len(batches),
		"total_files":       totalFiles,
		"total_pages":       totalPages,
		"total_assignments": totalAssignments,
		"active_batch_id":   activeID,
		"batches_by_state":  byState,
	}
}

// CleanupAll removes every open batch's staging directory.
func (m *Manager) CleanupAll() {
	m.mu.Lock()
	batches := make([]*DocumentBatch, 0, len(m.batches))
	for _, b := range m.batches {
		batches = append(batches, b)
	}
	m.mu.Unlock()

	for _, b := range batches {
		cleanupStaging(b)
	}
}

func cleanupStaging(b *DocumentBatch) {
	if b.StagingDirectory == "" {
		return
	}
	if err := os.RemoveAll(b.StagingDirectory); err != nil {
		log.Printf("Manager: cleanup of staging directory %s failed: %v", b.StagingDirectory, err)
	}
}
