package processing

import (
	"time"

	"scandex/internal/domain"
)

// DocumentResult records the outcome of exporting one page assignment.
type DocumentResult struct {
	AssignmentID string        `json:"assignment_id"`
	OutputPath   string        `json:"output_path,omitempty"`
	Filename     string        `json:"filename"`
	FolderPath   string        `json:"folder_path"`
	PageCount    int           `json:"page_count"`
	SourceFiles  []string      `json:"source_files"`
	Success      bool          `json:"success"`
	Skipped      bool          `json:"skipped,omitempty"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration_ms"`
	ProcessedAt  time.Time     `json:"processed_at"`
}

// RunResult aggregates a whole processing run.
type RunResult struct {
	RunID           string                 `json:"run_id"`
	BatchID         string                 `json:"batch_id"`
	SchemaName      string                 `json:"schema_name"`
	OutputDirectory string                 `json:"output_directory"`
	State           domain.ProcessingState `json:"state"`
	Documents       []DocumentResult       `json:"documents"`
	SuccessCount    int                    `json:"success_count"`
	FailureCount    int                    `json:"failure_count"`
	SkippedCount    int                    `json:"skipped_count"`
	TotalPages      int                    `json:"total_pages"`
	StartedAt       time.Time              `json:"started_at"`
	CompletedAt     time.Time              `json:"completed_at"`
}

func (r *RunResult) addDocument(d DocumentResult) {
	r.Documents = append(r.Documents, d)
	switch {
	case d.Skipped:
		r.SkippedCount++
	case d.Success:
		r.SuccessCount++
		r.TotalPages += d.PageCount
	default:
		r.FailureCount++
	}
}

func (r *RunResult) complete(state domain.ProcessingState) {
	r.State = state
	r.CompletedAt = time.Now()
}

// Duration returns the wall-clock length of the run.
func (r *RunResult) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// SuccessRate returns the fraction of attempted documents that succeeded,
// in [0, 1]. Skipped documents do not count as attempts.
func (r *RunResult) SuccessRate() float64 {
	attempted := r.SuccessCount + r.FailureCount
	if attempted == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(attempted)
}
