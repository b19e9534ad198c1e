package port

import (
	"context"
	"time"
)

// ProcessingRun is one completed (or aborted) batch processing run as kept in
// the history store.
type ProcessingRun struct {
	ID              string    `db:"id" json:"id"`
	BatchID         string    `db:"batch_id" json:"batch_id"`
	SchemaName      string    `db:"schema_name" json:"schema_name"`
	OutputDirectory string    `db:"output_directory" json:"output_directory"`
	State           string    `db:"state" json:"state"`
	TotalDocuments  int       `db:"total_documents" json:"total_documents"`
	SuccessCount    int       `db:"success_count" json:"success_count"`
	FailureCount    int       `db:"failure_count" json:"failure_count"`
	TotalPages      int       `db:"total_pages" json:"total_pages"`
	StartedAt       time.Time `db:"started_at" json:"started_at"`
	CompletedAt     time.Time `db:"completed_at" json:"completed_at"`
	DurationMillis  int64     `db:"duration_millis" json:"duration_millis"`
	ErrorSummary    string    `db:"error_summary" json:"error_summary,omitempty"`
}

// HistoryQuery filters and pages a history listing. A zero value lists the
// most recent runs.
type HistoryQuery struct {
	BatchID string
	State   string
	Limit   int
	Offset  int
}

// HistoryRepository persists processing runs.
type HistoryRepository interface {
	// Create stores a finished run.
	Create(ctx context.Context, run *ProcessingRun) error

	// Get returns a run by id.
	Get(ctx context.Context, id string) (*ProcessingRun, error)

	// List returns runs matching the query, most recent first.
	List(ctx context.Context, query HistoryQuery) ([]*ProcessingRun, error)

	// Delete removes a run from history.
	Delete(ctx context.Context, id string) error

	// Purge removes runs completed before the cutoff and reports how many
	// were removed.
	Purge(ctx context.Context, before time.Time) (int64, error)
}
