package processing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SummaryFilename is the report written into the output directory after a
// completed run.
const SummaryFilename = "processing_summary.json"

type runSummary struct {
	ProcessingSummary summarySection  `json:"processing_summary"`
	BatchInfo         batchSection    `json:"batch_info"`
	Settings          settingsSection `json:"processing_settings"`
	Documents         []documentLine  `json:"documents"`
}

type summarySection struct {
	RunID          string  `json:"run_id"`
	State          string  `json:"state"`
	StartedAt      string  `json:"started_at"`
	CompletedAt    string  `json:"completed_at"`
	DurationMillis int64   `json:"duration_millis"`
	TotalDocuments int     `json:"total_documents"`
	Succeeded      int     `json:"succeeded"`
	Failed         int     `json:"failed"`
	Skipped        int     `json:"skipped"`
	TotalPages     int     `json:"total_pages"`
	SuccessRate    float64 `json:"success_rate"`
}

type batchSection struct {
	BatchID    string `json:"batch_id"`
	SchemaName string `json:"schema_name"`
}

type settingsSection struct {
	OutputDirectory    string `json:"output_directory"`
	ConflictStrategy   string `json:"conflict_strategy"`
	PDFQuality         string `json:"pdf_quality"`
	WriteMetadata      bool   `json:"write_metadata"`
	PreserveTimestamps bool   `json:"preserve_timestamps"`
}

type documentLine struct {
	AssignmentID string `json:"assignment_id"`
	OutputPath   string `json:"output_path,omitempty"`
	PageCount    int    `json:"page_count"`
	Success      bool   `json:"success"`
	Skipped      bool   `json:"skipped,omitempty"`
	Error        string `json:"error,omitempty"`
}

// writeSummary records the run outcome as JSON in the output directory.
func writeSummary(opts Options, result *RunResult) error {
	completed := result.CompletedAt
	if completed.IsZero() {
		completed = time.Now()
	}

	summary := runSummary{
		ProcessingSummary: summarySection{
			RunID:          result.RunID,
			State:          string(result.State),
			StartedAt:      result.StartedAt.Format(time.RFC3339),
			CompletedAt:    completed.Format(time.RFC3339),
			DurationMillis: completed.Sub(result.StartedAt).Milliseconds(),
			TotalDocuments: len(result.Documents),
			Succeeded:      result.SuccessCount,
			Failed:         result.FailureCount,
			Skipped:        result.SkippedCount,
			TotalPages:     result.TotalPages,
			SuccessRate:    result.SuccessRate(),
		},
		BatchInfo: batchSection{
			BatchID:    result.BatchID,
			SchemaName: result.SchemaName,
		},
		Settings: settingsSection{
			OutputDirectory:    opts.OutputDirectory,
			ConflictStrategy:   string(opts.ConflictStrategy),
			PDFQuality:         string(opts.Quality),
			WriteMetadata:      opts.WriteMetadata,
			PreserveTimestamps: opts.PreserveTimestamps,
		},
		Documents: make([]documentLine, 0, len(result.Documents)),
	}
	for _, d := range result.Documents {
		summary.Documents = append(summary.Documents, documentLine{
			AssignmentID: d.AssignmentID,
			OutputPath:   d.OutputPath,
			PageCount:    d.PageCount,
			Success:      d.Success,
			Skipped:      d.Skipped,
			Error:        d.Error,
		})
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	path := filepath.Join(opts.OutputDirectory, SummaryFilename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
