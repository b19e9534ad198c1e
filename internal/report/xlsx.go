// Package report renders processing history as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"scandex/internal/port"
)

const (
	summarySheet = "Summary"
	runsSheet    = "Processing Runs"
)

var runColumns = []string{
	"Run ID", "Batch ID", "Schema", "State", "Documents",
	"Succeeded", "Failed", "Pages", "Started At", "Completed At",
	"Duration (s)", "Output Directory", "Error Summary",
}

// WriteWorkbook renders the runs into an xlsx workbook on w: a summary sheet
// with aggregate totals and a detail sheet with one row per run, most recent
// first (the order the history store returns).
func WriteWorkbook(w io.Writer, runs []*port.ProcessingRun) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	if _, err := f.NewSheet(runsSheet); err != nil {
		return fmt.Errorf("creating runs sheet: %w", err)
	}

	if err := writeSummarySheet(f, runs); err != nil {
		return err
	}
	if err := writeRunsSheet(f, runs); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, runs []*port.ProcessingRun) error {
	var documents, succeeded, failed, pages int
	var duration int64
	for _, run := range runs {
		documents += run.TotalDocuments
		succeeded += run.SuccessCount
		failed += run.FailureCount
		pages += run.TotalPages
		duration += run.DurationMillis
	}

	lines := [][]interface{}{
		{"Processing History Report"},
		{"Generated", time.Now().Format("2006-01-02 15:04:05")},
		{},
		{"Total Runs", len(runs)},
		{"Total Documents", documents},
		{"Succeeded", succeeded},
		{"Failed", failed},
		{"Total Pages", pages},
		{"Total Processing Time (s)", float64(duration) / 1000.0},
	}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("summary cell: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &line); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeRunsSheet(f *excelize.File, runs []*port.ProcessingRun) error {
	header := make([]interface{}, len(runColumns))
	for i, c := range runColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(runsSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing runs header: %w", err)
	}

	for i, run := range runs {
		row := []interface{}{
			run.ID,
			run.BatchID,
			run.SchemaName,
			run.State,
			run.TotalDocuments,
			run.SuccessCount,
			run.FailureCount,
			run.TotalPages,
			run.StartedAt.Format(time.RFC3339),
			run.CompletedAt.Format(time.RFC3339),
			float64(run.DurationMillis) / 1000.0,
			run.OutputDirectory,
			run.ErrorSummary,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("runs cell: %w", err)
		}
		if err := f.SetSheetRow(runsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing run row %d: %w", i+2, err)
		}
	}
	return nil
}

// BuildFilename returns the download filename for a history report.
func BuildFilename() string {
	return fmt.Sprintf("processing_report_%s.xlsx", time.Now().Format("2006-01-02"))
}
