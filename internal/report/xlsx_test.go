package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"scandex/internal/port"
)

func TestWriteWorkbook(t *testing.T) {
	started := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	runs := []*port.ProcessingRun{
		{
			ID:             "run-1",
			BatchID:        "batch-1",
			SchemaName:     "Invoices",
			State:          "completed",
			TotalDocuments: 3,
			SuccessCount:   3,
			TotalPages:     9,
			StartedAt:      started,
			CompletedAt:    started.Add(time.Minute),
			DurationMillis: 60_000,
		},
		{
			ID:             "run-2",
			BatchID:        "batch-2",
			SchemaName:     "Receipts",
			State:          "cancelled",
			TotalDocuments: 5,
			SuccessCount:   2,
			FailureCount:   1,
			TotalPages:     4,
			StartedAt:      started,
			CompletedAt:    started.Add(30 * time.Second),
			DurationMillis: 30_000,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, runs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Summary", "Processing Runs"}, f.GetSheetList())

	rows, err := f.GetRows("Processing Runs")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Run ID", rows[0][0])
	assert.Equal(t, "run-1", rows[1][0])
	assert.Equal(t, "Invoices", rows[1][2])
	assert.Equal(t, "run-2", rows[2][0])
	assert.Equal(t, "cancelled", rows[2][3])

	totalRuns, err := f.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "2", totalRuns)

	totalDocs, err := f.GetCellValue("Summary", "B5")
	require.NoError(t, err)
	assert.Equal(t, "8", totalDocs)
}

func TestWriteWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Processing Runs")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}

func TestBuildFilename(t *testing.T) {
	assert.Contains(t, BuildFilename(), "processing_report_")
	assert.Contains(t, BuildFilename(), ".xlsx")
}
