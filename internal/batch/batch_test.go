package batch_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scandex/internal/batch"
	"scandex/internal/domain"
	"scandex/internal/schema"
)

func testSchema(t *testing.T) *schema.IndexSchema {
	t.Helper()
	s, err := schema.NewBuilder("test", "").
		Text("Category", domain.RoleFolder, true).
		Date("Date", domain.RoleFilename, true).
		FilenameTemplate("{date}").
		Build()
	require.NoError(t, err)
	return s
}

func scannedFile(id, path string, pages int) domain.ScannedFile {
	return domain.ScannedFile{
		FileID:    id,
		Path:      path,
		PageCount: pages,
		FileSize:  int64(pages) * 40_000,
		AddedAt:   time.Now(),
	}
}

func page(fileID string, n int) domain.PageReference {
	return domain.PageReference{FileID: fileID, PageNumber: n}
}

func newTestBatch(t *testing.T) *batch.DocumentBatch {
	t.Helper()
	b := batch.NewBatch("")
	b.SetSchema(testSchema(t))
	b.AddFile(scannedFile("f1", "/scans/a.pdf", 3))
	b.AddFile(scannedFile("f2", "/scans/b.pdf", 2))
	return b
}

func TestAddFileDeduplicatesByPath(t *testing.T) {
	b := batch.NewBatch("")
	first := b.AddFile(scannedFile("f1", "/scans/a.pdf", 3))
	second := b.AddFile(scannedFile("f9", "/scans/a.pdf", 3))

	assert.Equal(t, first.FileID, second.FileID)
	assert.Equal(t, 1, b.FileCount())
	assert.Equal(t, 3, b.TotalPages())
}

func TestTotalPagesTracksFiles(t *testing.T) {
	b := newTestBatch(t)
	assert.Equal(t, 5, b.TotalPages())
	assert.Len(t, b.AllPageReferences(), 5)

	require.True(t, b.RemoveFile("f2"))
	assert.Equal(t, 3, b.TotalPages())
	assert.False(t, b.RemoveFile("f2"))
}

func TestAssignPagesToIndex(t *testing.T) {
	b := newTestBatch(t)

	a, err := b.AssignPagesToIndex(
		[]domain.PageReference{page("f1", 1), page("f1", 2)},
		map[string]string{"Category": "Invoices", "Date": "2024-01-15"},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, a.PageCount())
	assert.NotNil(t, a.Schema)
	assert.Len(t, b.UnassignedPages(), 3)
}

func TestAssignPagesToIndexRejectsClaimedPages(t *testing.T) {
	b := newTestBatch(t)

	_, err := b.AssignPagesToIndex(
		[]domain.PageReference{page("f1", 1)},
		map[string]string{"Category": "Invoices", "Date": "2024-01-15"},
	)
	require.NoError(t, err)

	_, err = b.AssignPagesToIndex(
		[]domain.PageReference{page("f1", 1), page("f1", 3)},
		map[string]string{"Category": "Receipts", "Date": "2024-02-01"},
	)
	require.ErrorIs(t, err, domain.ErrPageConflict)
	assert.Contains(t, err.Error(), "f1:1")

	// The failed call must not have claimed any new pages.
	assert.Len(t, b.UnassignedPages(), 4)
}

func TestRemoveFileStripsAssignmentPages(t *testing.T) {
	b := newTestBatch(t)

	spanning, err := b.AssignPagesToIndex(
		[]domain.PageReference{page("f1", 1), page("f2", 1)},
		map[string]string{"Category": "Invoices", "Date": "2024-01-15"},
	)
	require.NoError(t, err)

	only, err := b.AssignPagesToIndex(
		[]domain.PageReference{page("f2", 2)},
		map[string]string{"Category": "Receipts", "Date": "2024-02-01"},
	)
	require.NoError(t, err)

	require.True(t, b.RemoveFile("f2"))

	// The spanning assignment survives with its f1 page only.
	got := b.Assignments.Get(spanning.ID)
	require.NotNil(t, got)
	assert.Equal(t, []domain.PageReference{page("f1", 1)}, got.Pages)

	// The assignment left empty is gone, and its pages are unindexed.
	assert.Nil(t, b.Assignments.Get(only.ID))
	assert.Nil(t, b.Assignments.AssignmentForPage(page("f2", 1)))
}

func TestValidateAssignmentsValidBatch(t *testing.T) {
	b := newTestBatch(t)
	_, err := b.AssignPagesToIndex(
		b.AllPageReferences(),
		map[string]string{"Category": "Invoices", "Date": "2024-01-15"},
	)
	require.NoError(t, err)

	results := b.ValidateAssignments()
	assert.True(t, results.IsValid)
	assert.Empty(t, results.BatchErrors)
	assert.Empty(t, results.BatchWarnings)
	assert.Equal(t, 1, results.Statistics.ValidAssignments)
}

func TestValidateAssignmentsWarnsUnassigned(t *testing.T) {
	b := newTestBatch(t)
	_, err := b.AssignPagesToIndex(
		[]domain.PageReference{page("f1", 1)},
		map[string]string{"Category": "Invoices", "Date": "2024-01-15"},
	)
	require.NoError(t, err)

	results := b.ValidateAssignments()
	assert.True(t, results.IsValid)
	require.NotEmpty(t, results.BatchWarnings)
	assert.Contains(t, results.BatchWarnings[0], "4 pages")
	assert.Equal(t, 4, results.Statistics.UnassignedPages)
}

func TestValidateAssignmentsFlagsFilenameConflicts(t *testing.T) {
	b := newTestBatch(t)
	values := map[string]string{"Category": "Invoices", "Date": "2024-01-15"}

	_, err := b.AssignPagesToIndex([]domain.PageReference{page("f1", 1)}, values)
	require.NoError(t, err)
	_, err = b.AssignPagesToIndex([]domain.PageReference{page("f1", 2)}, values)
	require.NoError(t, err)

	results := b.ValidateAssignments()

	assert.False(t, results.IsValid)
	require.NotEmpty(t, results.BatchErrors)
	assert.Contains(t, results.BatchErrors[0], "filename conflict")
	assert.Equal(t, 1, results.Statistics.FilenameConflicts)
}

func TestValidateAssignmentsNoSchema(t *testing.T) {
	b := batch.NewBatch("")
	b.AddFile(scannedFile("f1", "/scans/a.pdf", 1))

	results := b.ValidateAssignments()
	assert.False(t, results.IsValid)
	assert.Contains(t, strings.Join(results.BatchErrors, "; "), "no schema")
}

func TestPreviewOutputStructure(t *testing.T) {
	b := newTestBatch(t)
	_, err := b.AssignPagesToIndex(
		[]domain.PageReference{page("f1", 1), page("f1", 2)},
		map[string]string{"Category": "Invoices", "Date": "2024-01-15"},
	)
	require.NoError(t, err)
	_, err = b.AssignPagesToIndex(
		[]domain.PageReference{page("f2", 1)},
		map[string]string{"Category": "Receipts", "Date": "2024-02-01"},
	)
	require.NoError(t, err)
	b.ValidateAssignments()

	preview := b.PreviewOutputStructure()
	assert.Equal(t, 2, preview.TotalDocuments)
	assert.Equal(t, 2, preview.TotalFolders)
	require.Len(t, preview.Folders, 2)
	assert.Equal(t, "Invoices", preview.Folders[0].Path)
	assert.Equal(t, "Receipts", preview.Folders[1].Path)
	assert.Equal(t, "Invoices/2024-01-15.pdf", preview.Files[0].FullPath)
	assert.Equal(t, int64(3*50_000), preview.EstimatedSize)
}

func TestOutputStatistics(t *testing.T) {
	b := newTestBatch(t)
	_, err := b.AssignPagesToIndex(
		[]domain.PageReference{page("f1", 1), page("f1", 2), page("f1", 3)},
		map[string]string{"Category": "Invoices", "Date": "2024-01-15"},
	)
	require.NoError(t, err)
	_, err = b.AssignPagesToIndex(
		[]domain.PageReference{page("f2", 1)},
		map[string]string{"Category": "Receipts", "Date": "2024-02-01"},
	)
	require.NoError(t, err)
	b.ValidateAssignments()

	stats := b.OutputStatistics()
	assert.Equal(t, 2, stats.DocumentCount)
	assert.Equal(t, 4, stats.TotalPages)
	assert.Equal(t, 2, stats.FolderCount)
	assert.Equal(t, 3, stats.LargestDocumentPgs)
	assert.Equal(t, 1, stats.SmallestDocumentPgs)
	assert.InDelta(t, 2.0, stats.AveragePagesPerDoc, 0.001)
	assert.Equal(t, 1, stats.PageDistribution["1 page"])
	assert.Equal(t, 1, stats.PageDistribution["2-5 pages"])
}

func TestBackupRoundTrip(t *testing.T) {
	b := newTestBatch(t)
	b.Description = "quarterly scans"
	_, err := b.AssignPagesToIndex(
		[]domain.PageReference{page("f1", 1)},
		map[string]string{"Category": "Invoices", "Date": "2024-01-15"},
	)
	require.NoError(t, err)

	data, err := b.MarshalBackup()
	require.NoError(t, err)

	restored, err := batch.RestoreBackup(data, b.Schema())
	require.NoError(t, err)

	assert.Equal(t, b.ID, restored.ID)
	assert.Equal(t, "quarterly scans", restored.Description)
	assert.Equal(t, 2, restored.FileCount())
	assert.Equal(t, 5, restored.TotalPages())
	assert.Equal(t, 1, restored.Assignments.Count())

	// Restored assignments are re-indexed; their pages conflict again.
	conflicts := restored.Assignments.CheckPageConflicts([]domain.PageReference{page("f1", 1)})
	assert.Len(t, conflicts, 1)
}

func TestEstimateProcessingTime(t *testing.T) {
	b := newTestBatch(t)
	_, err := b.AssignPagesToIndex(
		[]domain.PageReference{page("f1", 1)},
		map[string]string{"Category": "Invoices", "Date": "2024-01-15"},
	)
	require.NoError(t, err)

	// 5s base + 5 pages * 0.5s + 2 files * 2s + 1 assignment * 1s
	assert.Equal(t, 12500*time.Millisecond, b.EstimateProcessingTime())
}
