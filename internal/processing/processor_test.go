package processing_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scandex/internal/batch"
	"scandex/internal/domain"
	"scandex/internal/events"
	"scandex/internal/port"
	"scandex/internal/processing"
	"scandex/internal/schema"
	"scandex/mocks"
)

func exportSchema(t *testing.T) *schema.IndexSchema {
	t.Helper()
	s := schema.NewSchema("Export", "")
	s.FilenameTemplate = "{date}_{sequential}"
	require.NoError(t, s.AddField(&schema.IndexField{
		Name:            "Category",
		Type:            domain.FieldTypeDropdown,
		Role:            domain.RoleFolder,
		Required:        true,
		DropdownOptions: []string{"Invoices", "Receipts"},
	}))
	require.NoError(t, s.AddField(&schema.IndexField{
		Name:     "Date",
		Type:     domain.FieldTypeDate,
		Role:     domain.RoleFilename,
		Required: true,
	}))
	return s
}

func page(fileID string, n int) domain.PageReference {
	return domain.PageReference{FileID: fileID, PageNumber: n}
}

// exportBatch builds a batch with one 4-page file and two valid assignments,
// both filed under Invoices.
func exportBatch(t *testing.T) *batch.DocumentBatch {
	t.Helper()
	b := batch.NewBatch(t.TempDir())
	b.SetSchema(exportSchema(t))
	f := b.AddFile(domain.ScannedFile{
		FileID:    "f1",
		Path:      filepath.Join(b.StagingDirectory, "scan.pdf"),
		PageCount: 4,
	})

	_, err := b.AssignPagesToIndex(
		[]domain.PageReference{page(f.FileID, 1), page(f.FileID, 2)},
		map[string]string{"Category": "Invoices", "Date": "2024-01-15"},
	)
	require.NoError(t, err)
	_, err = b.AssignPagesToIndex(
		[]domain.PageReference{page(f.FileID, 3), page(f.FileID, 4)},
		map[string]string{"Category": "Invoices", "Date": "2024-01-16"},
	)
	require.NoError(t, err)
	return b
}

func mergedPaths(m *mocks.MockPDFService) []string {
	var paths []string
	for _, call := range m.Calls {
		if call.Method == "MergePages" {
			paths = append(paths, call.Arguments.String(2))
		}
	}
	return paths
}

func TestProcessExportsEveryAssignment(t *testing.T) {
	b := exportBatch(t)
	outDir := t.TempDir()
	pdf := &mocks.MockPDFService{}
	pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	bus := events.NewBus()
	var published []events.Kind
	for _, k := range []events.Kind{events.ProcessingStarted, events.ProcessingCompleted} {
		bus.Subscribe(k, func(ev events.Event) { published = append(published, ev.Kind) })
	}

	p := processing.NewProcessor(pdf, bus)
	result, err := p.Process(context.Background(), b, processing.Options{
		OutputDirectory: outDir,
		WriteSummary:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StateCompleted, result.State)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Zero(t, result.FailureCount)
	assert.Equal(t, 4, result.TotalPages)
	assert.Equal(t, domain.StateCompleted, b.State())
	assert.InDelta(t, 1.0, result.SuccessRate(), 1e-9)

	// Documents in the same folder get consecutive sequential numbers.
	want := []string{
		filepath.Join(outDir, "Invoices", "2024-01-15_001.pdf"),
		filepath.Join(outDir, "Invoices", "2024-01-16_002.pdf"),
	}
	assert.Equal(t, want, mergedPaths(pdf))

	assert.Equal(t, []events.Kind{events.ProcessingStarted, events.ProcessingCompleted}, published)

	data, err := os.ReadFile(filepath.Join(outDir, processing.SummaryFilename))
	require.NoError(t, err)
	var summary map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Contains(t, summary, "processing_summary")
	assert.Contains(t, summary, "batch_info")
	assert.Contains(t, summary, "processing_settings")

	assert.Equal(t, domain.StateIdle, p.Status().State)
}

func TestProcessIsolatesDocumentFailures(t *testing.T) {
	b := exportBatch(t)
	outDir := t.TempDir()
	failing := filepath.Join(outDir, "Invoices", "2024-01-15_001.pdf")

	pdf := &mocks.MockPDFService{}
	pdf.On("MergePages", mock.Anything, mock.Anything, failing).
		Return(assert.AnError)
	pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	p := processing.NewProcessor(pdf, events.NewBus())
	result, err := p.Process(context.Background(), b, processing.Options{OutputDirectory: outDir})
	require.NoError(t, err)

	assert.Equal(t, domain.StateCompleted, result.State)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Documents, 2)
	assert.False(t, result.Documents[0].Success)
	assert.NotEmpty(t, result.Documents[0].Error)
	assert.True(t, result.Documents[1].Success)
	assert.InDelta(t, 0.5, result.SuccessRate(), 1e-9)
}

func TestProcessRejectsInvalidBatch(t *testing.T) {
	b := batch.NewBatch(t.TempDir())
	b.SetSchema(exportSchema(t))
	f := b.AddFile(domain.ScannedFile{FileID: "f1", Path: "scan.pdf", PageCount: 1})
	_, err := b.AssignPagesToIndex(
		[]domain.PageReference{page(f.FileID, 1)},
		map[string]string{"Category": "Invoices"}, // Date missing
	)
	require.NoError(t, err)

	pdf := &mocks.MockPDFService{}
	p := processing.NewProcessor(pdf, events.NewBus())
	result, err := p.Process(context.Background(), b, processing.Options{OutputDirectory: t.TempDir()})

	require.ErrorIs(t, err, domain.ErrBatchInvalid)
	assert.Equal(t, domain.StateError, result.State)
	assert.Equal(t, domain.StateError, b.State())
	pdf.AssertNotCalled(t, "MergePages", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessSingleRunGuard(t *testing.T) {
	b := exportBatch(t)
	started := make(chan struct{})
	release := make(chan struct{})

	pdf := &mocks.MockPDFService{}
	first := true
	pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			if first {
				first = false
				close(started)
				<-release
			}
		}).
		Return(nil)

	p := processing.NewProcessor(pdf, events.NewBus())
	done := make(chan *processing.RunResult, 1)
	go func() {
		result, err := p.Process(context.Background(), b, processing.Options{OutputDirectory: t.TempDir()})
		assert.NoError(t, err)
		done <- result
	}()

	<-started
	_, err := p.Process(context.Background(), b, processing.Options{OutputDirectory: t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrProcessingActive)

	close(release)
	result := <-done
	assert.Equal(t, domain.StateCompleted, result.State)

	// The guard is released once the first run finishes.
	assert.Equal(t, domain.StateIdle, p.Status().State)
}

func TestProcessCancellationStopsAtDocumentBoundary(t *testing.T) {
	b := exportBatch(t)
	ctx, cancel := context.WithCancel(context.Background())

	pdf := &mocks.MockPDFService{}
	pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil)

	p := processing.NewProcessor(pdf, events.NewBus())
	result, err := p.Process(ctx, b, processing.Options{OutputDirectory: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, domain.StateCancelled, result.State)
	assert.Equal(t, domain.StateCancelled, b.State())
	require.Len(t, result.Documents, 1, "in-flight document finishes, the rest never start")
	assert.True(t, result.Documents[0].Success)
}

func TestProcessCancelMethod(t *testing.T) {
	p := processing.NewProcessor(&mocks.MockPDFService{}, events.NewBus())
	assert.ErrorIs(t, p.Cancel(), domain.ErrNotProcessing)
}

func TestProcessConflictStrategies(t *testing.T) {
	t.Run("skip duplicate", func(t *testing.T) {
		b := exportBatch(t)
		outDir := t.TempDir()
		existing := filepath.Join(outDir, "Invoices", "2024-01-15_001.pdf")
		require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
		require.NoError(t, os.WriteFile(existing, []byte("%PDF"), 0o644))

		pdf := &mocks.MockPDFService{}
		pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		p := processing.NewProcessor(pdf, events.NewBus())
		result, err := p.Process(context.Background(), b, processing.Options{
			OutputDirectory:  outDir,
			ConflictStrategy: domain.ResolveSkipDuplicate,
		})
		require.NoError(t, err)

		assert.Equal(t, 1, result.SkippedCount)
		assert.Equal(t, 1, result.SuccessCount)
		assert.Equal(t, []string{filepath.Join(outDir, "Invoices", "2024-01-16_002.pdf")}, mergedPaths(pdf))
	})

	t.Run("auto rename", func(t *testing.T) {
		b := exportBatch(t)
		outDir := t.TempDir()
		existing := filepath.Join(outDir, "Invoices", "2024-01-15_001.pdf")
		require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
		require.NoError(t, os.WriteFile(existing, []byte("%PDF"), 0o644))

		pdf := &mocks.MockPDFService{}
		pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		p := processing.NewProcessor(pdf, events.NewBus())
		result, err := p.Process(context.Background(), b, processing.Options{
			OutputDirectory:  outDir,
			ConflictStrategy: domain.ResolveAutoRename,
		})
		require.NoError(t, err)

		assert.Equal(t, 2, result.SuccessCount)
		want := []string{
			filepath.Join(outDir, "Invoices", "2024-01-15_001_1.pdf"),
			filepath.Join(outDir, "Invoices", "2024-01-16_002.pdf"),
		}
		assert.Equal(t, want, mergedPaths(pdf))
	})

	t.Run("overwrite", func(t *testing.T) {
		b := exportBatch(t)
		outDir := t.TempDir()
		existing := filepath.Join(outDir, "Invoices", "2024-01-15_001.pdf")
		require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
		require.NoError(t, os.WriteFile(existing, []byte("%PDF"), 0o644))

		pdf := &mocks.MockPDFService{}
		pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		p := processing.NewProcessor(pdf, events.NewBus())
		result, err := p.Process(context.Background(), b, processing.Options{
			OutputDirectory:  outDir,
			ConflictStrategy: domain.ResolveOverwrite,
		})
		require.NoError(t, err)

		assert.Equal(t, 2, result.SuccessCount)
		assert.Contains(t, mergedPaths(pdf), existing)
	})
}

func TestProcessWritesMetadataAndSourceFiles(t *testing.T) {
	b := exportBatch(t)
	outDir := t.TempDir()

	pdf := &mocks.MockPDFService{}
	pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	pdf.On("AddMetadata", mock.Anything, mock.Anything, mock.MatchedBy(func(props map[string]string) bool {
		return props["Creator"] == "scandex" &&
			props["Custom_Category"] == "Invoices" &&
			props["Title"] != ""
	})).Return(nil)

	p := processing.NewProcessor(pdf, events.NewBus())
	result, err := p.Process(context.Background(), b, processing.Options{
		OutputDirectory: outDir,
		WriteMetadata:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.SuccessCount)
	pdf.AssertNumberOfCalls(t, "AddMetadata", 2)

	f, ok := b.FileByPath(filepath.Join(b.StagingDirectory, "scan.pdf"))
	require.True(t, ok)
	assert.Equal(t, []string{f.Path}, result.Documents[0].SourceFiles)

	// Page order in the merge request matches the assignment order.
	firstCall := pdf.Calls[0]
	require.Equal(t, "MergePages", firstCall.Method)
	picks := firstCall.Arguments.Get(1).([]port.PagePick)
	require.Len(t, picks, 2)
	assert.Equal(t, 1, picks[0].PageNumber)
	assert.Equal(t, 2, picks[1].PageNumber)
	assert.Equal(t, f.Path, picks[0].SourcePath)
}

func TestProcessStatusDuringRun(t *testing.T) {
	b := exportBatch(t)
	started := make(chan struct{})
	release := make(chan struct{})

	pdf := &mocks.MockPDFService{}
	first := true
	pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			if first {
				first = false
				close(started)
				<-release
			}
		}).
		Return(nil)

	p := processing.NewProcessor(pdf, events.NewBus())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := p.Process(context.Background(), b, processing.Options{OutputDirectory: t.TempDir()})
		assert.NoError(t, err)
	}()

	<-started
	st := p.Status()
	assert.Equal(t, domain.StateProcessing, st.State)
	assert.Equal(t, 1, st.Current)
	assert.Equal(t, 2, st.Total)

	close(release)
	<-done
}

// The estimate and the real run agree on document count, a sanity link
// between planning and execution.
func TestProcessDocumentCountMatchesBatch(t *testing.T) {
	b := exportBatch(t)
	require.Equal(t, 2, b.Assignments.Count())
	require.Greater(t, b.EstimateProcessingTime(), time.Duration(0))

	pdf := &mocks.MockPDFService{}
	pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	p := processing.NewProcessor(pdf, events.NewBus())
	result, err := p.Process(context.Background(), b, processing.Options{OutputDirectory: t.TempDir()})
	require.NoError(t, err)
	assert.Len(t, result.Documents, b.Assignments.Count())
}

func TestProcessOptimizesCompressedQuality(t *testing.T) {
	b := exportBatch(t)
	outDir := t.TempDir()
	pdf := &mocks.MockPDFService{}
	pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	pdf.On("OptimizePDF", mock.Anything, mock.Anything).Return(nil)

	p := processing.NewProcessor(pdf, events.NewBus())
	result, err := p.Process(context.Background(), b, processing.Options{
		OutputDirectory: outDir,
		Quality:         domain.QualityLow,
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.SuccessCount)

	pdf.AssertNumberOfCalls(t, "OptimizePDF", 2)
	pdf.AssertCalled(t, "OptimizePDF", mock.Anything,
		filepath.Join(outDir, "Invoices", "2024-01-15_001.pdf"))
}

func TestProcessDefaultQualitySkipsOptimization(t *testing.T) {
	b := exportBatch(t)
	pdf := &mocks.MockPDFService{}
	pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	p := processing.NewProcessor(pdf, events.NewBus())
	_, err := p.Process(context.Background(), b, processing.Options{
		OutputDirectory: t.TempDir(),
	})
	require.NoError(t, err)

	pdf.AssertNotCalled(t, "OptimizePDF", mock.Anything, mock.Anything)
}

func TestProcessRejectsUnknownQuality(t *testing.T) {
	p := processing.NewProcessor(&mocks.MockPDFService{}, events.NewBus())
	_, err := p.Process(context.Background(), exportBatch(t), processing.Options{
		OutputDirectory: t.TempDir(),
		Quality:         domain.PDFQuality("ultra"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdf quality")
}

func TestProcessCustomFolderSeparatorNestsDirectories(t *testing.T) {
	s := schema.NewSchema("Export", "")
	s.FilenameTemplate = "{date}_{sequential}"
	s.FolderSeparator = "__"
	require.NoError(t, s.AddField(&schema.IndexField{
		Name: "Year", Type: domain.FieldTypeText, Role: domain.RoleFolder, Required: true,
	}))
	require.NoError(t, s.AddField(&schema.IndexField{
		Name: "Category", Type: domain.FieldTypeText, Role: domain.RoleFolder, Required: true,
	}))
	require.NoError(t, s.AddField(&schema.IndexField{
		Name: "Date", Type: domain.FieldTypeDate, Role: domain.RoleFilename, Required: true,
	}))

	b := batch.NewBatch(t.TempDir())
	b.SetSchema(s)
	f := b.AddFile(domain.ScannedFile{FileID: "f1", Path: "scan.pdf", PageCount: 2})
	_, err := b.AssignPagesToIndex(
		[]domain.PageReference{page(f.FileID, 1), page(f.FileID, 2)},
		map[string]string{"Year": "2024", "Category": "Invoices", "Date": "2024-01-15"},
	)
	require.NoError(t, err)

	outDir := t.TempDir()
	pdf := &mocks.MockPDFService{}
	pdf.On("MergePages", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	p := processing.NewProcessor(pdf, events.NewBus())
	result, err := p.Process(context.Background(), b, processing.Options{OutputDirectory: outDir})
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessCount)

	// Each separator-joined segment becomes one directory level.
	want := []string{filepath.Join(outDir, "2024", "Invoices", "2024-01-15_001.pdf")}
	assert.Equal(t, want, mergedPaths(pdf))
}
