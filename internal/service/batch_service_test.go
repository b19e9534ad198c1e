package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scandex/internal/batch"
	"scandex/internal/cache"
	"scandex/internal/domain"
	"scandex/internal/events"
	"scandex/internal/port"
	"scandex/internal/schema"
	"scandex/internal/service"
	"scandex/mocks"
)

func testBatchService(t *testing.T, pdf port.PDFService) service.BatchService {
	t.Helper()
	bus := events.NewBus()
	store, err := schema.NewStore(t.TempDir(), bus)
	require.NoError(t, err)
	return service.NewBatchService(
		batch.NewManager(bus),
		service.NewSchemaService(store),
		pdf,
		cache.NewLRU(cache.DefaultMaxBytes),
		port.ThumbnailSize{Width: 200, Height: 280},
		t.TempDir(),
		bus,
	)
}

func writeScan(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func TestAddFileRejectsDuplicatePath(t *testing.T) {
	pdf := &mocks.MockPDFService{}
	pdf.On("GetPageCount", mock.Anything, mock.Anything).Return(3, nil)
	svc := testBatchService(t, pdf)

	b, err := svc.Create(context.Background(), "")
	require.NoError(t, err)

	path := writeScan(t)
	file, err := svc.AddFile(context.Background(), b.ID, path)
	require.NoError(t, err)
	assert.Equal(t, 3, file.PageCount)

	_, err = svc.AddFile(context.Background(), b.ID, path)
	assert.ErrorIs(t, err, domain.ErrFileConflict)
	assert.Equal(t, 1, b.FileCount())
}

func TestAddFileMissingPath(t *testing.T) {
	pdf := &mocks.MockPDFService{}
	svc := testBatchService(t, pdf)

	b, err := svc.Create(context.Background(), "")
	require.NoError(t, err)

	_, err = svc.AddFile(context.Background(), b.ID, filepath.Join(t.TempDir(), "nope.pdf"))
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
	pdf.AssertNotCalled(t, "GetPageCount", mock.Anything, mock.Anything)
}
