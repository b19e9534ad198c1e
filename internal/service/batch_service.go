package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"scandex/internal/batch"
	"scandex/internal/cache"
	"scandex/internal/domain"
	"scandex/internal/events"
	"scandex/internal/port"
	"scandex/internal/validator"
)

// AssignInput is the DTO for claiming pages into a new assignment.
type AssignInput struct {
	Pages       []domain.PageReference `json:"pages" binding:"required"`
	IndexValues map[string]string      `json:"index_values" binding:"required"`
}

// ValidationReport bundles every validation surface for a batch: the
// aggregate results, the individual issues, and suggested resolutions.
type ValidationReport struct {
	Results     batch.ValidationResults `json:"results"`
	Issues      []validator.Issue       `json:"issues"`
	Suggestions []validator.Suggestion  `json:"suggestions"`
}

// OutputPlan is the pre-processing preview of a batch.
type OutputPlan struct {
	Preview    batch.OutputPreview    `json:"preview"`
	Statistics batch.OutputStatistics `json:"statistics"`
	EstimateMS int64                  `json:"estimate_ms"`
}

// BatchService defines the batch and assignment management contract.
type BatchService interface {
	Create(ctx context.Context, description string) (*batch.DocumentBatch, error)
	Get(ctx context.Context, batchID string) (*batch.DocumentBatch, error)
	List(ctx context.Context) []batch.Summary
	SetActive(ctx context.Context, batchID string) error
	Remove(ctx context.Context, batchID string) error

	AddFile(ctx context.Context, batchID, path string) (domain.ScannedFile, error)
	RemoveFile(ctx context.Context, batchID, fileID string) error
	Thumbnail(ctx context.Context, batchID, fileID string, pageNumber int) ([]byte, error)

	SetSchema(ctx context.Context, batchID, schemaName string) error
	Assign(ctx context.Context, batchID string, input AssignInput) (*batch.DocumentBatch, string, error)
	RemoveAssignment(ctx context.Context, batchID, assignmentID string) error

	Validate(ctx context.Context, batchID string) (*ValidationReport, error)
	Plan(ctx context.Context, batchID string) (*OutputPlan, error)
	Backup(ctx context.Context, batchID string) ([]byte, error)
	Restore(ctx context.Context, data []byte, schemaName string) (*batch.DocumentBatch, error)
}

type batchService struct {
	batches    *batch.Manager
	schemas    SchemaService
	pdf        port.PDFService
	engine     *validator.Engine
	thumbnails *cache.LRU
	thumbSize  port.ThumbnailSize
	stagingDir string
	bus        *events.Bus
}

// NewBatchService creates a BatchService. stagingDir is where per-batch
// staging folders are created.
func NewBatchService(
	batches *batch.Manager,
	schemas SchemaService,
	pdf port.PDFService,
	thumbnails *cache.LRU,
	thumbSize port.ThumbnailSize,
	stagingDir string,
	bus *events.Bus,
) BatchService {
	return &batchService{
		batches:    batches,
		schemas:    schemas,
		pdf:        pdf,
		engine:     validator.NewEngine(),
		thumbnails: thumbnails,
		thumbSize:  thumbSize,
		stagingDir: stagingDir,
		bus:        bus,
	}
}

func (s *batchService) Create(ctx context.Context, description string) (*batch.DocumentBatch, error) {
	staging := fmt.Sprintf("%s/batch_%s", s.stagingDir, time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return s.batches.Create(staging, description), nil
}

func (s *batchService) Get(ctx context.Context, batchID string) (*batch.DocumentBatch, error) {
	b := s.batches.Get(batchID)
	if b == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, batchID)
	}
	return b, nil
}

func (s *batchService) List(ctx context.Context) []batch.Summary {
	return s.batches.List()
}

func (s *batchService) SetActive(ctx context.Context, batchID string) error {
	if !s.batches.SetActive(batchID) {
		return fmt.Errorf("%w: %s", domain.ErrBatchNotFound, batchID)
	}
	return nil
}

func (s *batchService) Remove(ctx context.Context, batchID string) error {
	if !s.batches.Remove(batchID) {
		return fmt.Errorf("%w: %s", domain.ErrBatchNotFound, batchID)
	}
	return nil
}

func (s *batchService) AddFile(ctx context.Context, batchID, path string) (domain.ScannedFile, error) {
	b, err := s.Get(ctx, batchID)
	if err != nil {
		return domain.ScannedFile{}, err
	}

	if _, exists := b.FileByPath(path); exists {
		return domain.ScannedFile{}, fmt.Errorf("%w: %s is already in the batch", domain.ErrFileConflict, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.ScannedFile{}, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
	}
	pages, err := s.pdf.GetPageCount(ctx, path)
	if err != nil {
		return domain.ScannedFile{}, fmt.Errorf("%w: %s is not a readable PDF", domain.ErrUnsupportedFile, path)
	}

	file := b.AddFile(domain.ScannedFile{
		FileID:    uuid.NewString(),
		Path:      path,
		PageCount: pages,
		FileSize:  info.Size(),
		AddedAt:   time.Now(),
	})
	s.bus.Publish(events.FileAdded, file)
	return file, nil
}

func (s *batchService) RemoveFile(ctx context.Context, batchID, fileID string) error {
	b, err := s.Get(ctx, batchID)
	if err != nil {
		return err
	}
	file, ok := b.FileByID(fileID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrFileNotFound, fileID)
	}
	b.RemoveFile(fileID)
	s.thumbnails.Remove(thumbKeyPrefix(fileID))
	s.bus.Publish(events.FileRemoved, file)
	return nil
}

func (s *batchService) Thumbnail(ctx context.Context, batchID, fileID string, pageNumber int) ([]byte, error) {
	b, err := s.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	file, ok := b.FileByID(fileID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, fileID)
	}
	if pageNumber < 1 || pageNumber > file.PageCount {
		return nil, fmt.Errorf("%w: page %d of %d", domain.ErrInvalidPageNumber, pageNumber, file.PageCount)
	}

	key := thumbKey(fileID, pageNumber)
	if data, ok := s.thumbnails.Get(key); ok {
		return data, nil
	}

	imgPath, err := s.pdf.GeneratePageThumbnail(ctx, file.Path, pageNumber, s.thumbSize)
	if err != nil {
		return nil, err
	}
	defer os.Remove(imgPath)

	data, err := os.ReadFile(imgPath)
	if err != nil {
		return nil, fmt.Errorf("reading thumbnail: %w", err)
	}
	s.thumbnails.Put(key, data)
	return data, nil
}

func (s *batchService) SetSchema(ctx context.Context, batchID, schemaName string) error {
	b, err := s.Get(ctx, batchID)
	if err != nil {
		return err
	}
	sc, err := s.schemas.Get(ctx, schemaName)
	if err != nil {
		return err
	}
	b.SetSchema(sc)
	s.bus.Publish(events.BatchModified, b.ID)
	return nil
}

func (s *batchService) Assign(ctx context.Context, batchID string, input AssignInput) (*batch.DocumentBatch, string, error) {
	b, err := s.Get(ctx, batchID)
	if err != nil {
		return nil, "", err
	}
	a, err := b.AssignPagesToIndex(input.Pages, input.IndexValues)
	if err != nil {
		return nil, "", err
	}
	s.bus.Publish(events.AssignmentCreated, a.ID)
	return b, a.ID, nil
}

func (s *batchService) RemoveAssignment(ctx context.Context, batchID, assignmentID string) error {
	b, err := s.Get(ctx, batchID)
	if err != nil {
		return err
	}
	if !b.RemoveAssignment(assignmentID) {
		return fmt.Errorf("%w: %s", domain.ErrAssignmentNotFound, assignmentID)
	}
	s.bus.Publish(events.AssignmentRemoved, assignmentID)
	return nil
}

func (s *batchService) Validate(ctx context.Context, batchID string) (*ValidationReport, error) {
	b, err := s.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	results := b.ValidateAssignments()
	_, issues := s.engine.ValidateBatch(b)
	return &ValidationReport{
		Results:     results,
		Issues:      issues,
		Suggestions: s.engine.SuggestConflictResolutions(issues),
	}, nil
}

func (s *batchService) Plan(ctx context.Context, batchID string) (*OutputPlan, error) {
	b, err := s.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	// Previews depend on validated assignments.
	b.ValidateAssignments()
	return &OutputPlan{
		Preview:    b.PreviewOutputStructure(),
		Statistics: b.OutputStatistics(),
		EstimateMS: b.EstimateProcessingTime().Milliseconds(),
	}, nil
}

func (s *batchService) Backup(ctx context.Context, batchID string) ([]byte, error) {
	b, err := s.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return b.MarshalBackup()
}

func (s *batchService) Restore(ctx context.Context, data []byte, schemaName string) (*batch.DocumentBatch, error) {
	sc, err := s.schemas.Get(ctx, schemaName)
	if err != nil {
		return nil, err
	}
	restored, err := batch.RestoreBackup(data, sc)
	if err != nil {
		return nil, err
	}
	s.batches.Adopt(restored)
	return restored, nil
}

func thumbKey(fileID string, page int) string {
	return fmt.Sprintf("%s:%d", fileID, page)
}

// thumbKeyPrefix is used to drop the first page thumbnail when a file is
// removed. Remaining pages age out of the LRU naturally.
func thumbKeyPrefix(fileID string) string {
	return thumbKey(fileID, 1)
}
