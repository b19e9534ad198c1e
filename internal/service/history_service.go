package service

import (
	"context"
	"io"
	"time"

	"scandex/internal/csvexport"
	"scandex/internal/port"
	"scandex/internal/report"
)

// HistoryService exposes the processing run history and its export formats.
type HistoryService interface {
	List(ctx context.Context, query port.HistoryQuery) ([]*port.ProcessingRun, error)
	Get(ctx context.Context, id string) (*port.ProcessingRun, error)
	Delete(ctx context.Context, id string) error
	PurgeOlderThan(ctx context.Context, retentionDays int) (int64, error)
	ExportCSV(ctx context.Context, w io.Writer, query port.HistoryQuery) error
	ExportXLSX(ctx context.Context, w io.Writer, query port.HistoryQuery) error
	ExportRunXLSX(ctx context.Context, w io.Writer, id string) error
}

type historyService struct {
	repo port.HistoryRepository
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(repo port.HistoryRepository) HistoryService {
	return &historyService{repo: repo}
}

func (s *historyService) List(ctx context.Context, query port.HistoryQuery) ([]*port.ProcessingRun, error) {
	return s.repo.List(ctx, query)
}

func (s *historyService) Get(ctx context.Context, id string) (*port.ProcessingRun, error) {
	return s.repo.Get(ctx, id)
}

func (s *historyService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *historyService) PurgeOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return s.repo.Purge(ctx, cutoff)
}

func (s *historyService) ExportCSV(ctx context.Context, w io.Writer, query port.HistoryQuery) error {
	runs, err := s.repo.List(ctx, query)
	if err != nil {
		return err
	}
	if _, err := w.Write(csvexport.BOM); err != nil {
		return err
	}
	cw := csvexport.NewWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	if err := cw.WriteRuns(runs); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func (s *historyService) ExportXLSX(ctx context.Context, w io.Writer, query port.HistoryQuery) error {
	runs, err := s.repo.List(ctx, query)
	if err != nil {
		return err
	}
	return report.WriteWorkbook(w, runs)
}

func (s *historyService) ExportRunXLSX(ctx context.Context, w io.Writer, id string) error {
	run, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return report.WriteWorkbook(w, []*port.ProcessingRun{run})
}
