package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"scandex/internal/domain"
	"scandex/internal/port"
)

type historyRepo struct {
	db *sqlx.DB
}

// NewHistoryRepo creates a SQLite-backed HistoryRepository.
func NewHistoryRepo(db *sqlx.DB) port.HistoryRepository {
	return &historyRepo{db: db}
}

func (r *historyRepo) Create(ctx context.Context, run *port.ProcessingRun) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO processing_runs
		 (id, batch_id, schema_name, output_directory, state, total_documents,
		  success_count, failure_count, total_pages, started_at, completed_at,
		  duration_millis, error_summary)
		 VALUES
		 (:id, :batch_id, :schema_name, :output_directory, :state, :total_documents,
		  :success_count, :failure_count, :total_pages, :started_at, :completed_at,
		  :duration_millis, :error_summary)`,
		run)
	if err != nil {
		return fmt.Errorf("historyRepo.Create: %w", err)
	}
	return nil
}

func (r *historyRepo) Get(ctx context.Context, id string) (*port.ProcessingRun, error) {
	var run port.ProcessingRun
	err := r.db.GetContext(ctx, &run,
		`SELECT * FROM processing_runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("historyRepo.Get: %w", err)
	}
	return &run, nil
}

func (r *historyRepo) List(ctx context.Context, q port.HistoryQuery) ([]*port.ProcessingRun, error) {
	query := `SELECT * FROM processing_runs`
	var clauses []string
	var args []interface{}

	if q.BatchID != "" {
		clauses = append(clauses, "batch_id = ?")
		args = append(args, q.BatchID)
	}
	if q.State != "" {
		clauses = append(clauses, "state = ?")
		args = append(args, q.State)
	}
	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY completed_at DESC"

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, q.Offset)

	var runs []*port.ProcessingRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("historyRepo.List: %w", err)
	}
	return runs, nil
}

func (r *historyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM processing_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("historyRepo.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("historyRepo.Delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: run %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *historyRepo) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM processing_runs WHERE completed_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("historyRepo.Purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("historyRepo.Purge: %w", err)
	}
	return n, nil
}
