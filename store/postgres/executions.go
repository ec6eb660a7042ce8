package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/evercron/evercron"
	"github.com/evercron/evercron/execution"
	"github.com/evercron/evercron/id"
)

// RecordStart inserts the ledger row for e with status running.
// The UNIQUE(job_name, scheduled_at) constraint is the idempotency
// barrier: when another worker already claimed this instant the insert
// affects zero rows and RecordStart returns false without error.
func (s *Store) RecordStart(ctx context.Context, e *execution.Execution) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO evercron_executions (
			id, job_name, scheduled_at, actual_at, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (job_name, scheduled_at) DO NOTHING`,
		e.ID.String(), e.JobName, e.ScheduledAt.UTC(), e.ActualAt.UTC(), execution.StatusRunning,
	)
	if err != nil {
		// ON CONFLICT covers the race, but keep the duplicate check
		// for drivers that surface 23505 from concurrent inserts.
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("evercron/postgres: record start: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RecordOutcome moves an execution row to its terminal status.
func (s *Store) RecordOutcome(ctx context.Context, executionID id.ExecutionID, status execution.Status, output []byte, errMsg string, durationMS int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE evercron_executions
		SET status = $2, output = $3, error = $4, duration_ms = $5,
		    completed_at = NOW(), updated_at = NOW()
		WHERE id = $1`,
		executionID.String(), status, output, errMsg, durationMS,
	)
	if err != nil {
		return fmt.Errorf("evercron/postgres: record outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return evercron.ErrExecutionNotFound
	}
	return nil
}

// GetExecution retrieves an execution by ID.
func (s *Store) GetExecution(ctx context.Context, executionID id.ExecutionID) (*execution.Execution, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT
			id, job_name, scheduled_at, actual_at, status,
			output, error, duration_ms, completed_at,
			created_at, updated_at
		FROM evercron_executions
		WHERE id = $1`,
		executionID.String(),
	)

	e, err := scanExecution(row)
	if err != nil {
		if isNoRows(err) {
			return nil, evercron.ErrExecutionNotFound
		}
		return nil, fmt.Errorf("evercron/postgres: get execution: %w", err)
	}
	return e, nil
}

// History returns a job's executions ordered by scheduled instant
// descending, optionally bounded by opts.Since and opts.Limit.
func (s *Store) History(ctx context.Context, jobName string, opts execution.HistoryOptions) ([]*execution.Execution, error) {
	query := `
		SELECT
			id, job_name, scheduled_at, actual_at, status,
			output, error, duration_ms, completed_at,
			created_at, updated_at
		FROM evercron_executions
		WHERE job_name = $1`
	args := []any{jobName}

	if opts.Since != nil {
		args = append(args, opts.Since.UTC())
		query += fmt.Sprintf(" AND scheduled_at >= $%d", len(args))
	}
	query += " ORDER BY scheduled_at DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("evercron/postgres: history: %w", err)
	}
	defer rows.Close()

	var execs []*execution.Execution
	for rows.Next() {
		e, scanErr := scanExecution(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("evercron/postgres: scan execution row: %w", scanErr)
		}
		execs = append(execs, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("evercron/postgres: iterate execution rows: %w", err)
	}
	return execs, nil
}

// scanExecution scans a single execution row.
func scanExecution(row pgx.Row) (*execution.Execution, error) {
	var (
		e     execution.Execution
		idStr string
	)
	err := row.Scan(
		&idStr, &e.JobName, &e.ScheduledAt, &e.ActualAt, &e.Status,
		&e.Output, &e.Error, &e.DurationMS, &e.CompletedAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsedID, parseErr := id.ParseExecutionID(idStr)
	if parseErr != nil {
		return nil, fmt.Errorf("evercron/postgres: parse execution id %q: %w", idStr, parseErr)
	}
	e.ID = parsedID

	return &e, nil
}
