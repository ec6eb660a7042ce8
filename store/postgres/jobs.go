package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/evercron/evercron"
	"github.com/evercron/evercron/job"
)

// UpsertJob creates or updates a job definition. The schedule cursor
// (last_scheduled_at, next_scheduled_at) of an existing row is left
// untouched so that re-registering a job never loses its place.
func (s *Store) UpsertJob(ctx context.Context, j *job.Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO evercron_jobs (
			name, schedule, timezone, catch_up, max_catch_up, enabled,
			last_scheduled_at, next_scheduled_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET
			schedule     = EXCLUDED.schedule,
			timezone     = EXCLUDED.timezone,
			catch_up     = EXCLUDED.catch_up,
			max_catch_up = EXCLUDED.max_catch_up,
			enabled      = EXCLUDED.enabled,
			updated_at   = NOW()`,
		j.Name, j.Schedule, j.Timezone, j.CatchUp, j.MaxCatchUp, j.Enabled,
		j.LastScheduledAt, j.NextScheduledAt,
	)
	if err != nil {
		return fmt.Errorf("evercron/postgres: upsert job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by name.
func (s *Store) GetJob(ctx context.Context, name string) (*job.Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT
			name, schedule, timezone, catch_up, max_catch_up, enabled,
			last_scheduled_at, next_scheduled_at, created_at, updated_at
		FROM evercron_jobs
		WHERE name = $1`,
		name,
	)

	j, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, evercron.ErrJobNotFound
		}
		return nil, fmt.Errorf("evercron/postgres: get job: %w", err)
	}
	return j, nil
}

// UpdateJobTimes persists the schedule cursor for a job.
func (s *Store) UpdateJobTimes(ctx context.Context, name string, last, next *time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE evercron_jobs
		SET last_scheduled_at = $2, next_scheduled_at = $3, updated_at = NOW()
		WHERE name = $1`,
		name, last, next,
	)
	if err != nil {
		return fmt.Errorf("evercron/postgres: update job times: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return evercron.ErrJobNotFound
	}
	return nil
}

// ListJobs returns all registered jobs ordered by name.
func (s *Store) ListJobs(ctx context.Context) ([]*job.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			name, schedule, timezone, catch_up, max_catch_up, enabled,
			last_scheduled_at, next_scheduled_at, created_at, updated_at
		FROM evercron_jobs
		ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("evercron/postgres: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*job.Job
	for rows.Next() {
		j, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("evercron/postgres: scan job row: %w", scanErr)
		}
		jobs = append(jobs, j)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("evercron/postgres: iterate job rows: %w", err)
	}
	return jobs, nil
}

// scanJob scans a single job row.
func scanJob(row pgx.Row) (*job.Job, error) {
	var j job.Job
	err := row.Scan(
		&j.Name, &j.Schedule, &j.Timezone, &j.CatchUp, &j.MaxCatchUp, &j.Enabled,
		&j.LastScheduledAt, &j.NextScheduledAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
