package job

import (
	"context"
	"time"
)

// Store defines the persistence contract for the job registry.
type Store interface {
	// UpsertJob creates or updates a job definition idempotently.
	// The schedule cursor (last/next scheduled instants) of an
	// existing row is left untouched.
	UpsertJob(ctx context.Context, j *Job) error

	// GetJob retrieves a job by name.
	GetJob(ctx context.Context, name string) (*Job, error)

	// UpdateJobTimes persists the schedule cursor for a job.
	UpdateJobTimes(ctx context.Context, name string, last, next *time.Time) error

	// ListJobs returns all registered jobs.
	ListJobs(ctx context.Context) ([]*Job, error)
}
