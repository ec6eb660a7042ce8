package execution

import (
	"context"
	"time"

	"github.com/evercron/evercron/id"
)

// HistoryOptions filters and bounds History queries.
type HistoryOptions struct {
	// Since, when set, restricts results to executions scheduled at
	// or after the given instant.
	Since *time.Time

	// Limit, when positive, caps the number of returned rows.
	Limit int
}

// Store defines the persistence contract for the execution ledger.
type Store interface {
	// RecordStart inserts the row for e with status running. When a
	// row for (e.JobName, e.ScheduledAt) already exists the insert is
	// a no-op and RecordStart returns false: this instant was already
	// handled, possibly by another instance, and the current attempt
	// must be abandoned.
	RecordStart(ctx context.Context, e *Execution) (bool, error)

	// RecordOutcome updates the row exactly once to its terminal
	// status, with output or error and the measured duration.
	RecordOutcome(ctx context.Context, executionID id.ExecutionID, status Status, output []byte, errMsg string, durationMS int64) error

	// GetExecution retrieves an execution by ID.
	GetExecution(ctx context.Context, executionID id.ExecutionID) (*Execution, error)

	// History returns executions for a job ordered by scheduled
	// instant descending.
	History(ctx context.Context, jobName string, opts HistoryOptions) ([]*Execution, error)
}
