// Package execution defines the execution ledger: one durable row per
// (job, scheduled instant), serving both as audit history and as the
// idempotency barrier that makes lease races harmless.
package execution

import (
	"time"

	"github.com/evercron/evercron"
	"github.com/evercron/evercron/id"
)

// Status is the lifecycle state of an execution. Transitions are
// strictly monotonic: pending → running → completed | failed. There
// are no retries within one execution; a retry is a new execution at
// the next tick or trigger.
type Status string

const (
	// StatusPending means the execution exists in memory but has not
	// been recorded yet.
	StatusPending Status = "pending"
	// StatusRunning means the ledger row is written and the handler
	// is executing.
	StatusRunning Status = "running"
	// StatusCompleted means the handler returned successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the handler returned an error or panicked.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status is completed or failed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Execution is one recorded run of a job at a scheduled instant.
// The pair (JobName, ScheduledAt) is unique in the ledger.
type Execution struct {
	evercron.Entity

	ID          id.ExecutionID `json:"id"`
	JobName     string         `json:"job_name"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	ActualAt    time.Time      `json:"actual_at"`
	Status      Status         `json:"status"`
	Output      []byte         `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// New creates a pending execution for the given job and instant.
func New(jobName string, scheduledAt, actualAt time.Time) *Execution {
	return &Execution{
		Entity:      evercron.NewEntity(),
		ID:          id.NewExecutionID(),
		JobName:     jobName,
		ScheduledAt: scheduledAt,
		ActualAt:    actualAt,
		Status:      StatusPending,
	}
}

// Complete marks the execution completed with the given output.
func (e *Execution) Complete(output []byte, duration time.Duration) {
	now := time.Now().UTC()
	e.Status = StatusCompleted
	e.Output = output
	e.DurationMS = duration.Milliseconds()
	e.CompletedAt = &now
	e.Touch()
}

// Fail marks the execution failed with the given error message.
func (e *Execution) Fail(errMsg string, duration time.Duration) {
	now := time.Now().UTC()
	e.Status = StatusFailed
	e.Error = errMsg
	e.DurationMS = duration.Milliseconds()
	e.CompletedAt = &now
	e.Touch()
}
