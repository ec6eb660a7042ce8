package job

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evercron/evercron/id"
)

// Handler is the function executed for each scheduled instant. The
// returned value is JSON-serialized into the execution's output. A
// returned error (or a panic, converted by the recover middleware)
// marks the execution failed; it is never re-thrown to the tick loop.
type Handler func(ctx context.Context, run *Run) (any, error)

// EmitFunc appends data to a named external event log. It is
// fire-and-forget: failures are logged by the runner and never fail
// the execution.
type EmitFunc func(ctx context.Context, logName string, data any)

// Run is the context handed to a handler for one execution.
type Run struct {
	// JobName is the name of the job being executed.
	JobName string

	// ScheduledAt is the logical instant this execution covers.
	// For manual triggers it is the trigger time.
	ScheduledAt time.Time

	// ActualAt is the wall-clock instant the run began.
	ActualAt time.Time

	// ExecutionID identifies the ledger row for this run.
	ExecutionID id.ExecutionID

	// DB is the shared relational pool, when the runner is backed by
	// Postgres. Nil with the in-memory store.
	DB *pgxpool.Pool

	// Emit appends to an external append-only event log.
	Emit EmitFunc
}
