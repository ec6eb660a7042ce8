// Package evercron provides a distributed, persistent cron scheduler
// coordinated entirely through a shared relational store. No message
// broker, no lock service: per-job mutual exclusion uses a TTL lease
// row, and a uniqueness constraint on (job, scheduled instant) in the
// execution ledger guarantees at most one recorded execution per tick
// across a fleet of independent instances.
//
// Evercron is a library, not a service. Configure a store, register
// jobs as ordinary Go functions, and start their runners.
//
// # Quick Start
//
//	st, err := postgres.New(ctx, "postgres://localhost/app")
//	if err != nil { ... }
//
//	r := runner.New(st,
//	    job.NewDefinition("nightly-report", "0 2 * * *", job.WithCatchUp(10)),
//	    func(ctx context.Context, run *job.Run) (any, error) {
//	        return buildReport(ctx, run.ScheduledAt)
//	    },
//	)
//	if err := r.Start(ctx); err != nil { ... }
//
// # Architecture
//
// Each subsystem (job registry, lease coordination, execution ledger,
// event log) defines its own store interface; a single backend
// implements all of them. The lease is a performance optimization that
// avoids duplicate handler invocation in the common case; the ledger's
// uniqueness constraint is the correctness guarantee that holds even
// through lease-expiry races.
//
// Missed instants are caught up on restart, bounded by a per-job
// maximum, and every execution is durably recorded with status,
// output, error, and duration.
package evercron
