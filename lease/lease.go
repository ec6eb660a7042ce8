// Package lease implements per-job mutual exclusion as a single
// time-bounded row in the shared relational store. A lease grants one
// holder the right to execute a job's current tick until it expires;
// an expired lease is acquirable by any instance with no cleanup
// process. The lease is a performance layer only; the execution
// ledger's uniqueness constraint is what makes races harmless.
package lease

import (
	"time"

	"github.com/evercron/evercron/id"
)

// Lease is one job's mutual-exclusion row.
type Lease struct {
	JobName    string      `json:"job_name"`
	HolderID   id.WorkerID `json:"holder_id"`
	AcquiredAt time.Time   `json:"acquired_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// Held reports whether the lease is still exclusive at the given instant.
func (l *Lease) Held(now time.Time) bool {
	return now.Before(l.ExpiresAt)
}
