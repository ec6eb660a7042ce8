package lease

import (
	"context"
	"time"

	"github.com/evercron/evercron/id"
)

// Store defines the persistence contract for lease coordination.
// All three operations are optimistic single-row writes; a false
// return is expected contention, never an error.
type Store interface {
	// TryAcquire upserts the lease row for jobName. The write succeeds
	// when no row exists, the existing row is already held by holderID
	// (idempotent re-entry), or the existing row has expired. Returns
	// whether the write changed a row.
	TryAcquire(ctx context.Context, jobName string, holderID id.WorkerID, ttl time.Duration) (bool, error)

	// Renew extends the expiry only while the row is still held by
	// holderID.
	Renew(ctx context.Context, jobName string, holderID id.WorkerID, ttl time.Duration) (bool, error)

	// Release deletes the row only while still held by holderID.
	// Crash-without-release is tolerated via natural expiry.
	Release(ctx context.Context, jobName string, holderID id.WorkerID) error

	// GetLease returns the current lease row for jobName, or nil when
	// no instance holds it.
	GetLease(ctx context.Context, jobName string) (*Lease, error)
}
