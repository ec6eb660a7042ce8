package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/evercron/evercron/id"
	"github.com/evercron/evercron/lease"
)

// TryAcquire attempts to take the per-job lease. A single conditional
// upsert covers all three success cases: the row is absent, expired,
// or already held by holderID. Timestamps are computed in Go so that
// TTL semantics do not depend on database clock settings.
func (s *Store) TryAcquire(ctx context.Context, jobName string, holderID id.WorkerID, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	until := now.Add(ttl)
	hID := holderID.String()

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO evercron_leases (job_name, holder_id, acquired_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_name) DO UPDATE SET
			holder_id   = EXCLUDED.holder_id,
			acquired_at = EXCLUDED.acquired_at,
			expires_at  = EXCLUDED.expires_at
		WHERE evercron_leases.holder_id = $2
		   OR evercron_leases.expires_at < $3`,
		jobName, hID, now, until,
	)
	if err != nil {
		return false, fmt.Errorf("evercron/postgres: acquire lease: %w", err)
	}

	// Zero rows means the conflict row is live and held by someone else.
	return tag.RowsAffected() > 0, nil
}

// Renew extends the lease expiry, but only while still held by holderID.
func (s *Store) Renew(ctx context.Context, jobName string, holderID id.WorkerID, ttl time.Duration) (bool, error) {
	until := time.Now().UTC().Add(ttl)

	tag, err := s.pool.Exec(ctx, `
		UPDATE evercron_leases
		SET expires_at = $3
		WHERE job_name = $1 AND holder_id = $2`,
		jobName, holderID.String(), until,
	)
	if err != nil {
		return false, fmt.Errorf("evercron/postgres: renew lease: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Release deletes the lease row, but only while still held by holderID.
// Releasing a lease that was lost or taken over is a no-op.
func (s *Store) Release(ctx context.Context, jobName string, holderID id.WorkerID) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM evercron_leases
		WHERE job_name = $1 AND holder_id = $2`,
		jobName, holderID.String(),
	)
	if err != nil {
		return fmt.Errorf("evercron/postgres: release lease: %w", err)
	}
	return nil
}

// GetLease returns the current lease row for a job, or nil when absent.
func (s *Store) GetLease(ctx context.Context, jobName string) (*lease.Lease, error) {
	var (
		l     lease.Lease
		idStr string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT job_name, holder_id, acquired_at, expires_at
		FROM evercron_leases
		WHERE job_name = $1`,
		jobName,
	).Scan(&l.JobName, &idStr, &l.AcquiredAt, &l.ExpiresAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("evercron/postgres: get lease: %w", err)
	}

	holderID, parseErr := id.ParseWorkerID(idStr)
	if parseErr != nil {
		return nil, fmt.Errorf("evercron/postgres: parse holder id %q: %w", idStr, parseErr)
	}
	l.HolderID = holderID

	return &l, nil
}
