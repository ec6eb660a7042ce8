// Package memory provides a fully in-memory store implementation,
// safe for concurrent access. Intended for unit testing and
// development; it honors the same optimistic-write semantics as the
// Postgres backend (lease expiry, ledger uniqueness).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/evercron/evercron"
	"github.com/evercron/evercron/event"
	"github.com/evercron/evercron/execution"
	"github.com/evercron/evercron/id"
	"github.com/evercron/evercron/job"
	"github.com/evercron/evercron/lease"
)

// Ensure Store implements store.Store at compile time.
// We can't import store here (import cycle), so we verify each subsystem.
var (
	_ job.Store       = (*Store)(nil)
	_ lease.Store     = (*Store)(nil)
	_ execution.Store = (*Store)(nil)
	_ event.Appender  = (*Store)(nil)
)

type tickKey struct {
	jobName     string
	scheduledAt int64 // unix millis, UTC
}

// Store is a fully in-memory implementation of store.Store.
type Store struct {
	mu     sync.RWMutex
	closed bool

	jobs       map[string]*job.Job
	executions map[string]*execution.Execution
	ticks      map[tickKey]string // (job, instant) -> execution id
	leases     map[string]*lease.Lease
	events     map[string][]*event.Event
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		jobs:       make(map[string]*job.Job),
		executions: make(map[string]*execution.Execution),
		ticks:      make(map[tickKey]string),
		leases:     make(map[string]*lease.Lease),
		events:     make(map[string][]*event.Event),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle: Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping fails once the store has been closed.
func (m *Store) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return evercron.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Data is retained so late readers in
// tests do not race a teardown.
func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// Job Store
// ──────────────────────────────────────────────────

// UpsertJob creates or updates a job definition, preserving the
// schedule cursor of an existing row.
func (m *Store) UpsertJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *j
	if existing, ok := m.jobs[j.Name]; ok {
		cp.LastScheduledAt = existing.LastScheduledAt
		cp.NextScheduledAt = existing.NextScheduledAt
		cp.CreatedAt = existing.CreatedAt
		cp.Touch()
	} else if cp.CreatedAt.IsZero() {
		cp.Entity = evercron.NewEntity()
	}
	m.jobs[j.Name] = &cp
	return nil
}

// GetJob retrieves a job by name.
func (m *Store) GetJob(_ context.Context, name string) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[name]
	if !ok {
		return nil, evercron.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

// UpdateJobTimes persists the schedule cursor for a job.
func (m *Store) UpdateJobTimes(_ context.Context, name string, last, next *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[name]
	if !ok {
		return evercron.ErrJobNotFound
	}
	j.LastScheduledAt = copyTime(last)
	j.NextScheduledAt = copyTime(next)
	j.Touch()
	return nil
}

// ListJobs returns all registered jobs sorted by name.
func (m *Store) ListJobs(_ context.Context) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*job.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out, nil
}

// ──────────────────────────────────────────────────
// Lease Store
// ──────────────────────────────────────────────────

// TryAcquire acquires the lease when it is free, expired, or already
// held by holderID.
func (m *Store) TryAcquire(_ context.Context, jobName string, holderID id.WorkerID, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if l, ok := m.leases[jobName]; ok {
		if l.HolderID.String() != holderID.String() && now.Before(l.ExpiresAt) {
			return false, nil
		}
	}

	m.leases[jobName] = &lease.Lease{
		JobName:    jobName,
		HolderID:   holderID,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	return true, nil
}

// Renew extends the expiry only while still held by holderID.
func (m *Store) Renew(_ context.Context, jobName string, holderID id.WorkerID, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.leases[jobName]
	if !ok || l.HolderID.String() != holderID.String() {
		return false, nil
	}
	l.ExpiresAt = time.Now().UTC().Add(ttl)
	return true, nil
}

// Release deletes the lease row only while still held by holderID.
func (m *Store) Release(_ context.Context, jobName string, holderID id.WorkerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.leases[jobName]
	if !ok || l.HolderID.String() != holderID.String() {
		return nil // not holding the lease; no-op
	}
	delete(m.leases, jobName)
	return nil
}

// GetLease returns the current lease row, or nil when absent.
func (m *Store) GetLease(_ context.Context, jobName string) (*lease.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.leases[jobName]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

// ──────────────────────────────────────────────────
// Execution Store
// ──────────────────────────────────────────────────

// RecordStart inserts the ledger row for e with status running.
// Returns false without modifying anything when a row for
// (e.JobName, e.ScheduledAt) already exists.
func (m *Store) RecordStart(_ context.Context, e *execution.Execution) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tickKey{jobName: e.JobName, scheduledAt: e.ScheduledAt.UTC().UnixMilli()}
	if _, exists := m.ticks[key]; exists {
		return false, nil
	}

	cp := *e
	cp.Status = execution.StatusRunning
	m.ticks[key] = cp.ID.String()
	m.executions[cp.ID.String()] = &cp
	return true, nil
}

// RecordOutcome updates the row to its terminal status.
func (m *Store) RecordOutcome(_ context.Context, executionID id.ExecutionID, status execution.Status, output []byte, errMsg string, durationMS int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.executions[executionID.String()]
	if !ok {
		return evercron.ErrExecutionNotFound
	}

	now := time.Now().UTC()
	e.Status = status
	e.Output = output
	e.Error = errMsg
	e.DurationMS = durationMS
	e.CompletedAt = &now
	e.Touch()
	return nil
}

// GetExecution retrieves an execution by ID.
func (m *Store) GetExecution(_ context.Context, executionID id.ExecutionID) (*execution.Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.executions[executionID.String()]
	if !ok {
		return nil, evercron.ErrExecutionNotFound
	}
	cp := *e
	return &cp, nil
}

// History returns a job's executions ordered by scheduled instant
// descending.
func (m *Store) History(_ context.Context, jobName string, opts execution.HistoryOptions) ([]*execution.Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*execution.Execution
	for _, e := range m.executions {
		if e.JobName != jobName {
			continue
		}
		if opts.Since != nil && e.ScheduledAt.Before(*opts.Since) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ScheduledAt.After(out[k].ScheduledAt) })

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Event Appender
// ──────────────────────────────────────────────────

// AppendEvent appends an event to its named log.
func (m *Store) AppendEvent(_ context.Context, evt *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *evt
	m.events[evt.LogName] = append(m.events[evt.LogName], &cp)
	return nil
}

// ListEvents returns all events in a log in append order.
func (m *Store) ListEvents(_ context.Context, logName string) ([]*event.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.events[logName]
	out := make([]*event.Event, len(src))
	for i, evt := range src {
		cp := *evt
		out[i] = &cp
	}
	return out, nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
