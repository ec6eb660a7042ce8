package runner

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evercron/evercron"
	"github.com/evercron/evercron/event"
	"github.com/evercron/evercron/execution"
	"github.com/evercron/evercron/id"
	"github.com/evercron/evercron/job"
	"github.com/evercron/evercron/lease"
	"github.com/evercron/evercron/middleware"
	"github.com/evercron/evercron/schedule"
	"github.com/evercron/evercron/store"
)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithConfig replaces the runner's timing configuration.
func WithConfig(cfg evercron.Config) Option {
	return func(r *Runner) { r.cfg = cfg }
}

// WithDB shares a pgx pool with handlers through job.Run. Leave unset
// for non-Postgres stores; handlers then see a nil pool.
func WithDB(pool *pgxpool.Pool) Option {
	return func(r *Runner) { r.db = pool }
}

// WithMiddleware replaces the default middleware chain
// (logging, recover, tracing, metrics).
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(r *Runner) { r.chain = middleware.Chain(mws...) }
}

// Runner owns the tick loop for a single job. Many independent
// runners, in one process or across a fleet, can drive the same job
// name against a shared store; the lease and the ledger's uniqueness
// constraint ensure each instant is executed at most once.
type Runner struct {
	store    store.Store
	def      *job.Definition
	handler  job.Handler
	holderID id.WorkerID
	cfg      evercron.Config
	logger   *slog.Logger
	db       *pgxpool.Pool
	emitter  *event.Emitter
	chain    middleware.Middleware

	// expr and loc are resolved in Start from the definition.
	expr *schedule.Expression
	loc  *time.Location

	mu       sync.Mutex
	running  bool
	stopping bool
	nextRun  *time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New creates a Runner for a job definition. The schedule expression
// is validated in Start, not here.
func New(st store.Store, def *job.Definition, handler job.Handler, opts ...Option) *Runner {
	r := &Runner{
		store:    st,
		def:      def,
		handler:  handler,
		holderID: id.NewWorkerID(),
		cfg:      evercron.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.emitter = event.NewEmitter(st, r.logger)
	if r.chain == nil {
		r.chain = middleware.Chain(
			middleware.Logging(r.logger),
			middleware.Recover(r.logger),
			middleware.Tracing(),
			middleware.Metrics(),
		)
	}
	return r
}

// Name returns the job name this runner drives.
func (r *Runner) Name() string { return r.def.Name }

// HolderID returns this runner's lease holder identity.
func (r *Runner) HolderID() id.WorkerID { return r.holderID }

// IsRunning reports whether the tick loop is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// NextRun returns the next scheduled instant, or nil before Start or
// when the expression has no future match.
func (r *Runner) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nextRun == nil {
		return nil
	}
	cp := *r.nextRun
	return &cp
}

// Start validates the schedule, registers the job, replays missed
// instants when catch-up is enabled, and launches the tick loop.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return evercron.ErrAlreadyStarted
	}
	r.mu.Unlock()

	expr, err := schedule.Parse(r.def.Schedule)
	if err != nil {
		return err
	}
	r.expr = expr

	materialized := r.def.Job()
	loc, err := materialized.Location()
	if err != nil {
		return err
	}
	r.loc = loc

	if err = r.store.UpsertJob(ctx, materialized); err != nil {
		return err
	}

	// Re-read to merge the persisted schedule cursor.
	j, err := r.store.GetJob(ctx, r.def.Name)
	if err != nil {
		return err
	}

	if j.Enabled && j.CatchUp {
		if cuErr := r.runCatchUp(ctx, j); cuErr != nil {
			return cuErr
		}
		// Catch-up advanced the cursor.
		if j, err = r.store.GetJob(ctx, r.def.Name); err != nil {
			return err
		}
	}

	now := time.Now().In(r.loc)
	next, err := r.initialNext(j, now)
	if err != nil {
		if errors.Is(err, schedule.ErrNoMatchingTime) {
			r.logger.Warn("schedule has no future match, runner will idle",
				slog.String("job_name", r.def.Name),
				slog.String("schedule", r.def.Schedule),
			)
		} else {
			return err
		}
	} else {
		if upErr := r.store.UpdateJobTimes(ctx, r.def.Name, j.LastScheduledAt, &next); upErr != nil {
			return upErr
		}
	}

	r.mu.Lock()
	if err == nil {
		r.nextRun = &next
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.mu.Unlock()

	r.wg.Add(1)
	go r.tickLoop()

	r.logger.Info("runner started",
		slog.String("job_name", r.def.Name),
		slog.String("schedule", r.def.Schedule),
		slog.String("holder_id", r.holderID.String()),
	)
	return nil
}

// initialNext picks the first instant to wait for: the persisted next
// when it is still in the future, otherwise a fresh computation.
// A persisted next in the past is stale (downtime without catch-up)
// and must not fire; missed instants are the catch-up engine's job.
func (r *Runner) initialNext(j *job.Job, now time.Time) (time.Time, error) {
	if j.NextScheduledAt != nil && j.NextScheduledAt.After(now) {
		return j.NextScheduledAt.In(r.loc), nil
	}
	return r.expr.Next(now)
}

// Stop signals the tick loop to stop and waits for it, letting any
// in-flight execution run to completion.
func (r *Runner) Stop(_ context.Context) error {
	r.mu.Lock()
	if !r.running || r.stopping {
		r.mu.Unlock()
		return evercron.ErrNotStarted
	}
	// stopping is flipped under the same lock as the close, so a
	// concurrent Stop can never reach the closed channel.
	r.stopping = true
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()

	r.mu.Lock()
	r.running = false
	r.stopping = false
	r.mu.Unlock()

	r.logger.Info("runner stopped", slog.String("job_name", r.def.Name))
	return nil
}

func (r *Runner) tickLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

// tick fires the job when its next instant has arrived. The lease
// keeps the common case cheap; the ledger row is what actually
// guarantees at-most-one execution per instant.
func (r *Runner) tick() {
	r.mu.Lock()
	next := r.nextRun
	r.mu.Unlock()

	if next == nil {
		return // unsatisfiable schedule; idle
	}

	now := time.Now().In(r.loc)
	if now.Before(*next) {
		return
	}
	scheduledAt := *next

	ctx := context.Background()

	acquired, err := r.store.TryAcquire(ctx, r.def.Name, r.holderID, r.cfg.LeaseTTL)
	if err != nil {
		r.logger.Error("lease acquire error",
			slog.String("job_name", r.def.Name),
			slog.String("error", err.Error()),
		)
		return
	}
	if !acquired {
		// Another instance owns this instant; pick up the cursor it
		// advances so we do not re-claim the same instant forever.
		r.refreshCursor(ctx, scheduledAt)
		return
	}
	defer func() {
		if relErr := r.store.Release(ctx, r.def.Name, r.holderID); relErr != nil {
			r.logger.Error("lease release error",
				slog.String("job_name", r.def.Name),
				slog.String("error", relErr.Error()),
			)
		}
	}()

	j, err := r.store.GetJob(ctx, r.def.Name)
	if err != nil {
		r.logger.Error("get job error",
			slog.String("job_name", r.def.Name),
			slog.String("error", err.Error()),
		)
		return
	}
	if !j.Enabled {
		// Disabled jobs skip instants entirely; the cursor still
		// advances so re-enabling does not replay the gap.
		r.advanceCursor(ctx, scheduledAt)
		return
	}

	// Due-ness is decided by the persisted cursor, not the local copy:
	// another instance may have handled this instant and advanced it
	// between our ticks.
	if j.NextScheduledAt == nil {
		return
	}
	if j.NextScheduledAt.After(now) {
		adopted := j.NextScheduledAt.In(r.loc)
		r.mu.Lock()
		r.nextRun = &adopted
		r.mu.Unlock()
		return
	}
	scheduledAt = j.NextScheduledAt.In(r.loc)

	e := execution.New(r.def.Name, scheduledAt, now)
	ok, err := r.store.RecordStart(ctx, e)
	if err != nil {
		r.logger.Error("record start error",
			slog.String("job_name", r.def.Name),
			slog.String("error", err.Error()),
		)
		return
	}
	if !ok {
		// Lost the ledger race: a worker with an expired-and-retaken
		// lease already claimed this instant.
		r.logger.Debug("instant already recorded, skipping",
			slog.String("job_name", r.def.Name),
			slog.Time("scheduled_at", scheduledAt),
		)
		r.advanceCursor(ctx, scheduledAt)
		return
	}

	keeper := lease.NewKeeper(r.store, r.def.Name, r.holderID, r.cfg.LeaseTTL, r.cfg.Heartbeat(), r.logger)
	keeper.Start()
	defer keeper.Stop()

	r.execute(ctx, e)
	r.advanceCursor(ctx, scheduledAt)
}

// execute runs the handler through the middleware chain and records
// the terminal outcome. Handler errors and panics are captured into
// the ledger, never propagated.
func (r *Runner) execute(ctx context.Context, e *execution.Execution) {
	run := &job.Run{
		JobName:     e.JobName,
		ScheduledAt: e.ScheduledAt,
		ActualAt:    e.ActualAt,
		ExecutionID: e.ID,
		DB:          r.db,
		Emit:        r.emitter.Emit,
	}

	started := time.Now()
	var output []byte

	err := r.chain(ctx, e, func(ctx context.Context) error {
		result, hErr := r.handler(ctx, run)
		if hErr != nil {
			return hErr
		}
		if result != nil {
			data, mErr := json.Marshal(result)
			if mErr != nil {
				return mErr
			}
			output = data
		}
		return nil
	})
	elapsed := time.Since(started)

	if err != nil {
		e.Fail(err.Error(), elapsed)
	} else {
		e.Complete(output, elapsed)
	}

	if recErr := r.store.RecordOutcome(ctx, e.ID, e.Status, e.Output, e.Error, e.DurationMS); recErr != nil {
		r.logger.Error("record outcome error",
			slog.String("job_name", e.JobName),
			slog.String("execution_id", e.ID.String()),
			slog.String("error", recErr.Error()),
		)
	}
}

// advanceCursor computes the instant after from, persists the cursor,
// and updates the local next-run. When the expression has no further
// match the cursor is deliberately left unchanged: the tick keeps
// retrying and logging, an operator-visible stuck state rather than a
// silent auto-disable.
func (r *Runner) advanceCursor(ctx context.Context, from time.Time) {
	next, err := r.expr.Next(from)
	if err != nil {
		r.logger.Warn("no further matching instant",
			slog.String("job_name", r.def.Name),
			slog.String("schedule", r.def.Schedule),
		)
		return
	}

	if err := r.store.UpdateJobTimes(ctx, r.def.Name, &from, &next); err != nil {
		r.logger.Error("update job times error",
			slog.String("job_name", r.def.Name),
			slog.String("error", err.Error()),
		)
	}

	r.mu.Lock()
	r.nextRun = &next
	r.mu.Unlock()
}

// refreshCursor re-reads the persisted cursor after losing the lease,
// falling back to a local computation when the winner has not advanced
// it yet.
func (r *Runner) refreshCursor(ctx context.Context, from time.Time) {
	j, err := r.store.GetJob(ctx, r.def.Name)
	if err == nil && j.NextScheduledAt != nil && j.NextScheduledAt.After(from) {
		next := j.NextScheduledAt.In(r.loc)
		r.mu.Lock()
		r.nextRun = &next
		r.mu.Unlock()
		return
	}

	next, nErr := r.expr.Next(from)
	if nErr != nil {
		return // keep the current cursor; next tick re-reads the store
	}
	r.mu.Lock()
	r.nextRun = &next
	r.mu.Unlock()
}

// Trigger executes the job immediately, outside the schedule. The
// trigger time is the scheduled instant, so manual runs never collide
// with schedule ticks in the ledger. Lease and due-ness checks are
// bypassed; the execution is recorded like any other. A handler
// failure is captured in the returned execution, not returned as an
// error.
func (r *Runner) Trigger(ctx context.Context) (*execution.Execution, error) {
	j, err := r.store.GetJob(ctx, r.def.Name)
	if err != nil {
		if !errors.Is(err, evercron.ErrJobNotFound) {
			return nil, err
		}
		// Not yet registered (Trigger before Start); register now.
		if upErr := r.store.UpsertJob(ctx, r.def.Job()); upErr != nil {
			return nil, upErr
		}
		j = r.def.Job()
	}
	if !j.Enabled {
		return nil, evercron.ErrJobDisabled
	}

	now := time.Now().UTC()
	e := execution.New(r.def.Name, now, now)

	ok, err := r.store.RecordStart(ctx, e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, evercron.ErrAlreadyRecorded
	}

	r.execute(ctx, e)
	return e, nil
}

// History returns this job's recorded executions, newest first.
func (r *Runner) History(ctx context.Context, opts execution.HistoryOptions) ([]*execution.Execution, error) {
	return r.store.History(ctx, r.def.Name, opts)
}
