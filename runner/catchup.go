package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/evercron/evercron/execution"
	"github.com/evercron/evercron/job"
	"github.com/evercron/evercron/lease"
	"github.com/evercron/evercron/schedule"
)

// runCatchUp replays instants missed while no instance was running,
// walking the expression forward from the persisted cursor up to now.
// Replay is bounded by the job's maximum; instants beyond it are
// skipped with the cursor still advancing, so a long outage never
// turns into an unbounded execution storm. The ledger check per
// instant makes concurrent catch-up across instances safe.
func (r *Runner) runCatchUp(ctx context.Context, j *job.Job) error {
	if j.LastScheduledAt == nil {
		// Never fired before: nothing was missed.
		return nil
	}

	acquired, err := r.store.TryAcquire(ctx, r.def.Name, r.holderID, r.cfg.LeaseTTL)
	if err != nil {
		return err
	}
	if !acquired {
		r.logger.Info("catch-up skipped, lease held elsewhere",
			slog.String("job_name", r.def.Name),
		)
		return nil
	}
	defer func() {
		if relErr := r.store.Release(ctx, r.def.Name, r.holderID); relErr != nil {
			r.logger.Error("lease release error",
				slog.String("job_name", r.def.Name),
				slog.String("error", relErr.Error()),
			)
		}
	}()

	keeper := lease.NewKeeper(r.store, r.def.Name, r.holderID, r.cfg.LeaseTTL, r.cfg.Heartbeat(), r.logger)
	keeper.Start()
	defer keeper.Stop()

	maxReplay := j.MaxCatchUp
	if maxReplay <= 0 {
		maxReplay = r.cfg.DefaultMaxCatchUp
	}

	now := time.Now().In(r.loc)
	cursor := j.LastScheduledAt.In(r.loc)
	origin := cursor
	executed, skipped := 0, 0

	for {
		next, nErr := r.expr.Next(cursor)
		if errors.Is(nErr, schedule.ErrNoMatchingTime) {
			break
		}
		if nErr != nil {
			return nErr
		}
		if !next.Before(now) {
			break
		}
		cursor = next

		if executed >= maxReplay {
			skipped++
			continue
		}

		e := execution.New(r.def.Name, next, time.Now().In(r.loc))
		ok, rsErr := r.store.RecordStart(ctx, e)
		if rsErr != nil {
			return rsErr
		}
		if !ok {
			// Another instance already covered this instant.
			continue
		}

		r.execute(ctx, e)
		executed++
	}

	if cursor.After(origin) {
		// Only a moved cursor is worth persisting; an untouched one
		// would needlessly null out next_scheduled_at for peers.
		if err := r.store.UpdateJobTimes(ctx, r.def.Name, &cursor, nil); err != nil {
			return err
		}
	}

	if skipped > 0 {
		r.logger.Warn("catch-up limit reached, instants skipped",
			slog.String("job_name", r.def.Name),
			slog.Int("executed", executed),
			slog.Int("skipped", skipped),
		)
	} else if executed > 0 {
		r.logger.Info("catch-up complete",
			slog.String("job_name", r.def.Name),
			slog.Int("executed", executed),
		)
	}
	return nil
}
