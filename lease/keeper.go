package lease

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/evercron/evercron/backoff"
	"github.com/evercron/evercron/id"
)

// Keeper renews a held lease on a heartbeat interval so long-running
// executions do not lose the lease mid-flight. It is an explicit
// background task bound to one execution's lifetime: Start it after
// the lease is acquired, Stop it (idempotently) when the execution
// finishes.
//
// A renewal failure never interrupts the execution. It is retried once
// after a short backoff, then logged and left to the next heartbeat:
// availability over strict exclusivity.
type Keeper struct {
	store    Store
	jobName  string
	holderID id.WorkerID
	ttl      time.Duration
	interval time.Duration
	retry    backoff.Strategy
	logger   *slog.Logger

	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewKeeper creates a Keeper. A zero interval defaults to ttl/3.
func NewKeeper(st Store, jobName string, holderID id.WorkerID, ttl, interval time.Duration, logger *slog.Logger) *Keeper {
	if interval <= 0 {
		interval = ttl / 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Keeper{
		store:    st,
		jobName:  jobName,
		holderID: holderID,
		ttl:      ttl,
		interval: interval,
		retry:    backoff.DefaultRenewal(),
		logger:   logger,
	}
}

// Start launches the heartbeat goroutine.
func (k *Keeper) Start() {
	k.stopCh = make(chan struct{})
	k.wg.Add(1)
	go k.loop()
}

// Stop signals the heartbeat to stop and waits for it to finish.
// Safe to call more than once.
func (k *Keeper) Stop() {
	k.once.Do(func() { close(k.stopCh) })
	k.wg.Wait()
}

func (k *Keeper) loop() {
	defer k.wg.Done()

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-k.stopCh:
			return
		case <-ticker.C:
			k.renew()
		}
	}
}

func (k *Keeper) renew() {
	ctx, cancel := context.WithTimeout(context.Background(), k.interval)
	defer cancel()

	renewed, err := k.store.Renew(ctx, k.jobName, k.holderID, k.ttl)
	if err != nil {
		// One quick retry; a transient store hiccup should not cost
		// a full heartbeat interval of lease lifetime.
		select {
		case <-k.stopCh:
			return
		case <-time.After(k.retry.Delay(1)):
		}
		// The first context may have expired while we backed off.
		retryCtx, retryCancel := context.WithTimeout(context.Background(), k.interval)
		renewed, err = k.store.Renew(retryCtx, k.jobName, k.holderID, k.ttl)
		retryCancel()
	}

	switch {
	case err != nil:
		k.logger.Warn("lease renewal error",
			slog.String("job_name", k.jobName),
			slog.String("holder_id", k.holderID.String()),
			slog.String("error", err.Error()),
		)
	case !renewed:
		k.logger.Warn("lease no longer held, execution continues",
			slog.String("job_name", k.jobName),
			slog.String("holder_id", k.holderID.String()),
		)
	}
}
