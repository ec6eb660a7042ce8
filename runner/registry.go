package runner

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/evercron/evercron"
)

// Registry groups runners so a whole fleet of jobs starts and stops
// together. It is explicit state, not a package-level singleton;
// create one per scheduler.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	runners map[string]*Runner
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger,
		runners: make(map[string]*Runner),
	}
}

// Register adds a runner keyed by its job name.
func (g *Registry) Register(r *Runner) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.runners[r.Name()]; exists {
		return evercron.ErrDuplicateJob
	}
	g.runners[r.Name()] = r
	return nil
}

// Get returns the runner for a job name.
func (g *Registry) Get(name string) (*Runner, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.runners[name]
	return r, ok
}

// Names returns all registered job names sorted.
func (g *Registry) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.runners))
	for name := range g.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartAll starts every registered runner concurrently. The first
// start error cancels the rest; already-started runners keep running
// so the caller can StopAll to unwind.
func (g *Registry) StartAll(ctx context.Context) error {
	g.mu.RLock()
	runners := make([]*Runner, 0, len(g.runners))
	for _, r := range g.runners {
		runners = append(runners, r)
	}
	g.mu.RUnlock()

	eg, ctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		eg.Go(func() error {
			return r.Start(ctx)
		})
	}
	return eg.Wait()
}

// StopAll stops every registered runner, waiting for in-flight
// executions. Runners that never started are skipped.
func (g *Registry) StopAll(ctx context.Context) error {
	g.mu.RLock()
	runners := make([]*Runner, 0, len(g.runners))
	for _, r := range g.runners {
		runners = append(runners, r)
	}
	g.mu.RUnlock()

	var eg errgroup.Group
	for _, r := range runners {
		if !r.IsRunning() {
			continue
		}
		eg.Go(func() error {
			return r.Stop(ctx)
		})
	}
	return eg.Wait()
}
