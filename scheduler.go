package evercron

import (
	"context"
	"log/slog"
)

// Option configures a Scheduler.
type Option func(*Scheduler) error

// Storer is the minimal store interface held by the Scheduler.
// It covers lifecycle operations only; the full composite interface
// (store.Store) is consumed by the runner layer, which would create an
// import cycle here. Implementations satisfy store.Store, which embeds
// all subsystem stores.
type Storer interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// runnerSet is an internal interface for the runner registry lifecycle.
type runnerSet interface {
	StartAll(ctx context.Context) error
	StopAll(ctx context.Context) error
}

// Scheduler is the top-level coordinator: it owns the store lifecycle
// and starts and stops the registered job runners together.
//
// Create one with New() and functional options, attach a
// runner.Registry via SetRegistry, then call Start.
type Scheduler struct {
	config  Config
	logger  *slog.Logger
	store   Storer
	runners runnerSet

	started bool
}

// New creates a Scheduler with the given options. It fails fast when
// no relational store has been configured.
func New(opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s, nil
}

// Logger returns the scheduler's logger.
func (s *Scheduler) Logger() *slog.Logger { return s.logger }

// Store returns the scheduler's store.
func (s *Scheduler) Store() Storer { return s.store }

// Config returns a copy of the scheduler's configuration.
func (s *Scheduler) Config() Config { return s.config }

// SetRegistry attaches the runner registry (called by the runner package).
func (s *Scheduler) SetRegistry(r runnerSet) { s.runners = r }

// Start migrates the store, verifies connectivity, and starts every
// registered runner.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return err
	}
	if err := s.store.Migrate(ctx); err != nil {
		return err
	}
	if s.runners != nil {
		if err := s.runners.StartAll(ctx); err != nil {
			return err
		}
	}
	s.started = true
	return nil
}

// Stop stops all runners and closes the store. In-flight handlers run
// to completion before their runners return.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.runners != nil && s.started {
		if err := s.runners.StopAll(ctx); err != nil {
			s.logger.Error("runner stop error", "error", err)
		}
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// WithStore sets the persistence backend for the scheduler.
// The store must implement Storer at minimum; typically it is a
// store.Store which embeds all subsystem store interfaces.
func WithStore(st Storer) Option {
	return func(s *Scheduler) error {
		s.store = st
		return nil
	}
}

// WithLogger sets the structured logger for the scheduler.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) error {
		s.logger = l
		return nil
	}
}

// WithConfig replaces the full timing configuration.
func WithConfig(cfg Config) Option {
	return func(s *Scheduler) error {
		s.config = cfg
		return nil
	}
}
