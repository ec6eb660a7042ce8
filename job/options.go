package job

// Options configures scheduling behavior for a job definition.
type Options struct {
	// Timezone is the IANA zone the schedule is evaluated in.
	// Empty means UTC.
	Timezone string

	// CatchUp enables replay of missed instants at job start.
	CatchUp bool

	// MaxCatchUp bounds how many missed instants are replayed.
	// Remaining misses are silently skipped.
	MaxCatchUp int

	// Enabled controls whether the tick loop fires for this job.
	Enabled bool
}

// DefaultOptions returns the default job options.
func DefaultOptions() Options {
	return Options{
		Timezone: "",
		Enabled:  true,
	}
}

// Option configures job Options.
type Option func(*Options)

// WithTimezone sets the IANA timezone the schedule is evaluated in.
func WithTimezone(tz string) Option {
	return func(o *Options) { o.Timezone = tz }
}

// WithCatchUp enables catch-up with the given maximum replay count.
func WithCatchUp(maxCatchUp int) Option {
	return func(o *Options) {
		o.CatchUp = true
		o.MaxCatchUp = maxCatchUp
	}
}

// WithEnabled sets whether the job is enabled.
func WithEnabled(enabled bool) Option {
	return func(o *Options) { o.Enabled = enabled }
}
