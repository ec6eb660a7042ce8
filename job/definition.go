package job

// Definition describes a job to register: its unique name, cron
// schedule, and scheduling options. NewDefinition applies options over
// defaults (UTC, enabled, no catch-up).
type Definition struct {
	// Name is the unique identifier for this job.
	Name string

	// Schedule is a 5-field cron expression (e.g. "*/15 * * * *").
	Schedule string

	// Opts configures timezone, catch-up, and enablement.
	Opts Options
}

// NewDefinition creates a job definition.
func NewDefinition(name, schedule string, opts ...Option) *Definition {
	def := &Definition{
		Name:     name,
		Schedule: schedule,
		Opts:     DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&def.Opts)
	}
	return def
}

// Job materializes the persisted record for this definition.
func (d *Definition) Job() *Job {
	return &Job{
		Name:       d.Name,
		Schedule:   d.Schedule,
		Timezone:   d.Opts.Timezone,
		CatchUp:    d.Opts.CatchUp,
		MaxCatchUp: d.Opts.MaxCatchUp,
		Enabled:    d.Opts.Enabled,
	}
}
