// Package job defines the persistent job model: the registry entry
// stored per named job, the handler contract, and the per-execution
// run context handed to handlers.
package job

import (
	"time"

	"github.com/evercron/evercron"
)

// Job is the persisted definition of a scheduled job. Jobs are
// identified by name and upserted idempotently on every scheduler
// start or manual trigger; the scheduler never deletes them.
type Job struct {
	evercron.Entity

	Name       string `json:"name"`
	Schedule   string `json:"schedule"`
	Timezone   string `json:"timezone"`
	CatchUp    bool   `json:"catch_up"`
	MaxCatchUp int    `json:"max_catch_up"`
	Enabled    bool   `json:"enabled"`

	// LastScheduledAt is the most recent instant handled for this job.
	LastScheduledAt *time.Time `json:"last_scheduled_at,omitempty"`

	// NextScheduledAt, when present, is always the smallest instant
	// satisfying the schedule strictly greater than the instant it was
	// computed from.
	NextScheduledAt *time.Time `json:"next_scheduled_at,omitempty"`
}

// Location resolves the job's timezone, defaulting to UTC.
func (j *Job) Location() (*time.Location, error) {
	if j.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(j.Timezone)
}
