package evercron

import "time"

// Config holds timing configuration shared by all job runners.
type Config struct {
	// TickInterval is how often a runner polls for due-ness.
	TickInterval time.Duration

	// LeaseTTL is how long an acquired lease remains exclusive
	// without renewal.
	LeaseTTL time.Duration

	// HeartbeatInterval is how often a running execution renews its
	// lease. Zero means LeaseTTL / 3.
	HeartbeatInterval time.Duration

	// DefaultMaxCatchUp bounds catch-up replay for jobs that enable
	// catch-up without an explicit per-job maximum.
	DefaultMaxCatchUp int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:      1 * time.Second,
		LeaseTTL:          30 * time.Second,
		HeartbeatInterval: 10 * time.Second,
		DefaultMaxCatchUp: 10,
	}
}

// Heartbeat returns the effective heartbeat interval.
func (c Config) Heartbeat() time.Duration {
	if c.HeartbeatInterval > 0 {
		return c.HeartbeatInterval
	}
	return c.LeaseTTL / 3
}
