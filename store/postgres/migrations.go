package postgres

// migration is a named, forward-only schema change. Applied migrations
// are recorded in evercron_migrations and skipped on restart.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "001_create_jobs",
		sql: `
			CREATE TABLE IF NOT EXISTS evercron_jobs (
				name              TEXT PRIMARY KEY,
				schedule          TEXT NOT NULL,
				timezone          TEXT NOT NULL DEFAULT '',
				catch_up          BOOLEAN NOT NULL DEFAULT FALSE,
				max_catch_up      INTEGER NOT NULL DEFAULT 10,
				enabled           BOOLEAN NOT NULL DEFAULT TRUE,
				last_scheduled_at TIMESTAMPTZ,
				next_scheduled_at TIMESTAMPTZ,
				created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_evercron_jobs_next
				ON evercron_jobs (next_scheduled_at)
				WHERE enabled = TRUE;
		`,
	},
	{
		name: "002_create_executions",
		sql: `
			CREATE TABLE IF NOT EXISTS evercron_executions (
				id           TEXT PRIMARY KEY,
				job_name     TEXT NOT NULL,
				scheduled_at TIMESTAMPTZ NOT NULL,
				actual_at    TIMESTAMPTZ NOT NULL,
				status       TEXT NOT NULL DEFAULT 'pending',
				output       BYTEA,
				error        TEXT NOT NULL DEFAULT '',
				duration_ms  BIGINT NOT NULL DEFAULT 0,
				completed_at TIMESTAMPTZ,
				created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (job_name, scheduled_at)
			);

			CREATE INDEX IF NOT EXISTS idx_evercron_executions_history
				ON evercron_executions (job_name, scheduled_at DESC);
		`,
	},
	{
		name: "003_create_leases",
		sql: `
			CREATE TABLE IF NOT EXISTS evercron_leases (
				job_name    TEXT PRIMARY KEY,
				holder_id   TEXT NOT NULL,
				acquired_at TIMESTAMPTZ NOT NULL,
				expires_at  TIMESTAMPTZ NOT NULL
			);
		`,
	},
	{
		name: "004_create_event_log",
		sql: `
			CREATE TABLE IF NOT EXISTS evercron_event_log (
				id         TEXT PRIMARY KEY,
				log_name   TEXT NOT NULL,
				data       BYTEA,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_evercron_event_log_name
				ON evercron_event_log (log_name, created_at);
		`,
	},
}
