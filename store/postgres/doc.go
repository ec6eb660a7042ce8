// Package postgres provides a PostgreSQL-backed store implementation
// using pgx/v5. All coordination is plain SQL over ordinary
// connections: lease acquisition is a conditional upsert, and ledger
// uniqueness rides the UNIQUE(job_name, scheduled_at) constraint.
// No advisory locks or extensions are required, so the store works
// against any reachable PostgreSQL, managed or self-hosted.
package postgres
