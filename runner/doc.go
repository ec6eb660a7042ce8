// Package runner drives one goroutine per registered job: a tick loop
// that acquires the job's lease, claims the due instant in the
// execution ledger, runs the handler through the middleware chain, and
// advances the persisted schedule cursor. A Registry groups runners so
// a whole fleet starts and stops together.
package runner
