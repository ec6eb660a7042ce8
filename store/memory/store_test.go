package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evercron/evercron"
	"github.com/evercron/evercron/event"
	"github.com/evercron/evercron/execution"
	"github.com/evercron/evercron/id"
	"github.com/evercron/evercron/job"
)

func TestUpsertJobPreservesCursor(t *testing.T) {
	ctx := context.Background()
	st := New()

	j := job.NewDefinition("report", "0 2 * * *").Job()
	if err := st.UpsertJob(ctx, j); err != nil {
		t.Fatalf("UpsertJob: %v", err)
	}

	last := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	next := last.Add(24 * time.Hour)
	if err := st.UpdateJobTimes(ctx, "report", &last, &next); err != nil {
		t.Fatalf("UpdateJobTimes: %v", err)
	}

	// Re-registering with a new definition must not reset the cursor.
	j2 := job.NewDefinition("report", "30 2 * * *", job.WithCatchUp(5)).Job()
	if err := st.UpsertJob(ctx, j2); err != nil {
		t.Fatalf("UpsertJob (again): %v", err)
	}

	got, err := st.GetJob(ctx, "report")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Schedule != "30 2 * * *" {
		t.Errorf("Schedule = %q, want updated expression", got.Schedule)
	}
	if got.LastScheduledAt == nil || !got.LastScheduledAt.Equal(last) {
		t.Errorf("LastScheduledAt = %v, want %v", got.LastScheduledAt, last)
	}
	if got.NextScheduledAt == nil || !got.NextScheduledAt.Equal(next) {
		t.Errorf("NextScheduledAt = %v, want %v", got.NextScheduledAt, next)
	}
}

func TestGetJobNotFound(t *testing.T) {
	st := New()

	_, err := st.GetJob(context.Background(), "missing")
	if !errors.Is(err, evercron.ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestListJobsSorted(t *testing.T) {
	ctx := context.Background()
	st := New()

	for _, name := range []string{"cleanup", "archive", "billing"} {
		if err := st.UpsertJob(ctx, job.NewDefinition(name, "* * * * *").Job()); err != nil {
			t.Fatalf("UpsertJob(%s): %v", name, err)
		}
	}

	jobs, err := st.ListJobs(ctx)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("len(jobs) = %d, want 3", len(jobs))
	}
	want := []string{"archive", "billing", "cleanup"}
	for i, j := range jobs {
		if j.Name != want[i] {
			t.Errorf("jobs[%d].Name = %q, want %q", i, j.Name, want[i])
		}
	}
}

func TestTryAcquireContention(t *testing.T) {
	ctx := context.Background()
	st := New()

	alice := id.NewWorkerID()
	bob := id.NewWorkerID()

	ok, err := st.TryAcquire(ctx, "report", alice, time.Minute)
	if err != nil || !ok {
		t.Fatalf("TryAcquire(alice) = %v, %v; want true, nil", ok, err)
	}

	// Second holder is locked out while the lease is live.
	ok, err = st.TryAcquire(ctx, "report", bob, time.Minute)
	if err != nil {
		t.Fatalf("TryAcquire(bob): %v", err)
	}
	if ok {
		t.Error("TryAcquire(bob) = true, want false while alice holds the lease")
	}

	// Re-entry by the current holder succeeds.
	ok, err = st.TryAcquire(ctx, "report", alice, time.Minute)
	if err != nil || !ok {
		t.Errorf("TryAcquire(alice, re-entry) = %v, %v; want true, nil", ok, err)
	}
}

func TestTryAcquireExpiredLease(t *testing.T) {
	ctx := context.Background()
	st := New()

	alice := id.NewWorkerID()
	bob := id.NewWorkerID()

	if ok, err := st.TryAcquire(ctx, "report", alice, -time.Second); err != nil || !ok {
		t.Fatalf("TryAcquire(alice) = %v, %v; want true, nil", ok, err)
	}

	// The expired lease is up for grabs.
	ok, err := st.TryAcquire(ctx, "report", bob, time.Minute)
	if err != nil {
		t.Fatalf("TryAcquire(bob): %v", err)
	}
	if !ok {
		t.Error("TryAcquire(bob) = false, want true over an expired lease")
	}
}

func TestRenewAndRelease(t *testing.T) {
	ctx := context.Background()
	st := New()

	alice := id.NewWorkerID()
	bob := id.NewWorkerID()

	if ok, _ := st.TryAcquire(ctx, "report", alice, time.Minute); !ok {
		t.Fatal("TryAcquire(alice) failed")
	}

	if ok, err := st.Renew(ctx, "report", bob, time.Minute); err != nil || ok {
		t.Errorf("Renew(bob) = %v, %v; want false, nil", ok, err)
	}
	if ok, err := st.Renew(ctx, "report", alice, time.Minute); err != nil || !ok {
		t.Errorf("Renew(alice) = %v, %v; want true, nil", ok, err)
	}

	// Release by a non-holder is a no-op.
	if err := st.Release(ctx, "report", bob); err != nil {
		t.Fatalf("Release(bob): %v", err)
	}
	if l, _ := st.GetLease(ctx, "report"); l == nil {
		t.Fatal("lease vanished after non-holder release")
	}

	if err := st.Release(ctx, "report", alice); err != nil {
		t.Fatalf("Release(alice): %v", err)
	}
	if l, _ := st.GetLease(ctx, "report"); l != nil {
		t.Error("lease still present after holder release")
	}
}

func TestRecordStartIdempotent(t *testing.T) {
	ctx := context.Background()
	st := New()

	tick := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	first := execution.New("report", tick, tick.Add(time.Second))

	ok, err := st.RecordStart(ctx, first)
	if err != nil || !ok {
		t.Fatalf("RecordStart(first) = %v, %v; want true, nil", ok, err)
	}

	// Another worker racing the same instant gets a different
	// execution ID but the same (job, instant) key.
	second := execution.New("report", tick, tick.Add(2*time.Second))
	ok, err = st.RecordStart(ctx, second)
	if err != nil {
		t.Fatalf("RecordStart(second): %v", err)
	}
	if ok {
		t.Error("RecordStart(second) = true, want false for duplicate instant")
	}

	// A different instant for the same job is a fresh row.
	third := execution.New("report", tick.Add(24*time.Hour), tick.Add(24*time.Hour))
	if ok, err := st.RecordStart(ctx, third); err != nil || !ok {
		t.Errorf("RecordStart(third) = %v, %v; want true, nil", ok, err)
	}
}

func TestRecordOutcome(t *testing.T) {
	ctx := context.Background()
	st := New()

	tick := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	e := execution.New("report", tick, tick)
	if ok, err := st.RecordStart(ctx, e); err != nil || !ok {
		t.Fatalf("RecordStart = %v, %v", ok, err)
	}

	if err := st.RecordOutcome(ctx, e.ID, execution.StatusCompleted, []byte(`{"rows":42}`), "", 1500); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	got, err := st.GetExecution(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetExecution: %v", err)
	}
	if got.Status != execution.StatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if string(got.Output) != `{"rows":42}` {
		t.Errorf("Output = %s, want recorded output", got.Output)
	}
	if got.DurationMS != 1500 {
		t.Errorf("DurationMS = %d, want 1500", got.DurationMS)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
}

func TestRecordOutcomeNotFound(t *testing.T) {
	st := New()

	err := st.RecordOutcome(context.Background(), id.NewExecutionID(), execution.StatusFailed, nil, "boom", 10)
	if !errors.Is(err, evercron.ErrExecutionNotFound) {
		t.Errorf("err = %v, want ErrExecutionNotFound", err)
	}
}

func TestHistoryOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	st := New()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tick := base.Add(time.Duration(i) * time.Hour)
		e := execution.New("report", tick, tick)
		if ok, err := st.RecordStart(ctx, e); err != nil || !ok {
			t.Fatalf("RecordStart(%d) = %v, %v", i, ok, err)
		}
	}
	// Unrelated job must not leak into the history.
	other := execution.New("cleanup", base, base)
	if _, err := st.RecordStart(ctx, other); err != nil {
		t.Fatalf("RecordStart(other): %v", err)
	}

	hist, err := st.History(ctx, "report", execution.HistoryOptions{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 5 {
		t.Fatalf("len(hist) = %d, want 5", len(hist))
	}
	for i := 1; i < len(hist); i++ {
		if hist[i].ScheduledAt.After(hist[i-1].ScheduledAt) {
			t.Fatal("history not in descending scheduled order")
		}
	}

	since := base.Add(3 * time.Hour)
	hist, err = st.History(ctx, "report", execution.HistoryOptions{Since: &since, Limit: 1})
	if err != nil {
		t.Fatalf("History(filtered): %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("len(hist) = %d, want 1", len(hist))
	}
	if !hist[0].ScheduledAt.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("hist[0].ScheduledAt = %v, want newest tick", hist[0].ScheduledAt)
	}
}

func TestEventLogAppendOrder(t *testing.T) {
	ctx := context.Background()
	st := New()

	for _, msg := range []string{"one", "two", "three"} {
		if err := st.AppendEvent(ctx, event.New("report.audit", []byte(msg))); err != nil {
			t.Fatalf("AppendEvent(%s): %v", msg, err)
		}
	}

	events, err := st.ListEvents(ctx, "report.audit")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	for i, want := range []string{"one", "two", "three"} {
		if string(events[i].Data) != want {
			t.Errorf("events[%d].Data = %s, want %s", i, events[i].Data, want)
		}
	}

	if empty, _ := st.ListEvents(ctx, "unknown"); len(empty) != 0 {
		t.Errorf("ListEvents(unknown) = %d events, want 0", len(empty))
	}
}
