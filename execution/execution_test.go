package execution

import (
	"testing"
	"time"
)

func TestNewPending(t *testing.T) {
	tick := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	actual := tick.Add(3 * time.Second)

	e := New("report", tick, actual)

	if e.Status != StatusPending {
		t.Errorf("Status = %q, want pending", e.Status)
	}
	if e.ID.IsNil() {
		t.Error("ID not assigned")
	}
	if !e.ScheduledAt.Equal(tick) || !e.ActualAt.Equal(actual) {
		t.Errorf("instants = %v / %v, want %v / %v", e.ScheduledAt, e.ActualAt, tick, actual)
	}
	if e.CompletedAt != nil {
		t.Error("CompletedAt set on a pending execution")
	}
}

func TestCompleteAndFail(t *testing.T) {
	tick := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

	e := New("report", tick, tick)
	e.Complete([]byte(`{"rows":7}`), 1500*time.Millisecond)

	if e.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", e.Status)
	}
	if e.DurationMS != 1500 {
		t.Errorf("DurationMS = %d, want 1500", e.DurationMS)
	}
	if e.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}

	f := New("report", tick, tick)
	f.Fail("boom", 20*time.Millisecond)

	if f.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", f.Status)
	}
	if f.Error != "boom" {
		t.Errorf("Error = %q, want recorded message", f.Error)
	}
}

func TestStatusTerminal(t *testing.T) {
	cases := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}
	for _, tc := range cases {
		if got := tc.status.Terminal(); got != tc.want {
			t.Errorf("%q.Terminal() = %v, want %v", tc.status, got, tc.want)
		}
	}
}
