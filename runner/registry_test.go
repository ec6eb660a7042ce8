package runner_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/evercron/evercron"
	"github.com/evercron/evercron/job"
	"github.com/evercron/evercron/runner"
	"github.com/evercron/evercron/store/memory"
)

func noopHandler(_ context.Context, _ *job.Run) (any, error) { return nil, nil }

func TestRegistryRegister(t *testing.T) {
	st := memory.New()
	reg := runner.NewRegistry(nil)

	r := runner.New(st, job.NewDefinition("report", "0 2 * * *"), noopHandler)
	if err := reg.Register(r); err != nil {
		t.Fatalf("Register: %v", err)
	}

	dup := runner.New(st, job.NewDefinition("report", "0 3 * * *"), noopHandler)
	if err := reg.Register(dup); !errors.Is(err, evercron.ErrDuplicateJob) {
		t.Fatalf("duplicate Register = %v, want ErrDuplicateJob", err)
	}

	got, ok := reg.Get("report")
	if !ok || got != r {
		t.Errorf("Get = %v, %v; want the registered runner", got, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Error("Get found an unregistered job")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	st := memory.New()
	reg := runner.NewRegistry(nil)

	for _, name := range []string{"cleanup", "archive", "billing"} {
		r := runner.New(st, job.NewDefinition(name, "0 0 1 1 *"), noopHandler)
		if err := reg.Register(r); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	want := []string{"archive", "billing", "cleanup"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
}

func TestRegistryStartStopAll(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	reg := runner.NewRegistry(nil)

	runners := []*runner.Runner{
		runner.New(st, job.NewDefinition("archive", "0 0 1 1 *"), noopHandler),
		runner.New(st, job.NewDefinition("cleanup", "0 0 1 1 *"), noopHandler),
	}
	for _, r := range runners {
		if err := reg.Register(r); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	if err := reg.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	for _, r := range runners {
		if !r.IsRunning() {
			t.Errorf("runner %s not running after StartAll", r.Name())
		}
	}

	if err := reg.StopAll(ctx); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	for _, r := range runners {
		if r.IsRunning() {
			t.Errorf("runner %s still running after StopAll", r.Name())
		}
	}
}

func TestRegistryStartAllInvalidSchedule(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	reg := runner.NewRegistry(nil)

	good := runner.New(st, job.NewDefinition("good", "0 0 1 1 *"), noopHandler)
	bad := runner.New(st, job.NewDefinition("bad", "not cron"), noopHandler)
	_ = reg.Register(good)
	_ = reg.Register(bad)

	if err := reg.StartAll(ctx); err == nil {
		t.Fatal("StartAll accepted an invalid schedule")
	}

	// Unwind whatever StartAll managed to launch.
	if err := reg.StopAll(ctx); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
}
