package core

import (
	"testing"
	"time"
)

func TestReaperSweep(t *testing.T) {
	store := NewStore()
	retention := time.Minute
	reaper := NewReaper(store, retention, time.Second)

	completed := store.Create(newTestRequest())
	if err := store.SetRunning(completed.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.SetCompleted(completed.ID, nil); err != nil {
		t.Fatal(err)
	}

	failed := store.Create(newTestRequest())
	if err := store.SetRunning(failed.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.SetFailed(failed.ID, JobError{Kind: KindExecutionFailure, Message: "x"}); err != nil {
		t.Fatal(err)
	}

	running := store.Create(newTestRequest())
	if err := store.SetRunning(running.ID); err != nil {
		t.Fatal(err)
	}
	pending := store.Create(newTestRequest())

	// Inside the retention window nothing is old enough.
	if n := reaper.Sweep(time.Now()); n != 0 {
		t.Fatalf("fresh sweep removed %d jobs", n)
	}

	// Advance the sweep's clock past the retention window: both terminal
	// jobs expire, the live ones never do.
	later := time.Now().Add(retention + time.Second)
	if n := reaper.Sweep(later); n != 2 {
		t.Fatalf("sweep removed %d jobs, want 2", n)
	}
	if _, ok := store.Get(completed.ID); ok {
		t.Fatal("completed job survived sweep")
	}
	if _, ok := store.Get(failed.ID); ok {
		t.Fatal("failed job survived sweep")
	}
	if _, ok := store.Get(running.ID); !ok {
		t.Fatal("running job was reaped")
	}
	if _, ok := store.Get(pending.ID); !ok {
		t.Fatal("pending job was reaped")
	}

	// Second pass over the same window is a no-op.
	if n := reaper.Sweep(later); n != 0 {
		t.Fatalf("repeat sweep removed %d jobs", n)
	}
}
