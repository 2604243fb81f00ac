package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSubmitValidation(t *testing.T) {
	store := NewStore()
	gate := NewGate(store, 4)

	cases := []struct {
		name string
		req  Request
	}{
		{"empty url", Request{}},
		{"relative url", Request{URL: "/just/a/path"}},
		{"bad scheme", Request{URL: "ftp://example.com"}},
		{"bad script", Request{URL: "https://example.com", Script: "await page.frobnicate('x')"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := gate.Submit(tc.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Submit = %v, want ValidationError", err)
			}
		})
	}

	if store.Len() != 0 {
		t.Fatalf("rejected submissions created %d records", store.Len())
	}
}

func TestSubmitQueueFullCreatesNoRecord(t *testing.T) {
	store := NewStore()
	gate := NewGate(store, 1)

	if _, err := gate.Submit(newTestRequest()); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	_, err := gate.Submit(newTestRequest())
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("second Submit = %v, want ErrQueueFull", err)
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d records, want 1: queue_full must not strand a pending job", store.Len())
	}
}

func TestDequeueReleasesSlot(t *testing.T) {
	store := NewStore()
	gate := NewGate(store, 1)

	job, err := gate.Submit(newTestRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	id, ok := gate.Dequeue(ctx)
	if !ok || id != job.ID {
		t.Fatalf("Dequeue = (%s, %v), want (%s, true)", id, ok, job.ID)
	}

	// The drained slot opens the queue for the next submission.
	if _, err := gate.Submit(newTestRequest()); err != nil {
		t.Fatalf("Submit after drain: %v", err)
	}
}

func TestDequeueIsFIFO(t *testing.T) {
	store := NewStore()
	gate := NewGate(store, 4)

	var want []string
	for i := 0; i < 4; i++ {
		job, err := gate.Submit(newTestRequest())
		if err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		want = append(want, job.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i, wantID := range want {
		id, ok := gate.Dequeue(ctx)
		if !ok || id != wantID {
			t.Fatalf("Dequeue %d = (%s, %v), want %s", i, id, ok, wantID)
		}
	}
}

func TestDequeueStopsOnCancel(t *testing.T) {
	gate := NewGate(NewStore(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := gate.Dequeue(ctx); ok {
		t.Fatal("Dequeue returned a job from a canceled context")
	}
}
