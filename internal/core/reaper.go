package core

import (
	"context"
	"log"
	"time"
)

// Reaper purges terminal jobs older than the retention window so the
// in-memory store stays bounded. Pending and running jobs are never removed,
// regardless of age; a long scrape is bounded by the pool's per-job timeout,
// not by the reaper.
type Reaper struct {
	store     *Store
	retention time.Duration
	interval  time.Duration
}

func NewReaper(store *Store, retention, interval time.Duration) *Reaper {
	return &Reaper{store: store, retention: retention, interval: interval}
}

// Run ticks until ctx is canceled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(time.Now()); n > 0 {
				log.Printf("[reaper] removed %d expired jobs", n)
			}
		}
	}
}

// Sweep deletes terminal jobs completed before now minus the retention
// window and reports how many were removed. Deletes are idempotent, so a
// second sweep over the same window is a no-op.
func (r *Reaper) Sweep(now time.Time) int {
	ids := r.store.TerminalOlderThan(now.Add(-r.retention))
	for _, id := range ids {
		r.store.Delete(id)
	}
	return len(ids)
}
