package core

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"scrapeq/internal/script"
)

// ValidationError reports a malformed submission. The job is never created.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

// Gate performs admission control for new jobs. A queue slot is reserved
// before the store record is created, so a full queue rejects the submission
// outright and can never strand a pending job with no path to execution.
type Gate struct {
	store *Store
	queue chan string
	slots chan struct{}
}

func NewGate(store *Store, capacity int) *Gate {
	if capacity <= 0 {
		capacity = 1
	}
	return &Gate{
		store: store,
		queue: make(chan string, capacity),
		slots: make(chan struct{}, capacity),
	}
}

// Submit validates req, creates a pending job and enqueues its id. It never
// blocks: a saturated queue returns ErrQueueFull immediately.
func (g *Gate) Submit(req Request) (Job, error) {
	if err := validate(req); err != nil {
		return Job{}, err
	}

	select {
	case g.slots <- struct{}{}:
	default:
		return Job{}, ErrQueueFull
	}

	job := g.store.Create(req)
	// Cannot block: the reserved slot guarantees room in the queue.
	g.queue <- job.ID
	log.Printf("[gate] accepted job %s for %s", job.ID, req.URL)
	return job, nil
}

// Dequeue blocks until a job id is available or ctx is done. Receiving an id
// releases its reserved slot, opening the queue to one more submission.
func (g *Gate) Dequeue(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case id := <-g.queue:
		<-g.slots
		return id, true
	}
}

// validate is local only: no network access happens at admission time.
func validate(req Request) error {
	if req.URL == "" {
		return &ValidationError{Detail: "url is required"}
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Detail: fmt.Sprintf("url %q is not an absolute http(s) url", req.URL)}
	}
	if err := script.Validate(req.Script); err != nil {
		return &ValidationError{Detail: err.Error()}
	}
	return nil
}
