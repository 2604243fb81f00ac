package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Engine is the automation capability the pool drives: an opaque, possibly
// slow, possibly failing call that takes a request and a deadline-carrying
// context. The core depends only on this contract, never on a backend's
// internals.
type Engine interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(ctx context.Context, req Request) (Result, error)

func (f EngineFunc) Execute(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// SnapshotSaver persists page HTML captured from a failed scrape.
type SnapshotSaver interface {
	Save(jobID, html string) error
}

// Pool runs a fixed number of workers against the gate's queue, so at most
// that many jobs are running system-wide. Workers are long-lived: a single
// job's failure, however abnormal, never takes one down.
type Pool struct {
	gate      *Gate
	store     *Store
	engine    Engine
	snapshots SnapshotSaver
	workers   int
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewPool(gate *Gate, store *Store, engine Engine, workers int, timeout time.Duration) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		gate:    gate,
		store:   store,
		engine:  engine,
		workers: workers,
		timeout: timeout,
	}
}

// WithSnapshots enables persisting failure-page HTML.
func (p *Pool) WithSnapshots(s SnapshotSaver) *Pool {
	p.snapshots = s
	return p
}

// Start launches the workers. They run until ctx is canceled; in-flight jobs
// are bounded by the per-job timeout either way.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.worker(ctx, id)
		}(i)
	}
	log.Printf("[pool] started %d workers (timeout %s)", p.workers, p.timeout)
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	for {
		jobID, ok := p.gate.Dequeue(ctx)
		if !ok {
			return
		}
		p.run(ctx, id, jobID)
	}
}

// run executes one job end to end. Every outcome, including panic and
// deadline expiry, lands in the job record rather than propagating out.
func (p *Pool) run(ctx context.Context, workerID int, jobID string) {
	job, ok := p.store.Get(jobID)
	if !ok {
		log.Printf("[worker %d] job %s vanished before start", workerID, jobID)
		return
	}
	if err := p.store.SetRunning(jobID); err != nil {
		log.Printf("[worker %d] %v", workerID, err)
		return
	}
	log.Printf("[worker %d] job %s running (%s)", workerID, jobID, job.Request.URL)

	result, err := p.execute(ctx, job.Request)
	if err == nil {
		if ierr := p.store.SetCompleted(jobID, result); ierr != nil {
			log.Printf("[worker %d] %v", workerID, ierr)
			return
		}
		log.Printf("[worker %d] job %s completed", workerID, jobID)
		return
	}

	jobErr := p.classify(err)
	if ierr := p.store.SetFailed(jobID, jobErr); ierr != nil {
		log.Printf("[worker %d] %v", workerID, ierr)
		return
	}
	log.Printf("[worker %d] job %s failed: %s: %s", workerID, jobID, jobErr.Kind, jobErr.Message)
	p.saveSnapshot(jobID, err)
}

type execOutcome struct {
	result Result
	err    error
}

// execute invokes the engine under the configured deadline. The call runs in
// its own goroutine so that an engine which ignores ctx still cannot hold
// the worker past the deadline; an abandoned call finishes in the background
// and its outcome is dropped.
func (p *Pool) execute(ctx context.Context, req Request) (Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan execOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- execOutcome{err: fmt.Errorf("engine panic: %v", r)}
			}
		}()
		result, err := p.engine.Execute(callCtx, req)
		done <- execOutcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-callCtx.Done():
		return nil, callCtx.Err()
	}
}

func (p *Pool) classify(err error) JobError {
	if errors.Is(err, context.DeadlineExceeded) {
		return JobError{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("scrape did not finish within %s", p.timeout),
		}
	}
	return JobError{Kind: KindExecutionFailure, Message: err.Error()}
}

// saveSnapshot persists failure-page HTML when the engine attached one to
// its error.
func (p *Pool) saveSnapshot(jobID string, err error) {
	if p.snapshots == nil {
		return
	}
	var snap interface{ Snapshot() string }
	if !errors.As(err, &snap) {
		return
	}
	html := snap.Snapshot()
	if html == "" {
		return
	}
	if serr := p.snapshots.Save(jobID, html); serr != nil {
		log.Printf("[pool] snapshot for job %s: %v", jobID, serr)
	}
}
