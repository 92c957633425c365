package runtime

import (
	"sync"
	"time"

	"zrpc/zrpcerr"
)

// Cooperative is the single-thread runtime: one goroutine drains an
// internal job queue, so only one job body ever executes at a time. This
// is semantically identical to Async from a caller's perspective (a
// Spawned function still eventually runs, a scheduled Timer still
// eventually fires) but needs no extra locking around shared state beyond
// what Async already requires, since there is never more than one job in
// flight.
type Cooperative struct {
	jobs   chan func()
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewCooperative constructs a Cooperative runtime with the given job queue
// depth and starts its single worker goroutine.
func NewCooperative(queueDepth int) *Cooperative {
	r := &Cooperative{
		jobs: make(chan func(), queueDepth),
		done: make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Cooperative) run() {
	for job := range r.jobs {
		job()
	}
	close(r.done)
}

func (r *Cooperative) Spawn(f func()) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return zrpcerr.ErrShutdown
	}
	r.mu.Unlock()

	select {
	case r.jobs <- f:
		return nil
	default:
		// Queue full: enqueue blocking in a detached send so Spawn never
		// blocks its caller indefinitely on a transient backlog.
		go func() { r.jobs <- f }()
		return nil
	}
}

func (r *Cooperative) AfterFunc(d time.Duration, f func()) (Timer, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, zrpcerr.ErrShutdown
	}
	r.mu.Unlock()

	t := time.AfterFunc(d, func() {
		r.Spawn(f)
	})
	return t, nil
}

func (r *Cooperative) Supports() bool { return true }

func (r *Cooperative) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.jobs)
	<-r.done
	return nil
}
