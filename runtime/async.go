package runtime

import (
	"sync"
	"time"

	"zrpc/zrpcerr"
)

// Async is the parallel-threaded runtime: each Spawn launches its own
// goroutine, and timers are plain time.AfterFunc timers. This is the
// default flavor for both server and bidirectional-peer roles.
type Async struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewAsync constructs an Async runtime.
func NewAsync() *Async {
	return &Async{}
}

func (r *Async) Spawn(f func()) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return zrpcerr.ErrShutdown
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		f()
	}()
	return nil
}

func (r *Async) AfterFunc(d time.Duration, f func()) (Timer, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, zrpcerr.ErrShutdown
	}
	r.mu.Unlock()
	return time.AfterFunc(d, f), nil
}

func (r *Async) Supports() bool { return true }

func (r *Async) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
	return nil
}
