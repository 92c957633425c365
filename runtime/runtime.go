// Package runtime provides the three concurrency flavors a zrpc endpoint
// can run under: a parallel-threaded asynchronous runtime, a single-thread
// cooperative runtime, and a minimal synchronous client-only runtime.
// peer.Engine and call.Multiplexer schedule dispatched work and timeouts
// through the Runtime interface rather than goroutines directly, so
// swapping flavors never touches dispatch logic.
package runtime

import "time"

// Timer is a cancellable scheduled callback, returned by AfterFunc.
type Timer interface {
	// Stop cancels the timer. It reports whether the cancellation happened
	// before the callback fired (mirrors time.Timer.Stop).
	Stop() bool
}

// Runtime abstracts how background work is scheduled and executed.
type Runtime interface {
	// Spawn runs f as a unit of background work: a new goroutine under
	// Async, an enqueued job under Cooperative. Sync runs nothing and
	// returns zrpcerr.ErrUnsupported; callers can check Supports first.
	Spawn(f func()) error
	// AfterFunc schedules f to run after d elapses, returning a Timer that
	// can cancel it before it fires.
	AfterFunc(d time.Duration, f func()) (Timer, error)
	// Supports reports whether this runtime can run background tasks at
	// all; false only for Sync.
	Supports() bool
	// Close shuts the runtime down, waiting for in-flight spawned work
	// (Async goroutines, Cooperative jobs) to finish and refusing further
	// Spawn/AfterFunc calls.
	Close() error
}
