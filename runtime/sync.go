package runtime

import (
	"time"

	"zrpc/zrpcerr"
)

// Sync is the minimal client-only runtime backing the synchronous
// (REQ-socket) endpoint variant. It never schedules background work:
// every RPC call blocks the calling goroutine for send, recv, and reply
// processing, so there is nothing for Spawn or AfterFunc to do.
type Sync struct{}

// NewSync constructs a Sync runtime.
func NewSync() *Sync {
	return &Sync{}
}

func (r *Sync) Spawn(f func()) error {
	return zrpcerr.ErrUnsupported
}

func (r *Sync) AfterFunc(d time.Duration, f func()) (Timer, error) {
	return nil, zrpcerr.ErrUnsupported
}

func (r *Sync) Supports() bool { return false }

func (r *Sync) Close() error { return nil }
