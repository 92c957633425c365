// Package call implements the request/reply multiplexer: request-id
// allocation, the pending-call table, timeout scheduling, and the dotted
// attribute-chain call builder that peer.Engine's client side exposes to
// application code.
package call

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"zrpc/runtime"
	"zrpc/wire"
	"zrpc/zrpcerr"
)

// Sender is the capability call.Multiplexer needs from whatever owns the
// socket: frame, then transmit, an envelope to a peer.
type Sender interface {
	SendEnvelope(e wire.Envelope) error
}

// AuthNotifier lets the multiplexer hand the outbound frame of a call to
// the auth backend before transmitting it, so a backend that needs to
// inspect or replay the last frame sent to a peer has a chance to do so. A
// nil AuthNotifier simply means no backend cares.
type AuthNotifier interface {
	SaveLastWork(peerID string, frame [][]byte)
}

type pendingCall struct {
	peerID []byte
	result chan callResult
	timer  runtime.Timer
}

type callResult struct {
	value interface{}
	err   error
}

// Multiplexer correlates outbound calls with their eventual OK/ERROR reply
// or timeout, one entry per request_uuid.
type Multiplexer struct {
	sender       Sender
	rt           runtime.Runtime
	timeout      time.Duration
	authNotifier AuthNotifier

	mu      sync.Mutex
	pending map[wire.RequestID]*pendingCall
}

// NewMultiplexer constructs a Multiplexer. defaultTimeout is scheduled for
// every call on a runtime that supports timers; a context passed to
// Builder.Invoke can only make the caller stop waiting sooner. authNotifier
// may be nil, in which case Issue skips the SaveLastWork notification.
func NewMultiplexer(sender Sender, rt runtime.Runtime, defaultTimeout time.Duration, authNotifier AuthNotifier) *Multiplexer {
	return &Multiplexer{
		sender:       sender,
		rt:           rt,
		timeout:      defaultTimeout,
		authNotifier: authNotifier,
		pending:      make(map[wire.RequestID]*pendingCall),
	}
}

func newRequestID() (wire.RequestID, error) {
	var id wire.RequestID
	if _, err := rand.Read(id[:]); err != nil {
		return id, err
	}
	return id, nil
}

// Issue allocates a request id, frames and sends a WORK envelope to peerID,
// registers the pending entry, and schedules its timeout. It returns a
// channel that receives exactly one result: the unpacked OK value, a
// reconstructed remote error, or a TimeoutError/Shutdown.
func (m *Multiplexer) Issue(peerID []byte, name string, args []interface{}, kwargs map[string]interface{}) (<-chan callResult, error) {
	id, err := newRequestID()
	if err != nil {
		return nil, err
	}
	payload, err := wire.PackCall(name, args, kwargs)
	if err != nil {
		return nil, err
	}

	result := make(chan callResult, 1)
	entry := &pendingCall{peerID: peerID, result: result}

	m.mu.Lock()
	m.pending[id] = entry
	m.mu.Unlock()

	if m.rt.Supports() {
		timer, err := m.rt.AfterFunc(m.timeout, func() { m.fireTimeout(id, name) })
		if err == nil {
			entry.timer = timer
		}
	}

	env := wire.Envelope{PeerID: peerID, Version: wire.Version, RequestID: id, Kind: wire.WORK, Payload: payload}
	if m.authNotifier != nil {
		m.authNotifier.SaveLastWork(string(peerID), wire.Frame(env))
	}
	if err := m.sender.SendEnvelope(env); err != nil {
		m.pop(id)
		return nil, err
	}
	return result, nil
}

func (m *Multiplexer) pop(id wire.RequestID) *pendingCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.pending[id]
	if !ok {
		return nil
	}
	delete(m.pending, id)
	return entry
}

func (m *Multiplexer) fireTimeout(id wire.RequestID, name string) {
	entry := m.pop(id)
	if entry == nil {
		return
	}
	entry.result <- callResult{err: &zrpcerr.TimeoutError{Name: name}}
}

// Deliver handles an inbound OK reply.
func (m *Multiplexer) Deliver(id wire.RequestID, payload []byte) error {
	entry := m.pop(id)
	if entry == nil {
		return fmt.Errorf("call: no pending entry for request %x", id)
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	value, err := wire.UnpackResult(payload)
	if err != nil {
		entry.result <- callResult{err: err}
		return err
	}
	entry.result <- callResult{value: value}
	return nil
}

// DeliverError handles an inbound ERROR reply, reconstructing the remote
// exception from its (name, message, traceback) triple.
func (m *Multiplexer) DeliverError(id wire.RequestID, payload []byte) error {
	entry := m.pop(id)
	if entry == nil {
		return fmt.Errorf("call: no pending entry for request %x", id)
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	triple, err := wire.UnpackError(payload)
	if err != nil {
		entry.result <- callResult{err: err}
		return err
	}
	entry.result <- callResult{err: zrpcerr.ReconstructRemoteFailure(triple.Name, triple.Message, triple.Traceback)}
	return nil
}

// Shutdown delivers ErrShutdown to every pending call and clears the table.
// Called on endpoint Stop.
func (m *Multiplexer) Shutdown() {
	m.mu.Lock()
	entries := m.pending
	m.pending = make(map[wire.RequestID]*pendingCall)
	m.mu.Unlock()

	for _, entry := range entries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		entry.result <- callResult{err: zrpcerr.ErrShutdown}
	}
}

// Pending reports how many calls are currently awaiting a reply. Used by
// tests and diagnostics.
func (m *Multiplexer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
