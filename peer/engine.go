// Package peer implements the central dispatcher: socket setup, receive
// dispatch (auth gate, heartbeat touch, kind-based routing), local work
// dispatch with single-hop proxy fallback, the send path, and lifecycle.
package peer

import (
	"fmt"
	"log"
	"sync"
	"time"

	"zrpc/auth"
	"zrpc/call"
	"zrpc/heartbeat"
	"zrpc/registry"
	"zrpc/runtime"
	"zrpc/transport"
	"zrpc/wire"
)

// Engine owns one transport socket and wires together the registry, auth
// backend, heartbeat backend and call multiplexer around it.
type Engine struct {
	socket transport.Socket
	rt     runtime.Runtime
	logger *log.Logger

	registry  *registry.Registry
	proxyTo   *Engine
	authBack  auth.Backend
	heartBack heartbeat.Backend
	mux       *call.Multiplexer

	mu    sync.RWMutex
	peers map[string]bool

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// Config bundles everything New needs to assemble an Engine.
type Config struct {
	Socket           transport.Socket
	Runtime          runtime.Runtime
	Registry         *registry.Registry
	ProxyTo          *Engine
	AuthBackend      auth.Backend
	HeartbeatBackend heartbeat.Backend
	Timeout          time.Duration
	Logger           *log.Logger
}

// New assembles an Engine from cfg. The call multiplexer is created here so
// it can hold a reference back to the Engine as its Sender.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		socket:    cfg.Socket,
		rt:        cfg.Runtime,
		logger:    logger,
		registry:  cfg.Registry,
		proxyTo:   cfg.ProxyTo,
		authBack:  cfg.AuthBackend,
		heartBack: cfg.HeartbeatBackend,
		peers:     make(map[string]bool),
		stopCh:    make(chan struct{}),
	}
	e.mux = call.NewMultiplexer(e, cfg.Runtime, cfg.Timeout, cfg.AuthBackend)
	return e
}

// Multiplexer exposes the call multiplexer for the endpoint package to
// build attribute-chain calls against.
func (e *Engine) Multiplexer() *call.Multiplexer {
	return e.mux
}

// Start configures the auth and heartbeat backends and launches the
// receive loop. The socket itself must already be bound or connected.
// The receive loop runs on its own goroutine rather than as a runtime job,
// so a Cooperative runtime's single worker stays free to run dispatched
// work and timeouts.
func (e *Engine) Start() error {
	if err := e.authBack.Configure(e); err != nil {
		return err
	}
	if err := e.heartBack.Configure(e); err != nil {
		return err
	}
	go e.receiveLoop()
	return nil
}

// Stop closes the socket with zero linger, stops both backends, and
// cancels every pending call.
func (e *Engine) Stop() error {
	var err error
	e.stopOnce.Do(func() {
		close(e.stopCh)
		e.socket.SetLinger(0)
		err = e.socket.Close()
		e.authBack.Stop()
		e.heartBack.Stop()
		e.mux.Shutdown()
		e.rt.Close()
	})
	return err
}

func (e *Engine) receiveLoop() {
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}
		frames, err := e.socket.RecvMultipart()
		if err != nil {
			select {
			case <-e.stopCh:
				return
			default:
				continue
			}
		}
		env, err := wire.Parse(frames)
		if err != nil {
			e.logger.Printf("zrpc: dropping malformed envelope: %v", err)
			continue
		}
		e.dispatch(env)
	}
}

func (e *Engine) dispatch(env wire.Envelope) {
	peerKey := string(env.PeerID)
	if !e.authBack.IsAuthenticated(peerKey) {
		if env.Kind == wire.HELLO {
			if err := e.authBack.HandleHello(env.PeerID, env.RequestID, env.Payload); err != nil {
				e.logger.Printf("zrpc: HandleHello failed for peer %q: %v", peerKey, err)
			}
		} else {
			fresh, err := freshRequestID()
			if err != nil {
				e.logger.Printf("zrpc: could not allocate request id for re-handshake: %v", err)
				return
			}
			if err := e.authBack.HandleAuthentication(env.PeerID, fresh); err != nil {
				e.logger.Printf("zrpc: HandleAuthentication failed for peer %q: %v", peerKey, err)
			}
		}
		return
	}

	e.touchPeer(peerKey)
	e.heartBack.HandleHeartbeat(peerKey)

	switch env.Kind {
	case wire.WORK:
		e.rt.Spawn(func() { e.handleWork(env) })
	case wire.OK:
		if err := e.mux.Deliver(env.RequestID, env.Payload); err != nil {
			e.logger.Printf("zrpc: OK delivery failed: %v", err)
		}
	case wire.ERROR:
		if err := e.mux.DeliverError(env.RequestID, env.Payload); err != nil {
			e.logger.Printf("zrpc: ERROR delivery failed: %v", err)
		}
	case wire.AUTHENTICATED:
		e.authBack.HandleAuthenticated(peerKey, env.Payload)
	case wire.UNAUTHORIZED:
		e.authBack.HandleAuthentication(env.PeerID, env.RequestID)
	case wire.HELLO:
		e.authBack.HandleHello(env.PeerID, env.RequestID, env.Payload)
	case wire.HEARTBEAT:
		// already accounted for above
	default:
		e.logger.Printf("zrpc: unknown kind 0x%02x from peer %q, dropping", byte(env.Kind), peerKey)
	}
}

func (e *Engine) handleWork(env wire.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			e.sendWorkError(env.PeerID, env.RequestID, "RuntimeError", fmt.Sprintf("%v", r), "")
		}
	}()

	work, err := wire.UnpackCall(env.Payload)
	if err != nil {
		e.sendWorkError(env.PeerID, env.RequestID, "MalformedPayload", err.Error(), "")
		return
	}

	callable, lookupErr := e.registry.Lookup(work.Name)
	if lookupErr != nil && e.proxyTo != nil {
		callable, lookupErr = e.proxyTo.registry.Lookup(work.Name)
	}
	if lookupErr != nil {
		e.sendWorkError(env.PeerID, env.RequestID, "ServiceNotFoundError", lookupErr.Error(), "")
		return
	}

	value, callErr := callable(string(env.PeerID), work.Args, work.Kwargs)
	if callErr != nil {
		e.sendWorkError(env.PeerID, env.RequestID, exceptionName(callErr), callErr.Error(), "")
		return
	}

	payload, err := wire.PackResult(value)
	if err != nil {
		e.sendWorkError(env.PeerID, env.RequestID, "MalformedPayload", err.Error(), "")
		return
	}
	e.SendEnvelope(wire.Envelope{PeerID: env.PeerID, Version: wire.Version, RequestID: env.RequestID, Kind: wire.OK, Payload: payload})
}

func (e *Engine) sendWorkError(peerID []byte, requestID wire.RequestID, name, message, traceback string) {
	payload, err := wire.PackError(name, message, traceback)
	if err != nil {
		e.logger.Printf("zrpc: could not pack error payload: %v", err)
		return
	}
	e.SendEnvelope(wire.Envelope{PeerID: peerID, Version: wire.Version, RequestID: requestID, Kind: wire.ERROR, Payload: payload})
}

func exceptionName(err error) string {
	if named, ok := err.(interface{ ExceptionName() string }); ok {
		return named.ExceptionName()
	}
	return "RuntimeError"
}

func (e *Engine) touchPeer(peerKey string) {
	e.mu.Lock()
	e.peers[peerKey] = true
	e.mu.Unlock()
}

// SendEnvelope implements call.Sender: it frames env and transmits it.
func (e *Engine) SendEnvelope(env wire.Envelope) error {
	return e.socket.SendMultipart(wire.Frame(env))
}

// SendAuth implements auth.BackendHost.
func (e *Engine) SendAuth(peerID []byte, requestID wire.RequestID, kind wire.Kind, payload []byte) error {
	return e.SendEnvelope(wire.Envelope{PeerID: peerID, Version: wire.Version, RequestID: requestID, Kind: kind, Payload: payload})
}

// ConfigureSocket implements auth.BackendHost.
func (e *Engine) ConfigureSocket() auth.SocketConfigurer {
	return e.socket
}

// SendHeartbeat implements heartbeat.BackendHost.
func (e *Engine) SendHeartbeat(peerID []byte) error {
	requestID, err := freshRequestID()
	if err != nil {
		return err
	}
	return e.SendEnvelope(wire.Envelope{PeerID: peerID, Version: wire.Version, RequestID: requestID, Kind: wire.HEARTBEAT})
}

// Peers implements heartbeat.BackendHost.
func (e *Engine) Peers() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.peers))
	for p := range e.peers {
		out = append(out, p)
	}
	return out
}

// DropPeer implements heartbeat.BackendHost.
func (e *Engine) DropPeer(peerID string) {
	e.mu.Lock()
	delete(e.peers, peerID)
	e.mu.Unlock()
}
