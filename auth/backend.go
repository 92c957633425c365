// Package auth implements zrpc's pluggable authentication backends: the
// contract a peer engine depends on to decide whether an inbound message
// came from an authenticated sender, and three reference implementations
// ranging from "trust everyone" to transport-native public-key auth.
package auth

import "zrpc/wire"

// BackendHost is the capability set a Backend needs from its owning peer
// engine: enough to send an envelope of a given kind back to a peer, and to
// configure the underlying socket at startup.
type BackendHost interface {
	// SendAuth transmits a HELLO/AUTHENTICATED/UNAUTHORIZED frame to peerID,
	// carrying requestID and an opaque payload (may be nil).
	SendAuth(peerID []byte, requestID wire.RequestID, kind wire.Kind, payload []byte) error
	// ConfigureSocket exposes the raw transport socket so a Backend can set
	// transport-level security options (CURVE keys) during Configure.
	ConfigureSocket() SocketConfigurer
}

// SocketConfigurer is the subset of transport.Socket that security backends
// are allowed to touch. It is declared locally (rather than importing
// transport) so auth has no dependency on the ZeroMQ binding.
type SocketConfigurer interface {
	SetCurveServer(on bool) error
	SetCurvePublickey(key [32]byte) error
	SetCurveSecretkey(key [32]byte) error
	SetCurveServerkey(key [32]byte) error
}

// Backend is the contract every zrpc authentication plugin implements. The
// peer engine calls these at the points named in each method's doc comment;
// a Backend must never block the engine's receive loop for longer than a
// single handshake step.
type Backend interface {
	// Configure is called once, after the transport socket is created but
	// before Bind/Connect, so the backend can set transport-level security
	// options.
	Configure(host BackendHost) error
	// Stop is called on endpoint shutdown.
	Stop() error
	// IsAuthenticated reports whether peerID has completed the handshake.
	IsAuthenticated(peerID string) bool
	// SaveLastWork receives the raw frame bytes of every outbound WORK
	// message just before it is sent to peerID (empty on a REQ socket), so
	// a backend can keep it for replay after a re-handshake.
	SaveLastWork(peerID string, frame [][]byte)
	// HandleHello is the server-side entry point for a client's HELLO. It
	// must emit either AUTHENTICATED or UNAUTHORIZED back to peerID, echoing
	// requestID.
	HandleHello(peerID []byte, requestID wire.RequestID, payload []byte) error
	// HandleAuthenticated is the client-side reception of an AUTHENTICATED
	// frame from peerID.
	HandleAuthenticated(peerID string, payload []byte) error
	// HandleAuthentication is invoked client-side on UNAUTHORIZED, and
	// server-side when any non-HELLO frame arrives from a peer that is not
	// yet authenticated; in both cases the backend (re)initiates a HELLO.
	HandleAuthentication(peerID []byte, requestID wire.RequestID) error
}

// Factory constructs a Backend. Implementations that need configuration
// (credentials, allowlists) close over it before registering.
type Factory func() Backend

var factories = struct {
	m map[string]Factory
}{m: make(map[string]Factory)}

// RegisterFactory makes a named backend constructible by endpoint
// configuration that specifies a security_plugin name instead of
// constructing a Backend directly.
func RegisterFactory(name string, factory Factory) {
	factories.m[name] = factory
}

// Lookup returns the factory registered under name, or false if none was
// registered.
func Lookup(name string) (Factory, bool) {
	f, ok := factories.m[name]
	return f, ok
}

func init() {
	RegisterFactory("noop", func() Backend { return NewNoopBackend() })
}
