package auth

import "zrpc/wire"

// NoopBackend authenticates every peer on arrival. It is the mandatory
// default: an endpoint configured with no security_plugin gets this.
type NoopBackend struct {
	host BackendHost
}

// NewNoopBackend constructs a NoopBackend.
func NewNoopBackend() *NoopBackend {
	return &NoopBackend{}
}

func (b *NoopBackend) Configure(host BackendHost) error {
	b.host = host
	return nil
}

func (b *NoopBackend) Stop() error { return nil }

func (b *NoopBackend) IsAuthenticated(peerID string) bool { return true }

func (b *NoopBackend) SaveLastWork(peerID string, frame [][]byte) {}

// HandleHello always succeeds: a NoopBackend has nothing to check, so it
// immediately replies AUTHENTICATED.
func (b *NoopBackend) HandleHello(peerID []byte, requestID wire.RequestID, payload []byte) error {
	return b.host.SendAuth(peerID, requestID, wire.AUTHENTICATED, nil)
}

func (b *NoopBackend) HandleAuthenticated(peerID string, payload []byte) error { return nil }

// HandleAuthentication (re)initiates the handshake by sending HELLO; since
// IsAuthenticated is always true for a NoopBackend, the peer engine only
// calls this on an explicit UNAUTHORIZED.
func (b *NoopBackend) HandleAuthentication(peerID []byte, requestID wire.RequestID) error {
	return b.host.SendAuth(peerID, requestID, wire.HELLO, nil)
}
