package auth

import (
	"sync"

	"zrpc/wire"
)

// TrustedBackend authenticates a peer if its identity string appears in a
// fixed allowlist supplied at construction. There is no credential exchange
// beyond the identity carried in the envelope's routing frame; this is
// meant for closed deployments where transport-level identity is already
// trustworthy (e.g. a private network).
type TrustedBackend struct {
	host BackendHost

	mu        sync.RWMutex
	allowed   map[string]bool
	confirmed map[string]bool
}

// NewTrustedBackend constructs a TrustedBackend whose allowlist is the given
// set of peer identity strings.
func NewTrustedBackend(allowlist []string) *TrustedBackend {
	allowed := make(map[string]bool, len(allowlist))
	for _, id := range allowlist {
		allowed[id] = true
	}
	return &TrustedBackend{
		allowed:   allowed,
		confirmed: make(map[string]bool),
	}
}

func (b *TrustedBackend) Configure(host BackendHost) error {
	b.host = host
	return nil
}

func (b *TrustedBackend) Stop() error { return nil }

func (b *TrustedBackend) IsAuthenticated(peerID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.confirmed[peerID]
}

func (b *TrustedBackend) SaveLastWork(peerID string, frame [][]byte) {}

// HandleHello checks peerID against the allowlist and replies AUTHENTICATED
// or UNAUTHORIZED accordingly.
func (b *TrustedBackend) HandleHello(peerID []byte, requestID wire.RequestID, payload []byte) error {
	id := string(peerID)
	b.mu.RLock()
	ok := b.allowed[id]
	b.mu.RUnlock()

	if !ok {
		return b.host.SendAuth(peerID, requestID, wire.UNAUTHORIZED, nil)
	}
	b.mu.Lock()
	b.confirmed[id] = true
	b.mu.Unlock()
	return b.host.SendAuth(peerID, requestID, wire.AUTHENTICATED, nil)
}

func (b *TrustedBackend) HandleAuthenticated(peerID string, payload []byte) error {
	b.mu.Lock()
	b.confirmed[peerID] = true
	b.mu.Unlock()
	return nil
}

// HandleAuthentication (re)sends HELLO to start the handshake.
func (b *TrustedBackend) HandleAuthentication(peerID []byte, requestID wire.RequestID) error {
	return b.host.SendAuth(peerID, requestID, wire.HELLO, nil)
}
