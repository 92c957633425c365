package auth

import (
	"sync"

	"zrpc/wire"
)

// CurveBackend delegates key exchange to ZeroMQ's native CURVE mechanism:
// by the time a frame reaches this process, the transport has already
// verified the sender holds the private key matching some public key.
// CurveBackend's own job is authorization — deciding whether that public
// key is on the allowlist held in its KeyStore — since CURVE authenticates
// a key, not a policy about which keys may talk to this endpoint.
//
// HELLO carries the peer's 32-byte public key as its payload; HandleHello
// looks it up in the KeyStore and emits AUTHENTICATED or UNAUTHORIZED.
type CurveBackend struct {
	host       BackendHost
	publicKey  [32]byte
	secretKey  [32]byte
	serverMode bool
	peerKey    *[32]byte
	store      KeyStore

	mu        sync.RWMutex
	confirmed map[string]bool
}

// NewCurveBackend constructs a CurveBackend. serverMode selects whether
// Configure sets the socket's CURVE server flag (bind side) or installs a
// known server key (connect side, via SetPeerKey before Configure).
func NewCurveBackend(publicKey, secretKey [32]byte, serverMode bool, store KeyStore) *CurveBackend {
	return &CurveBackend{
		publicKey:  publicKey,
		secretKey:  secretKey,
		serverMode: serverMode,
		store:      store,
		confirmed:  make(map[string]bool),
	}
}

// SetPeerKey records the remote server's public key for a connect-side
// CurveBackend, so Configure can install it with SetCurveServerkey.
func (b *CurveBackend) SetPeerKey(key [32]byte) {
	b.peerKey = &key
}

func (b *CurveBackend) Configure(host BackendHost) error {
	b.host = host
	sock := host.ConfigureSocket()
	if err := sock.SetCurvePublickey(b.publicKey); err != nil {
		return err
	}
	if err := sock.SetCurveSecretkey(b.secretKey); err != nil {
		return err
	}
	if b.serverMode {
		return sock.SetCurveServer(true)
	}
	if b.peerKey != nil {
		return sock.SetCurveServerkey(*b.peerKey)
	}
	return nil
}

func (b *CurveBackend) Stop() error {
	return nil
}

func (b *CurveBackend) IsAuthenticated(peerID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.confirmed[peerID]
}

func (b *CurveBackend) SaveLastWork(peerID string, frame [][]byte) {}

// HandleHello authorizes peerID against the KeyStore using the public key
// carried in payload.
func (b *CurveBackend) HandleHello(peerID []byte, requestID wire.RequestID, payload []byte) error {
	id := string(peerID)
	if len(payload) != 32 {
		return b.host.SendAuth(peerID, requestID, wire.UNAUTHORIZED, nil)
	}
	var offered [32]byte
	copy(offered[:], payload)

	stored, ok, err := b.store.Get(id)
	if err != nil {
		return err
	}
	if !ok || stored != offered {
		return b.host.SendAuth(peerID, requestID, wire.UNAUTHORIZED, nil)
	}

	b.mu.Lock()
	b.confirmed[id] = true
	b.mu.Unlock()
	return b.host.SendAuth(peerID, requestID, wire.AUTHENTICATED, nil)
}

func (b *CurveBackend) HandleAuthenticated(peerID string, payload []byte) error {
	b.mu.Lock()
	b.confirmed[peerID] = true
	b.mu.Unlock()
	return nil
}

// HandleAuthentication (re)sends HELLO carrying this endpoint's own public
// key, which the remote CurveBackend checks against its KeyStore.
func (b *CurveBackend) HandleAuthentication(peerID []byte, requestID wire.RequestID) error {
	return b.host.SendAuth(peerID, requestID, wire.HELLO, b.publicKey[:])
}
