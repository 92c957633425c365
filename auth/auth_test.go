package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"zrpc/wire"
)

type sentFrame struct {
	peerID    []byte
	requestID wire.RequestID
	kind      wire.Kind
	payload   []byte
}

type fakeHost struct {
	sent []sentFrame
	sock *fakeSocketConfigurer
}

func newFakeHost() *fakeHost {
	return &fakeHost{sock: &fakeSocketConfigurer{}}
}

func (h *fakeHost) SendAuth(peerID []byte, requestID wire.RequestID, kind wire.Kind, payload []byte) error {
	h.sent = append(h.sent, sentFrame{peerID: peerID, requestID: requestID, kind: kind, payload: payload})
	return nil
}

func (h *fakeHost) ConfigureSocket() SocketConfigurer { return h.sock }

type fakeSocketConfigurer struct {
	server    bool
	publicKey [32]byte
	secretKey [32]byte
	serverKey [32]byte
}

func (s *fakeSocketConfigurer) SetCurveServer(on bool) error     { s.server = on; return nil }
func (s *fakeSocketConfigurer) SetCurvePublickey(k [32]byte) error { s.publicKey = k; return nil }
func (s *fakeSocketConfigurer) SetCurveSecretkey(k [32]byte) error { s.secretKey = k; return nil }
func (s *fakeSocketConfigurer) SetCurveServerkey(k [32]byte) error { s.serverKey = k; return nil }

func reqID(b byte) wire.RequestID {
	var id wire.RequestID
	id[0] = b
	return id
}

func TestNoopAlwaysAuthenticatedAndRepliesAuthenticated(t *testing.T) {
	host := newFakeHost()
	b := NewNoopBackend()
	require.NoError(t, b.Configure(host))
	require.True(t, b.IsAuthenticated("anyone"))

	require.NoError(t, b.HandleHello([]byte("peer-1"), reqID(1), nil))
	require.Len(t, host.sent, 1)
	require.Equal(t, wire.AUTHENTICATED, host.sent[0].kind)
}

func TestTrustedBackendAllowsOnlyAllowlisted(t *testing.T) {
	host := newFakeHost()
	b := NewTrustedBackend([]string{"good-peer"})
	require.NoError(t, b.Configure(host))

	require.NoError(t, b.HandleHello([]byte("good-peer"), reqID(1), nil))
	require.True(t, b.IsAuthenticated("good-peer"))
	require.Equal(t, wire.AUTHENTICATED, host.sent[0].kind)

	require.NoError(t, b.HandleHello([]byte("bad-peer"), reqID(2), nil))
	require.False(t, b.IsAuthenticated("bad-peer"))
	require.Equal(t, wire.UNAUTHORIZED, host.sent[1].kind)
}

func TestTrustedBackendHandleAuthenticationSendsHello(t *testing.T) {
	host := newFakeHost()
	b := NewTrustedBackend(nil)
	require.NoError(t, b.Configure(host))
	require.NoError(t, b.HandleAuthentication([]byte("peer-1"), reqID(3)))
	require.Equal(t, wire.HELLO, host.sent[0].kind)
}

func TestCurveBackendAuthorizesAgainstKeyStore(t *testing.T) {
	host := newFakeHost()
	store := NewMemoryKeyStore()
	var clientKey [32]byte
	clientKey[0] = 0xAB
	require.NoError(t, store.Put("client-1", clientKey))

	var serverPub, serverSec [32]byte
	b := NewCurveBackend(serverPub, serverSec, true, store)
	require.NoError(t, b.Configure(host))
	require.True(t, host.sock.server)

	require.NoError(t, b.HandleHello([]byte("client-1"), reqID(4), clientKey[:]))
	require.True(t, b.IsAuthenticated("client-1"))
	require.Equal(t, wire.AUTHENTICATED, host.sent[0].kind)
}

func TestCurveBackendRejectsUnknownKey(t *testing.T) {
	host := newFakeHost()
	store := NewMemoryKeyStore()
	var serverPub, serverSec [32]byte
	b := NewCurveBackend(serverPub, serverSec, true, store)
	require.NoError(t, b.Configure(host))

	var offered [32]byte
	offered[0] = 0xFF
	require.NoError(t, b.HandleHello([]byte("stranger"), reqID(5), offered[:]))
	require.False(t, b.IsAuthenticated("stranger"))
	require.Equal(t, wire.UNAUTHORIZED, host.sent[0].kind)
}

func TestCurveBackendRejectsMalformedPublicKeyPayload(t *testing.T) {
	host := newFakeHost()
	store := NewMemoryKeyStore()
	var serverPub, serverSec [32]byte
	b := NewCurveBackend(serverPub, serverSec, true, store)
	require.NoError(t, b.Configure(host))

	require.NoError(t, b.HandleHello([]byte("stranger"), reqID(6), []byte("short")))
	require.Equal(t, wire.UNAUTHORIZED, host.sent[0].kind)
}

func TestMemoryKeyStorePutGetDelete(t *testing.T) {
	store := NewMemoryKeyStore()
	var key [32]byte
	key[0] = 0x01

	_, ok, err := store.Get("id")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put("id", key))
	got, ok, err := store.Get("id")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, key, got)

	require.NoError(t, store.Delete("id"))
	_, ok, err = store.Get("id")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRegisterFactoryLookup(t *testing.T) {
	RegisterFactory("trusted-test", func() Backend { return NewTrustedBackend(nil) })
	factory, ok := Lookup("trusted-test")
	require.True(t, ok)
	require.IsType(t, &TrustedBackend{}, factory())

	_, ok = Lookup("does-not-exist")
	require.False(t, ok)
}

func TestNoopFactoryRegisteredByDefault(t *testing.T) {
	factory, ok := Lookup("noop")
	require.True(t, ok)
	require.IsType(t, &NoopBackend{}, factory())
}
