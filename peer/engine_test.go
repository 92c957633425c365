package peer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zrpc/auth"
	"zrpc/heartbeat"
	"zrpc/registry"
	"zrpc/runtime"
	"zrpc/transport"
	"zrpc/zrpcerr"
)

func newEngine(t *testing.T, sock transport.Socket, reg *registry.Registry, proxy *Engine) *Engine {
	t.Helper()
	e := New(Config{
		Socket:           sock,
		Runtime:          runtime.NewAsync(),
		Registry:         reg,
		ProxyTo:          proxy,
		AuthBackend:      auth.NewNoopBackend(),
		HeartbeatBackend: heartbeat.NewNoopBackend(),
		Timeout:          time.Second,
	})
	require.NoError(t, e.Start())
	t.Cleanup(func() { e.Stop() })
	return e
}

func TestEngineEchoWorkRoundTrip(t *testing.T) {
	clientSock, serverSock := transport.FakePair()

	serverReg := registry.New()
	require.NoError(t, serverReg.Register("echo", func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return args[0], nil
	}))
	_ = newEngine(t, serverSock, serverReg, nil)

	clientReg := registry.New()
	client := newEngine(t, clientSock, clientReg, nil)

	value, err := client.Multiplexer().Call("echo").To(nil).Invoke(context.Background(), []interface{}{"hello"}, nil)
	require.NoError(t, err)
	require.Equal(t, "hello", value)
}

func TestEngineWorkSeesCallerPeerID(t *testing.T) {
	clientSock, serverSock := transport.FakePair()

	serverReg := registry.New()
	require.NoError(t, serverReg.Register("whoami", func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return peerID, nil
	}))
	_ = newEngine(t, serverSock, serverReg, nil)

	client := newEngine(t, clientSock, registry.New(), nil)

	value, err := client.Multiplexer().Call("whoami").To([]byte("caller-one")).Invoke(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, "caller-one", value)

	value, err = client.Multiplexer().Call("whoami").To([]byte("caller-two")).Invoke(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, "caller-two", value)
}

func TestEngineProxyFallback(t *testing.T) {
	clientSock, serverSock := transport.FakePair()

	proxyReg := registry.New()
	require.NoError(t, proxyReg.Register("deep.thing", func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return "proxied", nil
	}))
	proxyEngine := New(Config{
		Socket:           nil,
		Runtime:          runtime.NewAsync(),
		Registry:         proxyReg,
		AuthBackend:      auth.NewNoopBackend(),
		HeartbeatBackend: heartbeat.NewNoopBackend(),
		Timeout:          time.Second,
	})

	serverReg := registry.New()
	server := New(Config{
		Socket:           serverSock,
		Runtime:          runtime.NewAsync(),
		Registry:         serverReg,
		ProxyTo:          proxyEngine,
		AuthBackend:      auth.NewNoopBackend(),
		HeartbeatBackend: heartbeat.NewNoopBackend(),
		Timeout:          time.Second,
	})
	require.NoError(t, server.Start())
	t.Cleanup(func() { server.Stop() })

	clientReg := registry.New()
	client := newEngine(t, clientSock, clientReg, nil)

	value, err := client.Multiplexer().Call("deep").Dot("thing").To(nil).Invoke(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, "proxied", value)
}

func TestEngineServiceNotFound(t *testing.T) {
	clientSock, serverSock := transport.FakePair()
	_ = newEngine(t, serverSock, registry.New(), nil)
	client := newEngine(t, clientSock, registry.New(), nil)

	_, err := client.Multiplexer().Call("nope").To(nil).Invoke(context.Background(), nil, nil)
	var notFound *zrpcerr.ServiceNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestEngineTimeout(t *testing.T) {
	clientSock, serverSock := transport.FakePair()
	// Server never started: nothing will reply.
	_ = serverSock

	client := New(Config{
		Socket:           clientSock,
		Runtime:          runtime.NewAsync(),
		Registry:         registry.New(),
		AuthBackend:      auth.NewNoopBackend(),
		HeartbeatBackend: heartbeat.NewNoopBackend(),
		Timeout:          20 * time.Millisecond,
	})
	require.NoError(t, client.Start())
	t.Cleanup(func() { client.Stop() })

	_, err := client.Multiplexer().Call("anything").To(nil).Invoke(context.Background(), nil, nil)
	require.Error(t, err)
}
