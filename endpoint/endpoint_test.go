package endpoint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zrpc/transport"
	"zrpc/zrpcerr"
)

func TestEndpointConnectBindEchoRoundTrip(t *testing.T) {
	clientSock, serverSock := transport.FakePair()

	server := New(transport.NewFakeContext(serverSock), WithTimeout(time.Second))
	require.NoError(t, server.RegisterRPC("echo", func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return args[0], nil
	}))
	require.NoError(t, server.Bind("inproc://endpoint-test"))
	t.Cleanup(func() { server.Stop() })

	client := New(transport.NewFakeContext(clientSock), WithTimeout(time.Second))
	require.NoError(t, client.Connect("inproc://endpoint-test"))
	t.Cleanup(func() { client.Stop() })

	value, err := client.Call("echo").Invoke(context.Background(), []interface{}{"hi"}, nil)
	require.NoError(t, err)
	require.Equal(t, "hi", value)
}

func TestEndpointSendToDeliversCallerPeerID(t *testing.T) {
	clientSock, serverSock := transport.FakePair()

	server := New(transport.NewFakeContext(serverSock), WithTimeout(time.Second))
	require.NoError(t, server.RegisterRPC("whoami", func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return peerID, nil
	}))
	require.NoError(t, server.Bind("inproc://endpoint-test-2"))
	t.Cleanup(func() { server.Stop() })

	client := New(transport.NewFakeContext(clientSock), WithTimeout(time.Second))
	require.NoError(t, client.Connect("inproc://endpoint-test-2"))
	t.Cleanup(func() { client.Stop() })

	value, err := client.SendTo([]byte("caller-one")).Dot("whoami").Invoke(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, "caller-one", value)

	value, err = client.SendTo([]byte("caller-two")).Dot("whoami").Invoke(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, "caller-two", value)
}

func TestEndpointInvokeBeforeConnectFails(t *testing.T) {
	client := New(transport.NewFakeContext())
	_, err := client.Call("anything").Invoke(context.Background(), nil, nil)
	require.ErrorIs(t, err, zrpcerr.ErrNotInitialized)
}

func TestEndpointSyncClientBindUnsupported(t *testing.T) {
	_, serverSock := transport.FakePair()
	server := New(transport.NewFakeContext(serverSock), WithRuntime(RuntimeSync))
	err := server.Bind("inproc://endpoint-test-3")
	require.ErrorIs(t, err, zrpcerr.ErrUnsupported)
}

func TestEndpointSyncClientCallRoundTrip(t *testing.T) {
	clientSock, serverSock := transport.FakePair()

	server := New(transport.NewFakeContext(serverSock), WithRuntime(RuntimeCooperative), WithTimeout(time.Second))
	require.NoError(t, server.RegisterRPC("ping", func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return "pong", nil
	}))
	require.NoError(t, server.Bind("inproc://endpoint-test-sync"))
	t.Cleanup(func() { server.Stop() })

	client := New(transport.NewFakeContext(clientSock), WithRuntime(RuntimeSync), WithTimeout(time.Second))
	require.NoError(t, client.Connect("inproc://endpoint-test-sync"))
	t.Cleanup(func() { client.Stop() })

	value, err := client.Call("ping").Invoke(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, "pong", value)
}
