// Command zrpc-echo is a two-goroutine demo of the zrpc endpoint API: it
// binds a server identity, registers a couple of procedures, connects a
// client identity to it, and runs a fixed sequence of calls illustrating
// the echo path, a nested dotted name, per-target peer ids, a deliberate
// remote error, a missing procedure, and a context deadline on a call that
// gets no reply.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"zrpc/endpoint"
	"zrpc/transport"
	"zrpc/zrpcerr"
)

const bindAddr = "tcp://127.0.0.1:5757"

func main() {
	ctx, err := transport.NewZMQContext()
	if err != nil {
		log.Fatalf("zrpc-echo: new context: %v", err)
	}

	serverID := []byte("server-" + uuid.NewString())
	clientID := []byte("client-" + uuid.NewString())

	server := endpoint.New(ctx, endpoint.WithIdentity(serverID), endpoint.WithTimeout(2*time.Second))
	mustRegister(server, "echo", func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return args[0], nil
	})
	mustRegister(server, "math.square", func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		n, ok := args[0].(int64)
		if !ok {
			return nil, errors.New("square: expected an integer argument")
		}
		return n * n, nil
	})
	mustRegister(server, "boom", func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return nil, errors.New("boom: deliberate failure")
	})
	mustRegister(server, "id", func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return peerID, nil
	})
	if err := server.Bind(bindAddr); err != nil {
		log.Fatalf("zrpc-echo: bind: %v", err)
	}
	defer server.Stop()

	client := endpoint.New(ctx, endpoint.WithIdentity(clientID), endpoint.WithPeerIdentity(serverID), endpoint.WithTimeout(500*time.Millisecond))
	if err := client.Connect(bindAddr); err != nil {
		log.Fatalf("zrpc-echo: connect: %v", err)
	}
	defer client.Stop()

	background := context.Background()

	echoed, err := client.Call("echo").Invoke(background, []interface{}{"hello, zrpc"}, nil)
	log.Printf("echo(%q) = %v, err = %v", "hello, zrpc", echoed, err)

	squared, err := client.Call("math").Dot("square").Invoke(background, []interface{}{int64(7)}, nil)
	log.Printf("math.square(7) = %v, err = %v", squared, err)

	idA, err := client.SendTo([]byte("caller-a")).Dot("id").Invoke(background, nil, nil)
	log.Printf("id() seen by caller-a = %v, err = %v", idA, err)
	idB, err := client.SendTo([]byte("caller-b")).Dot("id").Invoke(background, nil, nil)
	log.Printf("id() seen by caller-b = %v, err = %v", idB, err)

	_, err = client.Call("boom").Invoke(background, nil, nil)
	log.Printf("boom() err = %v", err)

	_, err = client.Call("nonexistent").Invoke(background, nil, nil)
	var notFound *zrpcerr.ServiceNotFoundError
	log.Printf("nonexistent() err = %v, is ServiceNotFoundError = %v", err, errors.As(err, &notFound))

	deadlineCtx, cancel := context.WithTimeout(background, 50*time.Millisecond)
	defer cancel()
	idleClient := endpoint.New(ctx, endpoint.WithIdentity([]byte("idle-"+uuid.NewString())))
	if err := idleClient.Connect(bindAddr); err != nil {
		log.Fatalf("zrpc-echo: idle connect: %v", err)
	}
	defer idleClient.Stop()
	_, err = idleClient.SendTo([]byte("nobody-home")).Dot("echo").Invoke(deadlineCtx, []interface{}{"unreachable"}, nil)
	log.Printf("call to unbound peer err = %v", err)
}

func mustRegister(ep *endpoint.Endpoint, name string, fn func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error)) {
	if err := ep.RegisterRPC(name, fn); err != nil {
		log.Fatalf("zrpc-echo: register %q: %v", name, err)
	}
}
