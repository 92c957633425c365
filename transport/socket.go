// Package transport wraps the reference ZeroMQ transport
// (github.com/pebbe/zmq4) behind a small Socket interface, so peer.Engine
// and runtime.Sync depend on behavior rather than the concrete zmq4.Socket
// type, and tests can substitute an in-memory fake without a running
// libzmq.
package transport

import "time"

// Kind selects the underlying ZeroMQ socket type.
type Kind int

const (
	// Router is used by bind-side and peer-to-peer engines: it can both
	// receive unsolicited frames from many identities and route replies
	// back to a specific one.
	Router Kind = iota
	// Dealer is used by connect-side async/cooperative engines that still
	// need to receive unsolicited inbound WORK (true bidirectionality) -
	// something a REQ socket cannot do.
	Dealer
	// Req is used only by runtime.Sync, the minimal blocking client.
	Req
)

// Direction distinguishes Bind from Connect as the final step of activating
// a socket.
type Direction int

const (
	DirectionBind Direction = iota
	DirectionConnect
)

// Socket is the subset of ZeroMQ socket operations the peer engine and
// synchronous runtime need. SendMultipart/RecvMultipart operate on whole
// envelopes (lists of frames) since zrpc never sends a partial multipart
// message.
type Socket interface {
	SetIdentity(id []byte) error
	SetSendTimeout(d time.Duration) error
	SetRecvTimeout(d time.Duration) error
	SetRouterMandatory(on bool) error

	// Curve* configure ZeroMQ's native CURVE security mechanism; only
	// auth.CurveBackend calls these. Keys are the 32-byte binary (not
	// Z85-encoded) form.
	SetCurveServer(on bool) error
	SetCurvePublickey(key [32]byte) error
	SetCurveSecretkey(key [32]byte) error
	SetCurveServerkey(key [32]byte) error

	Bind(endpoint string) error
	Connect(endpoint string) error

	SendMultipart(frames [][]byte) error
	RecvMultipart() ([][]byte, error)

	SetLinger(d time.Duration) error
	Close() error
}

// Dial creates and activates a Socket of the given kind in the given
// direction: create socket, set identity, set ROUTER_MANDATORY on a Router,
// set the receive timeout (Req only) and the send timeout, then bind or
// connect.
func Dial(ctx Context, kind Kind, direction Direction, endpoint string, identity []byte, timeout time.Duration) (Socket, error) {
	sock, err := ctx.NewSocket(kind)
	if err != nil {
		return nil, err
	}
	if len(identity) > 0 {
		if err := sock.SetIdentity(identity); err != nil {
			sock.Close()
			return nil, err
		}
	}
	if kind == Router {
		if err := sock.SetRouterMandatory(true); err != nil {
			sock.Close()
			return nil, err
		}
	}
	if kind == Req {
		if err := sock.SetRecvTimeout(timeout); err != nil {
			sock.Close()
			return nil, err
		}
	}
	if err := sock.SetSendTimeout(timeout); err != nil {
		sock.Close()
		return nil, err
	}

	switch direction {
	case DirectionBind:
		err = sock.Bind(endpoint)
	case DirectionConnect:
		err = sock.Connect(endpoint)
	}
	if err != nil {
		sock.Close()
		return nil, err
	}
	return sock, nil
}

// Context abstracts zmq4.Context construction so tests can supply a fake
// factory instead of a real libzmq context.
type Context interface {
	NewSocket(kind Kind) (Socket, error)
}
