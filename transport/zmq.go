package transport

import (
	"time"

	zmq "github.com/pebbe/zmq4"
)

// ZMQContext adapts a *zmq4.Context to the Context interface.
type ZMQContext struct {
	ctx *zmq.Context
}

// NewZMQContext creates a fresh libzmq context. One context is normally
// shared by every Endpoint in a process.
func NewZMQContext() (*ZMQContext, error) {
	ctx, err := zmq.NewContext()
	if err != nil {
		return nil, err
	}
	return &ZMQContext{ctx: ctx}, nil
}

func toZMQType(kind Kind) zmq.Type {
	switch kind {
	case Router:
		return zmq.ROUTER
	case Dealer:
		return zmq.DEALER
	case Req:
		return zmq.REQ
	default:
		return zmq.DEALER
	}
}

// NewSocket implements Context.
func (c *ZMQContext) NewSocket(kind Kind) (Socket, error) {
	sock, err := c.ctx.NewSocket(toZMQType(kind))
	if err != nil {
		return nil, err
	}
	return &zmqSocket{sock: sock}, nil
}

// zmqSocket adapts a *zmq4.Socket to the Socket interface.
type zmqSocket struct {
	sock *zmq.Socket
}

func (s *zmqSocket) SetIdentity(id []byte) error {
	return s.sock.SetIdentity(string(id))
}

func (s *zmqSocket) SetSendTimeout(d time.Duration) error {
	return s.sock.SetSndtimeo(d)
}

func (s *zmqSocket) SetRecvTimeout(d time.Duration) error {
	return s.sock.SetRcvtimeo(d)
}

func (s *zmqSocket) SetRouterMandatory(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return s.sock.SetRouterMandatory(v)
}

func (s *zmqSocket) SetCurveServer(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return s.sock.SetCurveServer(v)
}

func (s *zmqSocket) SetCurvePublickey(key [32]byte) error {
	return s.sock.SetCurvePublickey(string(key[:]))
}

func (s *zmqSocket) SetCurveSecretkey(key [32]byte) error {
	return s.sock.SetCurveSecretkey(string(key[:]))
}

func (s *zmqSocket) SetCurveServerkey(key [32]byte) error {
	return s.sock.SetCurveServerkey(string(key[:]))
}

func (s *zmqSocket) Bind(endpoint string) error {
	return s.sock.Bind(endpoint)
}

func (s *zmqSocket) Connect(endpoint string) error {
	return s.sock.Connect(endpoint)
}

func (s *zmqSocket) SendMultipart(frames [][]byte) error {
	parts := make([]interface{}, len(frames))
	for i, f := range frames {
		parts[i] = f
	}
	_, err := s.sock.SendMessage(parts...)
	return err
}

func (s *zmqSocket) RecvMultipart() ([][]byte, error) {
	return s.sock.RecvMessageBytes(0)
}

func (s *zmqSocket) SetLinger(d time.Duration) error {
	return s.sock.SetLinger(d)
}

func (s *zmqSocket) Close() error {
	return s.sock.Close()
}

// NewCurveKeypair generates a fresh CURVE keypair in the 32-byte binary
// form used by Socket's Curve* setters (zmq4.NewCurveKeypair returns
// Z85-encoded strings; this decodes them).
func NewCurveKeypair() (public, secret [32]byte, err error) {
	pubZ85, secZ85, err := zmq.NewCurveKeypair()
	if err != nil {
		return public, secret, err
	}
	pubBytes, err := zmq.Z85decode(pubZ85)
	if err != nil {
		return public, secret, err
	}
	secBytes, err := zmq.Z85decode(secZ85)
	if err != nil {
		return public, secret, err
	}
	copy(public[:], pubBytes)
	copy(secret[:], secBytes)
	return public, secret, nil
}
