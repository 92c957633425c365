package transport

import (
	"errors"
	"sync"
	"time"
)

// FakePair returns two connected in-memory sockets, useful for exercising
// peer.Engine and runtime.Sync without a running libzmq. Frames sent on one
// side are delivered, as-is, to the other's RecvMultipart.
func FakePair() (a, b Socket) {
	ab := make(chan [][]byte, 64)
	ba := make(chan [][]byte, 64)
	sa := &fakeSocket{send: ab, recv: ba}
	sb := &fakeSocket{send: ba, recv: ab}
	return sa, sb
}

type fakeSocket struct {
	mu       sync.Mutex
	send     chan [][]byte
	recv     chan [][]byte
	closed   bool
	identity []byte
	timeout  time.Duration
}

func (s *fakeSocket) SetIdentity(id []byte) error {
	s.identity = append([]byte(nil), id...)
	return nil
}

func (s *fakeSocket) SetSendTimeout(d time.Duration) error { s.timeout = d; return nil }
func (s *fakeSocket) SetRecvTimeout(d time.Duration) error { s.timeout = d; return nil }
func (s *fakeSocket) SetRouterMandatory(bool) error        { return nil }
func (s *fakeSocket) SetCurveServer(bool) error            { return nil }
func (s *fakeSocket) SetCurvePublickey([32]byte) error     { return nil }
func (s *fakeSocket) SetCurveSecretkey([32]byte) error     { return nil }
func (s *fakeSocket) SetCurveServerkey([32]byte) error     { return nil }
func (s *fakeSocket) Bind(string) error                    { return nil }
func (s *fakeSocket) Connect(string) error                 { return nil }
func (s *fakeSocket) SetLinger(time.Duration) error         { return nil }

func (s *fakeSocket) SendMultipart(frames [][]byte) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return errors.New("transport: socket closed")
	}
	cp := make([][]byte, len(frames))
	for i, f := range frames {
		cp[i] = append([]byte(nil), f...)
	}
	select {
	case s.send <- cp:
		return nil
	default:
		return errors.New("transport: fake socket send buffer full")
	}
}

func (s *fakeSocket) RecvMultipart() ([][]byte, error) {
	timeout := s.timeout
	if timeout <= 0 {
		frames, ok := <-s.recv
		if !ok {
			return nil, errors.New("transport: socket closed")
		}
		return frames, nil
	}
	select {
	case frames, ok := <-s.recv:
		if !ok {
			return nil, errors.New("transport: socket closed")
		}
		return frames, nil
	case <-time.After(timeout):
		return nil, errors.New("transport: recv timeout")
	}
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
	return nil
}

// FakeContext hands out pre-built sockets in call order instead of creating
// real ones, so endpoint.New's Connect/Bind path can be exercised against
// FakePair sockets in tests.
type FakeContext struct {
	mu      sync.Mutex
	sockets []Socket
}

// NewFakeContext returns a Context whose NewSocket calls return sockets in
// the given order, one per call. Calling NewSocket more times than there are
// sockets is an error.
func NewFakeContext(sockets ...Socket) *FakeContext {
	return &FakeContext{sockets: sockets}
}

func (c *FakeContext) NewSocket(Kind) (Socket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sockets) == 0 {
		return nil, errors.New("transport: fake context exhausted")
	}
	sock := c.sockets[0]
	c.sockets = c.sockets[1:]
	return sock, nil
}
