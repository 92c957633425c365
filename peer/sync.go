package peer

import (
	"time"

	"zrpc/transport"
	"zrpc/wire"
	"zrpc/zrpcerr"
)

// authNotifier mirrors call.AuthNotifier locally so this file doesn't need
// to import the call package just for one method signature.
type authNotifier interface {
	SaveLastWork(peerID string, frame [][]byte)
}

// SyncClient is the minimal client-only engine backing runtime.Sync. It
// owns a REQ socket and never receives unsolicited frames, so there is no
// receive loop, no peer table, and no heartbeat emission: every call sends
// a WORK envelope and blocks on the single reply that the REQ socket
// guarantees to deliver next.
type SyncClient struct {
	socket       transport.Socket
	timeout      time.Duration
	authNotifier authNotifier
}

// NewSyncClient wraps an already-connected REQ socket. authBackend may be
// nil, in which case Call skips the SaveLastWork notification.
func NewSyncClient(socket transport.Socket, timeout time.Duration, authBackend authNotifier) *SyncClient {
	return &SyncClient{socket: socket, timeout: timeout, authNotifier: authBackend}
}

// Call sends a WORK envelope and blocks for the matching OK or ERROR reply,
// returning the unpacked result or a reconstructed remote error.
func (c *SyncClient) Call(name string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	id, err := freshRequestID()
	if err != nil {
		return nil, err
	}
	payload, err := wire.PackCall(name, args, kwargs)
	if err != nil {
		return nil, err
	}
	req := wire.Envelope{Version: wire.Version, RequestID: id, Kind: wire.WORK, Payload: payload}
	frame := wire.Frame(req)
	if c.authNotifier != nil {
		c.authNotifier.SaveLastWork("", frame)
	}
	if err := c.socket.SendMultipart(frame); err != nil {
		return nil, err
	}

	frames, err := c.socket.RecvMultipart()
	if err != nil {
		return nil, err
	}
	reply, err := wire.Parse(frames)
	if err != nil {
		return nil, err
	}
	if reply.RequestID != id {
		return nil, zrpcerr.ErrMalformedEnvelope
	}

	switch reply.Kind {
	case wire.OK:
		return wire.UnpackResult(reply.Payload)
	case wire.ERROR:
		triple, err := wire.UnpackError(reply.Payload)
		if err != nil {
			return nil, err
		}
		return nil, zrpcerr.ReconstructRemoteFailure(triple.Name, triple.Message, triple.Traceback)
	default:
		return nil, zrpcerr.ErrMalformedEnvelope
	}
}

// Close releases the underlying socket.
func (c *SyncClient) Close() error {
	return c.socket.Close()
}
