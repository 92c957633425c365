// Package wire implements the zrpc envelope: framing of the 4- and 6-frame
// multipart message, the version/kind byte constants, and the MessagePack
// payload codec for WORK/OK/ERROR bodies.
//
// Frame layout:
//
//	routing-capable socket (ROUTER, peer-to-peer):
//	  [peer_id, "", version, request_uuid, kind, payload]   (6 frames)
//	request-reply socket (REQ, synchronous client):
//	  [version, request_uuid, kind, payload]                (4 frames)
package wire

import (
	"fmt"

	"zrpc/zrpcerr"
)

// Version is the single supported protocol version byte. Peers reject any
// other value outright.
const Version byte = 0x02

// Kind identifies the purpose of an envelope's payload.
type Kind byte

// Kind constants. Values are fixed on the wire; do not renumber.
const (
	HELLO         Kind = 0x01
	OK            Kind = 0x02
	WORK          Kind = 0x03
	ERROR         Kind = 0x04
	AUTHENTICATED Kind = 0x05
	UNAUTHORIZED  Kind = 0x06
	HEARTBEAT     Kind = 0x07
)

func (k Kind) String() string {
	switch k {
	case HELLO:
		return "HELLO"
	case OK:
		return "OK"
	case WORK:
		return "WORK"
	case ERROR:
		return "ERROR"
	case AUTHENTICATED:
		return "AUTHENTICATED"
	case UNAUTHORIZED:
		return "UNAUTHORIZED"
	case HEARTBEAT:
		return "HEARTBEAT"
	default:
		return fmt.Sprintf("Kind(0x%02x)", byte(k))
	}
}

func validKind(k Kind) bool {
	switch k {
	case HELLO, OK, WORK, ERROR, AUTHENTICATED, UNAUTHORIZED, HEARTBEAT:
		return true
	default:
		return false
	}
}

// UUIDSize is the fixed width of a request_uuid.
const UUIDSize = 16

// RequestID correlates a request with its reply.
type RequestID [UUIDSize]byte

// Envelope is the parsed form of a wire message, independent of which frame
// count produced it. PeerID is nil for messages received on a REQ socket
// (the 4-frame form), since there is no routing frame to carry it.
type Envelope struct {
	PeerID    []byte
	Version   byte
	RequestID RequestID
	Kind      Kind
	Payload   []byte
}

// Frame lays out an Envelope as the wire frame sequence. If PeerID is
// non-nil the 6-frame routing form is produced (with the empty delimiter
// frame); otherwise the 4-frame REQ form is produced.
func Frame(e Envelope) [][]byte {
	base := [][]byte{
		{e.Version},
		e.RequestID[:],
		{byte(e.Kind)},
		e.Payload,
	}
	if e.PeerID == nil {
		return base
	}
	out := make([][]byte, 0, 6)
	out = append(out, e.PeerID, []byte{})
	out = append(out, base...)
	return out
}

// Parse splits a received multipart message back into an Envelope,
// rejecting any frame count other than 4 or 6, any version other than
// Version, and any unrecognized kind byte.
func Parse(frames [][]byte) (Envelope, error) {
	var e Envelope
	switch len(frames) {
	case 4:
		// REQ-socket form: no routing frames.
	case 6:
		e.PeerID = frames[0]
		frames = frames[2:]
	default:
		return e, fmt.Errorf("%w: got %d frames, want 4 or 6", zrpcerr.ErrMalformedEnvelope, len(frames))
	}

	if len(frames[0]) != 1 {
		return Envelope{}, fmt.Errorf("%w: version frame must be 1 byte", zrpcerr.ErrMalformedEnvelope)
	}
	e.Version = frames[0][0]
	if e.Version != Version {
		return Envelope{}, fmt.Errorf("%w: version 0x%02x, want 0x%02x", zrpcerr.ErrMalformedEnvelope, e.Version, Version)
	}

	if len(frames[1]) != UUIDSize {
		return Envelope{}, fmt.Errorf("%w: request_uuid must be %d bytes, got %d", zrpcerr.ErrMalformedEnvelope, UUIDSize, len(frames[1]))
	}
	copy(e.RequestID[:], frames[1])

	if len(frames[2]) != 1 {
		return Envelope{}, fmt.Errorf("%w: kind frame must be 1 byte", zrpcerr.ErrMalformedEnvelope)
	}
	e.Kind = Kind(frames[2][0])
	if !validKind(e.Kind) {
		return Envelope{}, fmt.Errorf("%w: unknown kind 0x%02x", zrpcerr.ErrMalformedEnvelope, byte(e.Kind))
	}

	e.Payload = frames[3]
	return e, nil
}
