// Package zrpcerr defines the error taxonomy shared by every zrpc component.
//
// Errors are values: callers use errors.Is/errors.As against the sentinels
// and typed errors below rather than matching on message text.
package zrpcerr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotInitialized is returned when an RPC-shaped call is attempted before
// Connect or Bind has been called on the endpoint.
var ErrNotInitialized = errors.New("zrpc: endpoint not connected or bound")

// ErrShutdown is delivered to every outstanding pending call when an
// endpoint is stopped with calls still in flight.
var ErrShutdown = errors.New("zrpc: endpoint shut down")

// ErrUnsupported is returned for operations that need background tasks or
// a server role: the synchronous runtime's Spawn and AfterFunc, and
// Endpoint.Bind under RuntimeSync.
var ErrUnsupported = errors.New("zrpc: operation not supported by this runtime")

// ErrMalformedEnvelope means a message had the wrong frame count, a bad
// version or request_uuid frame, or an unknown kind byte. The peer engine's
// receive loop logs and drops such messages. peer.SyncClient.Call returns
// it to its caller when the reply cannot be parsed, carries a different
// request_uuid, or is neither OK nor ERROR.
var ErrMalformedEnvelope = errors.New("zrpc: malformed envelope")

// ErrMalformedPayload means the envelope was well formed but its payload
// failed to decode under the wire codec. It is not dropped silently: an
// undecodable OK or ERROR reply delivers it to the waiting call (or returns
// it from peer.SyncClient.Call), and an undecodable WORK payload is
// answered with an ERROR reply named "MalformedPayload".
var ErrMalformedPayload = errors.New("zrpc: malformed payload")

// AuthenticationFailure describes a rejected authentication attempt. No
// zrpc component constructs it: a rejected HELLO is answered with an
// UNAUTHORIZED frame, which the receiving engine passes to its auth
// backend's HandleAuthentication.
type AuthenticationFailure struct {
	PeerID string
	Reason string
}

func (e *AuthenticationFailure) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("zrpc: authentication failed for peer %q", e.PeerID)
	}
	return fmt.Sprintf("zrpc: authentication failed for peer %q: %s", e.PeerID, e.Reason)
}

// TimeoutError is delivered to a call's waiter when no reply arrives within
// the endpoint's configured timeout.
type TimeoutError struct {
	Name string // dotted procedure name that timed out
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("zrpc: call %q timed out", e.Name)
}

// ServiceNotFoundError is raised locally by the registry on a lookup miss
// with no proxy (or a proxy that also misses), and is reconstructed at the
// calling side when a remote ERROR carries this same name. Message and
// Traceback are populated only on the reconstructed (remote) path.
type ServiceNotFoundError struct {
	Name      string
	Message   string
	Traceback string
}

func (e *ServiceNotFoundError) Error() string {
	if e.Message == "" && e.Traceback == "" {
		return fmt.Sprintf("zrpc: service not found: %q", e.Name)
	}
	full := strings.Join([]string{FormatRemoteTraceback(e.Traceback), e.Message}, "\n")
	return strings.Join([]string{"ServiceNotFoundError", full}, "\n")
}

// RegistryConflict is raised when a registration would make a path both a
// leaf and an internal node of the procedure tree: registering at an
// existing internal node, or registering through an existing leaf.
type RegistryConflict struct {
	Name string
}

func (e *RegistryConflict) Error() string {
	return fmt.Sprintf("zrpc: %q cannot be both a leaf and an internal registry node", e.Name)
}

const (
	tracebackHeader = "-- Beginning of remote traceback --"
	tracebackFooter = "-- End of remote traceback --"
)

// FormatRemoteTraceback wraps a raw remote traceback string in a fixed
// banner, indenting every line so it reads as a block distinct from the
// surrounding error text.
func FormatRemoteTraceback(traceback string) string {
	indent := strings.Repeat(" ", 12)
	lines := strings.Split(traceback, "\n")
	joined := strings.Join(lines, "\n"+indent)
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(tracebackHeader)
	b.WriteString("\n")
	b.WriteString(indent)
	b.WriteString(joined)
	b.WriteString("\n")
	b.WriteString(tracebackFooter)
	b.WriteString("\n")
	return b.String()
}

// RemoteException is the fallback reconstruction of a remote failure whose
// exception name does not match any entry in the reconstruction allowlist.
// It carries the full name, message and traceback losslessly.
type RemoteException struct {
	Name      string
	Message   string
	Traceback string
}

func (e *RemoteException) Error() string {
	full := strings.Join([]string{FormatRemoteTraceback(e.Traceback), e.Message}, "\n")
	return strings.Join([]string{e.Name, full}, "\n")
}

// ReconstructedError represents a remote failure whose exception name
// matched a well-known standard condition in the reconstruction allowlist.
// Kind holds the matched name (e.g. "ValueError", "ZeroDivisionError") so
// callers can branch on it with errors.As without string-matching Error().
type ReconstructedError struct {
	Kind      string
	Message   string
	Traceback string
}

func (e *ReconstructedError) Error() string {
	full := strings.Join([]string{FormatRemoteTraceback(e.Traceback), e.Message}, "\n")
	return full
}

// reconstructable lists the remote exception names zrpc can distinguish
// locally without knowing the originating type. Everything else falls
// through to RemoteException, preserving the name as data rather than
// losing it.
var reconstructable = map[string]bool{
	"ValueError":          true,
	"TypeError":           true,
	"KeyError":            true,
	"IndexError":          true,
	"ZeroDivisionError":   true,
	"RuntimeError":        true,
	"AttributeError":      true,
	"NotImplementedError": true,
}

// ReconstructRemoteFailure turns the (name, message, traceback) triple
// carried by an ERROR reply into a Go error. ServiceNotFoundError is always
// given its own dedicated kind; names in the reconstruction allowlist
// become *ReconstructedError; everything else becomes *RemoteException.
func ReconstructRemoteFailure(name, message, traceback string) error {
	if name == "ServiceNotFoundError" {
		return &ServiceNotFoundError{Message: message, Traceback: traceback}
	}
	if reconstructable[name] {
		return &ReconstructedError{Kind: name, Message: message, Traceback: traceback}
	}
	return &RemoteException{Name: name, Message: message, Traceback: traceback}
}
