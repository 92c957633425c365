// Package endpoint wires the wire, registry, auth, heartbeat, peer, call
// and runtime packages behind a single public Endpoint type, configured
// through a set of functional options covering identity, security,
// heartbeat, timeout, proxying, and concurrency flavor.
package endpoint

import (
	"log"
	"time"

	"zrpc/auth"
	"zrpc/heartbeat"
	"zrpc/registry"
)

const defaultTimeout = 5 * time.Second

// RuntimeKind selects which of the three concurrency flavors backs an
// Endpoint.
type RuntimeKind int

const (
	// RuntimeAsync is the parallel-threaded default.
	RuntimeAsync RuntimeKind = iota
	// RuntimeCooperative runs all dispatch on a single goroutine.
	RuntimeCooperative
	// RuntimeSync is the minimal blocking, client-only flavor.
	RuntimeSync
)

type config struct {
	identity         []byte
	peerIdentity     []byte
	securityPlugin   string
	authBackend      auth.Backend
	publicKey        [32]byte
	secretKey        [32]byte
	peerPublicKey    [32]byte
	heartbeatPlugin  string
	heartbeatBackend heartbeat.Backend
	timeout          time.Duration
	proxyTo          *Endpoint
	registry         *registry.Registry
	logger           *log.Logger
	runtimeKind      RuntimeKind
}

func defaultConfig() *config {
	return &config{
		securityPlugin:  "noop",
		heartbeatPlugin: "noop",
		timeout:         defaultTimeout,
		logger:          log.Default(),
		runtimeKind:     RuntimeAsync,
	}
}

// WithRuntime selects the concurrency flavor. Defaults to RuntimeAsync.
func WithRuntime(kind RuntimeKind) Option {
	return func(c *config) { c.runtimeKind = kind }
}

// Option configures an Endpoint at construction time.
type Option func(*config)

// WithIdentity sets this endpoint's transport identity. Defaults to a
// random identity assigned by the underlying socket if omitted.
func WithIdentity(identity []byte) Option {
	return func(c *config) { c.identity = identity }
}

// WithPeerIdentity sets the default destination for attribute-chain calls
// issued with no explicit target.
func WithPeerIdentity(peerIdentity []byte) Option {
	return func(c *config) { c.peerIdentity = peerIdentity }
}

// WithSecurityPlugin names the auth backend to adapt, looked up in the
// auth package's factory registry. Mutually exclusive with
// WithAuthBackend; the last one applied wins.
func WithSecurityPlugin(name string) Option {
	return func(c *config) { c.securityPlugin = name; c.authBackend = nil }
}

// WithAuthBackend injects a constructed Backend directly, bypassing the
// factory registry. Useful for TrustedBackend/CurveBackend, which need
// constructor arguments the zero-arg Factory signature cannot carry.
func WithAuthBackend(backend auth.Backend) Option {
	return func(c *config) { c.authBackend = backend }
}

// WithCredentials supplies CURVE key material: this endpoint's own keypair
// and the one peer identity/key it expects to talk to. Combined with
// WithSecurityPlugin("curve") (the default security plugin name is "noop",
// so this must be set explicitly), resolveAuthBackend builds a CurveBackend
// from these fields instead of looking one up in the factory registry,
// seeding its KeyStore with the peerIdentity/peerPublicKey pair so the
// common point-to-point pairing works without any extra wiring. Deployments
// that need an allowlist of more than one peer, or a shared KeyStore, should
// build their own auth.NewCurveBackend and pass it through WithAuthBackend
// instead, which always takes precedence over WithCredentials.
func WithCredentials(publicKey, secretKey, peerPublicKey [32]byte) Option {
	return func(c *config) {
		c.publicKey = publicKey
		c.secretKey = secretKey
		c.peerPublicKey = peerPublicKey
	}
}

// WithHeartbeatPlugin names the heartbeat backend to adapt.
func WithHeartbeatPlugin(name string) Option {
	return func(c *config) { c.heartbeatPlugin = name; c.heartbeatBackend = nil }
}

// WithHeartbeatBackend injects a constructed heartbeat.Backend directly.
func WithHeartbeatBackend(backend heartbeat.Backend) Option {
	return func(c *config) { c.heartbeatBackend = backend }
}

// WithTimeout sets the per-call wall-clock timeout. Default is 5 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) { c.timeout = timeout }
}

// WithProxyTo sets a fallback endpoint whose registry is consulted on a
// local lookup miss.
func WithProxyTo(proxy *Endpoint) Option {
	return func(c *config) { c.proxyTo = proxy }
}

// WithRegistry injects a custom registry instance in place of the default
// per-identity local registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithLogger overrides the default logger (log.Default()) every component
// uses for diagnostic output.
func WithLogger(logger *log.Logger) Option {
	return func(c *config) { c.logger = logger }
}
