package endpoint

import (
	"context"
	"strings"

	"zrpc/auth"
	"zrpc/heartbeat"
	"zrpc/peer"
	"zrpc/registry"
	"zrpc/runtime"
	"zrpc/transport"
	"zrpc/zrpcerr"
)

// Endpoint is the public entry point: one transport socket, its registry,
// auth/heartbeat backends, and either a peer.Engine (async/cooperative) or
// a peer.SyncClient (sync), selected by RuntimeKind.
type Endpoint struct {
	cfg *config
	ctx transport.Context

	engine     *peer.Engine
	syncClient *peer.SyncClient
	rt         runtime.Runtime

	initialized bool
}

// New constructs an Endpoint. The transport context is shared across every
// Endpoint created against the same zmq4 process context; pass the same
// *transport.ZMQContext (or a fake for tests) to every New call that should
// share one.
func New(ctx transport.Context, opts ...Option) *Endpoint {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.registry == nil {
		cfg.registry = registry.NewLocal(string(cfg.identity))
	}
	return &Endpoint{cfg: cfg, ctx: ctx}
}

// resolveAuthBackend picks the auth backend for a socket activating in the
// given direction. serverMode (DirectionBind) selects CurveBackend's
// bind-side configuration; connect-side CurveBackends pin the remote peer's
// key instead of advertising a server flag.
func (e *Endpoint) resolveAuthBackend(serverMode bool) auth.Backend {
	if e.cfg.authBackend != nil {
		return e.cfg.authBackend
	}
	if e.cfg.securityPlugin == "curve" {
		return e.curveBackendFromCredentials(serverMode)
	}
	if factory, ok := auth.Lookup(e.cfg.securityPlugin); ok {
		return factory()
	}
	return auth.NewNoopBackend()
}

// curveBackendFromCredentials builds a CurveBackend from the key material
// WithCredentials stored on cfg, pre-seeding a MemoryKeyStore with the one
// peer identity/key pair it names. This covers the common point-to-point
// pairing; an endpoint that needs to authorize more than one peer should
// construct its own auth.NewCurveBackend with a shared KeyStore and pass it
// through WithAuthBackend instead.
func (e *Endpoint) curveBackendFromCredentials(serverMode bool) auth.Backend {
	store := auth.NewMemoryKeyStore()
	if len(e.cfg.peerIdentity) > 0 {
		store.Put(string(e.cfg.peerIdentity), e.cfg.peerPublicKey)
	}
	backend := auth.NewCurveBackend(e.cfg.publicKey, e.cfg.secretKey, serverMode, store)
	if !serverMode {
		backend.SetPeerKey(e.cfg.peerPublicKey)
	}
	return backend
}

func (e *Endpoint) resolveHeartbeatBackend() heartbeat.Backend {
	if e.cfg.heartbeatBackend != nil {
		return e.cfg.heartbeatBackend
	}
	if factory, ok := heartbeat.Lookup(e.cfg.heartbeatPlugin); ok {
		return factory()
	}
	return heartbeat.NewNoopBackend()
}

func (e *Endpoint) socketKind() transport.Kind {
	switch e.cfg.runtimeKind {
	case RuntimeSync:
		return transport.Req
	default:
		return transport.Dealer
	}
}

func (e *Endpoint) activate(direction transport.Direction, endpointURI string) error {
	kind := e.socketKind()
	if direction == transport.DirectionBind {
		kind = transport.Router
	}
	sock, err := transport.Dial(e.ctx, kind, direction, endpointURI, e.cfg.identity, e.cfg.timeout)
	if err != nil {
		return err
	}

	serverMode := direction == transport.DirectionBind
	if e.cfg.runtimeKind == RuntimeSync {
		e.syncClient = peer.NewSyncClient(sock, e.cfg.timeout, e.resolveAuthBackend(serverMode))
		e.rt = runtime.NewSync()
		e.initialized = true
		return nil
	}

	var rt runtime.Runtime
	switch e.cfg.runtimeKind {
	case RuntimeCooperative:
		rt = runtime.NewCooperative(256)
	default:
		rt = runtime.NewAsync()
	}
	e.rt = rt

	var proxyEngine *peer.Engine
	if e.cfg.proxyTo != nil {
		proxyEngine = e.cfg.proxyTo.engine
	}

	e.engine = peer.New(peer.Config{
		Socket:           sock,
		Runtime:          rt,
		Registry:         e.cfg.registry,
		ProxyTo:          proxyEngine,
		AuthBackend:      e.resolveAuthBackend(serverMode),
		HeartbeatBackend: e.resolveHeartbeatBackend(),
		Timeout:          e.cfg.timeout,
		Logger:           e.cfg.logger,
	})
	if err := e.engine.Start(); err != nil {
		return err
	}
	e.initialized = true
	return nil
}

// Connect activates the socket in the connect direction.
func (e *Endpoint) Connect(endpointURI string) error {
	return e.activate(transport.DirectionConnect, endpointURI)
}

// Bind activates the socket in the bind direction. Not supported when
// RuntimeSync is selected, since a REQ socket cannot bind as a server.
func (e *Endpoint) Bind(endpointURI string) error {
	if e.cfg.runtimeKind == RuntimeSync {
		return zrpcerr.ErrUnsupported
	}
	return e.activate(transport.DirectionBind, endpointURI)
}

// RegisterRPC registers callable under name in this endpoint's registry.
func (e *Endpoint) RegisterRPC(name string, callable registry.Callable) error {
	return e.cfg.registry.Register(name, callable)
}

// Builder is the attribute-chain call handle returned by SendTo and the
// dotted-call convenience methods.
type Builder struct {
	ep     *Endpoint
	target []byte
	name   string
}

// SendTo returns a Builder targeting a specific peer identity.
func (e *Endpoint) SendTo(peerID []byte) *Builder {
	return &Builder{ep: e, target: peerID}
}

// Call starts a Builder addressed to this endpoint's configured default
// peer identity (WithPeerIdentity).
func (e *Endpoint) Call(name string) *Builder {
	return &Builder{ep: e, target: e.cfg.peerIdentity, name: name}
}

// Dot appends another dotted-name component.
func (b *Builder) Dot(component string) *Builder {
	if b.name == "" {
		b.name = component
	} else {
		b.name = b.name + "." + component
	}
	return b
}

// Invoke issues the call, blocking until a reply, timeout, or ctx's
// deadline. Synchronous endpoints ignore ctx (the REQ socket's recv
// timeout, set at Connect, already bounds the call).
func (b *Builder) Invoke(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	if !b.ep.initialized {
		return nil, zrpcerr.ErrNotInitialized
	}
	if b.ep.syncClient != nil {
		return b.ep.syncClient.Call(b.name, args, kwargs)
	}
	mux := b.ep.engine.Multiplexer()
	parts := strings.Split(b.name, ".")
	chain := mux.Call(parts[0])
	for _, part := range parts[1:] {
		chain = chain.Dot(part)
	}
	return chain.To(b.target).Invoke(ctx, args, kwargs)
}

// Start is a no-op: Connect and Bind already start the receive loop of an
// async/cooperative endpoint, and the sync variant has no background
// receive loop to start.
func (e *Endpoint) Start() error {
	return nil
}

// Stop tears down the endpoint: closes the socket, stops the backends, and
// cancels every pending call.
func (e *Endpoint) Stop() error {
	if e.engine != nil {
		return e.engine.Stop()
	}
	if e.syncClient != nil {
		return e.syncClient.Close()
	}
	return nil
}
