package call

import (
	"context"
	"strings"
)

// Builder accumulates dotted name components and an optional target peer
// before a call is actually issued, so application code can write
// mux.Call("a").To(peerID).Invoke(ctx, args, kwargs) or chain further
// attribute-style components with Dot before invoking.
type Builder struct {
	mux    *Multiplexer
	parts  []string
	peerID []byte
}

// Call starts a new Builder rooted at name (which may itself already be
// dotted, e.g. "math.square").
func (m *Multiplexer) Call(name string) *Builder {
	return &Builder{mux: m, parts: []string{name}}
}

// Dot appends another dotted-name component, e.g.
// mux.Call("a").Dot("b").Dot("c") builds the name "a.b.c".
func (b *Builder) Dot(component string) *Builder {
	b.parts = append(b.parts, component)
	return b
}

// To sets the destination peer for this call. If never called, the peer id
// is nil and the WORK envelope is framed in the 4-frame form, with no
// routing frame (endpoint.Builder always calls To with its own target).
func (b *Builder) To(peerID []byte) *Builder {
	b.peerID = peerID
	return b
}

// Name returns the fully-joined dotted name this Builder has accumulated.
func (b *Builder) Name() string {
	return strings.Join(b.parts, ".")
}

// Invoke issues the call and blocks until a reply, timeout, or ctx's
// deadline, whichever comes first.
func (b *Builder) Invoke(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	result, err := b.mux.Issue(b.peerID, b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	select {
	case r := <-result:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
