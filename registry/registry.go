// Package registry implements the zrpc procedure registry: a tree of dotted
// name components mapping to callables, so a plugin can register a whole
// bundle of leaves under one prefix without the endpoint knowing about each
// one individually.
package registry

import (
	"strings"
	"sync"

	"zrpc/zrpcerr"
)

// Callable is anything the registry can dispatch a WORK message to. The
// peer engine supplies the calling peer's identity alongside the
// positional and keyword arguments decoded from the wire, and expects
// either a result value or an error. peerID is empty when the call arrived
// on a REQ socket (runtime.Sync has no routing frame to carry one).
type Callable func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error)

type node struct {
	callable Callable
	children map[string]*node
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

func (n *node) isLeaf() bool {
	return n.callable != nil
}

// Registry is a tree of name components to Callables. The zero value is not
// usable; construct one with New or NewLocal.
type Registry struct {
	mu       sync.RWMutex
	root     *node
	identity string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{root: newNode()}
}

// NewLocal creates an empty registry tagged with an owning identity. The
// identity string does not affect the registry's contents; it exists so an
// endpoint's default registry can be named for diagnostics without every
// caller threading a name through New.
func NewLocal(identity string) *Registry {
	r := New()
	r.identity = identity
	return r
}

// Identity returns the identity this registry was created for via NewLocal
// (empty for registries created with New).
func (r *Registry) Identity() string {
	return r.identity
}

// Register inserts callable at the dotted path name, creating intermediate
// nodes as needed. A leaf collision (re-registering the same name) replaces
// the previous callable. Registering at a path that is currently an
// internal node (has children but no callable of its own... or vice versa,
// registering *through* an existing leaf) fails with RegistryConflict.
func (r *Registry) Register(name string, callable Callable) error {
	parts := strings.Split(name, ".")
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.root
	for i, part := range parts {
		last := i == len(parts)-1
		child, ok := cur.children[part]
		if !ok {
			child = newNode()
			cur.children[part] = child
		}
		if !last && child.isLeaf() {
			return &zrpcerr.RegistryConflict{Name: strings.Join(parts[:i+1], ".")}
		}
		cur = child
	}
	if len(cur.children) > 0 {
		return &zrpcerr.RegistryConflict{Name: name}
	}
	cur.callable = callable
	return nil
}

// Lookup walks the dotted path, returning ServiceNotFoundError if any
// component is missing or if the path resolves to an internal node rather
// than a leaf.
func (r *Registry) Lookup(name string) (Callable, error) {
	parts := strings.Split(name, ".")
	r.mu.RLock()
	defer r.mu.RUnlock()

	cur := r.root
	for _, part := range parts {
		child, ok := cur.children[part]
		if !ok {
			return nil, &zrpcerr.ServiceNotFoundError{Name: name}
		}
		cur = child
	}
	if !cur.isLeaf() {
		return nil, &zrpcerr.ServiceNotFoundError{Name: name}
	}
	return cur.callable, nil
}

// Names returns every registered dotted name, in no particular order. It
// exists for debugging/introspection (the tests use it); it is never put
// on the wire.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	var walk func(prefix string, n *node)
	walk = func(prefix string, n *node) {
		if n.isLeaf() {
			out = append(out, prefix)
		}
		for part, child := range n.children {
			next := part
			if prefix != "" {
				next = prefix + "." + part
			}
			walk(next, child)
		}
	}
	walk("", r.root)
	return out
}
