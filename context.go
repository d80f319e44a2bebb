// Package propagate provides an immutable key/value container for carrying
// ambient values — credentials, trace identifiers, tenant metadata — across
// API boundaries without explicit parameter threading.
//
// A Context is a snapshot: deriving one with WithValue or WithValues never
// mutates the original, and snapshots share structure so derivation is
// cheap. Values are addressed through identity-based keys (see Key), not
// strings, so only code holding the key can observe or shadow an entry.
//
// Context carries values only. Goroutine binding, scoping, and propagation
// to deferred work live in the scope package.
package propagate

import "github.com/contextkit/propagate/internal/hamt"

// Context is an immutable key/value snapshot with no goroutine affinity.
// The zero of the API is Empty(); Contexts grow only through derivation.
//
// Context is not a general-purpose map: entries cannot be deleted, only
// shadowed, and the structure is tuned for a handful to a few dozen keys.
// Combine related items under a single key rather than spreading them over
// many.
type Context struct {
	root hamt.Node
}

var emptyContext = &Context{}

// Empty returns the canonical empty Context. It is a process-wide
// singleton, so two calls always return the same pointer.
func Empty() *Context {
	return emptyContext
}

// WithValue returns a new Context in which k resolves to v. The original
// Context is unchanged:
//
//	derived := propagate.WithValue(base, k, v)
//	// base still resolves k to whatever it did before.
//
// Multiple calls chain; propagate.WithValue(propagate.WithValue(c, k1, v1), k2, v2)
// is equivalent to c.WithValues(V(k1, v1), V(k2, v2)).
func WithValue[T any](c *Context, k *Key[T], v T) *Context {
	if c == nil {
		c = emptyContext
	}
	return &Context{root: hamt.Put(c.root, k, v, k.hash)}
}

// Pair is one key/value entry destined for a Context. Build one with V so
// the value's type is checked against the key at compile time.
type Pair struct {
	key   AnyKey
	value any
}

// V pairs a key with a value of the key's type.
func V[T any](k *Key[T], v T) Pair {
	return Pair{key: k, value: v}
}

// WithValues returns a new Context with every pair set, in order. Later
// pairs shadow earlier ones for the same key.
func (c *Context) WithValues(pairs ...Pair) *Context {
	root := c.root
	for _, p := range pairs {
		root = hamt.Put(root, p.key, p.value, p.key.keyHash())
	}
	if root == c.root {
		return c
	}
	return &Context{root: root}
}

// Len reports the number of entries in the snapshot.
func (c *Context) Len() int {
	return hamt.Size(c.root)
}
