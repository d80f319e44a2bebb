package propagate

import (
	"sync/atomic"

	"github.com/contextkit/propagate/internal/hamt"
)

// AnyKey is satisfied by every *Key regardless of its value type. It exists
// so heterogeneous keys can travel together in a Pair; it cannot be
// implemented outside this package.
type AnyKey interface {
	keyHash() uint32
	keyName() string
}

// Key addresses one entry in a Context. Keys are capability tokens compared
// by identity: two keys created with the same debug name are distinct, and
// holding the key is the only way to read or shadow its entry. Create a key
// once, share it by reference.
type Key[T any] struct {
	name string
	hash uint32
	def  T
}

// NewKey creates a key with the given debug name. The name is for
// diagnostics only and does not affect behavior.
func NewKey[T any](name string) *Key[T] {
	return &Key[T]{name: name, hash: nextKeyHash()}
}

// NewKeyWithDefault creates a key whose Get substitutes def when the key is
// absent from a context.
func NewKeyWithDefault[T any](name string, def T) *Key[T] {
	return &Key[T]{name: name, hash: nextKeyHash(), def: def}
}

// newKeyAt creates a key with a fixed routing hash so tests can engineer
// hash collisions.
func newKeyAt[T any](name string, hash uint32) *Key[T] {
	return &Key[T]{name: name, hash: hash}
}

// Get resolves the key through c, substituting the key's default value (or
// the zero value of T when no default was declared) if the key is absent.
// A nil context reads as the empty context.
func (k *Key[T]) Get(c *Context) T {
	if v, ok := k.Value(c); ok {
		return v
	}
	return k.def
}

// Value resolves the key through c and reports whether it was present.
// Absence is an ordinary result, never an error.
func (k *Key[T]) Value(c *Context) (T, bool) {
	if c != nil {
		if v, ok := hamt.Get(c.root, k, k.hash); ok {
			return v.(T), true
		}
	}
	var zero T
	return zero, false
}

// String returns the key's debug name.
func (k *Key[T]) String() string { return k.name }

func (k *Key[T]) keyHash() uint32 { return k.hash }
func (k *Key[T]) keyName() string { return k.name }

var keySeq atomic.Uint32

// nextKeyHash assigns routing hashes from a scrambled counter; the
// multiplier spreads sequential ids across every 5-bit slice of the hash.
func nextKeyHash() uint32 {
	return keySeq.Add(1) * 0x9E3779B9
}
