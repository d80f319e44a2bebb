// Package hamt implements a persistent (copy-on-write) hash array mapped
// trie. Collisions are handled linearly, deletion is not supported, and
// replacement shadows the previous entry. The implementation favors
// simplicity and low allocation on insertion: asymptotics are good, but it
// is tuned for small sizes — a handful to a few dozen entries.
//
// Keys are compared by identity (== on the stored any value, which is
// pointer identity for pointer keys); the caller-supplied hash is used only
// to route through the trie. Branch nodes use popcount-based compression: a
// 32-way fan-out represented as a bitmap plus a dense slice of only the
// populated children.
package hamt

import "math/bits"

const (
	// nbits is the number of hash bits consumed per level.
	nbits uint = 5
	// slotMask extracts one level's slice of the hash.
	slotMask uint32 = 1<<nbits - 1
)

// Node is one immutable trie node. A nil Node is the empty trie.
type Node interface {
	get(key any, hash uint32, bitsConsumed uint) (any, bool)
	put(key, value any, hash uint32, bitsConsumed uint) Node
	size() int
}

// Get returns the value stored under key, or ok == false if it is absent.
func Get(root Node, key any, hash uint32) (any, bool) {
	if root == nil {
		return nil, false
	}
	return root.get(key, hash, 0)
}

// Put returns a new root in which key is set to value. The old root is
// never mutated; subtrees unaffected by the insertion are shared between
// the old and new roots.
func Put(root Node, key, value any, hash uint32) Node {
	if root == nil {
		return &leaf{key: key, value: value, hash: hash}
	}
	return root.put(key, value, hash, 0)
}

// Size reports the number of entries reachable from root.
func Size(root Node) int {
	if root == nil {
		return 0
	}
	return root.size()
}

// leaf holds a single entry along with its routing hash.
type leaf struct {
	key   any
	value any
	hash  uint32
}

func (l *leaf) get(key any, hash uint32, bitsConsumed uint) (any, bool) {
	if l.key == key {
		return l.value, true
	}
	return nil, false
}

func (l *leaf) put(key, value any, hash uint32, bitsConsumed uint) Node {
	switch {
	case l.hash != hash:
		// Insert under a branch deep enough to separate the two hashes.
		return combine(&leaf{key: key, value: value, hash: hash}, hash, l, l.hash, bitsConsumed)
	case l.key == key:
		// Replace.
		return &leaf{key: key, value: value, hash: hash}
	default:
		// Hash collision with a distinct key.
		return &collisionLeaf{
			keys:   []any{l.key, key},
			values: []any{l.value, value},
			hash:   hash,
		}
	}
}

func (l *leaf) size() int { return 1 }

// collisionLeaf holds entries whose keys are distinct but share an
// identical hash. Lookup is a linear scan over the parallel slices.
type collisionLeaf struct {
	keys   []any
	values []any
	hash   uint32
}

func (c *collisionLeaf) get(key any, hash uint32, bitsConsumed uint) (any, bool) {
	for i, k := range c.keys {
		if k == key {
			return c.values[i], true
		}
	}
	return nil, false
}

func (c *collisionLeaf) put(key, value any, hash uint32, bitsConsumed uint) Node {
	if c.hash != hash {
		return combine(&leaf{key: key, value: value, hash: hash}, hash, c, c.hash, bitsConsumed)
	}
	if i := c.indexOf(key); i >= 0 {
		keys := make([]any, len(c.keys))
		values := make([]any, len(c.values))
		copy(keys, c.keys)
		copy(values, c.values)
		keys[i] = key
		values[i] = value
		return &collisionLeaf{keys: keys, values: values, hash: c.hash}
	}
	// Yet another key with the same hash.
	keys := make([]any, len(c.keys)+1)
	values := make([]any, len(c.values)+1)
	copy(keys, c.keys)
	copy(values, c.values)
	keys[len(c.keys)] = key
	values[len(c.values)] = value
	return &collisionLeaf{keys: keys, values: values, hash: c.hash}
}

func (c *collisionLeaf) indexOf(key any) int {
	for i, k := range c.keys {
		if k == key {
			return i
		}
	}
	return -1
}

func (c *collisionLeaf) size() int { return len(c.values) }

// branch is a compressed-index node: bitmap marks which of the 32 slots at
// this level are populated and children holds only those slots, densely.
type branch struct {
	bitmap   uint32
	children []Node
	sz       int
}

func (b *branch) get(key any, hash uint32, bitsConsumed uint) (any, bool) {
	bit := indexBit(hash, bitsConsumed)
	if b.bitmap&bit == 0 {
		return nil, false
	}
	return b.children[b.compressedIndex(bit)].get(key, hash, bitsConsumed+nbits)
}

func (b *branch) put(key, value any, hash uint32, bitsConsumed uint) Node {
	bit := indexBit(hash, bitsConsumed)
	idx := b.compressedIndex(bit)
	if b.bitmap&bit == 0 {
		// Insert a fresh slot, growing the dense slice by one.
		children := make([]Node, len(b.children)+1)
		copy(children, b.children[:idx])
		children[idx] = &leaf{key: key, value: value, hash: hash}
		copy(children[idx+1:], b.children[idx:])
		return &branch{bitmap: b.bitmap | bit, children: children, sz: b.sz + 1}
	}
	// Recurse into the existing slot and thread the size delta upward.
	children := make([]Node, len(b.children))
	copy(children, b.children)
	children[idx] = b.children[idx].put(key, value, hash, bitsConsumed+nbits)
	return &branch{
		bitmap:   b.bitmap,
		children: children,
		sz:       b.sz + children[idx].size() - b.children[idx].size(),
	}
}

func (b *branch) size() int { return b.sz }

func (b *branch) compressedIndex(bit uint32) int {
	return bits.OnesCount32(b.bitmap & (bit - 1))
}

// combine merges two nodes whose hashes differ into a branch deep enough to
// separate them. When both hashes land in the same slot at this level, it
// recurses one level deeper. The two resulting slots are ordered by their
// raw 5-bit index so insertion order does not affect the final shape.
func combine(n1 Node, h1 uint32, n2 Node, h2 uint32, bitsConsumed uint) Node {
	b1 := indexBit(h1, bitsConsumed)
	b2 := indexBit(h2, bitsConsumed)
	if b1 == b2 {
		sub := combine(n1, h1, n2, h2, bitsConsumed+nbits)
		return &branch{bitmap: b1, children: []Node{sub}, sz: sub.size()}
	}
	if rawIndex(h1, bitsConsumed) > rawIndex(h2, bitsConsumed) {
		n1, n2 = n2, n1
	}
	return &branch{bitmap: b1 | b2, children: []Node{n1, n2}, sz: n1.size() + n2.size()}
}

func rawIndex(hash uint32, bitsConsumed uint) uint32 {
	if bitsConsumed >= 32 {
		return 0
	}
	return (hash >> bitsConsumed) & slotMask
}

func indexBit(hash uint32, bitsConsumed uint) uint32 {
	return 1 << rawIndex(hash, bitsConsumed)
}
