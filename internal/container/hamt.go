package container

import (
	"math/bits"

	"saurus/internal/gc"
	"saurus/internal/value"
)

// mapNode is implemented by all five HAMT node kinds (§4.3): empty,
// leaf, collision, indexed, full. Each exposes the same four
// operations, dispatched by pattern-matching on the concrete kind
// rather than a function-pointer suite (the idiomatic translation
// noted in the design notes).
type mapNode interface {
	gc.Object
	find(shift uint, hash uint32, key value.Value) value.Value
	set(shift uint, hash uint32, key, val value.Value) (mapNode, bool)
	without(shift uint, hash uint32, key value.Value) (mapNode, bool)
}

// --- empty ---

type emptyMapNode struct{}

var theEmptyMapNode mapNode = &emptyMapNode{}

func (*emptyMapNode) GCChildren() []gc.Object { return nil }
func (*emptyMapNode) find(uint, uint32, value.Value) value.Value {
	return value.InvalidValue()
}
func (*emptyMapNode) set(shift uint, hash uint32, key, val value.Value) (mapNode, bool) {
	return &leafNode{hash: hash, key: key, val: val}, true
}
func (e *emptyMapNode) without(uint, uint32, value.Value) (mapNode, bool) {
	return e, false
}

func isEmptyMapNode(n mapNode) bool {
	_, ok := n.(*emptyMapNode)
	return ok
}

// --- leaf ---

type leafNode struct {
	hash     uint32
	key, val value.Value
}

func (l *leafNode) GCChildren() []gc.Object {
	return append(valueChildren(l.key), valueChildren(l.val)...)
}

func (l *leafNode) find(shift uint, hash uint32, key value.Value) value.Value {
	if hash == l.hash && value.Equal(key, l.key) {
		return l.val
	}
	return value.InvalidValue()
}

func (l *leafNode) set(shift uint, hash uint32, key, val value.Value) (mapNode, bool) {
	if hash == l.hash {
		if value.Equal(key, l.key) {
			if value.Equal(val, l.val) {
				return l, false
			}
			return &leafNode{hash: hash, key: key, val: val}, false
		}
		return &collisionNode{hash: hash, leaves: []*leafNode{l, {hash: hash, key: key, val: val}}}, true
	}
	return mergeLeaf(shift, l, &leafNode{hash: hash, key: key, val: val}), true
}

func (l *leafNode) without(shift uint, hash uint32, key value.Value) (mapNode, bool) {
	if hash == l.hash && value.Equal(key, l.key) {
		return theEmptyMapNode, true
	}
	return l, false
}

func mergeLeaf(shift uint, a, b *leafNode) mapNode {
	var cur mapNode = &indexedNode{}
	cur, _ = cur.set(shift, a.hash, a.key, a.val)
	cur, _ = cur.set(shift, b.hash, b.key, b.val)
	return cur
}

// --- collision ---

type collisionNode struct {
	hash   uint32
	leaves []*leafNode
}

func (c *collisionNode) GCChildren() []gc.Object {
	var out []gc.Object
	for _, l := range c.leaves {
		out = append(out, l.GCChildren()...)
	}
	return out
}

func (c *collisionNode) find(shift uint, hash uint32, key value.Value) value.Value {
	if hash != c.hash {
		return value.InvalidValue()
	}
	for _, l := range c.leaves {
		if value.Equal(key, l.key) {
			return l.val
		}
	}
	return value.InvalidValue()
}

func (c *collisionNode) set(shift uint, hash uint32, key, val value.Value) (mapNode, bool) {
	if hash != c.hash {
		return mergeCollision(shift, c, &leafNode{hash: hash, key: key, val: val}), true
	}
	for i, l := range c.leaves {
		if value.Equal(key, l.key) {
			if value.Equal(val, l.val) {
				return c, false
			}
			newLeaves := append([]*leafNode(nil), c.leaves...)
			newLeaves[i] = &leafNode{hash: hash, key: key, val: val}
			return &collisionNode{hash: hash, leaves: newLeaves}, false
		}
	}
	newLeaves := append(append([]*leafNode(nil), c.leaves...), &leafNode{hash: hash, key: key, val: val})
	return &collisionNode{hash: hash, leaves: newLeaves}, true
}

func (c *collisionNode) without(shift uint, hash uint32, key value.Value) (mapNode, bool) {
	if hash != c.hash {
		return c, false
	}
	for i, l := range c.leaves {
		if value.Equal(key, l.key) {
			newLeaves := append(append([]*leafNode(nil), c.leaves[:i]...), c.leaves[i+1:]...)
			switch len(newLeaves) {
			case 0:
				return theEmptyMapNode, true
			case 1:
				return newLeaves[0], true
			default:
				return &collisionNode{hash: hash, leaves: newLeaves}, true
			}
		}
	}
	return c, false
}

func mergeCollision(shift uint, c *collisionNode, l *leafNode) mapNode {
	var cur mapNode = &indexedNode{}
	for _, leaf := range c.leaves {
		cur, _ = cur.set(shift, leaf.hash, leaf.key, leaf.val)
	}
	cur, _ = cur.set(shift, l.hash, l.key, l.val)
	return cur
}

// --- indexed ---

type indexedNode struct {
	bitmap   uint32
	children []mapNode
}

func (n *indexedNode) GCChildren() []gc.Object {
	out := make([]gc.Object, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	return out
}

func slotBit(shift uint, hash uint32) uint32 {
	return 1 << ((hash >> shift) & branchMask)
}

func (n *indexedNode) find(shift uint, hash uint32, key value.Value) value.Value {
	bit := slotBit(shift, hash)
	if n.bitmap&bit == 0 {
		return value.InvalidValue()
	}
	idx := bits.OnesCount32(n.bitmap & (bit - 1))
	return n.children[idx].find(shift+branchBits, hash, key)
}

func (n *indexedNode) set(shift uint, hash uint32, key, val value.Value) (mapNode, bool) {
	bit := slotBit(shift, hash)
	idx := bits.OnesCount32(n.bitmap & (bit - 1))

	if n.bitmap&bit != 0 {
		child := n.children[idx]
		newChild, added := child.set(shift+branchBits, hash, key, val)
		newChildren := append([]mapNode(nil), n.children...)
		newChildren[idx] = newChild
		return &indexedNode{bitmap: n.bitmap, children: newChildren}, added
	}

	newChildren := make([]mapNode, len(n.children)+1)
	copy(newChildren, n.children[:idx])
	newChildren[idx] = &leafNode{hash: hash, key: key, val: val}
	copy(newChildren[idx+1:], n.children[idx:])
	newBitmap := n.bitmap | bit

	if newBitmap == ^uint32(0) {
		full := &fullNode{}
		copy(full.children[:], newChildren)
		return full, true
	}
	return &indexedNode{bitmap: newBitmap, children: newChildren}, true
}

func (n *indexedNode) without(shift uint, hash uint32, key value.Value) (mapNode, bool) {
	bit := slotBit(shift, hash)
	if n.bitmap&bit == 0 {
		return n, false
	}
	idx := bits.OnesCount32(n.bitmap & (bit - 1))
	child := n.children[idx]
	newChild, changed := child.without(shift+branchBits, hash, key)
	if !changed {
		return n, false
	}
	if isEmptyMapNode(newChild) {
		if len(n.children) == 1 {
			return theEmptyMapNode, true
		}
		newChildren := append(append([]mapNode(nil), n.children[:idx]...), n.children[idx+1:]...)
		return &indexedNode{bitmap: n.bitmap &^ bit, children: newChildren}, true
	}
	newChildren := append([]mapNode(nil), n.children...)
	newChildren[idx] = newChild
	return &indexedNode{bitmap: n.bitmap, children: newChildren}, true
}

// --- full ---

type fullNode struct {
	children [branchFactor]mapNode
}

func (n *fullNode) GCChildren() []gc.Object {
	out := make([]gc.Object, 0, branchFactor)
	for _, c := range n.children {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (n *fullNode) find(shift uint, hash uint32, key value.Value) value.Value {
	idx := (hash >> shift) & branchMask
	c := n.children[idx]
	if c == nil {
		return value.InvalidValue()
	}
	return c.find(shift+branchBits, hash, key)
}

func (n *fullNode) set(shift uint, hash uint32, key, val value.Value) (mapNode, bool) {
	idx := (hash >> shift) & branchMask
	child := n.children[idx]
	if child == nil {
		child = theEmptyMapNode
	}
	newChild, added := child.set(shift+branchBits, hash, key, val)
	newFull := *n
	newFull.children[idx] = newChild
	return &newFull, added
}

func (n *fullNode) without(shift uint, hash uint32, key value.Value) (mapNode, bool) {
	idx := (hash >> shift) & branchMask
	child := n.children[idx]
	if child == nil {
		return n, false
	}
	newChild, changed := child.without(shift+branchBits, hash, key)
	if !changed {
		return n, false
	}

	var children []mapNode
	var bitmap uint32
	for i := uint32(0); i < branchFactor; i++ {
		c := n.children[i]
		if i == idx {
			c = newChild
		}
		if c == nil || isEmptyMapNode(c) {
			continue
		}
		bitmap |= 1 << i
		children = append(children, c)
	}
	return &indexedNode{bitmap: bitmap, children: children}, true
}

// Map is the persistent HAMT map of §4.3.
type Map struct {
	root  mapNode
	count int
}

// EmptyMap returns the empty map.
func EmptyMap() *Map { return &Map{root: theEmptyMapNode} }

func (m *Map) Length() int { return m.count }

// GCChildren implements gc.Object: map → root.
func (m *Map) GCChildren() []gc.Object { return []gc.Object{m.root} }

// Find returns the INVALID value on a lookup miss, per §4.3's outer
// map API contract.
func (m *Map) Find(key value.Value) value.Value {
	return m.root.find(0, value.Hash(key), key)
}

func (m *Map) Has(key value.Value) bool {
	return !m.Find(key).IsInvalid()
}

// Insert returns a new map with key bound to val.
func (m *Map) Insert(key, val value.Value) *Map {
	newRoot, added := m.root.set(0, value.Hash(key), key, val)
	newCount := m.count
	if added {
		newCount++
	}
	return &Map{root: newRoot, count: newCount}
}

// Without returns a new map with key removed (or the same map,
// pointer-identical, if key was absent).
func (m *Map) Without(key value.Value) *Map {
	newRoot, changed := m.root.without(0, value.Hash(key), key)
	if !changed {
		return m
	}
	return &Map{root: newRoot, count: m.count - 1}
}

// RootKind names the concrete kind of the root node, for tests that
// assert the collision/indexed/full shape described in §8's scenarios.
func (m *Map) RootKind() string {
	switch m.root.(type) {
	case *emptyMapNode:
		return "empty"
	case *leafNode:
		return "leaf"
	case *collisionNode:
		return "collision"
	case *indexedNode:
		return "indexed"
	case *fullNode:
		return "full"
	default:
		return "unknown"
	}
}
