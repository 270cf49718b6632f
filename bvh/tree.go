// Package bvh maintains a binary bounding-volume hierarchy across frames: refitting leaf AABB
// changes upward, periodically rebuilding the worst local treelets, and nudging node storage
// back into parent-child adjacency for cache locality.
package bvh

import (
	"sync"

	"github.com/golang/geo/r3"
)

// cacheOptimizeShardCount bounds the number of mutexes guarding concurrent slot swaps. Shards are
// selected by node index modulo this count, so two swaps on far-apart slots rarely contend.
const cacheOptimizeShardCount = 64

// ChildRef is one of a Node's two children: either an internal node (Index >= 0, indexing into
// Tree.nodes) or a leaf (Index < 0, encoding the leaf id as -1-Index). Min/Max are a cached copy
// of the child's own AABB, stored here so a parent can be refit without dereferencing the child.
type ChildRef struct {
	Min, Max  r3.Vector
	Index     int32
	LeafCount int32
}

// IsLeaf reports whether this child record names a leaf rather than an internal node.
func (c *ChildRef) IsLeaf() bool {
	return c.Index < 0
}

// LeafID returns the leaf id this child record names. Only valid when IsLeaf is true.
func (c *ChildRef) LeafID() int32 {
	return -1 - c.Index
}

// signEncode implements the -1-i encoding used both for leaf ids inside a ChildRef and for marking
// a refit-root as "already refit with measurement only" in the refit-roots list Collect produces.
// The encoding is its own inverse, so signEncode also decodes.
func signEncode(i int32) int32 {
	return -1 - i
}

// Node is one internal node of the tree: exactly two children, no parent pointer (that lives on
// the matching Metanode).
type Node struct {
	A, B ChildRef
}

func (n *Node) childAt(i int) *ChildRef {
	if i == 0 {
		return &n.A
	}
	return &n.B
}

// Metanode carries per-node bookkeeping that the refit/refine/cache-optimize passes need but that
// has no bearing on the tree's geometry: the back-reference to this node's parent, its scratch
// fan-in counter, and the cost delta accumulated for it during the current pass.
type Metanode struct {
	Parent          int32
	IndexInParent   int8
	RefineFlag      int32
	LocalCostChange float64
}

// Tree is a binary BVH over a fixed set of leaves, stored as a flat slice of Node plus a parallel
// slice of Metanode. Node 0 is always the root when the tree has any internal nodes at all.
type Tree struct {
	nodes      []Node
	metanodes  []Metanode
	leafCount  int
	rootMin    r3.Vector
	rootMax    r3.Vector
	shardLocks [cacheOptimizeShardCount]sync.Mutex
}

// NodeCount returns the number of internal nodes.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// LeafCount returns the number of leaves the tree was built over.
func (t *Tree) LeafCount() int {
	return t.leafCount
}

// Root returns the index of the root node, or -1 if the tree has no internal nodes (leafCount <= 1).
func (t *Tree) Root() int32 {
	if len(t.nodes) == 0 {
		return -1
	}
	return 0
}

// RootBounds returns the AABB of the whole tree, as last computed by a refit or refine pass.
func (t *Tree) RootBounds() (min, max r3.Vector) {
	return t.rootMin, t.rootMax
}

func (t *Tree) childRef(parent int32, indexInParent int8) *ChildRef {
	return t.nodes[parent].childAt(int(indexInParent))
}

func (t *Tree) shardFor(i int32) *sync.Mutex {
	idx := i % cacheOptimizeShardCount
	if idx < 0 {
		idx += cacheOptimizeShardCount
	}
	return &t.shardLocks[idx]
}
