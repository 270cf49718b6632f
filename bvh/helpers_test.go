package bvh

import "github.com/golang/geo/r3"

// gridLeaves lays out n unit-cube leaves along the X axis, spaced two units apart so their
// centroids never collide and median-split construction is well-defined.
func gridLeaves(n int) []AABB {
	leaves := make([]AABB, n)
	for i := 0; i < n; i++ {
		x := float64(i) * 2
		leaves[i] = AABB{
			Min: r3.Vector{X: x, Y: 0, Z: 0},
			Max: r3.Vector{X: x + 1, Y: 1, Z: 1},
		}
	}
	return leaves
}

// growLeaf returns a copy of leaves with leaf i's box grown outward by delta on every axis,
// simulating a moving body between frames.
func growLeaf(leaves []AABB, i int, delta float64) []AABB {
	out := make([]AABB, len(leaves))
	copy(out, leaves)
	grown := out[i]
	grown.Min = grown.Min.Sub(r3.Vector{X: delta, Y: delta, Z: delta})
	grown.Max = grown.Max.Add(r3.Vector{X: delta, Y: delta, Z: delta})
	out[i] = grown
	return out
}

// applyLeaves writes leaves' current boxes into the tree's child records in place, the way a
// broadphase would after moving bodies, without touching any internal node's own bounds — that is
// exactly the repair RefitAndRefine is responsible for afterward.
func applyLeaves(tree *Tree, leaves []AABB) {
	for i := range tree.nodes {
		node := &tree.nodes[i]
		for c := 0; c < 2; c++ {
			child := node.childAt(c)
			if child.IsLeaf() {
				box := leaves[child.LeafID()]
				child.Min, child.Max = box.Min, box.Max
			}
		}
	}
}
