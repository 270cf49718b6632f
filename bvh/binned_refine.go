package bvh

import (
	"math"

	"github.com/golang/geo/r3"
)

const sahBinCount = 12

// subtreeRef is a leaf of the treelet BinnedRefine rebuilds: either an existing internal node
// (kept intact, just repositioned) or a true leaf, carried with the bounds it contributes to the
// rebuild's SAH sweep.
type subtreeRef struct {
	min, max  r3.Vector
	index     int32
	leafCount int32
}

func (s subtreeRef) toChildRef() ChildRef {
	return ChildRef{Min: s.min, Max: s.max, Index: s.index, LeafCount: s.leafCount}
}

func childToSubtreeRef(c *ChildRef) subtreeRef {
	return subtreeRef{min: c.Min, max: c.Max, index: c.Index, leafCount: c.LeafCount}
}

// collectSubtreeRoots greedily expands the treelet rooted at nodeIndex: starting from its two
// children, it repeatedly replaces the expandable (internal) entry with the largest bounds
// metric by its own two children, until maximumSubtrees entries have accumulated or nothing is
// left to expand. Every internal node consumed by an expansion — including nodeIndex itself — is
// appended to scratchSlots: these are exactly the slots the rebuild below is allowed to reuse, and
// there are always len(entries)-1 of them, one per internal node a binary tree over entries needs.
func (t *Tree) collectSubtreeRoots(nodeIndex int32, maximumSubtrees int, scratchSlots *[]int32) []subtreeRef {
	root := &t.nodes[nodeIndex]
	entries := []subtreeRef{childToSubtreeRef(&root.A), childToSubtreeRef(&root.B)}
	*scratchSlots = append(*scratchSlots, nodeIndex)

	for len(entries) < maximumSubtrees {
		best := -1
		bestMetric := -1.0
		for i, e := range entries {
			if e.index < 0 {
				continue
			}
			m := BoundsMetric(e.min, e.max)
			if m > bestMetric {
				bestMetric = m
				best = i
			}
		}
		if best < 0 {
			break
		}

		expand := entries[best]
		node := &t.nodes[expand.index]
		*scratchSlots = append(*scratchSlots, expand.index)
		entries[best] = childToSubtreeRef(&node.A)
		entries = append(entries, childToSubtreeRef(&node.B))
	}

	return entries
}

// sahSplit partitions entries into two non-empty groups using a binned surface-area-heuristic
// sweep along the axis of greatest centroid spread: entries are dropped into sahBinCount buckets
// by centroid position, then every internal bin boundary is scored by leftCount*leftArea +
// rightCount*rightArea and the cheapest kept. Degenerate inputs (coincident centroids, too few
// entries to bin usefully) fall back to an even split by array position.
func sahSplit(entries []subtreeRef) ([]subtreeRef, []subtreeRef) {
	evenSplit := func() ([]subtreeRef, []subtreeRef) {
		mid := len(entries) / 2
		if mid == 0 {
			mid = 1
		}
		return entries[:mid], entries[mid:]
	}

	if len(entries) <= 2 {
		return evenSplit()
	}

	centroidMin := centroid(entries[0].min, entries[0].max)
	centroidMax := centroidMin
	for _, e := range entries[1:] {
		c := centroid(e.min, e.max)
		centroidMin = minVec(centroidMin, c)
		centroidMax = maxVec(centroidMax, c)
	}
	extent := centroidMax.Sub(centroidMin)

	axis := 0
	if vecAxis(extent, 1) > vecAxis(extent, axis) {
		axis = 1
	}
	if vecAxis(extent, 2) > vecAxis(extent, axis) {
		axis = 2
	}
	axisExtent := vecAxis(extent, axis)
	if axisExtent < 1e-12 {
		return evenSplit()
	}

	bins := make([]int, len(entries))
	var binMin, binMax [sahBinCount]r3.Vector
	var binCount [sahBinCount]int
	for i := range binMin {
		binMin[i] = r3.Vector{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
		binMax[i] = r3.Vector{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64}
	}
	for i, e := range entries {
		c := vecAxis(centroid(e.min, e.max), axis)
		frac := (c - vecAxis(centroidMin, axis)) / axisExtent
		b := int(frac * float64(sahBinCount))
		if b < 0 {
			b = 0
		}
		if b >= sahBinCount {
			b = sahBinCount - 1
		}
		bins[i] = b
		binMin[b] = minVec(binMin[b], e.min)
		binMax[b] = maxVec(binMax[b], e.max)
		binCount[b]++
	}

	bestCost := math.Inf(1)
	bestSplit := -1
	for split := 1; split < sahBinCount; split++ {
		leftMin := r3.Vector{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
		leftMax := r3.Vector{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64}
		leftCount := 0
		for b := 0; b < split; b++ {
			if binCount[b] == 0 {
				continue
			}
			leftMin = minVec(leftMin, binMin[b])
			leftMax = maxVec(leftMax, binMax[b])
			leftCount += binCount[b]
		}
		if leftCount == 0 {
			continue
		}
		rightMin := r3.Vector{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
		rightMax := r3.Vector{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64}
		rightCount := 0
		for b := split; b < sahBinCount; b++ {
			if binCount[b] == 0 {
				continue
			}
			rightMin = minVec(rightMin, binMin[b])
			rightMax = maxVec(rightMax, binMax[b])
			rightCount += binCount[b]
		}
		if rightCount == 0 {
			continue
		}

		cost := float64(leftCount)*BoundsMetric(leftMin, leftMax) + float64(rightCount)*BoundsMetric(rightMin, rightMax)
		if cost < bestCost {
			bestCost = cost
			bestSplit = split
		}
	}
	if bestSplit < 0 {
		return evenSplit()
	}

	var left, right []subtreeRef
	for i, e := range entries {
		if bins[i] < bestSplit {
			left = append(left, e)
		} else {
			right = append(right, e)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return evenSplit()
	}
	return left, right
}

// rebuildTreelet recursively rebuilds entries into a binary tree, consuming scratchSlots in order
// — the outermost call always consumes scratchSlots[0] first, which collectSubtreeRoots guarantees
// is the original node the treelet is rooted at, so the rebuilt treelet reoccupies the same slot
// its parent already points to.
func (t *Tree) rebuildTreelet(entries []subtreeRef, scratchSlots []int32, pos *int) ChildRef {
	if len(entries) == 1 {
		return entries[0].toChildRef()
	}

	left, right := sahSplit(entries)

	slot := scratchSlots[*pos]
	*pos++

	leftChild := t.rebuildTreelet(left, scratchSlots, pos)
	rightChild := t.rebuildTreelet(right, scratchSlots, pos)

	node := &t.nodes[slot]
	node.A, node.B = leftChild, rightChild
	t.reparentChild(slot, 0, &leftChild)
	t.reparentChild(slot, 1, &rightChild)

	min, max := unionAABB(leftChild.Min, leftChild.Max, rightChild.Min, rightChild.Max)
	return ChildRef{Min: min, Max: max, Index: slot, LeafCount: leftChild.LeafCount + rightChild.LeafCount}
}

func (t *Tree) reparentChild(slot int32, indexInParent int8, child *ChildRef) {
	if child.Index >= 0 {
		t.metanodes[child.Index].Parent = slot
		t.metanodes[child.Index].IndexInParent = indexInParent
	}
}

// BinnedRefine collapses the treelet rooted at nodeIndex (up to maximumSubtrees subtree roots) and
// rebuilds it from scratch with a binned SAH split, writing the result back into the same node
// slots the original treelet occupied. The node referenced by nodeIndex keeps its identity — its
// parent's child record is updated in place with the rebuilt bounds, never retargeted to a
// different index.
func (t *Tree) BinnedRefine(nodeIndex int32, maximumSubtrees int) {
	parent := t.metanodes[nodeIndex].Parent
	indexInParent := t.metanodes[nodeIndex].IndexInParent

	var scratchSlots []int32
	entries := t.collectSubtreeRoots(nodeIndex, maximumSubtrees, &scratchSlots)

	pos := 0
	root := t.rebuildTreelet(entries, scratchSlots, &pos)

	if parent < 0 {
		t.rootMin, t.rootMax = root.Min, root.Max
		return
	}
	rec := t.childRef(parent, indexInParent)
	rec.Min, rec.Max, rec.LeafCount = root.Min, root.Max, root.LeafCount
}
