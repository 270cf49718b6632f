package bvh

import "sync/atomic"

// RefitAndMark recursively repairs the subtree rooted at childRecord.Index: every internal node
// visited has its stored AABB replaced by the union of its two children's current AABBs. While
// descending, any internal child whose LeafCount is at or below leafCountThreshold is a wavefront
// node: it is appended to candidates and its subtree is refit with RefitAndMeasure instead, since
// nothing below a wavefront node needs further marking. Returns the sum, over every node visited,
// of (post-refit bounds metric − pre-refit bounds metric).
func (t *Tree) RefitAndMark(childRecord *ChildRef, leafCountThreshold int, candidates *[]int32) float64 {
	if childRecord.Index < 0 {
		return 0
	}
	node := &t.nodes[childRecord.Index]
	pre := BoundsMetric(childRecord.Min, childRecord.Max)

	var costChange float64
	for i := 0; i < 2; i++ {
		child := node.childAt(i)
		if child.Index < 0 {
			continue
		}
		if child.LeafCount <= int32(leafCountThreshold) {
			*candidates = append(*candidates, child.Index)
			costChange += t.RefitAndMeasure(child)
		} else {
			costChange += t.RefitAndMark(child, leafCountThreshold, candidates)
		}
	}

	childRecord.Min, childRecord.Max = unionAABB(node.A.Min, node.A.Max, node.B.Min, node.B.Max)
	costChange += BoundsMetric(childRecord.Min, childRecord.Max) - pre
	return costChange
}

// RefitAndMeasure is RefitAndMark without candidate marking: used below a wavefront node, where
// every descendant is already known to be below the refinement leaf-count threshold.
func (t *Tree) RefitAndMeasure(childRecord *ChildRef) float64 {
	if childRecord.Index < 0 {
		return 0
	}
	node := &t.nodes[childRecord.Index]
	pre := BoundsMetric(childRecord.Min, childRecord.Max)

	var costChange float64
	for i := 0; i < 2; i++ {
		child := node.childAt(i)
		if child.Index >= 0 {
			costChange += t.RefitAndMeasure(child)
		}
	}

	childRecord.Min, childRecord.Max = unionAABB(node.A.Min, node.A.Max, node.B.Min, node.B.Max)
	costChange += BoundsMetric(childRecord.Min, childRecord.Max) - pre
	return costChange
}

// refitWalkUp climbs from a just-finished refit-root toward the tree root, decrementing each
// ancestor's RefineFlag (its remaining-children counter) as this worker arrives. A worker that is
// not the last to arrive at a given ancestor abandons the climb; the last arrival recomputes that
// ancestor's AABB from its now-current children and continues climbing in its place. Returns
// whether this call was the one that finished the walk at the root, and if so the frame's
// refitCostChange (LocalCostChange at the root, normalized by the root's own bounds metric).
func (t *Tree) refitWalkUp(nodeIndex int32) (reachedRoot bool, refitCostChange float64) {
	current := nodeIndex
	for {
		parent := t.metanodes[current].Parent
		if parent < 0 {
			return false, 0
		}
		if atomic.AddInt32(&t.metanodes[parent].RefineFlag, -1) != 0 {
			return false, 0
		}

		pNode := &t.nodes[parent]
		var accumulated float64
		for i := 0; i < 2; i++ {
			child := pNode.childAt(i)
			if child.Index >= 0 {
				accumulated += t.metanodes[child.Index].LocalCostChange
				atomic.StoreInt32(&t.metanodes[child.Index].RefineFlag, 0)
			}
		}

		grandparent := t.metanodes[parent].Parent
		if grandparent < 0 {
			rootMin, rootMax := unionAABB(pNode.A.Min, pNode.A.Max, pNode.B.Min, pNode.B.Max)
			t.rootMin, t.rootMax = rootMin, rootMax
			t.metanodes[parent].LocalCostChange = accumulated
			m := BoundsMetric(rootMin, rootMax)
			var rcc float64
			if m > 1e-9 {
				rcc = t.metanodes[parent].LocalCostChange / m
			}
			atomic.StoreInt32(&t.metanodes[parent].RefineFlag, 0)
			return true, rcc
		}

		parentRecord := t.childRef(grandparent, t.metanodes[parent].IndexInParent)
		pre := BoundsMetric(parentRecord.Min, parentRecord.Max)
		parentRecord.Min, parentRecord.Max = unionAABB(pNode.A.Min, pNode.A.Max, pNode.B.Min, pNode.B.Max)
		post := BoundsMetric(parentRecord.Min, parentRecord.Max)
		t.metanodes[parent].LocalCostChange = accumulated + (post - pre)

		current = parent
	}
}

// refitPhase dispatches the refit-and-mark workers described by refitRoots: each worker
// repeatedly claims the next unclaimed refit-root via an atomic post-increment counter, refits
// it, and walks the result up toward the root. candidateLists[workerIndex] receives any wavefront
// nodes the worker's own refit-and-mark calls discover. Returns the refitCostChange reported by
// whichever worker's walk-up reached the root.
func refitPhase(
	tree *Tree,
	dispatcher Dispatcher,
	refitRoots []int32,
	candidateLists [][]int32,
	refinementLeafCountThreshold int,
) (float64, error) {
	var claim int32 = -1
	var refitCostChange float64

	err := dispatcher.Dispatch(func(workerIndex int) {
		for {
			idx := atomic.AddInt32(&claim, 1)
			if int(idx) >= len(refitRoots) {
				return
			}

			raw := refitRoots[idx]
			measure := raw < 0
			var nodeIndex int32
			if measure {
				nodeIndex = signEncode(raw)
			} else {
				nodeIndex = raw
			}

			meta := &tree.metanodes[nodeIndex]
			childRecord := tree.childRef(meta.Parent, meta.IndexInParent)

			var costChange float64
			if measure {
				costChange = tree.RefitAndMeasure(childRecord)
			} else {
				costChange = tree.RefitAndMark(childRecord, refinementLeafCountThreshold, &candidateLists[workerIndex])
			}
			meta.LocalCostChange = costChange

			if reachedRoot, rcc := tree.refitWalkUp(nodeIndex); reachedRoot {
				refitCostChange = rcc
			}
		}
	})
	return refitCostChange, err
}
