package bvh

// Collect walks the tree once, single-threaded, from the root down, and partitions it into a set
// of refit-roots: nodes below which exactly one worker will later do all the refit work. A node
// becomes a refit-root once its LeafCount drops to or below max(leafCount/(2*workerCount),
// refinementLeafCountThreshold) — enough subtrees to keep workerCount workers busy without
// slicing the tree more finely than refinement itself would ever need.
//
// Each visited internal node's RefineFlag is set to the number of its children that are
// themselves internal (i.e. that lie on a path to some refit-root); refitPhase's fan-in walk-up
// decrements this count and only continues past a node once every one of its internal children
// has reported in.
//
// A refit-root whose own LeafCount is already at or below refinementLeafCountThreshold is itself
// a wavefront node: it is appended to candidateLists[0] as an initial refinement candidate, and
// its index is sign-encoded (encode(i) = -1-i) in the returned list so refitPhase knows to refit
// it with RefitAndMeasure rather than RefitAndMark (nothing below it needs further marking).
func Collect(tree *Tree, workerCount int, refinementLeafCountThreshold int, candidateLists [][]int32, buf []int32) []int32 {
	refitRoots := buf[:0]
	if tree.NodeCount() == 0 {
		return refitRoots
	}

	multithreadingThreshold := tree.leafCount / (2 * workerCount)
	if multithreadingThreshold < refinementLeafCountThreshold {
		multithreadingThreshold = refinementLeafCountThreshold
	}

	var recurse func(nodeIndex int32)
	recurse = func(nodeIndex int32) {
		node := &tree.nodes[nodeIndex]

		var internalChildCount int32
		for i := 0; i < 2; i++ {
			if node.childAt(i).Index >= 0 {
				internalChildCount++
			}
		}
		tree.metanodes[nodeIndex].RefineFlag = internalChildCount

		for i := 0; i < 2; i++ {
			child := node.childAt(i)
			if child.Index < 0 {
				continue
			}
			if child.LeafCount > int32(multithreadingThreshold) {
				recurse(child.Index)
				continue
			}
			if child.LeafCount <= int32(refinementLeafCountThreshold) {
				candidateLists[0] = append(candidateLists[0], child.Index)
				refitRoots = append(refitRoots, signEncode(child.Index))
			} else {
				refitRoots = append(refitRoots, child.Index)
			}
		}
	}
	recurse(tree.Root())

	return refitRoots
}
