package bvh

import (
	"testing"

	"go.viam.com/test"
)

func TestCollectPartitionsIntoRefitRoots(t *testing.T) {
	tr := BuildMedianSplitTree(gridLeaves(200))
	workerCount := 4
	candidateLists := make([][]int32, workerCount)

	refitRoots := Collect(tr, workerCount, 7, candidateLists, nil)
	test.That(t, len(refitRoots), test.ShouldBeGreaterThan, 0)

	// Every refit-root's decoded node index must be a real internal node with LeafCount at or
	// below the multithreading threshold used to stop descending.
	threshold := tr.leafCount / (2 * workerCount)
	if threshold < 7 {
		threshold = 7
	}
	for _, raw := range refitRoots {
		idx := raw
		if idx < 0 {
			idx = signEncode(idx)
		}
		test.That(t, int(idx), test.ShouldBeLessThan, tr.NodeCount())
		test.That(t, idx, test.ShouldBeGreaterThanOrEqualTo, int32(0))
		meta := tr.metanodes[idx]
		test.That(t, int(tr.childRef(meta.Parent, meta.IndexInParent).LeafCount), test.ShouldBeLessThanOrEqualTo, threshold)
	}

	// RefineFlag on every visited internal node equals its internal-child count, which for a
	// full-coverage collect means the root and every ancestor of a refit-root has flag 1 or 2.
	test.That(t, tr.metanodes[tr.Root()].RefineFlag, test.ShouldBeGreaterThan, int32(0))
}

func TestCollectOnTinyTree(t *testing.T) {
	// 3 leaves: one leaf child and one 2-leaf internal child off the root.
	tr := BuildMedianSplitTree(gridLeaves(3))
	candidateLists := make([][]int32, 2)

	refitRoots := Collect(tr, 2, 7, candidateLists, nil)
	test.That(t, len(refitRoots), test.ShouldEqual, 1)
	test.That(t, tr.metanodes[tr.Root()].RefineFlag, test.ShouldEqual, int32(1))
}
