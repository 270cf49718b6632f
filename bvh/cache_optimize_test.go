package bvh

import (
	"testing"

	"go.viam.com/test"
)

func TestIncrementalCacheOptimizeThreadSafeMovesChildAAdjacent(t *testing.T) {
	tr := BuildMedianSplitTree(gridLeaves(64))

	var target int32 = -1
	for i := range tr.nodes {
		if tr.nodes[i].A.Index >= 0 && tr.nodes[i].A.Index != int32(i)+1 {
			target = int32(i)
			break
		}
	}
	if target < 0 {
		t.Skip("tree already cache-optimal for this leaf layout")
	}

	tr.IncrementalCacheOptimizeThreadSafe(target)

	test.That(t, tr.nodes[target].A.Index, test.ShouldEqual, target+1)
	test.That(t, tr.Validate(), test.ShouldBeNil)
}

func TestIncrementalCacheOptimizeThreadSafeNoopOnLeafChild(t *testing.T) {
	tr := BuildMedianSplitTree(gridLeaves(3))
	root := tr.Root()
	test.That(t, tr.nodes[root].A.IsLeaf(), test.ShouldBeTrue)

	before := tr.nodes[root]
	tr.IncrementalCacheOptimizeThreadSafe(root)
	test.That(t, tr.nodes[root], test.ShouldResemble, before)
}

func TestSwapNodeSlotsIsSelfInverse(t *testing.T) {
	tr := BuildMedianSplitTree(gridLeaves(64))
	if tr.NodeCount() < 3 {
		t.Skip("tree too small")
	}

	var i, j int32 = 1, 2
	before := make([]Node, len(tr.nodes))
	copy(before, tr.nodes)

	tr.swapNodeSlots(i, j)
	tr.swapNodeSlots(i, j)

	for k := range tr.nodes {
		test.That(t, tr.nodes[k], test.ShouldResemble, before[k])
	}
	test.That(t, tr.Validate(), test.ShouldBeNil)
}

func TestComputeCacheOptimizeStarts(t *testing.T) {
	starts := computeCacheOptimizeStarts(0, 100, 4, 3)
	test.That(t, len(starts), test.ShouldEqual, 8)
	for _, s := range starts {
		test.That(t, s, test.ShouldBeGreaterThanOrEqualTo, int32(0))
		test.That(t, s, test.ShouldBeLessThan, int32(100))
	}
}

func TestGetCacheOptimizeTuning(t *testing.T) {
	low := GetCacheOptimizeTuning(8, 0, 1)
	high := GetCacheOptimizeTuning(8, 5, 1)
	test.That(t, high, test.ShouldBeGreaterThan, low)
	test.That(t, low, test.ShouldBeGreaterThanOrEqualTo, 1)
}
