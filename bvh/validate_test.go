package bvh

import (
	"testing"

	"go.viam.com/test"
)

func TestValidateOnFreshTree(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 5, 50} {
		tr := BuildMedianSplitTree(gridLeaves(n))
		test.That(t, tr.Validate(), test.ShouldBeNil)
	}
}

func TestValidateCatchesDirtyRefineFlag(t *testing.T) {
	tr := BuildMedianSplitTree(gridLeaves(10))
	tr.metanodes[tr.Root()].RefineFlag = 1
	test.That(t, tr.Validate(), test.ShouldNotBeNil)
}

func TestValidateCatchesBrokenBackReference(t *testing.T) {
	tr := BuildMedianSplitTree(gridLeaves(10))
	child := tr.nodes[tr.Root()].A.Index
	test.That(t, child, test.ShouldBeGreaterThanOrEqualTo, int32(0))
	tr.metanodes[child].IndexInParent = 1 - tr.metanodes[child].IndexInParent
	test.That(t, tr.Validate(), test.ShouldNotBeNil)
}
