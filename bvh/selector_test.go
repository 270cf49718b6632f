package bvh

import (
	"testing"

	"go.viam.com/test"
)

func TestGetRefineTuning(t *testing.T) {
	t.Run("zero candidates yields zero targets", func(t *testing.T) {
		targetCount, period, offset := GetRefineTuning(5, 0, 1, 0)
		test.That(t, targetCount, test.ShouldEqual, 0)
		test.That(t, period, test.ShouldEqual, 1)
		test.That(t, offset, test.ShouldEqual, 0)
	})

	t.Run("target count grows with refitCostChange and is clamped to candidateCount", func(t *testing.T) {
		lowVolatility, _, _ := GetRefineTuning(0, 10, 1, 0)
		highVolatility, _, _ := GetRefineTuning(0, 10, 1, 5)
		test.That(t, highVolatility, test.ShouldBeGreaterThan, lowVolatility)
		test.That(t, highVolatility, test.ShouldBeLessThanOrEqualTo, 10)
	})

	t.Run("pure function of its inputs", func(t *testing.T) {
		a1, a2, a3 := GetRefineTuning(9, 40, 1.5, 0.3)
		b1, b2, b3 := GetRefineTuning(9, 40, 1.5, 0.3)
		test.That(t, a1, test.ShouldEqual, b1)
		test.That(t, a2, test.ShouldEqual, b2)
		test.That(t, a3, test.ShouldEqual, b3)
	})
}

func TestSelectRefinementTargetsHasNoDuplicates(t *testing.T) {
	tr := BuildMedianSplitTree(gridLeaves(500))
	candidateLists := [][]int32{{1, 3, 5, 7, 9, 11}, {2, 4, 6, 8, 10}, {12, 14, 16}}

	targets := SelectRefinementTargets(tr, candidateLists, 3, 2, 0.4, nil)

	seen := make(map[int32]bool)
	for _, idx := range targets {
		test.That(t, seen[idx], test.ShouldBeFalse)
		seen[idx] = true
	}
}

func TestSelectRefinementTargetsAlwaysIncludesRoot(t *testing.T) {
	tr := BuildMedianSplitTree(gridLeaves(10))
	candidateLists := [][]int32{{1, 2}}

	targets := SelectRefinementTargets(tr, candidateLists, 0, 1, 0, nil)

	found := false
	for _, idx := range targets {
		if idx == tr.Root() {
			found = true
		}
	}
	test.That(t, found, test.ShouldBeTrue)
}

func TestSelectRefinementTargetsDeterministic(t *testing.T) {
	tr1 := BuildMedianSplitTree(gridLeaves(500))
	tr2 := BuildMedianSplitTree(gridLeaves(500))
	candidateLists := [][]int32{{1, 3, 5, 7, 9, 11}, {2, 4, 6, 8, 10}}

	a := SelectRefinementTargets(tr1, candidateLists, 17, 1, 0.2, nil)
	b := SelectRefinementTargets(tr2, candidateLists, 17, 1, 0.2, nil)
	test.That(t, a, test.ShouldResemble, b)
}
