package bvh

import "math"

// GetRefineTuning derives how many refinement targets to pick this frame, and the stride to pick
// them with, from the number of candidates on offer and how much the tree moved last frame.
// targetCount grows with refitCostChange (a more volatile tree earns more rebuilding) scaled by
// aggressivenessScale, and is clamped to [1, candidateCount]. period spaces targetCount-1 picks
// roughly evenly across the candidate ring; offset is a function of frameIndex so consecutive
// frames sample different candidates without any cross-frame state.
func GetRefineTuning(frameIndex int, candidateCount int, aggressivenessScale float64, refitCostChange float64) (targetCount, period, offset int) {
	if candidateCount == 0 {
		return 0, 1, 0
	}

	base := 1.0 + 8.0*refitCostChange
	targetCount = int(math.Ceil(base * aggressivenessScale))
	if targetCount < 1 {
		targetCount = 1
	}
	if targetCount > candidateCount {
		targetCount = candidateCount
	}

	period = candidateCount / targetCount
	if period < 1 {
		period = 1
	}

	offset = int(math.Mod(float64(frameIndex)*math.Pi, float64(period)))
	return targetCount, period, offset
}

func candidateAt(candidateLists [][]int32, pos int) int32 {
	for _, list := range candidateLists {
		if pos < len(list) {
			return list[pos]
		}
		pos -= len(list)
	}
	panic("bvh: candidateAt position out of range")
}

func totalCandidates(candidateLists [][]int32) int {
	total := 0
	for _, list := range candidateLists {
		total += len(list)
	}
	return total
}

// SelectRefinementTargets deterministically samples refinementTargetCount-1 distinct candidates
// from candidateLists, treated as one ring in worker order, via GetRefineTuning's stride, then
// always adds the tree root (unless stride sampling already selected it). Every selected target's
// RefineFlag is set to 1, marking it reserved for the upcoming refine dispatch.
func SelectRefinementTargets(tree *Tree, candidateLists [][]int32, frameIndex int, aggressivenessScale float64, refitCostChange float64, buf []int32) []int32 {
	total := totalCandidates(candidateLists)
	targetCount, period, offset := GetRefineTuning(frameIndex, total, aggressivenessScale, refitCostChange)

	targets := buf[:0]
	seen := make(map[int32]bool, targetCount+1)

	picks := targetCount - 1
	if picks > total {
		picks = total
	}
	if total > 0 {
		pos := offset % total
		for i := 0; i < picks; i++ {
			idx := candidateAt(candidateLists, pos)
			if !seen[idx] {
				seen[idx] = true
				targets = append(targets, idx)
				tree.metanodes[idx].RefineFlag = 1
			}
			pos = (pos + period) % total
		}
	}

	root := tree.Root()
	if root >= 0 && !seen[root] {
		targets = append(targets, root)
		tree.metanodes[root].RefineFlag = 1
	}

	return targets
}
