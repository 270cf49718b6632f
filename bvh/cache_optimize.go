package bvh

import (
	"math"
	"sync/atomic"
)

// IncrementalCacheOptimizeThreadSafe nudges node storage back toward parent-child adjacency: if
// nodeIndex's child A is an internal node not already at nodeIndex+1, it is swapped into that
// slot. The swap is guarded by a pair of shard-local mutexes selected by node index, acquired with
// TryLock in ascending-index order; a worker that cannot win both locks simply skips this call
// rather than blocking, which is what makes it safe to invoke from many workers at once on
// possibly-overlapping slot ranges.
func (t *Tree) IncrementalCacheOptimizeThreadSafe(nodeIndex int32) {
	if int(nodeIndex)+1 >= len(t.nodes) {
		return
	}

	aIndex := t.nodes[nodeIndex].A.Index
	target := nodeIndex + 1
	if aIndex < 0 || aIndex == target {
		return
	}

	lo, hi := aIndex, target
	if lo > hi {
		lo, hi = hi, lo
	}
	lockLo, lockHi := t.shardFor(lo), t.shardFor(hi)

	if !lockLo.TryLock() {
		return
	}
	defer lockLo.Unlock()
	if lockLo != lockHi {
		if !lockHi.TryLock() {
			return
		}
		defer lockHi.Unlock()
	}

	// Re-validate under lock: another worker may have already moved A since the initial read.
	if t.nodes[nodeIndex].A.Index != aIndex || aIndex == target {
		return
	}
	t.swapNodeSlots(aIndex, target)
}

// swapNodeSlots exchanges the contents of two internal-node slots and repairs every pointer that
// named either slot by index: the external child record that pointed at the node now living
// elsewhere, and the Parent back-reference of whichever node's children moved along with it.
// Callers must already hold whatever locking this requires; slot 0 (the root) is never passed
// here since it is never anyone's child.
func (t *Tree) swapNodeSlots(i, j int32) {
	if i == j {
		return
	}

	// remap translates a pre-swap slot reference into where that content lives after the swap:
	// i and j trade places, everything else is unaffected. This matters when i or j is itself a
	// parent or child of the other slot — a reference recorded before the swap as "i" or "j" must
	// follow the content, not the slot number.
	remap := func(slot int32) int32 {
		switch slot {
		case i:
			return j
		case j:
			return i
		default:
			return slot
		}
	}

	t.nodes[i], t.nodes[j] = t.nodes[j], t.nodes[i]
	t.metanodes[i], t.metanodes[j] = t.metanodes[j], t.metanodes[i]

	// Remap every pre-swap reference the moved content carries before patching anything, so that
	// no reference is remapped twice.
	for _, slot := range [2]int32{i, j} {
		if t.metanodes[slot].Parent >= 0 {
			t.metanodes[slot].Parent = remap(t.metanodes[slot].Parent)
		}
		for k := 0; k < 2; k++ {
			if child := t.nodes[slot].childAt(k); child.Index >= 0 {
				child.Index = remap(child.Index)
			}
		}
	}
	for _, slot := range [2]int32{i, j} {
		if t.metanodes[slot].Parent >= 0 {
			t.childRef(t.metanodes[slot].Parent, t.metanodes[slot].IndexInParent).Index = slot
		}
		t.fixChildren(slot)
	}
}

func (t *Tree) fixChildren(slot int32) {
	node := &t.nodes[slot]
	for i := 0; i < 2; i++ {
		child := node.childAt(i)
		if child.Index < 0 {
			continue
		}
		t.metanodes[child.Index].Parent = slot
		t.metanodes[child.Index].IndexInParent = int8(i)
	}
}

// GetCacheOptimizeTuning derives how many slots to cache-optimize this frame from maximumSubtrees
// and the frame's refitCostChange, the same volatility signal GetRefineTuning consumes: a tree
// that moved more this frame earns more cache-optimization passes. aggressivenessScale already
// folds in the caller's worker-count-derived scaling per RefitAndRefine's contract.
func GetCacheOptimizeTuning(maximumSubtrees int, refitCostChange float64, aggressivenessScale float64) int {
	base := float64(maximumSubtrees) * (1 + 4*refitCostChange)
	count := int(math.Ceil(base * aggressivenessScale))
	if count < 1 {
		count = 1
	}
	return count
}

// computeCacheOptimizeStarts derives the starting slot for each of 2*workerCount cache-optimize
// tasks this frame. The first task's start rotates with frameIndex so the same slots are not
// cache-optimized every frame; subsequent starts are spaced by nodeCount/workerCount, with the
// first (nodeCount mod workerCount) of them getting an extra +1 so every slot is eventually
// covered despite uneven division, all wrapping modulo nodeCount.
func computeCacheOptimizeStarts(frameIndex, nodeCount, workerCount, perWorkerCacheOptimizeCount int) []int32 {
	taskCount := 2 * workerCount
	starts := make([]int32, taskCount)
	if nodeCount == 0 {
		return starts
	}

	pos := (frameIndex * perWorkerCacheOptimizeCount) % nodeCount
	baseSpacing := nodeCount / workerCount
	bump := nodeCount % workerCount

	for i := 0; i < taskCount; i++ {
		starts[i] = int32(pos % nodeCount)
		spacing := baseSpacing
		if i < bump {
			spacing++
		}
		pos += spacing
	}
	return starts
}

// cacheOptimizePhase dispatches one worker per available slot, each repeatedly claiming the next
// unclaimed task index and cache-optimizing its assigned [start, start+perWorkerCacheOptimizeCount)
// slot range, clipped at nodeCount — no task wraps around the end of the node array.
func cacheOptimizePhase(tree *Tree, dispatcher Dispatcher, starts []int32, perWorkerCacheOptimizeCount int) error {
	var claim int32 = -1
	nodeCount := int32(tree.NodeCount())

	return dispatcher.Dispatch(func(workerIndex int) {
		for {
			idx := atomic.AddInt32(&claim, 1)
			if int(idx) >= len(starts) {
				return
			}

			start := starts[idx]
			end := start + int32(perWorkerCacheOptimizeCount)
			if end > nodeCount {
				end = nodeCount
			}
			for slot := start; slot < end; slot++ {
				tree.IncrementalCacheOptimizeThreadSafe(slot)
			}
		}
	})
}
