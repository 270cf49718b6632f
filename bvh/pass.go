package bvh

import (
	"math"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Stats summarizes one frame's RefitAndRefine pass: the per-frame volatility signal the tuning
// functions consumed, and how much work each phase actually did, for a host to log or export.
type Stats struct {
	RefitCostChange       float64
	RefinementTargetCount int
	CacheOptimizeCount    int
	CandidateCount        int
}

func nonNilLogger(logger *zap.SugaredLogger) *zap.SugaredLogger {
	if logger != nil {
		return logger
	}
	return zap.NewNop().Sugar()
}

// RefitAndRefine runs one frame's worth of maintenance on tree: refit every leaf AABB change
// upward, rebuild the treelets that most need it, and cache-optimize a rotating slice of node
// storage. Trees with two or fewer leaves have no internal structure to maintain and this is a
// no-op. frameIndex selects which candidates are refined and which slots are cache-optimized;
// the choice depends only on frameIndex and the tree, not on earlier calls. A nil tuning uses
// DefaultTuning.
func RefitAndRefine(
	tree *Tree,
	pool BufferPool,
	dispatcher Dispatcher,
	frameIndex int,
	tuning *Tuning,
	logger *zap.SugaredLogger,
) (Stats, error) {
	logger = nonNilLogger(logger)

	if tree.LeafCount() <= 2 {
		return Stats{}, nil
	}
	if tuning == nil {
		tuning = DefaultTuning(tree.NodeCount())
	}

	for i := range tree.metanodes {
		if atomic.LoadInt32(&tree.metanodes[i].RefineFlag) != 0 {
			return Stats{}, errors.Wrap(ErrInvariantViolation, "RefineFlag nonzero at pass start")
		}
	}

	workerCount := dispatcher.WorkerCount()
	if workerCount < 1 {
		workerCount = 1
	}

	candidateLists := make([][]int32, workerCount)
	defer func() {
		for i := 0; i < workerCount; i++ {
			if candidateLists[i] != nil {
				dispatcher.ThreadMemoryPool(i).PutInt32Slice(candidateLists[i])
			}
		}
	}()
	for i := 0; i < workerCount; i++ {
		list, err := dispatcher.ThreadMemoryPool(i).GetInt32Slice(tuning.RefinementLeafCountThreshold)
		if err != nil {
			return Stats{}, errors.Wrap(ErrAllocationFailed, err.Error())
		}
		candidateLists[i] = list
	}

	refitRootsBuf, err := pool.GetInt32Slice(tree.NodeCount() / 2)
	if err != nil {
		return Stats{}, errors.Wrap(ErrAllocationFailed, err.Error())
	}
	defer pool.PutInt32Slice(refitRootsBuf)
	refitRoots := Collect(tree, workerCount, tuning.RefinementLeafCountThreshold, candidateLists, refitRootsBuf)

	refitCostChange, err := refitPhase(tree, dispatcher, refitRoots, candidateLists, tuning.RefinementLeafCountThreshold)
	if err != nil {
		return Stats{}, errors.Wrap(err, "refit phase")
	}

	targetsBuf, err := pool.GetInt32Slice(tuning.MaximumSubtrees)
	if err != nil {
		return Stats{}, errors.Wrap(ErrAllocationFailed, err.Error())
	}
	defer pool.PutInt32Slice(targetsBuf)
	targets := SelectRefinementTargets(tree, candidateLists, frameIndex, tuning.RefineAggressivenessScale, refitCostChange, targetsBuf)

	if err := refinePhase(tree, dispatcher, targets, tuning.MaximumSubtrees); err != nil {
		return Stats{}, errors.Wrap(err, "refine phase")
	}
	for _, idx := range targets {
		atomic.StoreInt32(&tree.metanodes[idx].RefineFlag, 0)
	}

	aggressiveness := math.Max(1, 0.25*float64(workerCount)) * tuning.CacheOptimizeAggressivenessScale
	cacheOptimizeCount := GetCacheOptimizeTuning(tuning.MaximumSubtrees, refitCostChange, aggressiveness)
	if cacheOptimizeCount > tree.NodeCount() {
		cacheOptimizeCount = tree.NodeCount()
	}
	cacheOptimizationTasks := 2 * workerCount
	perWorkerCacheOptimizeCount := cacheOptimizeCount / cacheOptimizationTasks
	if perWorkerCacheOptimizeCount < 1 {
		perWorkerCacheOptimizeCount = 1
	}
	starts := computeCacheOptimizeStarts(frameIndex, tree.NodeCount(), workerCount, perWorkerCacheOptimizeCount)

	if err := cacheOptimizePhase(tree, dispatcher, starts, perWorkerCacheOptimizeCount); err != nil {
		return Stats{}, errors.Wrap(err, "cache optimize phase")
	}

	stats := Stats{
		RefitCostChange:       refitCostChange,
		RefinementTargetCount: len(targets),
		CacheOptimizeCount:    cacheOptimizeCount,
		CandidateCount:        totalCandidates(candidateLists),
	}
	logger.Debugw("refit-and-refine pass complete",
		"frameIndex", frameIndex,
		"refitCostChange", stats.RefitCostChange,
		"refinementTargets", stats.RefinementTargetCount,
		"cacheOptimizeCount", stats.CacheOptimizeCount,
		"candidates", stats.CandidateCount,
	)
	return stats, nil
}

func refinePhase(tree *Tree, dispatcher Dispatcher, targets []int32, maximumSubtrees int) error {
	var claim int32 = -1
	return dispatcher.Dispatch(func(workerIndex int) {
		for {
			idx := atomic.AddInt32(&claim, 1)
			if int(idx) >= len(targets) {
				return
			}
			tree.BinnedRefine(targets[idx], maximumSubtrees)
		}
	})
}

// MustRefitAndRefine wraps RefitAndRefine for callers that have already checked LeafCount
// themselves and want a hard failure, not a silent no-op, if the tree turns out to be too small.
// It panics with ErrTreeNotRefittable when LeafCount is 2 or fewer, without calling
// RefitAndRefine, and otherwise panics on any error RefitAndRefine returns.
func MustRefitAndRefine(tree *Tree, pool BufferPool, dispatcher Dispatcher, frameIndex int, tuning *Tuning, logger *zap.SugaredLogger) Stats {
	if tree.LeafCount() <= 2 {
		panic(ErrTreeNotRefittable)
	}
	stats, err := RefitAndRefine(tree, pool, dispatcher, frameIndex, tuning, logger)
	if err != nil {
		panic(err)
	}
	return stats
}
