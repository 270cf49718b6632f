package bvh

import bvhutils "github.com/viamrobotics-labs/bvhrefit/utils"

// Tuning carries the knobs RefitAndRefine's three phases read. There is no config-file or flag
// layer here — callers that want these to be user-adjustable at runtime own that themselves and
// pass in a *Tuning built from whatever source they like.
type Tuning struct {
	// MaximumSubtrees bounds how many subtree roots BinnedRefine's treelet collapse collects
	// before rebuilding.
	MaximumSubtrees int
	// RefinementLeafCountThreshold is the leaf-count ceiling at or below which a node is a
	// wavefront node and becomes a refinement candidate.
	RefinementLeafCountThreshold int
	// RefineAggressivenessScale scales GetRefineTuning's target count this frame.
	RefineAggressivenessScale float64
	// CacheOptimizeAggressivenessScale scales GetCacheOptimizeTuning's slot count this frame.
	CacheOptimizeAggressivenessScale float64
}

// DefaultTuning derives reasonable defaults from the tree's node count: a larger tree tolerates
// (and benefits from) larger treelets and a higher wavefront threshold.
func DefaultTuning(nodeCount int) *Tuning {
	refinementThreshold := bvhutils.MaxInt(7, nodeCount/512)
	return &Tuning{
		MaximumSubtrees:                  bvhutils.MaxInt(7, refinementThreshold),
		RefinementLeafCountThreshold:     refinementThreshold,
		RefineAggressivenessScale:        1,
		CacheOptimizeAggressivenessScale: 1,
	}
}
