package bvh

import (
	"math"

	"github.com/golang/geo/r3"
)

// AABB is an axis-aligned bounding box, the unit of geometry a caller hands the tree builder and
// the pass works in internally.
type AABB struct {
	Min, Max r3.Vector
}

// BoundsMetric is the surface-area heuristic cost of a box: its surface area, or zero for a
// degenerate (inverted) box. Refit measures the change in this metric over the nodes it touches;
// refine's SAH split minimizes it.
func BoundsMetric(min, max r3.Vector) float64 {
	e := max.Sub(min)
	if e.X < 0 || e.Y < 0 || e.Z < 0 {
		return 0
	}
	return 2 * (e.X*e.Y + e.Y*e.Z + e.Z*e.X)
}

func minVec(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func maxVec(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

func unionAABB(aMin, aMax, bMin, bMax r3.Vector) (r3.Vector, r3.Vector) {
	return minVec(aMin, bMin), maxVec(aMax, bMax)
}

func unionAll(boxes []AABB) (r3.Vector, r3.Vector) {
	min, max := boxes[0].Min, boxes[0].Max
	for _, b := range boxes[1:] {
		min, max = unionAABB(min, max, b.Min, b.Max)
	}
	return min, max
}

func vecAxis(v r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func centroid(min, max r3.Vector) r3.Vector {
	return min.Add(max).Mul(0.5)
}
