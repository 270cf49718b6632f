package bvh

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestBoundsMetric(t *testing.T) {
	t.Run("unit cube has surface area 6", func(t *testing.T) {
		m := BoundsMetric(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1})
		test.That(t, m, test.ShouldEqual, 6.0)
	})

	t.Run("degenerate box is zero", func(t *testing.T) {
		m := BoundsMetric(r3.Vector{X: 1}, r3.Vector{X: 0})
		test.That(t, m, test.ShouldEqual, 0.0)
	})

	t.Run("flat box is nonzero", func(t *testing.T) {
		m := BoundsMetric(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 0})
		test.That(t, m, test.ShouldBeGreaterThan, 0.0)
	})
}

func TestUnionAABB(t *testing.T) {
	min, max := unionAABB(
		r3.Vector{X: -1, Y: 0, Z: 0}, r3.Vector{X: 0, Y: 1, Z: 1},
		r3.Vector{X: 0, Y: -1, Z: -1}, r3.Vector{X: 1, Y: 0, Z: 0},
	)
	test.That(t, min, test.ShouldResemble, r3.Vector{X: -1, Y: -1, Z: -1})
	test.That(t, max, test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 1})
}
