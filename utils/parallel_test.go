package utils

import (
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestDispatchWorkers(t *testing.T) {
	t.Run("runs every worker index exactly once", func(t *testing.T) {
		var calls int32
		seen := make([]int32, 4)
		err := DispatchWorkers(4, func(workerIndex int) {
			atomic.AddInt32(&calls, 1)
			atomic.AddInt32(&seen[workerIndex], 1)
		})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, calls, test.ShouldEqual, int32(4))
		for _, c := range seen {
			test.That(t, c, test.ShouldEqual, int32(1))
		}
	})

	t.Run("zero workers is a no-op", func(t *testing.T) {
		called := false
		err := DispatchWorkers(0, func(workerIndex int) { called = true })
		test.That(t, err, test.ShouldBeNil)
		test.That(t, called, test.ShouldBeFalse)
	})

	t.Run("a panicking worker is recovered and reported without stopping the rest", func(t *testing.T) {
		var ran int32
		err := DispatchWorkers(3, func(workerIndex int) {
			if workerIndex == 1 {
				panic("boom")
			}
			atomic.AddInt32(&ran, 1)
		})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, ran, test.ShouldEqual, int32(2))
	})
}
