package utils

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
)

// ParallelFactor controls the default number of workers a caller should use when it has no
// stronger opinion (e.g. sizing a worker pool for a benchmark or test fixture).
var ParallelFactor = func() int {
	n := runtime.GOMAXPROCS(0)
	if n <= 0 {
		return 1
	}
	return n
}()

// WorkerFunc is invoked once per worker index by DispatchWorkers.
type WorkerFunc func(workerIndex int)

// DispatchWorkers runs fn on workerCount goroutines, one per worker index, and blocks until all
// of them return. A panic in any worker is recovered and folded into the returned error instead
// of taking down the caller; every worker still runs to completion.
func DispatchWorkers(workerCount int, fn WorkerFunc) error {
	if workerCount <= 0 {
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, workerCount)
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		workerIndex := i
		goutils.PanicCapturingGo(func() {
			defer wg.Done()
			defer func() {
				if thePanic := recover(); thePanic != nil {
					errs[workerIndex] = fmt.Errorf("worker %d panicked: %v", workerIndex, thePanic)
				}
			}()
			fn(workerIndex)
		})
	}
	wg.Wait()

	var combined error
	for _, err := range errs {
		combined = multierr.Append(combined, err)
	}
	return combined
}
