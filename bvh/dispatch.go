package bvh

import (
	bvhutils "github.com/viamrobotics-labs/bvhrefit/utils"
)

// WorkerFunc is invoked once per worker index by a Dispatcher.
type WorkerFunc func(workerIndex int)

// Dispatcher is the injected parallelism capability RefitAndRefine runs its three phases
// through. A host embedding this package in a larger runtime can supply its own Dispatcher to
// reuse an existing worker pool instead of spinning up goroutines per frame.
type Dispatcher interface {
	// WorkerCount reports how many workers Dispatch will invoke.
	WorkerCount() int
	// Dispatch invokes action(workerIndex) once for every workerIndex in [0, WorkerCount()),
	// blocking until all of them return, and folds any worker failure into the returned error.
	Dispatch(action WorkerFunc) error
	// ThreadMemoryPool returns the BufferPool a given worker should allocate its thread-local
	// scratch buffers (such as a refit-and-mark worker's candidate list) from.
	ThreadMemoryPool(workerIndex int) BufferPool
}

// DefaultDispatcher is a goroutine-per-worker Dispatcher built on the package's adapted
// DispatchWorkers helper, with one DefaultBufferPool per worker.
type DefaultDispatcher struct {
	workerCount int
	pools       []*DefaultBufferPool
}

// NewDefaultDispatcher returns a DefaultDispatcher with the given worker count (clamped to at
// least 1) and a fresh thread-local pool per worker.
func NewDefaultDispatcher(workerCount int) *DefaultDispatcher {
	if workerCount < 1 {
		workerCount = 1
	}
	d := &DefaultDispatcher{
		workerCount: workerCount,
		pools:       make([]*DefaultBufferPool, workerCount),
	}
	for i := range d.pools {
		d.pools[i] = NewDefaultBufferPool()
	}
	return d
}

func (d *DefaultDispatcher) WorkerCount() int {
	return d.workerCount
}

func (d *DefaultDispatcher) ThreadMemoryPool(workerIndex int) BufferPool {
	return d.pools[workerIndex]
}

func (d *DefaultDispatcher) Dispatch(action WorkerFunc) error {
	return bvhutils.DispatchWorkers(d.workerCount, bvhutils.WorkerFunc(action))
}
