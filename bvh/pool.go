package bvh

import "sync"

// BufferPool is the injected allocation capability the pass uses for its per-frame scratch
// buffers: refit-roots, refinement targets, and (via a Dispatcher's per-worker pool) candidate
// lists. Cache-optimize start positions are allocated directly, not from the pool. A host that wants frame-to-frame allocations off
// the GC entirely can supply its own arena-backed implementation; GetInt32Slice returning an
// error lets such an implementation report exhaustion instead of panicking.
type BufferPool interface {
	// GetInt32Slice returns a slice with length 0 and capacity at least minCapacity.
	GetInt32Slice(minCapacity int) ([]int32, error)
	// PutInt32Slice returns a slice obtained from GetInt32Slice for reuse.
	PutInt32Slice(s []int32)
}

// DefaultBufferPool is a sync.Pool-backed BufferPool. Its GetInt32Slice never fails.
type DefaultBufferPool struct {
	pool sync.Pool
}

// NewDefaultBufferPool returns a ready-to-use DefaultBufferPool.
func NewDefaultBufferPool() *DefaultBufferPool {
	return &DefaultBufferPool{
		pool: sync.Pool{
			New: func() any { return make([]int32, 0, 64) },
		},
	}
}

func (p *DefaultBufferPool) GetInt32Slice(minCapacity int) ([]int32, error) {
	s := p.pool.Get().([]int32)[:0]
	if cap(s) < minCapacity {
		s = make([]int32, 0, minCapacity)
	}
	return s, nil
}

func (p *DefaultBufferPool) PutInt32Slice(s []int32) {
	p.pool.Put(s[:0])
}
