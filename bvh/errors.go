package bvh

import "errors"

var (
	// ErrAllocationFailed is returned when a BufferPool's GetInt32Slice call fails mid-pass. Every
	// such failure happens either before Collect writes any RefineFlag or after the refit phase
	// has cleared them all, so every RefineFlag is zero and a subsequent pass can proceed normally.
	ErrAllocationFailed = errors.New("bvh: buffer pool allocation failed")

	// ErrInvariantViolation is returned by RefitAndRefine's pre-pass debug assertion when a
	// node's RefineFlag is nonzero at the start of a frame, which can only happen if a previous
	// pass was aborted without going through its cleanup path.
	ErrInvariantViolation = errors.New("bvh: invariant violation detected")

	// ErrTreeNotRefittable is the value MustRefitAndRefine panics with (RefitAndRefine itself never
	// returns it, and treats a leafCount of 2 or fewer as a silent no-op) when a caller forces a
	// refit on a tree too small to have any internal structure to maintain.
	ErrTreeNotRefittable = errors.New("bvh: tree has too few leaves to refit")
)
