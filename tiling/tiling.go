// Package tiling implements the recursive 2D divide-and-conquer scheduler
// spec.md §4.9 describes: each image-shaped operation is subdivided down to
// a cutoff tile size, kernels run in parallel across the execution
// substrate's worker pool, and reduction-shaped operations additionally
// supply merge functors that combine child results as the recursion
// unwinds. Grounded on original_source/src/libcvpg/imageproc/algorithms/
// tiling.{hpp,cpp} and tiling/mean.cpp's tile-splitting discipline, adapted
// from the teacher's goroutine-per-unit-of-work style in core/processor.go.
package tiling

import (
	"sync"

	"github.com/skryldev/videoproc/execpool"
)

// BorderMode is the sampling policy a kernel uses when it reads outside its
// tile's bounds.
type BorderMode int

const (
	// BorderIgnore leaves a half-kernel margin untouched.
	BorderIgnore BorderMode = iota
	// BorderConstant treats out-of-bounds samples as 0.
	BorderConstant
	// BorderMirror reflects the sample position around the edge.
	BorderMirror
)

// Region is an axis-aligned half-open [X0,X1) x [Y0,Y1) subdivision target.
type Region struct {
	X0, Y0, X1, Y1 int
}

// Width and Height of the region.
func (r Region) Width() int  { return r.X1 - r.X0 }
func (r Region) Height() int { return r.Y1 - r.Y0 }

// Kernel runs on one leaf tile.
type Kernel func(r Region)

// Cutoff is the largest leaf tile size: once a region's width is at most X
// and its height at most Y, the scheduler stops subdividing and invokes the
// kernel directly.
type Cutoff struct {
	X, Y int
}

// Run recursively subdivides region until both dimensions are at or below
// the cutoff, then invokes kernel on each leaf tile in parallel via pool. Run
// blocks until every leaf tile has completed.
//
// Tile splits halve the larger dimension; ties split Y before X, matching
// spec.md §4.9's "Tile splits halve the larger dimension; tie-break: Y
// before X." Degenerate cutoffs (>= max(W,H)) invoke the kernel exactly once
// over the whole region, per spec.md §8's round-trip property.
func Run(pool *execpool.Pool, region Region, cutoff Cutoff, kernel Kernel) {
	runRegion(pool, region, cutoff, kernel)
}

// runRegion recurses on plain goroutines, never on the pool: only leaf tiles
// are submitted to pool.Go. A fixed-size Pool has exactly `workers`
// goroutines ever reading its task channel, so routing the recursive
// split/join itself through pool.Go would let a deep enough tree park every
// worker on a blocked child wait with nobody left to dequeue that child's
// task — recursion depth is bounded only by image size, not worker count,
// so that bound is trivially exceeded. Plain goroutines carry no such limit;
// only the actual per-tile compute work is worker-bounded.
func runRegion(pool *execpool.Pool, r Region, cutoff Cutoff, kernel Kernel) {
	if r.Width() <= cutoff.X && r.Height() <= cutoff.Y {
		done := make(chan struct{})
		pool.Go(func() { kernel(r); close(done) })
		<-done
		return
	}

	left, right := split(r)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); runRegion(pool, left, cutoff, kernel) }()
	go func() { defer wg.Done(); runRegion(pool, right, cutoff, kernel) }()
	wg.Wait()
}

// split halves the larger dimension of r; when both dimensions are equal,
// splits along Y first.
func split(r Region) (Region, Region) {
	w, h := r.Width(), r.Height()
	if h >= w {
		mid := r.Y0 + h/2
		return Region{r.X0, r.Y0, r.X1, mid}, Region{r.X0, mid, r.X1, r.Y1}
	}
	mid := r.X0 + w/2
	return Region{r.X0, r.Y0, mid, r.Y1}, Region{mid, r.Y0, r.X1, r.Y1}
}

// MergeFunc combines two child reduction results into one parent result. It
// must be associative and commutative: merge(a, merge(b, c)) ==
// merge(merge(a, b), c) and merge(a, b) == merge(b, a), per spec.md §8, so
// the scheduler's recursion order never changes the final value.
type MergeFunc[T any] func(a, b T) T

// ReduceKernel computes a partial reduction result over one leaf tile.
type ReduceKernel[T any] func(r Region) T

// Reduce recursively subdivides region exactly like Run, but each leaf
// produces a value of type T and parent nodes combine child values with
// merge as the recursion unwinds. Used by histogram-shaped operations
// (spec.md §3's Histogram, §8's merge associativity property).
func Reduce[T any](pool *execpool.Pool, region Region, cutoff Cutoff, kernel ReduceKernel[T], merge MergeFunc[T]) T {
	return reduceRegion(pool, region, cutoff, kernel, merge)
}

// reduceRegion follows runRegion's rule: recursion runs on plain goroutines,
// only leaf tiles go through pool.Go, so the bounded pool is never asked to
// block a worker on a child it would itself need to dequeue.
func reduceRegion[T any](pool *execpool.Pool, r Region, cutoff Cutoff, kernel ReduceKernel[T], merge MergeFunc[T]) T {
	if r.Width() <= cutoff.X && r.Height() <= cutoff.Y {
		out := make(chan T, 1)
		pool.Go(func() { out <- kernel(r) })
		return <-out
	}

	left, right := split(r)

	var a, b T
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); a = reduceRegion(pool, left, cutoff, kernel, merge) }()
	go func() { defer wg.Done(); b = reduceRegion(pool, right, cutoff, kernel, merge) }()
	wg.Wait()
	return merge(a, b)
}

// ClampReflect maps an out-of-bounds sample coordinate according to mode,
// for kernels that sample outside their tile. BorderMirror maps it back
// into [0, n); BorderConstant returns -1 and the caller substitutes 0; for
// BorderIgnore, ok is false and the caller must skip the sample.
func ClampReflect(mode BorderMode, v, n int) (result int, ok bool) {
	if v >= 0 && v < n {
		return v, true
	}
	switch mode {
	case BorderConstant:
		return -1, true // caller substitutes 0
	case BorderMirror:
		if v < 0 {
			return -v - 1, true
		}
		return 2*n - v - 1, true
	default: // BorderIgnore
		return 0, false
	}
}
