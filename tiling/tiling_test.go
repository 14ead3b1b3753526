package tiling_test

import (
	"sync"
	"testing"

	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/tiling"
)

// TestRun_PartitionsWholeRegion exercises spec.md §8's "the union of child
// tile regions equals the parent region, and their pairwise intersection is
// empty": every pixel of a 37x29 region (deliberately not a power of two)
// must be touched by the kernel exactly once.
func TestRun_PartitionsWholeRegion(t *testing.T) {
	pool := execpool.New(4)
	defer pool.Close()

	const w, h = 37, 29
	var mu sync.Mutex
	hits := make([][]int, h)
	for y := range hits {
		hits[y] = make([]int, w)
	}

	region := tiling.Region{X0: 0, Y0: 0, X1: w, Y1: h}
	tiling.Run(pool, region, tiling.Cutoff{X: 5, Y: 5}, func(tile tiling.Region) {
		mu.Lock()
		defer mu.Unlock()
		for y := tile.Y0; y < tile.Y1; y++ {
			for x := tile.X0; x < tile.X1; x++ {
				hits[y][x]++
			}
		}
	})

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if hits[y][x] != 1 {
				t.Fatalf("pixel (%d,%d) touched %d times, want exactly 1", x, y, hits[y][x])
			}
		}
	}
}

// TestRun_DegenerateCutoffInvokesKernelOnce exercises spec.md §8's
// "tile(I, cutoff >= max(W,H)) == kernel(I)".
func TestRun_DegenerateCutoffInvokesKernelOnce(t *testing.T) {
	pool := execpool.New(2)
	defer pool.Close()

	var calls int
	var mu sync.Mutex
	region := tiling.Region{X0: 0, Y0: 0, X1: 10, Y1: 6}
	tiling.Run(pool, region, tiling.Cutoff{X: 10, Y: 6}, func(tile tiling.Region) {
		mu.Lock()
		calls++
		got := tile
		mu.Unlock()
		if got != region {
			t.Errorf("degenerate cutoff tile: got %+v, want whole region %+v", got, region)
		}
	})
	if calls != 1 {
		t.Errorf("kernel called %d times, want 1", calls)
	}
}

// TestRun_CutoffOneInvokesKernelPerPixel exercises spec.md §8's "tile
// cutoff = 1: kernel is invoked per pixel."
func TestRun_CutoffOneInvokesKernelPerPixel(t *testing.T) {
	pool := execpool.New(4)
	defer pool.Close()

	const w, h = 5, 4
	var mu sync.Mutex
	var calls int
	region := tiling.Region{X0: 0, Y0: 0, X1: w, Y1: h}
	tiling.Run(pool, region, tiling.Cutoff{X: 1, Y: 1}, func(tile tiling.Region) {
		if tile.Width() != 1 || tile.Height() != 1 {
			t.Errorf("leaf tile %+v is not a single pixel", tile)
		}
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if calls != w*h {
		t.Errorf("kernel called %d times, want %d", calls, w*h)
	}
}

func TestSplit_HalvesLargerDimension_TieBreaksY(t *testing.T) {
	pool := execpool.New(2)
	defer pool.Close()

	// A square region: ties must split Y before X (spec.md §4.9). With
	// cutoff 8x4 the single tie split already yields 8x4 leaves, so every
	// leaf tile spans the full width only if that split went along Y.
	var mu sync.Mutex
	var tiles []tiling.Region
	region := tiling.Region{X0: 0, Y0: 0, X1: 8, Y1: 8}
	tiling.Run(pool, region, tiling.Cutoff{X: 8, Y: 4}, func(tile tiling.Region) {
		mu.Lock()
		tiles = append(tiles, tile)
		mu.Unlock()
	})
	for _, tile := range tiles {
		if tile.X0 != 0 || tile.X1 != 8 {
			t.Errorf("square region with cutoff.Y < cutoff.X should split along Y first, got tile %+v", tile)
		}
	}
}

// TestReduce_MatchesAssociativeMergeAcrossCutoffs exercises spec.md §8's
// tile-histogram scenario: a full-image reduction must agree regardless of
// how finely the scheduler subdivides.
func TestReduce_MatchesAssociativeMergeAcrossCutoffs(t *testing.T) {
	pool := execpool.New(4)
	defer pool.Close()

	const size = 64
	grid := make([][]byte, size)
	for y := range grid {
		grid[y] = make([]byte, size)
		for x := range grid[y] {
			grid[y][x] = byte((x*7 + y*13) % 256)
		}
	}

	sum := func(tile tiling.Region) int {
		var total int
		for y := tile.Y0; y < tile.Y1; y++ {
			for x := tile.X0; x < tile.X1; x++ {
				total += int(grid[y][x])
			}
		}
		return total
	}
	merge := func(a, b int) int { return a + b }

	region := tiling.Region{X0: 0, Y0: 0, X1: size, Y1: size}
	fine := tiling.Reduce(pool, region, tiling.Cutoff{X: 8, Y: 8}, sum, merge)
	coarse := tiling.Reduce(pool, region, tiling.Cutoff{X: 1024, Y: 1024}, sum, merge)

	if fine != coarse {
		t.Errorf("reduction depends on cutoff: fine=%d coarse=%d", fine, coarse)
	}
}

func TestClampReflect(t *testing.T) {
	tests := []struct {
		name       string
		mode       tiling.BorderMode
		v, n       int
		wantResult int
		wantOK     bool
	}{
		{"in-bounds", tiling.BorderIgnore, 3, 10, 3, true},
		{"ignore-out-of-bounds", tiling.BorderIgnore, -1, 10, 0, false},
		{"constant-out-of-bounds", tiling.BorderConstant, -1, 10, -1, true},
		{"mirror-below-zero", tiling.BorderMirror, -1, 10, 0, true},
		{"mirror-above-max", tiling.BorderMirror, 10, 10, 9, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tiling.ClampReflect(tc.mode, tc.v, tc.n)
			if got != tc.wantResult || ok != tc.wantOK {
				t.Errorf("ClampReflect(%v,%d,%d) = (%d,%v), want (%d,%v)",
					tc.mode, tc.v, tc.n, got, ok, tc.wantResult, tc.wantOK)
			}
		})
	}
}
