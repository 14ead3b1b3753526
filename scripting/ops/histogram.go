package ops

import (
	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
	"github.com/skryldev/videoproc/tiling"
)

// histogramOp accumulates the sample histogram of an image via the tiling
// reducer, exercising the merge-associativity property spec.md §8
// describes. Grounded on
// original_source/.../algorithms/histogram_equalization.cpp.
type histogramOp struct{}

func (histogramOp) Name() string { return "histogram" }

func (histogramOp) Overloads() []scripting.Overload {
	return []scripting.Overload{
		{
			ArgTypes: []scripting.ItemType{scripting.TypeGray},
			Result:   scripting.TypeHistogram,
			Build: func(resultID int, args []scripting.ResolvedArg) (scripting.CompileFunc, error) {
				srcID := args[0].RefID

				return func(ctx *scripting.Context, pool *execpool.Pool) error {
					srcItem, err := ctx.MustGet(srcID)
					if err != nil {
						return err
					}
					src := srcItem.Image()

					cutoff := defaultCutoff(ctx)
					region := tiling.Region{X0: 0, Y0: 0, X1: src.W, Y1: src.H}
					hist := tiling.Reduce(pool, region, cutoff,
						func(tile tiling.Region) core.Histogram {
							var h core.Histogram
							for y := tile.Y0; y < tile.Y1; y++ {
								for x := tile.X0; x < tile.X1; x++ {
									h.Add(src.At(0, x, y))
								}
							}
							return h
						},
						core.Merge,
					)

					ctx.Store(resultID, scripting.Item{Type: scripting.TypeHistogram, Hist: hist})
					return nil
				}, nil
			},
		},
	}
}

func init() {
	scripting.Default.Register(histogramOp{})
}
