package ops

import (
	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
	"github.com/skryldev/videoproc/tiling"
)

// thresholdOp maps every sample to 0 or 255 against a caller-supplied fixed
// cutoff, as distinct from binary_threshold's Otsu-computed cutoff.
// Grounded on original_source/.../scripting/algorithms/threshold.cpp.
type thresholdOp struct{}

func (thresholdOp) Name() string { return "threshold" }

func (thresholdOp) Overloads() []scripting.Overload {
	return []scripting.Overload{
		{
			ArgTypes: []scripting.ItemType{scripting.TypeGray, scripting.TypeInt},
			Result:   scripting.TypeGray,
			Build: func(resultID int, args []scripting.ResolvedArg) (scripting.CompileFunc, error) {
				srcID := args[0].RefID
				cutoff := byte(args[1].Int)

				return func(ctx *scripting.Context, pool *execpool.Pool) error {
					srcItem, err := ctx.MustGet(srcID)
					if err != nil {
						return err
					}
					src := srcItem.Image()
					out := core.NewImage(src.W, src.H, src.P, 1)

					tileCutoff := defaultCutoff(ctx)
					region := tiling.Region{X0: 0, Y0: 0, X1: src.W, Y1: src.H}
					tiling.Run(pool, region, tileCutoff, func(tile tiling.Region) {
						for y := tile.Y0; y < tile.Y1; y++ {
							for x := tile.X0; x < tile.X1; x++ {
								if src.At(0, x, y) > cutoff {
									out.Set(0, x, y, 255)
								} else {
									out.Set(0, x, y, 0)
								}
							}
						}
					})

					ctx.Store(resultID, scripting.Item{Type: scripting.TypeGray, Gray: out})
					return nil
				}, nil
			},
		},
	}
}

func init() {
	scripting.Default.Register(thresholdOp{})
}
