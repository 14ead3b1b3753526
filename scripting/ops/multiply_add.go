package ops

import (
	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
	"github.com/skryldev/videoproc/tiling"
)

// multiplyAddOp applies an affine sample transform, out = clamp(in*mul +
// add, 0, 255), tiled across the execution substrate. Grounded on
// original_source/.../scripting/algorithms/multiply_add.cpp.
type multiplyAddOp struct{}

func (multiplyAddOp) Name() string { return "multiply_add" }

func (multiplyAddOp) Overloads() []scripting.Overload {
	return []scripting.Overload{
		{
			ArgTypes: []scripting.ItemType{scripting.TypeGray, scripting.TypeReal, scripting.TypeReal},
			Result:   scripting.TypeGray,
			Build: func(resultID int, args []scripting.ResolvedArg) (scripting.CompileFunc, error) {
				srcID := args[0].RefID
				mul := args[1].Real
				add := args[2].Real

				return func(ctx *scripting.Context, pool *execpool.Pool) error {
					srcItem, err := ctx.MustGet(srcID)
					if err != nil {
						return err
					}
					src := srcItem.Image()
					out := core.NewImage(src.W, src.H, src.P, src.Channels())

					cutoff := defaultCutoff(ctx)
					region := tiling.Region{X0: 0, Y0: 0, X1: src.W, Y1: src.H}
					tiling.Run(pool, region, cutoff, func(tile tiling.Region) {
						for y := tile.Y0; y < tile.Y1; y++ {
							for x := tile.X0; x < tile.X1; x++ {
								for c := 0; c < src.Channels(); c++ {
									v := float64(src.At(c, x, y))*mul + add
									out.Set(c, x, y, clampByte(v))
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

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func init() {
	scripting.Default.Register(multiplyAddOp{})
}
