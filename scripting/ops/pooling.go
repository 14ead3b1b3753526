package ops

import (
	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
	"github.com/skryldev/videoproc/tiling"
)

// poolingOp downsamples an image by taking the maximum sample in each
// poolW x poolH block. Grounded on
// original_source/.../scripting/algorithms/pooling.cpp.
type poolingOp struct{}

func (poolingOp) Name() string { return "pooling" }

func (poolingOp) Overloads() []scripting.Overload {
	return []scripting.Overload{
		{
			ArgTypes: []scripting.ItemType{scripting.TypeGray, scripting.TypeInt, scripting.TypeInt},
			Result:   scripting.TypeGray,
			Build: func(resultID int, args []scripting.ResolvedArg) (scripting.CompileFunc, error) {
				srcID := args[0].RefID
				poolW := int(args[1].Int)
				poolH := int(args[2].Int)

				return func(ctx *scripting.Context, pool *execpool.Pool) error {
					srcItem, err := ctx.MustGet(srcID)
					if err != nil {
						return err
					}
					src := srcItem.Image()
					outW, outH := src.W/poolW, src.H/poolH
					out := core.NewImage(outW, outH, 0, 1)

					cutoff := defaultCutoff(ctx)
					region := tiling.Region{X0: 0, Y0: 0, X1: outW, Y1: outH}
					tiling.Run(pool, region, cutoff, func(tile tiling.Region) {
						for oy := tile.Y0; oy < tile.Y1; oy++ {
							for ox := tile.X0; ox < tile.X1; ox++ {
								var maxV byte
								for dy := 0; dy < poolH; dy++ {
									for dx := 0; dx < poolW; dx++ {
										v := src.At(0, ox*poolW+dx, oy*poolH+dy)
										if v > maxV {
											maxV = v
										}
									}
								}
								out.Set(0, ox, oy, maxV)
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
	scripting.Default.Register(poolingOp{})
}
