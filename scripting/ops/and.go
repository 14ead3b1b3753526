package ops

import (
	"fmt"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
	"github.com/skryldev/videoproc/tiling"
	"github.com/skryldev/videoproc/videoerr"
)

// andOp computes the per-sample bitwise AND of two same-shaped images,
// typically used to mask a frame with a binary_threshold result. Grounded
// on original_source/.../scripting/algorithms/and.cpp.
type andOp struct{}

func (andOp) Name() string { return "and" }

func (andOp) Overloads() []scripting.Overload {
	return []scripting.Overload{
		{
			ArgTypes: []scripting.ItemType{scripting.TypeGray, scripting.TypeGray},
			Result:   scripting.TypeGray,
			Build: func(resultID int, args []scripting.ResolvedArg) (scripting.CompileFunc, error) {
				aID, bID := args[0].RefID, args[1].RefID

				return func(ctx *scripting.Context, pool *execpool.Pool) error {
					aItem, err := ctx.MustGet(aID)
					if err != nil {
						return err
					}
					bItem, err := ctx.MustGet(bID)
					if err != nil {
						return err
					}
					a, b := aItem.Image(), bItem.Image()
					if !a.SameShape(b) {
						return videoerr.New(videoerr.CategoryInvalidParam, "ops.and", fmt.Errorf("and: operand shapes do not match"))
					}

					out := core.NewImage(a.W, a.H, a.P, a.Channels())
					cutoff := defaultCutoff(ctx)
					region := tiling.Region{X0: 0, Y0: 0, X1: a.W, Y1: a.H}
					tiling.Run(pool, region, cutoff, func(tile tiling.Region) {
						for y := tile.Y0; y < tile.Y1; y++ {
							for x := tile.X0; x < tile.X1; x++ {
								for c := 0; c < a.Channels(); c++ {
									out.Set(c, x, y, a.At(c, x, y)&b.At(c, x, y))
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
	scripting.Default.Register(andOp{})
}
