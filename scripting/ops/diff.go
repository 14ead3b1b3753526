package ops

import (
	"fmt"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
	"github.com/skryldev/videoproc/tiling"
	"github.com/skryldev/videoproc/videoerr"
)

// diffOp computes the absolute per-sample difference between two
// same-shaped images — the canonical inter-frame operation (spec.md §4.4),
// typically called on the two inputs, as in
// "a = input(); b = input(1); diff(a, b)". Grounded on
// original_source/.../scripting/algorithms/diff.cpp.
type diffOp struct{}

func (diffOp) Name() string { return "diff" }

func (diffOp) Overloads() []scripting.Overload {
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
						return videoerr.New(videoerr.CategoryInvalidParam, "ops.diff", fmt.Errorf("diff: operand shapes do not match"))
					}

					out := core.NewImage(a.W, a.H, a.P, a.Channels())
					cutoff := defaultCutoff(ctx)
					region := tiling.Region{X0: 0, Y0: 0, X1: a.W, Y1: a.H}
					tiling.Run(pool, region, cutoff, func(tile tiling.Region) {
						for y := tile.Y0; y < tile.Y1; y++ {
							for x := tile.X0; x < tile.X1; x++ {
								for c := 0; c < a.Channels(); c++ {
									av, bv := int(a.At(c, x, y)), int(b.At(c, x, y))
									d := av - bv
									if d < 0 {
										d = -d
									}
									out.Set(c, x, y, byte(d))
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
	scripting.Default.Register(diffOp{})
}
