package ops

import (
	"math"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
	"github.com/skryldev/videoproc/tiling"
)

// sobelOp computes the Sobel gradient magnitude at each sample, clamped
// into 8-bit range. Grounded on
// original_source/.../algorithms/tiling/sobel.cpp.
type sobelOp struct{}

func (sobelOp) Name() string { return "sobel" }

var sobelGx = [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
var sobelGy = [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

func (sobelOp) Overloads() []scripting.Overload {
	return []scripting.Overload{
		{
			ArgTypes: []scripting.ItemType{scripting.TypeGray, scripting.TypeString},
			Result:   scripting.TypeGray,
			Build: func(resultID int, args []scripting.ResolvedArg) (scripting.CompileFunc, error) {
				srcID := args[0].RefID
				border := parseBorderMode(args[1].Str)

				return func(ctx *scripting.Context, pool *execpool.Pool) error {
					srcItem, err := ctx.MustGet(srcID)
					if err != nil {
						return err
					}
					src := srcItem.Image()
					out := core.NewImage(src.W, src.H, src.P, 1)

					cutoff := defaultCutoff(ctx)
					region := tiling.Region{X0: 0, Y0: 0, X1: src.W, Y1: src.H}
					tiling.Run(pool, region, cutoff, func(tile tiling.Region) {
						for y := tile.Y0; y < tile.Y1; y++ {
							for x := tile.X0; x < tile.X1; x++ {
								if borderIgnoreMargin(border, x, y, 1, 1, src.W, src.H) {
									continue // BorderIgnore: half-kernel margin left untouched
								}
								var gx, gy int
								for ky := -1; ky <= 1; ky++ {
									sy, ok := tiling.ClampReflect(border, y+ky, src.H)
									if !ok {
										continue
									}
									for kx := -1; kx <= 1; kx++ {
										sx, ok := tiling.ClampReflect(border, x+kx, src.W)
										if !ok {
											continue
										}
										var v int
										if sx >= 0 && sy >= 0 {
											v = int(src.At(0, sx, sy))
										}
										gx += v * sobelGx[ky+1][kx+1]
										gy += v * sobelGy[ky+1][kx+1]
									}
								}
								mag := math.Sqrt(float64(gx*gx + gy*gy))
								out.Set(0, x, y, clampByte(mag))
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
	scripting.Default.Register(sobelOp{})
}
