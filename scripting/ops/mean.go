package ops

import (
	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
	"github.com/skryldev/videoproc/tiling"
)

// meanOp replaces each sample with the mean of its kernelW x kernelH
// neighbourhood, tiled across the execution substrate via the tiling
// scheduler. Grounded on
// original_source/.../algorithms/tiling/mean.cpp and
// original_source/.../scripting/algorithms/mean.cpp.
type meanOp struct{}

func (meanOp) Name() string { return "mean" }

func (meanOp) Overloads() []scripting.Overload {
	return []scripting.Overload{
		{
			ArgTypes: []scripting.ItemType{scripting.TypeGray, scripting.TypeInt, scripting.TypeInt, scripting.TypeString},
			Result:   scripting.TypeGray,
			Build: func(resultID int, args []scripting.ResolvedArg) (scripting.CompileFunc, error) {
				srcID := args[0].RefID
				kw := int(args[1].Int)
				kh := int(args[2].Int)
				border := parseBorderMode(args[3].Str)

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
						meanTile(src, out, tile, kw, kh, border)
					})

					ctx.Store(resultID, scripting.Item{Type: scripting.TypeGray, Gray: out})
					return nil
				}, nil
			},
		},
	}
}

func meanTile(src, out *core.Image, tile tiling.Region, kw, kh int, border tiling.BorderMode) {
	halfW, halfH := kw/2, kh/2
	filterSize := kw * kh
	for y := tile.Y0; y < tile.Y1; y++ {
		for x := tile.X0; x < tile.X1; x++ {
			if borderIgnoreMargin(border, x, y, halfW, halfH, src.W, src.H) {
				continue // BorderIgnore: half-kernel margin left untouched
			}
			for c := 0; c < src.Channels(); c++ {
				var sum int
				for dy := -halfH; dy <= halfH; dy++ {
					sy, ok := tiling.ClampReflect(border, y+dy, src.H)
					if !ok {
						continue
					}
					for dx := -halfW; dx <= halfW; dx++ {
						sx, ok := tiling.ClampReflect(border, x+dx, src.W)
						if !ok {
							continue
						}
						if sx >= 0 && sy >= 0 {
							sum += int(src.At(c, sx, sy))
						}
					}
				}
				out.Set(c, x, y, byte(sum/filterSize))
			}
		}
	}
}

// borderIgnoreMargin reports whether (x, y) falls within the half-kernel
// margin that BorderIgnore leaves untouched (spec.md §4.9: "Border mode
// ignore leaves a half-kernel margin untouched"), grounded on
// original_source/.../algorithms/tiling/mean.cpp's from_x_/to_x_/from_y_/
// to_y_ narrowing for border_mode::ignore. Non-ignore modes never skip a
// pixel, since ClampReflect always resolves a sample for them.
func borderIgnoreMargin(border tiling.BorderMode, x, y, halfW, halfH, w, h int) bool {
	if border != tiling.BorderIgnore {
		return false
	}
	return x < halfW || x >= w-halfW || y < halfH || y >= h-halfH
}

func parseBorderMode(s string) tiling.BorderMode {
	switch s {
	case "constant":
		return tiling.BorderConstant
	case "mirror":
		return tiling.BorderMirror
	default:
		return tiling.BorderIgnore
	}
}

func defaultCutoff(ctx *scripting.Context) tiling.Cutoff {
	return tiling.Cutoff{
		X: int(ctx.ParamOr("cutoff_x", 512)),
		Y: int(ctx.ParamOr("cutoff_y", 512)),
	}
}

func init() {
	scripting.Default.Register(meanOp{})
}
