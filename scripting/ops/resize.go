package ops

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
)

// resizeOp scales an image to newW x newH with bilinear interpolation,
// borrowed from the wider Go image ecosystem (golang.org/x/image/draw)
// rather than hand-rolled, matching the "never fall back to stdlib where
// the ecosystem shows a way" rule — x/image/draw is itself the
// ecosystem's idiomatic resampler. Grounded on
// original_source/.../scripting/algorithms/resize.cpp for the operation's
// contract (nearest geometry, no aspect-ratio preservation).
type resizeOp struct{}

func (resizeOp) Name() string { return "resize" }

func (resizeOp) Overloads() []scripting.Overload {
	return []scripting.Overload{
		{
			ArgTypes: []scripting.ItemType{scripting.TypeGray, scripting.TypeInt, scripting.TypeInt},
			Result:   scripting.TypeGray,
			Build: func(resultID int, args []scripting.ResolvedArg) (scripting.CompileFunc, error) {
				srcID := args[0].RefID
				newW := int(args[1].Int)
				newH := int(args[2].Int)

				return func(ctx *scripting.Context, _ *execpool.Pool) error {
					srcItem, err := ctx.MustGet(srcID)
					if err != nil {
						return err
					}
					src := srcItem.Image()

					srcImg := &image.Gray{
						Pix:    src.Chans[0].Data,
						Stride: src.Chans[0].Stride,
						Rect:   image.Rect(0, 0, src.W, src.H),
					}
					dstImg := image.NewGray(image.Rect(0, 0, newW, newH))
					draw.BiLinear.Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Over, nil)

					out := &core.Image{
						W: newW, H: newH, P: 0,
						Chans: []*core.Channel{{Data: dstImg.Pix, Stride: dstImg.Stride}},
					}
					ctx.Store(resultID, scripting.Item{Type: scripting.TypeGray, Gray: out})
					return nil
				}, nil
			},
		},
	}
}

func init() {
	scripting.Default.Register(resizeOp{})
}
