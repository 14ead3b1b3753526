package codec

import (
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/skryldev/videoproc/core"
)

// frameConverter rescales/reformats decoded frames of an arbitrary source
// pixel format into 8-bit grayscale planes, the representation core.Image
// carries through the rest of the pipeline.
type frameConverter struct {
	w, h    int
	srcFmt  astiav.PixelFormat
	scaleCtx *astiav.SoftwareScaleContext
	dst     *astiav.Frame
}

func newFrameConverter(w, h int, srcFmt astiav.PixelFormat) *frameConverter {
	return &frameConverter{w: w, h: h, srcFmt: srcFmt}
}

func (c *frameConverter) ensure() error {
	if c.scaleCtx != nil {
		return nil
	}
	scaleCtx, err := astiav.CreateSoftwareScaleContext(
		c.w, c.h, c.srcFmt,
		c.w, c.h, astiav.PixelFormatGray8,
		astiav.NewSoftwareScaleContextFlags(),
	)
	if err != nil {
		return fmt.Errorf("codec: create scale context: %w", err)
	}
	dst := astiav.AllocFrame()
	dst.SetWidth(c.w)
	dst.SetHeight(c.h)
	dst.SetPixelFormat(astiav.PixelFormatGray8)
	if err := dst.AllocBuffer(0); err != nil {
		return fmt.Errorf("codec: allocate conversion buffer: %w", err)
	}
	c.scaleCtx = scaleCtx
	c.dst = dst
	return nil
}

// toGray converts src into a single-channel core.Image.
func (c *frameConverter) toGray(src *astiav.Frame) (*core.Image, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	if err := c.scaleCtx.ScaleFrame(src, c.dst); err != nil {
		return nil, fmt.Errorf("codec: scale frame: %w", err)
	}

	img := core.NewImage(c.w, c.h, 0, core.ChannelsGray)
	plane := c.dst.Data().Bytes(0)
	stride := c.dst.Linesize()[0]
	for y := 0; y < c.h; y++ {
		copy(img.Chans[0].Data[y*c.w:(y+1)*c.w], plane[y*stride:y*stride+c.w])
	}
	return img, nil
}

func (c *frameConverter) close() {
	if c.dst != nil {
		c.dst.Free()
	}
}
