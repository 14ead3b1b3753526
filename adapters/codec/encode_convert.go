package codec

import (
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/skryldev/videoproc/core"
)

// encodeConverter rescales an 8-bit grayscale core.Image into the sink's
// target pixel format, mirroring frameConverter's decode-side conversion
// in the opposite direction.
type encodeConverter struct {
	w, h     int
	dstFmt   astiav.PixelFormat
	scaleCtx *astiav.SoftwareScaleContext
	src      *astiav.Frame
}

func newEncodeConverter(w, h int, dstFmt astiav.PixelFormat) *encodeConverter {
	return &encodeConverter{w: w, h: h, dstFmt: dstFmt}
}

func (c *encodeConverter) ensure() error {
	if c.scaleCtx != nil {
		return nil
	}
	scaleCtx, err := astiav.CreateSoftwareScaleContext(
		c.w, c.h, astiav.PixelFormatGray8,
		c.w, c.h, c.dstFmt,
		astiav.NewSoftwareScaleContextFlags(),
	)
	if err != nil {
		return fmt.Errorf("codec: create encode scale context: %w", err)
	}
	src := astiav.AllocFrame()
	src.SetWidth(c.w)
	src.SetHeight(c.h)
	src.SetPixelFormat(astiav.PixelFormatGray8)
	if err := src.AllocBuffer(0); err != nil {
		return fmt.Errorf("codec: allocate encode source buffer: %w", err)
	}
	c.scaleCtx = scaleCtx
	c.src = src
	return nil
}

// fill writes img's grayscale plane into dst, converted to the sink's
// target pixel format.
func (c *encodeConverter) fill(dst *astiav.Frame, img *core.Image) error {
	if err := c.ensure(); err != nil {
		return err
	}

	plane := c.src.Data().Bytes(0)
	stride := c.src.Linesize()[0]
	for y := 0; y < c.h; y++ {
		copy(plane[y*stride:y*stride+c.w], img.Chans[0].Data[y*c.w:(y+1)*c.w])
	}

	dst.SetWidth(c.w)
	dst.SetHeight(c.h)
	dst.SetPixelFormat(c.dstFmt)
	if dst.Data().Bytes(0) == nil {
		if err := dst.AllocBuffer(0); err != nil {
			return fmt.Errorf("codec: allocate destination buffer: %w", err)
		}
	}

	return c.scaleCtx.ScaleFrame(c.src, dst)
}

func (c *encodeConverter) close() {
	if c.src != nil {
		c.src.Free()
	}
}
