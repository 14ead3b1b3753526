package rtspsrc

import (
	"bytes"
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/skryldev/videoproc/core"
)

// h264Decoder feeds Annex-B NAL units into an astiav H.264 decoder and
// converts completed frames to grayscale, the same conversion path
// adapters/codec's file source uses so both sources produce identically
// shaped core.Image values (SPEC_FULL.md §6, decision 1).
type h264Decoder struct {
	codecCtx *astiav.CodecContext
	frame    *astiav.Frame
	packet   *astiav.Packet

	scaleCtx *astiav.SoftwareScaleContext
	dst      *astiav.Frame
}

var startCode = []byte{0, 0, 0, 1}

func newH264Decoder() *h264Decoder {
	return &h264Decoder{}
}

func (d *h264Decoder) ensureCodec() error {
	if d.codecCtx != nil {
		return nil
	}
	decoder := astiav.FindDecoder(astiav.CodecIDH264)
	if decoder == nil {
		return fmt.Errorf("rtspsrc: no h264 decoder available")
	}
	codecCtx := astiav.AllocCodecContext(decoder)
	if err := codecCtx.Open(decoder, nil); err != nil {
		return fmt.Errorf("rtspsrc: open h264 decoder: %w", err)
	}
	d.codecCtx = codecCtx
	d.frame = astiav.AllocFrame()
	d.packet = astiav.AllocPacket()
	return nil
}

// decode appends an access unit's NAL units (already Annex-B framed by
// gortsplib) to the decoder and returns a completed frame if one is ready.
func (d *h264Decoder) decode(payload [][]byte) (*core.Image, error) {
	if err := d.ensureCodec(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, nalu := range payload {
		buf.Write(startCode)
		buf.Write(nalu)
	}

	if err := d.packet.FromData(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("rtspsrc: build packet: %w", err)
	}
	defer d.packet.Unref()

	if err := d.codecCtx.SendPacket(d.packet); err != nil && !astiav.ErrIsAgain(err) {
		return nil, fmt.Errorf("rtspsrc: send packet: %w", err)
	}

	err := d.codecCtx.ReceiveFrame(d.frame)
	if astiav.ErrIsAgain(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rtspsrc: receive frame: %w", err)
	}
	defer d.frame.Unref()

	return d.toGray()
}

func (d *h264Decoder) toGray() (*core.Image, error) {
	w, h := d.codecCtx.Width(), d.codecCtx.Height()
	if d.scaleCtx == nil {
		scaleCtx, err := astiav.CreateSoftwareScaleContext(
			w, h, d.codecCtx.PixelFormat(),
			w, h, astiav.PixelFormatGray8,
			astiav.NewSoftwareScaleContextFlags(),
		)
		if err != nil {
			return nil, fmt.Errorf("rtspsrc: create scale context: %w", err)
		}
		dst := astiav.AllocFrame()
		dst.SetWidth(w)
		dst.SetHeight(h)
		dst.SetPixelFormat(astiav.PixelFormatGray8)
		if err := dst.AllocBuffer(0); err != nil {
			return nil, fmt.Errorf("rtspsrc: allocate conversion buffer: %w", err)
		}
		d.scaleCtx = scaleCtx
		d.dst = dst
	}

	if err := d.scaleCtx.ScaleFrame(d.frame, d.dst); err != nil {
		return nil, fmt.Errorf("rtspsrc: scale frame: %w", err)
	}

	img := core.NewImage(w, h, 0, core.ChannelsGray)
	plane := d.dst.Data().Bytes(0)
	stride := d.dst.Linesize()[0]
	for y := 0; y < h; y++ {
		copy(img.Chans[0].Data[y*w:(y+1)*w], plane[y*stride:y*stride+w])
	}
	return img, nil
}

func (d *h264Decoder) close() {
	if d.dst != nil {
		d.dst.Free()
	}
	if d.frame != nil {
		d.frame.Free()
	}
	if d.packet != nil {
		d.packet.Free()
	}
	if d.codecCtx != nil {
		d.codecCtx.Free()
	}
}
