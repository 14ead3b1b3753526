package codec

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/videoerr"
)

// FileSink encodes processed frames and muxes them into an output
// container at the configured framerate and pixel format.
type FileSink struct {
	uri         string
	framerate   int
	pixelFormat astiav.PixelFormat

	outputCtx *astiav.FormatContext
	stream    *astiav.Stream
	codecCtx  *astiav.CodecContext
	frame     *astiav.Frame
	packet    *astiav.Packet
	converter *encodeConverter

	opened      bool
	frameNumber int64
}

// NewFileSink creates a FileSink writing to uri at framerate fps, encoding
// in pixelFormat (e.g. "yuv420p").
func NewFileSink(uri string, framerate int, pixelFormat string) *FileSink {
	return &FileSink{
		uri:         uri,
		framerate:   framerate,
		pixelFormat: parsePixelFormat(pixelFormat),
	}
}

func parsePixelFormat(s string) astiav.PixelFormat {
	switch s {
	case "yuv420p":
		return astiav.PixelFormatYuv420P
	case "gray", "gray8":
		return astiav.PixelFormatGray8
	default:
		return astiav.PixelFormatYuv420P
	}
}

// Open is deferred until the first WriteFrame, since the output stream's
// dimensions are only known once a frame arrives.
func (s *FileSink) Open(ctx context.Context) error {
	s.packet = astiav.AllocPacket()
	s.frame = astiav.AllocFrame()
	return nil
}

func (s *FileSink) openStream(w, h int) error {
	outputCtx, err := astiav.AllocOutputFormatContext(nil, "", s.uri)
	if err != nil || outputCtx == nil {
		return videoerr.New(videoerr.CategoryEncode, "codec.sink.open", fmt.Errorf("allocate output context: %w", err))
	}

	encoder := astiav.FindEncoder(astiav.CodecIDH264)
	if encoder == nil {
		return videoerr.New(videoerr.CategoryEncode, "codec.sink.open", fmt.Errorf("no h264 encoder available"))
	}
	codecCtx := astiav.AllocCodecContext(encoder)
	codecCtx.SetWidth(w)
	codecCtx.SetHeight(h)
	codecCtx.SetPixelFormat(s.pixelFormat)
	codecCtx.SetTimeBase(astiav.NewRational(1, s.framerate))
	codecCtx.SetFramerate(astiav.NewRational(s.framerate, 1))

	if err := codecCtx.Open(encoder, nil); err != nil {
		return videoerr.New(videoerr.CategoryEncode, "codec.sink.open", err)
	}

	stream := outputCtx.NewStream(nil)
	if err := codecCtx.ToCodecParameters(stream.CodecParameters()); err != nil {
		return videoerr.New(videoerr.CategoryEncode, "codec.sink.open", err)
	}
	stream.SetTimeBase(codecCtx.TimeBase())

	if !outputCtx.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		ioCtx, err := astiav.OpenIOContext(s.uri, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
		if err != nil {
			return videoerr.New(videoerr.CategoryIO, "codec.sink.open", err)
		}
		outputCtx.SetPb(ioCtx)
	}

	if err := outputCtx.WriteHeader(nil); err != nil {
		return videoerr.New(videoerr.CategoryEncode, "codec.sink.open", err)
	}

	s.outputCtx = outputCtx
	s.stream = stream
	s.codecCtx = codecCtx
	s.converter = newEncodeConverter(w, h, s.pixelFormat)
	s.opened = true
	return nil
}

// WriteFrame encodes f and muxes the resulting packets.
func (s *FileSink) WriteFrame(ctx context.Context, f core.Frame) error {
	if !s.opened {
		if err := s.openStream(f.Image.W, f.Image.H); err != nil {
			return err
		}
	}

	if err := s.converter.fill(s.frame, f.Image); err != nil {
		return videoerr.New(videoerr.CategoryEncode, "codec.sink.write", err)
	}
	s.frame.SetPts(s.frameNumber)
	s.frameNumber++

	if err := s.codecCtx.SendFrame(s.frame); err != nil {
		return videoerr.New(videoerr.CategoryEncode, "codec.sink.write", err)
	}
	return s.drainPackets()
}

func (s *FileSink) drainPackets() error {
	for {
		err := s.codecCtx.ReceivePacket(s.packet)
		if astiav.ErrIsAgain(err) {
			return nil
		}
		if err == astiav.ErrEof {
			return nil
		}
		if err != nil {
			return videoerr.New(videoerr.CategoryEncode, "codec.sink.drain", err)
		}
		s.packet.SetStreamIndex(s.stream.Index())
		s.packet.RescaleTs(s.codecCtx.TimeBase(), s.stream.TimeBase())
		if err := s.outputCtx.WriteInterleavedFrame(s.packet); err != nil {
			s.packet.Unref()
			return videoerr.New(videoerr.CategoryEncode, "codec.sink.mux", err)
		}
		s.packet.Unref()
	}
}

// Close flushes the encoder, writes the trailer, and releases resources.
func (s *FileSink) Close() error {
	if s.opened {
		_ = s.codecCtx.SendFrame(nil)
		_ = s.drainPackets()
		_ = s.outputCtx.WriteTrailer()
	}

	if s.frame != nil {
		s.frame.Free()
	}
	if s.packet != nil {
		s.packet.Free()
	}
	if s.codecCtx != nil {
		s.codecCtx.Free()
	}
	if s.outputCtx != nil {
		s.outputCtx.Free()
	}
	return nil
}
