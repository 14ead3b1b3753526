// Package codec implements the container/codec collaborator spec.md §6
// names as an external boundary: a FileSource that demuxes and decodes a
// video file into core.Frame values, and a FileSink that encodes and muxes
// processed frames back into a container. Built on
// github.com/asticode/go-astiav, following the demux/decode/encode/mux
// structure other_examples/e1z0-QAnotherRTSP's src/video.go shows against
// the same library.
package codec

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/videoerr"
)

// FileSource demuxes and decodes the first video stream of a container
// file, converting every decoded frame to 8-bit grayscale with libswscale
// (frameConverter). The RTSP source has its own copy of the same Gray8
// libswscale conversion; the two do not share a helper.
type FileSource struct {
	uri string

	formatCtx  *astiav.FormatContext
	codecCtx   *astiav.CodecContext
	streamIdx  int
	packet     *astiav.Packet
	frame      *astiav.Frame
	converter  *frameConverter

	frameNumber uint64
	eof         bool
}

// NewFileSource creates a FileSource for the given container URI/path.
func NewFileSource(uri string) *FileSource {
	return &FileSource{uri: uri}
}

// Open demuxes the container header and opens the first video stream's
// decoder.
func (s *FileSource) Open(ctx context.Context) error {
	formatCtx := astiav.AllocFormatContext()
	if formatCtx == nil {
		return videoerr.New(videoerr.CategoryIO, "codec.source.open", fmt.Errorf("allocate format context"))
	}
	if err := formatCtx.OpenInput(s.uri, nil, nil); err != nil {
		return videoerr.New(videoerr.CategoryIO, "codec.source.open", err)
	}
	if err := formatCtx.FindStreamInfo(nil); err != nil {
		return videoerr.New(videoerr.CategoryDecode, "codec.source.open", err)
	}

	streamIdx := -1
	var params *astiav.CodecParameters
	for _, stream := range formatCtx.Streams() {
		if stream.CodecParameters().MediaType() == astiav.MediaTypeVideo {
			streamIdx = stream.Index()
			params = stream.CodecParameters()
			break
		}
	}
	if streamIdx < 0 {
		return videoerr.New(videoerr.CategoryDecode, "codec.source.open", videoerr.ErrNoVideoStream)
	}

	decoder := astiav.FindDecoder(params.CodecID())
	if decoder == nil {
		return videoerr.New(videoerr.CategoryDecode, "codec.source.open", fmt.Errorf("no decoder for codec id %v", params.CodecID()))
	}
	codecCtx := astiav.AllocCodecContext(decoder)
	if codecCtx == nil {
		return videoerr.New(videoerr.CategoryDecode, "codec.source.open", fmt.Errorf("allocate codec context"))
	}
	if err := params.ToCodecContext(codecCtx); err != nil {
		return videoerr.New(videoerr.CategoryDecode, "codec.source.open", err)
	}
	if err := codecCtx.Open(decoder, nil); err != nil {
		return videoerr.New(videoerr.CategoryDecode, "codec.source.open", err)
	}

	s.formatCtx = formatCtx
	s.codecCtx = codecCtx
	s.streamIdx = streamIdx
	s.packet = astiav.AllocPacket()
	s.frame = astiav.AllocFrame()
	s.converter = newFrameConverter(codecCtx.Width(), codecCtx.Height(), codecCtx.PixelFormat())
	return nil
}

// NextFrame decodes and returns the next video frame, or the flush
// sentinel once the container is exhausted.
func (s *FileSource) NextFrame(ctx context.Context) (core.Frame, error) {
	if s.eof {
		return core.Sentinel(), nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return core.Frame{}, videoerr.New(videoerr.CategoryTimeout, "codec.source.next", err)
		}

		if err := s.codecCtx.ReceiveFrame(s.frame); err == nil {
			img, convErr := s.converter.toGray(s.frame)
			s.frame.Unref()
			if convErr != nil {
				return core.Frame{}, videoerr.New(videoerr.CategoryDecode, "codec.source.next", convErr)
			}
			num := s.frameNumber
			s.frameNumber++
			return core.Frame{Number: num, Image: img}, nil
		} else if err == astiav.ErrEof {
			// The decoder has been flushed and drained.
			s.eof = true
			return core.Sentinel(), nil
		} else if !astiav.ErrIsAgain(err) {
			return core.Frame{}, videoerr.New(videoerr.CategoryDecode, "codec.source.next", err)
		}

		if err := s.formatCtx.ReadFrame(s.packet); err != nil {
			if err == astiav.ErrEof {
				_ = s.codecCtx.SendPacket(nil) // flush the decoder
				s.eof = true
				continue
			}
			return core.Frame{}, videoerr.New(videoerr.CategoryIO, "codec.source.next", err)
		}
		defer s.packet.Unref()

		if s.packet.StreamIndex() != s.streamIdx {
			continue
		}
		if err := s.codecCtx.SendPacket(s.packet); err != nil && !astiav.ErrIsAgain(err) {
			return core.Frame{}, videoerr.New(videoerr.CategoryDecode, "codec.source.next", err)
		}
	}
}

// Close releases the decoder and format context.
func (s *FileSource) Close() error {
	if s.frame != nil {
		s.frame.Free()
	}
	if s.packet != nil {
		s.packet.Free()
	}
	if s.codecCtx != nil {
		s.codecCtx.Free()
	}
	if s.formatCtx != nil {
		s.formatCtx.CloseInput()
		s.formatCtx.Free()
	}
	return nil
}
