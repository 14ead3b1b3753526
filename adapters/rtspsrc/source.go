// Package rtspsrc implements the RTSP variant of the pipeline.Source
// collaborator (spec.md §4.2), wrapping a gortsplib client's RTP callback
// into the same pull-based NextFrame contract the file source satisfies.
// Grounded on bluenviron-mediamtx's go.mod for the gortsplib dependency and
// on adapters/codec's decode-side frame conversion for turning decoded
// samples into core.Image.
package rtspsrc

import (
	"context"
	"fmt"
	"sync"

	"github.com/bluenviron/gortsplib/v4"
	"github.com/bluenviron/gortsplib/v4/pkg/base"
	"github.com/bluenviron/gortsplib/v4/pkg/description"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/videoerr"
)

// Source streams frames from an RTSP URL. Like the file source, it numbers
// frames with a counter in arrival order rather than from presentation
// timestamps.
type Source struct {
	url string

	client  *gortsplib.Client
	media   *description.Media
	decoder frameDecoder

	frames chan core.Frame
	errs   chan error
	once   sync.Once

	frameNumber uint64
}

// frameDecoder turns an access unit's payload into a core.Image. Open
// always installs the H.264 decoder; no other codec is handled.
type frameDecoder interface {
	decode(payload [][]byte) (*core.Image, error)
}

// NewSource creates an RTSP Source for the given rtsp:// URL.
func NewSource(url string) *Source {
	return &Source{url: url}
}

// Open connects to the RTSP server, selects the first video media, and
// starts playback. Decoded frames arrive on an internal channel fed by the
// client's packet callback running on gortsplib's own goroutine.
func (s *Source) Open(ctx context.Context) error {
	s.client = &gortsplib.Client{}

	u, err := base.ParseURL(s.url)
	if err != nil {
		return videoerr.New(videoerr.CategoryIO, "rtspsrc.open", err)
	}

	if err := s.client.Start(u.Scheme, u.Host); err != nil {
		return videoerr.New(videoerr.CategoryIO, "rtspsrc.open", err)
	}

	desc, _, err := s.client.Describe(u)
	if err != nil {
		return videoerr.New(videoerr.CategoryIO, "rtspsrc.open", err)
	}

	var videoMedia *description.Media
	for _, m := range desc.Medias {
		if m.Type == description.MediaTypeVideo {
			videoMedia = m
			break
		}
	}
	if videoMedia == nil {
		return videoerr.New(videoerr.CategoryDecode, "rtspsrc.open", videoerr.ErrNoVideoStream)
	}
	s.media = videoMedia

	decoder, err := newFrameDecoderFor(videoMedia)
	if err != nil {
		return videoerr.New(videoerr.CategoryDecode, "rtspsrc.open", err)
	}
	s.decoder = decoder

	s.frames = make(chan core.Frame, 64)
	s.errs = make(chan error, 1)

	if _, err := s.client.Setup(desc.BaseURL, videoMedia, 0, 0); err != nil {
		return videoerr.New(videoerr.CategoryIO, "rtspsrc.open", err)
	}

	s.client.OnPacketRTP(videoMedia, videoMedia.Formats[0], func(pkt interface{}) {
		payload, ok := pkt.([][]byte)
		if !ok {
			return
		}
		img, err := s.decoder.decode(payload)
		if err != nil {
			select {
			case s.errs <- err:
			default:
			}
			return
		}
		if img == nil {
			return // not an access-unit boundary yet
		}
		num := s.frameNumber
		s.frameNumber++
		select {
		case s.frames <- core.Frame{Number: num, Image: img}:
		case <-ctx.Done():
		}
	})

	if _, err := s.client.Play(nil); err != nil {
		return videoerr.New(videoerr.CategoryIO, "rtspsrc.open", err)
	}
	return nil
}

// NextFrame blocks until a decoded frame, an error, or ctx cancellation.
// RTSP streams do not signal an in-band end of stream the way a file's EOF
// does; NextFrame only returns the flush sentinel when ctx is canceled.
func (s *Source) NextFrame(ctx context.Context) (core.Frame, error) {
	select {
	case f := <-s.frames:
		return f, nil
	case err := <-s.errs:
		return core.Frame{}, videoerr.New(videoerr.CategoryDecode, "rtspsrc.next", err)
	case <-ctx.Done():
		return core.Sentinel(), nil
	}
}

// Close stops playback and tears down the RTSP session.
func (s *Source) Close() error {
	s.once.Do(func() {
		if s.client != nil {
			s.client.Close()
		}
	})
	return nil
}

func newFrameDecoderFor(m *description.Media) (frameDecoder, error) {
	if len(m.Formats) == 0 {
		return nil, fmt.Errorf("rtspsrc: media has no formats")
	}
	return newH264Decoder(), nil
}
