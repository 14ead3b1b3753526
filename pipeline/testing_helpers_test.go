package pipeline_test

import (
	"context"
	"errors"
	"sync"

	"github.com/skryldev/videoproc/core"
)

// fakeSource replays a fixed frame sequence, then the sentinel, satisfying
// pipeline.Source for SourceActor tests.
type fakeSource struct {
	frames []core.Frame
	pos    int
	opened bool
	closed bool
}

func newFakeSource(numFrames int) *fakeSource {
	frames := make([]core.Frame, numFrames)
	for i := range frames {
		img := core.NewImage(2, 2, 0, core.ChannelsGray)
		img.Set(0, 0, 0, byte(i))
		frames[i] = core.Frame{Number: uint64(i), Image: img}
	}
	return &fakeSource{frames: frames}
}

func (s *fakeSource) Open(context.Context) error { s.opened = true; return nil }

func (s *fakeSource) NextFrame(context.Context) (core.Frame, error) {
	if s.pos >= len(s.frames) {
		return core.Sentinel(), nil
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *fakeSource) Close() error { s.closed = true; return nil }

// fakeSink records every frame handed to it, satisfying pipeline.Sink.
type fakeSink struct {
	mu     sync.Mutex
	frames []core.Frame
	opened bool
	closed bool
	failOn uint64 // if set, WriteFrame fails for this frame number
}

func (s *fakeSink) Open(context.Context) error { s.opened = true; return nil }

func (s *fakeSink) WriteFrame(_ context.Context, f core.Frame) error {
	if s.failOn != 0 && f.Number == s.failOn {
		return errors.New("fakeSink: simulated write failure")
	}
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) Close() error { s.closed = true; return nil }

func (s *fakeSink) Written() []core.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Frame, len(s.frames))
	copy(out, s.frames)
	return out
}
