package pipeline

import (
	"context"

	"github.com/skryldev/videoproc/core"
)

// Source is the container/codec collaborator boundary spec.md §6 names:
// something that can be opened, asked for frames in capture order, and
// closed. adapters/codec's file source and adapters/rtspsrc's RTSP source
// both satisfy this.
type Source interface {
	Open(ctx context.Context) error
	// NextFrame returns the next captured frame. It returns the flush
	// sentinel (core.Frame.IsSentinel) as the final frame to signal end of
	// stream; SourceActor stops calling NextFrame once it has seen it.
	NextFrame(ctx context.Context) (core.Frame, error)
	Close() error
}

// Sink is the container/codec collaborator boundary for output: something
// that can be opened, written frames in order, and closed/finalized.
// adapters/codec's file sink satisfies this.
type Sink interface {
	Open(ctx context.Context) error
	WriteFrame(ctx context.Context, f core.Frame) error
	Close() error
}
