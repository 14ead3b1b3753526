// Package pipeline implements the staged streaming pipeline spec.md §4
// describes: a source actor, a frame processor actor, an inter-frame
// processor actor, and a sink actor, each a single-threaded state machine
// connected to its neighbours by bounded staging buffers that provide
// demand-driven backpressure. Grounded on the teacher's core.Processor
// worker-queue pattern, generalized from a single bounded job queue to a
// chain of per-stage buffers.
package pipeline

import (
	"context"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/videoerr"
)

// Buffer is a bounded FIFO of Packets passed between adjacent stages. A
// full Buffer makes Push block until the consumer drains it — the
// backpressure mechanism spec.md §4.1 describes — rather than dropping or
// growing without bound.
type Buffer struct {
	ch chan core.Packet
}

// NewBuffer creates a Buffer with the given capacity. NewBuffer does not
// check capacity; config.Validate requires the packet buffer to be at least
// config.MinPacketBuffer and the input and output buffers to be positive.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{ch: make(chan core.Packet, capacity)}
}

// Push enqueues p, blocking until room is available or ctx is canceled.
func (b *Buffer) Push(ctx context.Context, p core.Packet) error {
	select {
	case b.ch <- p:
		return nil
	case <-ctx.Done():
		return videoerr.New(videoerr.CategoryTimeout, "pipeline.buffer.push", videoerr.ErrContextCanceled)
	}
}

// TryPush enqueues p without blocking, returning ErrBufferCapacityExceeded
// if the buffer is full. Used by producers that must never block (none in
// this pipeline currently, but kept for stages that choose non-blocking
// semantics in tests).
func (b *Buffer) TryPush(p core.Packet) error {
	select {
	case b.ch <- p:
		return nil
	default:
		return videoerr.New(videoerr.CategoryBufferOverflow, "pipeline.buffer.trypush", videoerr.ErrBufferCapacityExceeded)
	}
}

// Pop dequeues the next Packet, blocking until one is available or ctx is
// canceled.
func (b *Buffer) Pop(ctx context.Context) (core.Packet, error) {
	select {
	case p := <-b.ch:
		return p, nil
	case <-ctx.Done():
		return core.Packet{}, videoerr.New(videoerr.CategoryTimeout, "pipeline.buffer.pop", videoerr.ErrContextCanceled)
	}
}

// Close releases the underlying channel once the producer has pushed its
// final flush Packet. End-of-stream is signalled in-band by
// core.Packet.IsFlush, never by channel closure — a consumer stops calling
// Pop upon seeing a flush Packet, so Close is cleanup, not flow control.
// Calling Push after Close panics; only the producer side may call it.
func (b *Buffer) Close() { close(b.ch) }
