package pipeline

import (
	"context"
	"time"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
)

// SinkActor drains a Buffer and writes every non-sentinel frame to a Sink
// collaborator (spec.md §4.5), finalizing the container on the flush
// packet.
type SinkActor struct {
	contextID string
	in        *Buffer
	sink      Sink
	hooks     hookSet
	fsm       *StageFSM
	mailbox   *execpool.Actor
}

// NewSinkActor creates a SinkActor.
func NewSinkActor(contextID string, in *Buffer, sink Sink, hooks hookSet) *SinkActor {
	return &SinkActor{
		contextID: contextID,
		in:        in,
		sink:      sink,
		hooks:     hooks,
		fsm:       NewStageFSM(),
		mailbox:   execpool.NewActor(1),
	}
}

// State returns the actor's current FSM state.
func (a *SinkActor) State() StageState { return a.fsm.State() }

// Run drives the stage to completion on its own single-threaded executor
// (spec.md §5: "each stateful actor binds to a single-threaded executor"):
// runLoop's FSM transitions and sink writes all execute on the actor's
// dedicated mailbox goroutine via execpool.SendSync.
func (a *SinkActor) Run(ctx context.Context) error {
	err := execpool.SendSync(a.mailbox, func() error { return a.runLoop(ctx) })
	a.mailbox.Stop()
	return err
}

// runLoop writes frames until a flush packet arrives, then closes the sink.
func (a *SinkActor) runLoop(ctx context.Context) error {
	if err := a.sink.Open(ctx); err != nil {
		return a.fail(err)
	}

	if err := a.fsm.Transition(StateWaitingForData); err != nil {
		return a.fail(err)
	}
	a.hooks.started(a.contextID, core.StageSink)

	for {
		if err := a.fsm.Transition(StateProcessingData); err != nil {
			return a.fail(err)
		}

		packet, err := a.in.Pop(ctx)
		if err != nil {
			return a.fail(err)
		}

		start := time.Now()
		written := 0
		for _, f := range packet.Frames {
			if f.IsSentinel() {
				continue
			}
			if err := a.sink.WriteFrame(ctx, f); err != nil {
				return a.fail(err)
			}
			written++
		}
		a.hooks.packet(a.contextID, core.StageSink, packet.Number, written, time.Since(start))

		if packet.IsFlush() {
			break
		}
		if err := a.fsm.Transition(StateWaitingForData); err != nil {
			return a.fail(err)
		}
	}

	if err := a.sink.Close(); err != nil {
		return a.fail(err)
	}
	if err := a.fsm.Transition(StateFinished); err != nil {
		return a.fail(err)
	}
	a.hooks.finished(a.contextID, core.StageSink, nil)
	return nil
}

func (a *SinkActor) fail(err error) error {
	_ = a.fsm.Transition(StateFailed)
	a.hooks.finished(a.contextID, core.StageSink, err)
	return err
}
