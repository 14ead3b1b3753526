package pipeline

import (
	"context"
	"time"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
)

// SourceActor drives a Source collaborator, batching captured frames into
// packets of at most packetSize frames before handing them to the next
// stage's Buffer. Packet boundaries need not align with any downstream
// stage's own batching (spec.md §4.1) — this is purely how the source
// chooses to group its own output.
type SourceActor struct {
	contextID  string
	source     Source
	out        *Buffer
	packetSize int
	hooks      hookSet
	fsm        *StageFSM
	mailbox    *execpool.Actor
}

// NewSourceActor creates a SourceActor. packetSize must be >= 1.
func NewSourceActor(contextID string, source Source, out *Buffer, packetSize int, hooks hookSet) *SourceActor {
	if packetSize < 1 {
		packetSize = 1
	}
	return &SourceActor{
		contextID:  contextID,
		source:     source,
		out:        out,
		packetSize: packetSize,
		hooks:      hooks,
		fsm:        NewStageFSM(),
		mailbox:    execpool.NewActor(1),
	}
}

// State returns the actor's current FSM state.
func (a *SourceActor) State() StageState { return a.fsm.State() }

// Run drives the stage to completion on its own single-threaded executor
// (spec.md §5: "each stateful actor binds to a single-threaded executor"):
// runLoop, and every FSM transition and field mutation it makes, executes on
// the actor's dedicated mailbox goroutine rather than the caller's, via
// execpool.SendSync. Run itself may be called from any goroutine (the
// supervisor's errgroup, in production).
func (a *SourceActor) Run(ctx context.Context) error {
	err := execpool.SendSync(a.mailbox, func() error { return a.runLoop(ctx) })
	a.mailbox.Stop()
	return err
}

func (a *SourceActor) runLoop(ctx context.Context) error {
	if err := a.source.Open(ctx); err != nil {
		return a.fail(err)
	}
	defer a.source.Close()

	if err := a.fsm.Transition(StateWaitingForData); err != nil {
		return a.fail(err)
	}
	a.hooks.started(a.contextID, core.StageSource)

	var packetNumber uint64
	batch := make([]core.Frame, 0, a.packetSize)

	for {
		if err := a.fsm.Transition(StateProcessingData); err != nil {
			return a.fail(err)
		}

		start := time.Now()
		frame, err := a.source.NextFrame(ctx)
		if err != nil {
			return a.fail(err)
		}
		batch = append(batch, frame)

		flush := frame.IsSentinel()
		if flush || len(batch) >= a.packetSize {
			packet := core.Packet{Number: packetNumber, Frames: batch}
			if err := a.out.Push(ctx, packet); err != nil {
				return a.fail(err)
			}
			a.hooks.packet(a.contextID, core.StageSource, packetNumber, len(batch), time.Since(start))
			packetNumber++
			batch = make([]core.Frame, 0, a.packetSize)
		}

		if flush {
			break
		}
		if err := a.fsm.Transition(StateWaitingForData); err != nil {
			return a.fail(err)
		}
	}

	a.out.Close()
	if err := a.fsm.Transition(StateFinished); err != nil {
		return a.fail(err)
	}
	a.hooks.finished(a.contextID, core.StageSource, nil)
	return nil
}

func (a *SourceActor) fail(err error) error {
	_ = a.fsm.Transition(StateFailed)
	a.hooks.finished(a.contextID, core.StageSource, err)
	return err
}
