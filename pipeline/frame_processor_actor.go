package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
)

// FrameProcessorActor runs the per-frame script against every frame of
// every packet it receives (spec.md §4.3). A nil script makes the stage a
// pass-through, which a pipeline with no --frame-script configured uses.
type FrameProcessorActor struct {
	contextID string
	in, out   *Buffer
	processor *scripting.ImageProcessor
	script    *scripting.CompiledScript
	pool      *execpool.Pool
	hooks     hookSet
	fsm       *StageFSM
	mailbox   *execpool.Actor
}

// NewFrameProcessorActor creates a FrameProcessorActor.
func NewFrameProcessorActor(contextID string, in, out *Buffer, processor *scripting.ImageProcessor, script *scripting.CompiledScript, pool *execpool.Pool, hooks hookSet) *FrameProcessorActor {
	return &FrameProcessorActor{
		contextID: contextID,
		in:        in,
		out:       out,
		processor: processor,
		script:    script,
		pool:      pool,
		hooks:     hooks,
		fsm:       NewStageFSM(),
		mailbox:   execpool.NewActor(1),
	}
}

// State returns the actor's current FSM state.
func (a *FrameProcessorActor) State() StageState { return a.fsm.State() }

// Run drives the stage to completion on its own single-threaded executor
// (spec.md §5: "each stateful actor binds to a single-threaded executor"):
// runLoop's FSM transitions and field mutations all execute on the actor's
// dedicated mailbox goroutine via execpool.SendSync, separate from both the
// caller's goroutine and the shared compute pool frames fan out across.
func (a *FrameProcessorActor) Run(ctx context.Context) error {
	err := execpool.SendSync(a.mailbox, func() error { return a.runLoop(ctx) })
	a.mailbox.Stop()
	return err
}

// runLoop processes packets until a flush packet arrives, then closes out.
func (a *FrameProcessorActor) runLoop(ctx context.Context) error {
	if err := a.fsm.Transition(StateWaitingForData); err != nil {
		return a.fail(err)
	}
	a.hooks.started(a.contextID, core.StageFrameProc)

	for {
		if err := a.fsm.Transition(StateProcessingData); err != nil {
			return a.fail(err)
		}

		packet, err := a.in.Pop(ctx)
		if err != nil {
			return a.fail(err)
		}

		start := time.Now()
		outFrames := make([]core.Frame, len(packet.Frames))

		// Every frame's script evaluation is independent, so they fan out
		// across the packet (spec.md §4.3: "in parallel across frames"); each
		// evaluation is itself internally parallel via the tiling scheduler.
		var g errgroup.Group
		for i, f := range packet.Frames {
			i, f := i, f
			if f.IsSentinel() || a.script == nil {
				outFrames[i] = f
				continue
			}
			g.Go(func() error {
				item, err := a.processor.Evaluate(a.pool, a.script, f.Image, nil)
				if err != nil {
					return err
				}
				outFrames[i] = core.Frame{Number: f.Number, Image: item.Image()}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return a.fail(err)
		}

		outPacket := core.Packet{Number: packet.Number, Frames: outFrames}
		if err := a.out.Push(ctx, outPacket); err != nil {
			return a.fail(err)
		}
		a.hooks.packet(a.contextID, core.StageFrameProc, packet.Number, len(outFrames), time.Since(start))

		if packet.IsFlush() {
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
	a.hooks.finished(a.contextID, core.StageFrameProc, nil)
	return nil
}

func (a *FrameProcessorActor) fail(err error) error {
	_ = a.fsm.Transition(StateFailed)
	a.hooks.finished(a.contextID, core.StageFrameProc, err)
	return err
}
