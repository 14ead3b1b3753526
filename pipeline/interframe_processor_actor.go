package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
	"github.com/skryldev/videoproc/videoerr"
)

// InterFrameProcessorActor runs the inter-frame script against consecutive
// pairs of frames (spec.md §4.4). It keeps a one-frame re-ordering window:
// the most recently seen frame is retained as the left operand f[i] of the
// next pair (f[i], f[i+1]), regardless of which input packet each frame
// arrived in, so packet boundaries never change the output. Frame numbers
// arriving at this stage must be contiguous; a gap surfaces as
// ErrNonContiguousFrames.
//
// Output packet numbers are dense starting at 0 (spec.md §4.4), independent
// of the input packet numbering the frame processor preserves, and output
// frame numbers are assigned from a running counter so N total input
// frames in a context yield exactly N-1 output frames (spec.md §8).
type InterFrameProcessorActor struct {
	contextID string
	in, out   *Buffer
	processor *scripting.ImageProcessor
	script    *scripting.CompiledScript
	pool      *execpool.Pool
	hooks     hookSet
	fsm       *StageFSM

	prev          *core.Frame
	framesCreated uint64
	outPacketNum  uint64

	mailbox *execpool.Actor
}

// NewInterFrameProcessorActor creates an InterFrameProcessorActor.
func NewInterFrameProcessorActor(contextID string, in, out *Buffer, processor *scripting.ImageProcessor, script *scripting.CompiledScript, pool *execpool.Pool, hooks hookSet) *InterFrameProcessorActor {
	return &InterFrameProcessorActor{
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
func (a *InterFrameProcessorActor) State() StageState { return a.fsm.State() }

// Run drives the stage to completion on its own single-threaded executor
// (spec.md §5: "each stateful actor binds to a single-threaded executor"):
// runLoop's re-ordering window (prev, framesCreated, outPacketNum) and FSM
// are only ever touched from the actor's dedicated mailbox goroutine, via
// execpool.SendSync.
func (a *InterFrameProcessorActor) Run(ctx context.Context) error {
	err := execpool.SendSync(a.mailbox, func() error { return a.runLoop(ctx) })
	a.mailbox.Stop()
	return err
}

// runLoop processes packets until a flush packet arrives, then closes out.
func (a *InterFrameProcessorActor) runLoop(ctx context.Context) error {
	if err := a.fsm.Transition(StateWaitingForData); err != nil {
		return a.fail(err)
	}
	a.hooks.started(a.contextID, core.StageInterFrameProc)

	for {
		if err := a.fsm.Transition(StateProcessingData); err != nil {
			return a.fail(err)
		}

		packet, err := a.in.Pop(ctx)
		if err != nil {
			return a.fail(err)
		}

		start := time.Now()
		var outFrames []core.Frame
		sawSentinel := len(packet.Frames) == 0

		for _, f := range packet.Frames {
			if f.IsSentinel() {
				sawSentinel = true
				continue
			}

			pair, err := a.step(f)
			if err != nil {
				return a.fail(err)
			}
			if pair != nil {
				outFrames = append(outFrames, *pair)
			}
		}

		if len(outFrames) > 0 {
			if err := a.out.Push(ctx, core.Packet{Number: a.outPacketNum, Frames: outFrames}); err != nil {
				return a.fail(err)
			}
			a.hooks.packet(a.contextID, core.StageInterFrameProc, a.outPacketNum, len(outFrames), time.Since(start))
			a.outPacketNum++
		}

		if sawSentinel {
			if err := a.out.Push(ctx, core.Packet{Number: a.outPacketNum, Frames: nil}); err != nil {
				return a.fail(err)
			}
			a.hooks.packet(a.contextID, core.StageInterFrameProc, a.outPacketNum, 0, time.Since(start))
			a.outPacketNum++
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
	a.hooks.finished(a.contextID, core.StageInterFrameProc, nil)
	return nil
}

// step advances the re-ordering window by one frame f[i+1], evaluating the
// inter-frame script on (f[i], f[i+1]) if a left operand is already held.
// It returns nil if f is the first frame of the context (no pair yet).
func (a *InterFrameProcessorActor) step(f core.Frame) (*core.Frame, error) {
	if a.prev != nil && f.Number != a.prev.Number+1 {
		return nil, videoerr.New(videoerr.CategoryInvalidParam, "pipeline.interframe", fmt.Errorf("%w: got %d after %d", videoerr.ErrNonContiguousFrames, f.Number, a.prev.Number))
	}

	var pair *core.Frame
	if a.prev != nil {
		var outImage *core.Image
		if a.script == nil {
			outImage = f.Image
		} else {
			item, err := a.processor.Evaluate(a.pool, a.script, a.prev.Image, f.Image)
			if err != nil {
				return nil, err
			}
			outImage = item.Image()
		}
		pair = &core.Frame{Number: a.framesCreated, Image: outImage}
		a.framesCreated++
	}

	prevCopy := f
	a.prev = &prevCopy
	return pair, nil
}

func (a *InterFrameProcessorActor) fail(err error) error {
	_ = a.fsm.Transition(StateFailed)
	a.hooks.finished(a.contextID, core.StageInterFrameProc, err)
	return err
}
