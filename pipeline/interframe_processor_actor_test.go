package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/pipeline"
	"github.com/skryldev/videoproc/scripting"
	_ "github.com/skryldev/videoproc/scripting/ops"
	"github.com/skryldev/videoproc/videoerr"
)

func grayFrame(n uint64, v byte) core.Frame {
	img := core.NewImage(1, 1, 0, core.ChannelsGray)
	img.Set(0, 0, 0, v)
	return core.Frame{Number: n, Image: img}
}

// TestInterFrameProcessorActor_NMinusOneOutputs exercises spec.md §8's
// "output-frame count = input-frame count - 1" invariant and its dense
// output packet numbering starting at 0.
func TestInterFrameProcessorActor_NMinusOneOutputs(t *testing.T) {
	pool := execpool.New(4)
	defer pool.Close()

	// diff(a, b) highlights where consecutive frames differ; using it here
	// just exercises a real two-operand script, not the exact values.
	compiled, err := scripting.Compile(`a = input(); b = input(1); c = diff(a, b); c`, scripting.Default)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	proc := scripting.NewImageProcessor(scripting.Default)

	in := pipeline.NewBuffer(8)
	out := pipeline.NewBuffer(8)
	actor := pipeline.NewInterFrameProcessorActor("ctx-1", in, out, proc, compiled, pool, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- actor.Run(context.Background()) }()

	ctx := context.Background()
	frames := []core.Frame{grayFrame(0, 10), grayFrame(1, 20), grayFrame(2, 30), grayFrame(3, 40)}
	if err := in.Push(ctx, core.Packet{Number: 0, Frames: frames}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := in.Push(ctx, core.Packet{Number: 1, Frames: []core.Frame{core.Sentinel()}}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	var outFrames []core.Frame
	var wantPacketNum uint64
	for {
		p, err := out.Pop(ctx)
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if p.Number != wantPacketNum {
			t.Fatalf("output packet number: got %d, want %d", p.Number, wantPacketNum)
		}
		wantPacketNum++
		outFrames = append(outFrames, p.Frames...)
		if p.IsFlush() {
			break
		}
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("InterFrameProcessorActor.Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("InterFrameProcessorActor.Run never returned")
	}

	if len(outFrames) != len(frames)-1 {
		t.Fatalf("output frame count: got %d, want %d (N-1)", len(outFrames), len(frames)-1)
	}
	for i, f := range outFrames {
		if f.Number != uint64(i) {
			t.Errorf("output frame %d: got number %d, want %d", i, f.Number, i)
		}
	}
}

// TestInterFrameProcessorActor_SingleFrameYieldsNoPairs exercises the edge
// case where a context has exactly one frame: there is no pair to evaluate,
// so the only output is the empty flush packet.
func TestInterFrameProcessorActor_SingleFrameYieldsNoPairs(t *testing.T) {
	pool := execpool.New(2)
	defer pool.Close()

	in := pipeline.NewBuffer(4)
	out := pipeline.NewBuffer(4)
	actor := pipeline.NewInterFrameProcessorActor("ctx-1", in, out, nil, nil, pool, nil)

	go actor.Run(context.Background())

	ctx := context.Background()
	if err := in.Push(ctx, core.Packet{Number: 0, Frames: []core.Frame{grayFrame(0, 5)}}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := in.Push(ctx, core.Packet{Number: 1, Frames: []core.Frame{core.Sentinel()}}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	p, err := out.Pop(ctx)
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if p.Number != 0 || !p.IsFlush() || len(p.Frames) != 0 {
		t.Errorf("single-frame context should emit exactly one empty flush packet, got %+v", p)
	}
}

// TestInterFrameProcessorActor_NonContiguousFrameNumberIsAnError exercises
// the gap-detection behavior documented on step().
func TestInterFrameProcessorActor_NonContiguousFrameNumberIsAnError(t *testing.T) {
	pool := execpool.New(2)
	defer pool.Close()

	in := pipeline.NewBuffer(4)
	out := pipeline.NewBuffer(4)
	actor := pipeline.NewInterFrameProcessorActor("ctx-1", in, out, nil, nil, pool, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- actor.Run(context.Background()) }()

	ctx := context.Background()
	frames := []core.Frame{grayFrame(0, 1), grayFrame(2, 2)} // gap: 0 -> 2
	if err := in.Push(ctx, core.Packet{Number: 0, Frames: frames}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, videoerr.ErrNonContiguousFrames) {
			t.Fatalf("Run error: got %v, want ErrNonContiguousFrames", err)
		}
	case <-time.After(time.Second):
		t.Fatal("InterFrameProcessorActor.Run never returned after a non-contiguous frame")
	}
}

// TestInterFrameProcessorActor_EvaluationOperandOrder confirms the earlier
// frame of the pair is passed as the primary operand and the later frame as
// the secondary operand, matching spec.md §4.4's "(f[i], f[i+1])" ordering.
func TestInterFrameProcessorActor_EvaluationOperandOrder(t *testing.T) {
	pool := execpool.New(2)
	defer pool.Close()

	// The script returns its primary operand unchanged, so the output sample
	// shows which frame of the pair landed in the primary slot.
	compiled, err := scripting.Compile(`a = input(); b = input(1); a`, scripting.Default)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	proc := scripting.NewImageProcessor(scripting.Default)

	in := pipeline.NewBuffer(4)
	out := pipeline.NewBuffer(4)
	actor := pipeline.NewInterFrameProcessorActor("ctx-1", in, out, proc, compiled, pool, nil)

	go actor.Run(context.Background())

	ctx := context.Background()
	frames := []core.Frame{grayFrame(0, 200), grayFrame(1, 50)}
	if err := in.Push(ctx, core.Packet{Number: 0, Frames: frames}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := in.Push(ctx, core.Packet{Number: 1, Frames: []core.Frame{core.Sentinel()}}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	p, err := out.Pop(ctx)
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if len(p.Frames) != 1 {
		t.Fatalf("expected exactly one pair output, got %d", len(p.Frames))
	}
	// The earlier frame (200) is the primary operand; the later frame (50)
	// would show here if the operands were swapped.
	if got := p.Frames[0].Image.At(0, 0, 0); got != 200 {
		t.Errorf("primary operand: got %d, want 200 (the earlier frame)", got)
	}
}
