package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/skryldev/videoproc/config"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/pipeline"
)

// TestPipeline_RunEndToEnd wires all four stage actors together with
// pass-through scripts and checks the whole-context invariant from spec.md
// §8: N source frames produce N-1 frames at the sink once an inter-frame
// stage is present.
func TestPipeline_RunEndToEnd(t *testing.T) {
	pool := execpool.New(4)
	defer pool.Close()

	const numFrames = 5
	src := newFakeSource(numFrames)
	sink := &fakeSink{}

	cfg := config.Default()
	cfg.InputURI = "fake://source"
	cfg.PacketBufferSize = 3

	p := pipeline.NewPipeline("ctx-1", cfg, src, sink, nil, nil, nil, pool, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(context.Background()) }()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Pipeline.Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pipeline.Run never returned")
	}

	written := sink.Written()
	if len(written) != numFrames-1 {
		t.Fatalf("sink frame count: got %d, want %d (N-1)", len(written), numFrames-1)
	}
	for i, f := range written {
		if f.Number != uint64(i) {
			t.Errorf("sink frame %d: got number %d, want %d", i, f.Number, i)
		}
	}
	if !src.opened || !src.closed {
		t.Error("Pipeline must open and close its Source")
	}
	if !sink.opened || !sink.closed {
		t.Error("Pipeline must open and close its Sink")
	}
}
