package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/skryldev/videoproc/config"
	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
)

// Pipeline wires the four stage actors into a running context: source,
// frame processor, inter-frame processor, sink, connected by three staging
// Buffers. Grounded on the teacher's Processor.Start/Stop coordinated
// goroutine lifecycle, replacing its single worker pool with
// golang.org/x/sync/errgroup's first-error-wins fan-out (five82-reel's
// supervisor style).
type Pipeline struct {
	contextID  string
	cfg        config.Config
	source     Source
	sink       Sink
	processor  *scripting.ImageProcessor
	frameScript      *scripting.CompiledScript
	interframeScript *scripting.CompiledScript
	pool       *execpool.Pool
	hooks      hookSet

	sourceActor *SourceActor
	frameActor  *FrameProcessorActor
	interActor  *InterFrameProcessorActor
	sinkActor   *SinkActor
}

// NewPipeline constructs a Pipeline. frameScript and interframeScript may
// each be nil, making that stage a pass-through.
func NewPipeline(contextID string, cfg config.Config, source Source, sink Sink, processor *scripting.ImageProcessor, frameScript, interframeScript *scripting.CompiledScript, pool *execpool.Pool, hooks []core.Hook) *Pipeline {
	hs := hookSet(hooks)

	srcToFrame := NewBuffer(cfg.InputBufferSize)
	frameToInter := NewBuffer(cfg.PacketBufferSize)
	interToSink := NewBuffer(cfg.OutputBufferSize)

	p := &Pipeline{
		contextID:        contextID,
		cfg:              cfg,
		source:           source,
		sink:             sink,
		processor:        processor,
		frameScript:      frameScript,
		interframeScript: interframeScript,
		pool:             pool,
		hooks:            hs,
	}

	p.sourceActor = NewSourceActor(contextID, source, srcToFrame, cfg.PacketBufferSize, hs)
	p.frameActor = NewFrameProcessorActor(contextID, srcToFrame, frameToInter, processor, frameScript, pool, hs)
	p.interActor = NewInterFrameProcessorActor(contextID, frameToInter, interToSink, processor, interframeScript, pool, hs)
	p.sinkActor = NewSinkActor(contextID, interToSink, sink, hs)

	return p
}

// Run starts all four stage actors and blocks until the context drains
// through the sink or any stage fails. If cfg.Timeout is positive, the run
// is bounded by it. The first stage error observed cancels every other
// stage via the shared errgroup context.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.sourceActor.Run(gctx) })
	g.Go(func() error { return p.frameActor.Run(gctx) })
	g.Go(func() error { return p.interActor.Run(gctx) })
	g.Go(func() error { return p.sinkActor.Run(gctx) })
	return g.Wait()
}

// StageStates reports the current FSM state of every stage, for
// diagnostics rendering.
func (p *Pipeline) StageStates() map[core.StageEvent]StageState {
	return map[core.StageEvent]StageState{
		core.StageSource:         p.sourceActor.State(),
		core.StageFrameProc:      p.frameActor.State(),
		core.StageInterFrameProc: p.interActor.State(),
		core.StageSink:           p.sinkActor.State(),
	}
}
