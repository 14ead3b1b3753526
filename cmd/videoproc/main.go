// Command videoproc runs the staged video transformation pipeline spec.md
// §6 describes: demux/decode a source, run a per-frame and/or inter-frame
// script over each frame via the tiling-scheduled scripting engine, encode
// and mux the result. Grounded on the teacher's CLI entry point shape,
// generalized from five82-drapto's cobra-based command structure.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/skryldev/videoproc/adapters/codec"
	"github.com/skryldev/videoproc/adapters/rtspsrc"
	"github.com/skryldev/videoproc/config"
	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/diagnostics"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/hooks"
	"github.com/skryldev/videoproc/pipeline"
	"github.com/skryldev/videoproc/scripting"
	_ "github.com/skryldev/videoproc/scripting/ops"
	"github.com/skryldev/videoproc/videoerr"
)

func main() {
	cfg := config.Default()
	var cutoffXY string
	var timeoutSeconds int

	root := &cobra.Command{
		Use:   "videoproc",
		Short: "Staged video transformation engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cutoffXY != "" {
				x, y, err := parseCutoffPair(cutoffXY)
				if err != nil {
					return err
				}
				cfg.CutoffX, cfg.CutoffY = x, y
			}
			cfg.Timeout = time.Duration(timeoutSeconds) * time.Second
			if err := config.Validate(cfg); err != nil {
				return videoerr.New(videoerr.CategoryConfig, "cmd.videoproc", err)
			}
			return run(cfg)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&cfg.InputURI, "input", "i", "", "input URI (file path or rtsp://...)")
	flags.StringVarP(&cfg.OutputURI, "output", "o", cfg.OutputURI, "output container path")
	flags.StringVar(&cfg.FrameScriptPath, "frame-script", "", "per-frame script path")
	flags.StringVar(&cfg.InterframeScriptPath, "interframe-script", "", "inter-frame script path")
	flags.IntVar(&cfg.InputBufferSize, "input-buffer", cfg.InputBufferSize, "source staging buffer capacity")
	flags.IntVar(&cfg.PacketBufferSize, "packet-buffer", cfg.PacketBufferSize, "frames per packet / inter-stage buffer capacity")
	flags.IntVar(&cfg.OutputBufferSize, "output-buffer", cfg.OutputBufferSize, "sink staging buffer capacity")
	flags.StringVar(&cutoffXY, "cutoff", "", "tile cutoff WxH, e.g. 256x256 (overrides --xcutoff/--ycutoff)")
	flags.IntVar(&cfg.CutoffX, "xcutoff", cfg.CutoffX, "tiling scheduler X cutoff")
	flags.IntVar(&cfg.CutoffY, "ycutoff", cfg.CutoffY, "tiling scheduler Y cutoff")
	flags.IntVar(&cfg.Threads, "threads", cfg.Threads, "worker pool size (0 = host parallelism)")
	flags.IntVar(&timeoutSeconds, "timeout", 0, "overall wall-clock deadline in seconds (0 = none)")
	flags.StringVar(&cfg.DiagnosticsPath, "diagnostics", "", "write a Markdown diagnostics report to this path")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", false, "suppress console progress output")
	flags.IntVar(&cfg.Framerate, "framerate", cfg.Framerate, "output framerate")
	flags.StringVar(&cfg.PixelFormat, "pixel-format", cfg.PixelFormat, "output pixel format")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(videoerr.ExitCode(err))
	}
}

func parseCutoffPair(s string) (int, int, error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--cutoff expects WxH, got %q", s)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("--cutoff: invalid width %q", parts[0])
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("--cutoff: invalid height %q", parts[1])
	}
	return x, y, nil
}

func run(cfg config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	logger := hooks.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	metrics := hooks.NewInMemoryMetrics()
	progress := hooks.NewProgressMonitor(0, nil)
	hookList := []core.Hook{
		hooks.NewLoggingHook(logger),
		hooks.NewMetricsHook(metrics),
		progress,
	}

	var bar *progressbar.ProgressBar
	if !cfg.Quiet {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription(color.CyanString("processing")),
			progressbar.OptionShowCount(),
		)
		hookList = append(hookList, barHook{bar: bar})
	}

	pool := execpool.New(cfg.Threads)
	defer pool.Close()

	source, err := openSource(cfg.InputURI)
	if err != nil {
		return err
	}
	sink := codec.NewFileSink(cfg.OutputURI, cfg.Framerate, cfg.PixelFormat)

	processor := scripting.NewImageProcessor(nil)
	processor.AddParam("cutoff_x", float64(cfg.CutoffX))
	processor.AddParam("cutoff_y", float64(cfg.CutoffY))

	frameScript, err := loadScript(processor, cfg.FrameScriptPath)
	if err != nil {
		return err
	}
	interframeScript, err := loadScript(processor, cfg.InterframeScriptPath)
	if err != nil {
		return err
	}

	contextID := fmt.Sprintf("videoproc-%d", time.Now().UnixNano())
	p := pipeline.NewPipeline(contextID, cfg, source, sink, processor, frameScript, interframeScript, pool, hookList)

	started := time.Now()
	runErr := p.Run(ctx)
	duration := time.Since(started)

	if cfg.DiagnosticsPath != "" {
		report := diagnostics.Report{
			ContextID: contextID,
			Started:   started,
			Duration:  duration,
			Metrics:   metrics.Snapshot(),
			Progress:  progress.Summary(),
		}
		if err := diagnostics.Render(report, cfg.DiagnosticsPath); err != nil {
			logger.Warn("diagnostics render failed", "error", err.Error())
		}
	}

	return runErr
}

func openSource(uri string) (pipeline.Source, error) {
	if strings.HasPrefix(uri, "rtsp://") {
		return rtspsrc.NewSource(uri), nil
	}
	return codec.NewFileSource(uri), nil
}

func loadScript(processor *scripting.ImageProcessor, path string) (*scripting.CompiledScript, error) {
	if path == "" {
		return nil, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, videoerr.New(videoerr.CategoryIO, "cmd.videoproc.load_script", err)
	}
	return processor.Compile(string(src))
}

// barHook drives the console progress bar from sink packet events.
type barHook struct {
	bar *progressbar.ProgressBar
}

func (h barHook) ContextStarted(string, core.StageEvent) {}

func (h barHook) PacketProcessed(_ string, stage core.StageEvent, _ uint64, frameCount int, _ time.Duration) {
	if stage != core.StageSink {
		return
	}
	_ = h.bar.Add(frameCount)
}

func (h barHook) ContextFinished(_ string, stage core.StageEvent, err error) {
	if stage == core.StageSink {
		_ = h.bar.Finish()
	}
}
