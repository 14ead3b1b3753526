// Package config is the top-level configuration for the pipeline and the
// scripting engine, generalized from the teacher's config.Config: safe
// defaults so callers can start from Default() and override only what they
// need, and a Validate pass that rejects inconsistent values before the
// supervisor wires up any stage.
package config

import (
	"errors"
	"time"
)

// Config mirrors the CLI flags spec.md §6 names.
type Config struct {
	// Required inputs.
	InputURI             string // -i
	OutputURI            string // -o, default "output.mp4"
	FrameScriptPath      string // --frame-script
	InterframeScriptPath string // --interframe-script

	// Staging buffer capacities (spec.md §4.1, §5).
	InputBufferSize  int // --input-buffer
	PacketBufferSize int // --packet-buffer, must be >= 3
	OutputBufferSize int // --output-buffer

	// Tiling scheduler cutoffs (spec.md §4.9).
	CutoffX int // --xcutoff, default 512
	CutoffY int // --ycutoff, default 512

	// Execution substrate (spec.md §5).
	Threads int // --threads, 0 = host parallelism

	// Overall wall-clock deadline (spec.md §5, §9).
	Timeout time.Duration // --timeout (seconds)

	// Optional post-run Markdown report (spec.md §6).
	DiagnosticsPath string // --diagnostics

	Quiet bool // --quiet

	// Sink encode parameters (spec.md §4.5).
	Framerate   int    // frames/sec, default 25 (timebase = 1/Framerate)
	PixelFormat string // default "yuv420p"

	// Storage backend for the rendered output / diagnostics report.
	Storage StorageBackend
	S3      S3Config
}

// StorageBackend names a storage backend for the sink's output container
// and the diagnostics report. Validate checks that StorageS3 comes with a
// bucket; cmd/videoproc does not read this field, and output is always
// written to the local OutputURI path.
type StorageBackend string

const (
	StorageLocal StorageBackend = "local"
	StorageS3    StorageBackend = "s3"
)

// S3Config configures the S3-compatible storage adapter.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string // optional custom endpoint (MinIO, etc.)
	UsePathStyle bool
}

const (
	DefaultInputBuffer  = 8
	DefaultPacketBuffer = 4
	DefaultOutputBuffer = 8
	DefaultCutoff       = 512
	DefaultFramerate    = 25
	MinPacketBuffer     = 3
)

// Default returns a Config populated with spec.md §6's documented defaults.
func Default() Config {
	return Config{
		OutputURI:        "output.mp4",
		InputBufferSize:  DefaultInputBuffer,
		PacketBufferSize: DefaultPacketBuffer,
		OutputBufferSize: DefaultOutputBuffer,
		CutoffX:          DefaultCutoff,
		CutoffY:          DefaultCutoff,
		Threads:          0,
		Framerate:        DefaultFramerate,
		PixelFormat:      "yuv420p",
		Storage:          StorageLocal,
	}
}

// Validate returns an error if the configuration is inconsistent. cmd/videoproc
// calls it once before the pipeline is constructed.
func Validate(c Config) error {
	if c.InputURI == "" {
		return errors.New("config: input URI (-i) is required")
	}
	// FrameScriptPath and InterframeScriptPath are both optional: a stage
	// with no script configured runs as a pass-through.
	if c.PacketBufferSize < MinPacketBuffer {
		return errors.New("config: packet-buffer must be >= 3")
	}
	if c.InputBufferSize <= 0 {
		return errors.New("config: input-buffer must be positive")
	}
	if c.OutputBufferSize <= 0 {
		return errors.New("config: output-buffer must be positive")
	}
	if c.CutoffX <= 0 || c.CutoffY <= 0 {
		return errors.New("config: xcutoff/ycutoff must be positive")
	}
	if c.Threads < 0 {
		return errors.New("config: threads must be >= 0")
	}
	if c.Storage == StorageS3 && c.S3.Bucket == "" {
		return errors.New("config: s3 storage requires a bucket")
	}
	return nil
}
