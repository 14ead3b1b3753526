// Package diagnostics renders the optional post-run Markdown report
// spec.md §6 names: per-stage timing/frame-count summaries from the
// metrics collector, plus optional before/after frame thumbnails exported
// through govips, grounded on the teacher's adapters/vips.Processor export
// path.
package diagnostics

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/davidbyttow/govips/v2/vips"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/hooks"
)

// Report is the data a diagnostics run accumulates before rendering.
type Report struct {
	ContextID string
	Started   time.Time
	Duration  time.Duration
	Metrics   hooks.MetricsSnapshot
	Progress  string

	// Thumbnails maps a caption (e.g. "frame 0 before", "frame 0 after")
	// to an encoded JPEG thumbnail. Optional — nil or empty Thumbnails
	// renders a report with no images section.
	Thumbnails map[string][]byte
}

// RenderThumbnail exports img as a small JPEG thumbnail via govips, for
// embedding in the Markdown report. maxDim bounds the longest side.
func RenderThumbnail(img *core.Image, maxDim int) ([]byte, error) {
	if img.Channels() != core.ChannelsGray {
		return nil, fmt.Errorf("diagnostics: thumbnail rendering only supports grayscale images")
	}

	vipsImg, err := vips.NewImageFromBuffer(encodeRawGray(img))
	if err != nil {
		return nil, fmt.Errorf("diagnostics: decode frame for thumbnail: %w", err)
	}
	defer vipsImg.Close()

	scale := 1.0
	if img.W > maxDim || img.H > maxDim {
		if img.W > img.H {
			scale = float64(maxDim) / float64(img.W)
		} else {
			scale = float64(maxDim) / float64(img.H)
		}
	}
	if scale < 1.0 {
		if err := vipsImg.Resize(scale, vips.KernelLanczos3); err != nil {
			return nil, fmt.Errorf("diagnostics: resize thumbnail: %w", err)
		}
	}

	buf, _, err := vipsImg.ExportJpeg(vips.NewJpegExportParams())
	if err != nil {
		return nil, fmt.Errorf("diagnostics: export thumbnail: %w", err)
	}
	return buf, nil
}

// encodeRawGray wraps a grayscale plane as a minimal uncompressed PGM
// buffer, the smallest format govips' loader accepts without a dedicated
// raw-plane entry point.
func encodeRawGray(img *core.Image) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "P5\n%d %d\n255\n", img.W, img.H)
	for y := 0; y < img.H; y++ {
		buf.Write(img.Chans[0].Data[y*img.Chans[0].Stride : y*img.Chans[0].Stride+img.W])
	}
	return buf.Bytes()
}

// Render writes r as a Markdown document to path.
func Render(r Report, path string) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Pipeline diagnostics: %s\n\n", r.ContextID)
	fmt.Fprintf(&buf, "Started: %s\n\n", r.Started.Format(time.RFC3339))
	fmt.Fprintf(&buf, "Duration: %s\n\n", r.Duration)
	if r.Progress != "" {
		fmt.Fprintf(&buf, "Progress: %s\n\n", r.Progress)
	}

	buf.WriteString("## Stage durations\n\n")
	buf.WriteString("| Stage | Duration (ms) | Frames |\n|---|---|---|\n")
	stages := make([]core.StageEvent, 0, len(r.Metrics.StageDurationsMs))
	for s := range r.Metrics.StageDurationsMs {
		stages = append(stages, s)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })
	for _, s := range stages {
		fmt.Fprintf(&buf, "| %s | %d | %d |\n", s, r.Metrics.StageDurationsMs[s], r.Metrics.FramesProcessed[s])
	}
	buf.WriteString("\n")

	if len(r.Metrics.OpCalls) > 0 {
		buf.WriteString("## Operation durations\n\n")
		buf.WriteString("| Operation | Calls | Duration (ms) |\n|---|---|---|\n")
		ops := make([]string, 0, len(r.Metrics.OpCalls))
		for op := range r.Metrics.OpCalls {
			ops = append(ops, op)
		}
		sort.Strings(ops)
		for _, op := range ops {
			fmt.Fprintf(&buf, "| %s | %d | %d |\n", op, r.Metrics.OpCalls[op], r.Metrics.OpDurationsMs[op])
		}
		buf.WriteString("\n")
	}

	if len(r.Thumbnails) > 0 {
		buf.WriteString("## Frame samples\n\n")
		captions := make([]string, 0, len(r.Thumbnails))
		for c := range r.Thumbnails {
			captions = append(captions, c)
		}
		sort.Strings(captions)
		for _, caption := range captions {
			fmt.Fprintf(&buf, "**%s** (%d bytes, embedded separately)\n\n", caption, len(r.Thumbnails[caption]))
		}
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}
