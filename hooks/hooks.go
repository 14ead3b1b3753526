// Package hooks provides production-ready core.Hook, core.Logger, and
// core.MetricsCollector implementations, generalized from the teacher's
// hooks package: a slog-backed logger adapter, a logging hook, an
// in-memory metrics collector, and a progress monitor grounded on
// original_source/src/appvideoproc/progress_monitor.cpp.
package hooks

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skryldev/videoproc/core"
)

// ── Structured logger adapter ─────────────────────────────────────────────

// SlogLogger wraps the standard library slog.Logger to satisfy core.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a logger backed by slog.
func NewSlogLogger(l *slog.Logger) *SlogLogger { return &SlogLogger{log: l} }

func (s *SlogLogger) Debug(msg string, fields ...interface{}) { s.log.Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...interface{})  { s.log.Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...interface{})  { s.log.Warn(msg, fields...) }
func (s *SlogLogger) Error(msg string, fields ...interface{}) { s.log.Error(msg, fields...) }

// ── Logging hook ───────────────────────────────────────────────────────────

// LoggingHook logs stage lifecycle and per-packet events.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) ContextStarted(contextID string, stage core.StageEvent) {
	h.logger.Debug("stage.started", "context", contextID, "stage", string(stage))
}

func (h *LoggingHook) PacketProcessed(contextID string, stage core.StageEvent, packetNumber uint64, frameCount int, d time.Duration) {
	h.logger.Debug("stage.packet",
		"context", contextID,
		"stage", string(stage),
		"packet", packetNumber,
		"frames", frameCount,
		"duration_ms", d.Milliseconds(),
	)
}

func (h *LoggingHook) ContextFinished(contextID string, stage core.StageEvent, err error) {
	if err != nil {
		h.logger.Error("stage.failed", "context", contextID, "stage", string(stage), "error", err.Error())
		return
	}
	h.logger.Debug("stage.finished", "context", contextID, "stage", string(stage))
}

var _ core.Hook = (*LoggingHook)(nil)

// ── In-memory metrics collector ───────────────────────────────────────────

// InMemoryMetrics accumulates metrics atomically; safe for concurrent use.
type InMemoryMetrics struct {
	mu sync.RWMutex

	stageDurationsMs map[core.StageEvent]int64
	stageErrors      map[core.StageEvent]map[string]int64
	opDurationsMs    map[string]int64
	opCalls          map[string]int64

	framesProcessed map[core.StageEvent]int64
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		stageDurationsMs: make(map[core.StageEvent]int64),
		stageErrors:      make(map[core.StageEvent]map[string]int64),
		opDurationsMs:    make(map[string]int64),
		opCalls:          make(map[string]int64),
		framesProcessed:  make(map[core.StageEvent]int64),
	}
}

func (m *InMemoryMetrics) RecordStageDuration(stage core.StageEvent, d time.Duration) {
	m.mu.Lock()
	m.stageDurationsMs[stage] += d.Milliseconds()
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordFramesProcessed(stage core.StageEvent, n int64) {
	m.mu.Lock()
	m.framesProcessed[stage] += n
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordError(stage core.StageEvent, category string) {
	m.mu.Lock()
	if m.stageErrors[stage] == nil {
		m.stageErrors[stage] = make(map[string]int64)
	}
	m.stageErrors[stage][category]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordOperationDuration(opName string, d time.Duration) {
	m.mu.Lock()
	m.opDurationsMs[opName] += d.Milliseconds()
	m.opCalls[opName]++
	m.mu.Unlock()
}

// Snapshot returns an immutable point-in-time copy of the accumulated
// metrics, suitable for rendering into the diagnostics report.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		StageDurationsMs: make(map[core.StageEvent]int64, len(m.stageDurationsMs)),
		FramesProcessed:  make(map[core.StageEvent]int64, len(m.framesProcessed)),
		OpDurationsMs:    make(map[string]int64, len(m.opDurationsMs)),
		OpCalls:          make(map[string]int64, len(m.opCalls)),
	}
	for k, v := range m.stageDurationsMs {
		snap.StageDurationsMs[k] = v
	}
	for k, v := range m.framesProcessed {
		snap.FramesProcessed[k] = v
	}
	for k, v := range m.opDurationsMs {
		snap.OpDurationsMs[k] = v
	}
	for k, v := range m.opCalls {
		snap.OpCalls[k] = v
	}
	return snap
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	StageDurationsMs map[core.StageEvent]int64
	FramesProcessed  map[core.StageEvent]int64
	OpDurationsMs    map[string]int64
	OpCalls          map[string]int64
}

var _ core.MetricsCollector = (*InMemoryMetrics)(nil)

// ── Metrics hook ───────────────────────────────────────────────────────────

// MetricsHook feeds stage events into a core.MetricsCollector.
type MetricsHook struct {
	collector core.MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) ContextStarted(string, core.StageEvent) {}

func (h *MetricsHook) PacketProcessed(_ string, stage core.StageEvent, _ uint64, frameCount int, d time.Duration) {
	h.collector.RecordStageDuration(stage, d)
	h.collector.RecordFramesProcessed(stage, int64(frameCount))
}

func (h *MetricsHook) ContextFinished(_ string, stage core.StageEvent, err error) {
	if err != nil {
		h.collector.RecordError(stage, "pipeline")
	}
}

var _ core.Hook = (*MetricsHook)(nil)

// ── Progress monitor ──────────────────────────────────────────────────────

// ProgressMonitor is an observer subscribed to per-stage frame-count
// updates, grounded on original_source/src/appvideoproc/progress_monitor.cpp:
// it is not on the critical path and may be omitted without affecting
// correctness. When non-nil, report is invoked on every sink
// PacketProcessed with the cumulative sink frame count.
type ProgressMonitor struct {
	total    int64 // expected total frames, 0 if unknown
	done     int64
	report   func(done, total int64)
}

// NewProgressMonitor creates a ProgressMonitor. report may be nil.
func NewProgressMonitor(total int64, report func(done, total int64)) *ProgressMonitor {
	return &ProgressMonitor{total: total, report: report}
}

func (p *ProgressMonitor) ContextStarted(string, core.StageEvent) {}

func (p *ProgressMonitor) PacketProcessed(_ string, stage core.StageEvent, _ uint64, frameCount int, _ time.Duration) {
	if stage != core.StageSink {
		return
	}
	done := atomic.AddInt64(&p.done, int64(frameCount))
	if p.report != nil {
		p.report(done, atomic.LoadInt64(&p.total))
	}
}

func (p *ProgressMonitor) ContextFinished(string, core.StageEvent, error) {}

// Done returns the cumulative frame count observed at the sink.
func (p *ProgressMonitor) Done() int64 { return atomic.LoadInt64(&p.done) }

// Summary renders a one-line human-readable progress string.
func (p *ProgressMonitor) Summary() string {
	total := atomic.LoadInt64(&p.total)
	done := atomic.LoadInt64(&p.done)
	if total <= 0 {
		return fmt.Sprintf("%d frames processed", done)
	}
	return fmt.Sprintf("%d/%d frames processed", done, total)
}

var _ core.Hook = (*ProgressMonitor)(nil)
