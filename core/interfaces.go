package core

import "time"

// Logger is a minimal structured logging interface, satisfied by
// hooks.SlogLogger. hooks.LoggingHook and cmd/videoproc log through this
// interface rather than calling slog directly, so tests can substitute a
// recording logger; the stage actors and the supervisor do not log.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// StageEvent identifies the pipeline stage a Hook observation concerns.
type StageEvent string

const (
	StageSource          StageEvent = "source"
	StageFrameProc       StageEvent = "frame_processor"
	StageInterFrameProc  StageEvent = "interframe_processor"
	StageSink            StageEvent = "sink"
)

// Hook is an optional observer subscribed to per-stage lifecycle events. It
// is never on the critical path: a context proceeds identically whether or
// not a Hook is attached.
type Hook interface {
	// ContextStarted fires once per context, per stage, when that stage's
	// FSM leaves Initializing.
	ContextStarted(contextID string, stage StageEvent)
	// PacketProcessed fires once per packet handled by a stage.
	PacketProcessed(contextID string, stage StageEvent, packetNumber uint64, frameCount int, d time.Duration)
	// ContextFinished fires once per context, per stage, on flush or
	// failure.
	ContextFinished(contextID string, stage StageEvent, err error)
}

// MetricsCollector receives performance observations from the pipeline,
// fed by hooks.MetricsHook. The scripting engine does not report to it, so
// RecordOperationDuration is only called by code that uses a collector
// directly.
type MetricsCollector interface {
	RecordStageDuration(stage StageEvent, d time.Duration)
	RecordFramesProcessed(stage StageEvent, n int64)
	RecordError(stage StageEvent, category string)
	RecordOperationDuration(opName string, d time.Duration)
}
