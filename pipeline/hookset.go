package pipeline

import (
	"time"

	"github.com/skryldev/videoproc/core"
)

// hookSet fans one stage's events out to every attached core.Hook. Hooks
// are never on the pipeline's critical path (spec.md §4.2/§9): a nil or
// empty hookSet costs nothing beyond the loop bounds check.
type hookSet []core.Hook

func (hs hookSet) started(contextID string, stage core.StageEvent) {
	for _, h := range hs {
		h.ContextStarted(contextID, stage)
	}
}

func (hs hookSet) packet(contextID string, stage core.StageEvent, packetNumber uint64, frameCount int, d time.Duration) {
	for _, h := range hs {
		h.PacketProcessed(contextID, stage, packetNumber, frameCount, d)
	}
}

func (hs hookSet) finished(contextID string, stage core.StageEvent, err error) {
	for _, h := range hs {
		h.ContextFinished(contextID, stage, err)
	}
}
