package pipeline

import (
	"fmt"
	"sync"
)

// StageState is one state of a pipeline stage's finite state machine,
// spec.md §4.2: every stage starts Initializing, moves to WaitingForData
// once ready, oscillates between WaitingForData and ProcessingData as
// packets arrive, and terminates in Finished or Failed.
type StageState int

const (
	StateInitializing StageState = iota
	StateWaitingForData
	StateProcessingData
	StateFinished
	StateFailed
)

func (s StageState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateWaitingForData:
		return "waiting_for_data"
	case StateProcessingData:
		return "processing_data"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var validTransitions = map[StageState][]StageState{
	StateInitializing:   {StateWaitingForData, StateFailed},
	StateWaitingForData:  {StateProcessingData, StateFinished, StateFailed},
	StateProcessingData: {StateWaitingForData, StateFinished, StateFailed},
	StateFinished:       nil,
	StateFailed:         nil,
}

// StageFSM is a mutex-protected state machine one stage actor drives.
// Every transition runs on the actor's own goroutine (the "single-threaded
// executor" spec.md §5 describes), so the mutex only guards reads from a
// supervisor or diagnostics collector on another goroutine.
type StageFSM struct {
	mu    sync.Mutex
	state StageState
}

// NewStageFSM creates an FSM in StateInitializing.
func NewStageFSM() *StageFSM {
	return &StageFSM{state: StateInitializing}
}

// State returns the current state.
func (f *StageFSM) State() StageState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Transition moves the FSM to to, returning an error if the move is not in
// validTransitions for the current state.
func (f *StageFSM) Transition(to StageState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, allowed := range validTransitions[f.state] {
		if allowed == to {
			f.state = to
			return nil
		}
	}
	return fmt.Errorf("pipeline: invalid stage transition %s -> %s", f.state, to)
}
