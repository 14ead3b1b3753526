package pipeline_test

import (
	"testing"

	"github.com/skryldev/videoproc/pipeline"
)

func TestStageFSM_HappyPathTransitions(t *testing.T) {
	fsm := pipeline.NewStageFSM()
	if fsm.State() != pipeline.StateInitializing {
		t.Fatalf("initial state: got %v, want Initializing", fsm.State())
	}

	steps := []pipeline.StageState{
		pipeline.StateWaitingForData,
		pipeline.StateProcessingData,
		pipeline.StateWaitingForData,
		pipeline.StateProcessingData,
		pipeline.StateFinished,
	}
	for _, s := range steps {
		if err := fsm.Transition(s); err != nil {
			t.Fatalf("Transition(%v): %v", s, err)
		}
	}
}

func TestStageFSM_RejectsInvalidTransition(t *testing.T) {
	fsm := pipeline.NewStageFSM()
	if err := fsm.Transition(pipeline.StateProcessingData); err == nil {
		t.Error("Initializing -> ProcessingData should be rejected")
	}
}

func TestStageFSM_TerminalStatesHaveNoTransitions(t *testing.T) {
	fsm := pipeline.NewStageFSM()
	_ = fsm.Transition(pipeline.StateWaitingForData)
	_ = fsm.Transition(pipeline.StateFinished)

	if err := fsm.Transition(pipeline.StateWaitingForData); err == nil {
		t.Error("Finished should be a terminal state with no outgoing transitions")
	}
}

func TestStageFSM_FailedReachableFromAnyNonTerminalState(t *testing.T) {
	for _, start := range []pipeline.StageState{
		pipeline.StateInitializing,
		pipeline.StateWaitingForData,
		pipeline.StateProcessingData,
	} {
		fsm := pipeline.NewStageFSM()
		for s := pipeline.StateInitializing; s != start; {
			// Drive the FSM to `start` via its normal happy-path edges.
			switch s {
			case pipeline.StateInitializing:
				_ = fsm.Transition(pipeline.StateWaitingForData)
				s = pipeline.StateWaitingForData
			case pipeline.StateWaitingForData:
				_ = fsm.Transition(pipeline.StateProcessingData)
				s = pipeline.StateProcessingData
			}
		}
		if err := fsm.Transition(pipeline.StateFailed); err != nil {
			t.Errorf("%v -> Failed should be allowed: %v", start, err)
		}
	}
}
