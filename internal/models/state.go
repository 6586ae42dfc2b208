package models

import (
	"errors"
	"fmt"
)

// Phase tags the variant held by a ProcessingState.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseRunning:
		return "RUNNING"
	case PhaseSucceeded:
		return "SUCCEEDED"
	case PhaseFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ProcessingState is the observable state of the operation pipeline. Which
// fields are meaningful depends on Phase:
//
//	Idle:      none
//	Running:   Progress, Message
//	Succeeded: Progress (100), Message, Outputs (names only)
//	Failed:    Reason
type ProcessingState struct {
	Phase    Phase    `json:"phase"`
	Progress float64  `json:"progress"`
	Message  string   `json:"message,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Outputs  []string `json:"outputs,omitempty"`
}

func Idle() ProcessingState {
	return ProcessingState{Phase: PhaseIdle}
}

func Running(progress float64, message string) ProcessingState {
	return ProcessingState{Phase: PhaseRunning, Progress: progress, Message: message}
}

func Succeeded(outputs []string) ProcessingState {
	return ProcessingState{Phase: PhaseSucceeded, Progress: 100, Message: "Complete!", Outputs: outputs}
}

func Failed(reason string) ProcessingState {
	return ProcessingState{Phase: PhaseFailed, Reason: reason}
}

// IsProcessing reports whether an operation is in flight.
func (s ProcessingState) IsProcessing() bool {
	return s.Phase == PhaseRunning
}

// Err returns the failure reason as an error, or nil outside the Failed phase.
func (s ProcessingState) Err() error {
	if s.Phase != PhaseFailed {
		return nil
	}
	return errors.New(s.Reason)
}
