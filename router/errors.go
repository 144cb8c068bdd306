package router

import (
	"errors"
	"fmt"
)

// Predefined error types.
var (
	// ErrRoutingCycle indicates a notification chain exceeded the recursion
	// depth limit.
	ErrRoutingCycle = errors.New("routing cycle detected")

	// ErrParticipantRequired indicates an empty participant identity.
	ErrParticipantRequired = errors.New("participant identity is required")

	// ErrSignalRequired indicates a binding with an empty signal.
	ErrSignalRequired = errors.New("binding signal is required")

	// ErrNilReaction indicates a binding with a nil reaction.
	ErrNilReaction = errors.New("binding reaction must not be nil")
)

// CycleError reports the notification that tripped the depth guard.
type CycleError struct {
	Participant Participant
	Signal      Signal
	Depth       int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("signal %s from %s: %v (depth %d)", e.Signal, e.Participant, ErrRoutingCycle, e.Depth)
}

func (e *CycleError) Unwrap() error {
	return ErrRoutingCycle
}
