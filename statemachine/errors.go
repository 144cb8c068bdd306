package statemachine

import (
	"errors"
	"fmt"
)

// Predefined error types.
var (
	// ErrInvalidTransition indicates that no rule exists for the current
	// state and trigger.
	ErrInvalidTransition = errors.New("no transition for trigger in current state")
	// ErrGuardRejected indicates that a guard vetoed the transition.
	ErrGuardRejected = errors.New("transition rejected by guard")
	// ErrSideEffectFailed indicates that the transition effect failed and the
	// state was rolled back.
	ErrSideEffectFailed = errors.New("transition side effect failed")

	// ErrInitialStateRequired indicates that an initial state is required.
	ErrInitialStateRequired = errors.New("initial state is required")
	// ErrStateNameRequired indicates that a state name is required.
	ErrStateNameRequired = errors.New("state name is required")
	// ErrTriggerNameRequired indicates that a trigger name is required.
	ErrTriggerNameRequired = errors.New("trigger name is required")
	// ErrDuplicateRule indicates two rules share the same state and trigger.
	ErrDuplicateRule = errors.New("duplicate rule for state and trigger")
	// ErrRuleNotFound indicates no rule exists for the named state and trigger.
	ErrRuleNotFound = errors.New("no rule for state and trigger")

	// ErrConfigNameRequired indicates that a configuration name is required.
	ErrConfigNameRequired = errors.New("config name is required")
	// ErrNoRules indicates that a configuration declares no rules.
	ErrNoRules = errors.New("at least one rule is required")
	// ErrStateUnreachable indicates a state that no rule path reaches from
	// the initial state.
	ErrStateUnreachable = errors.New("state is unreachable from the initial state")
	// ErrNoConfigLoader indicates that no config loader is registered.
	ErrNoConfigLoader = errors.New("no config loader registered; use SetConfigLoader() or provide a file path")
)

// TransitionError wraps an error with transition context.
type TransitionError struct {
	From    State
	To      State
	Trigger Trigger
	Err     error
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("transition from %s on %s: %v", e.From, e.Trigger, e.Err)
	}

	return fmt.Sprintf("transition %s -> %s on %s: %v", e.From, e.To, e.Trigger, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// WrapTransitionError wraps an error with transition context.
func WrapTransitionError(from, to State, trigger Trigger, err error) error {
	if err == nil {
		return nil
	}

	return &TransitionError{
		From:    from,
		To:      to,
		Trigger: trigger,
		Err:     err,
	}
}
