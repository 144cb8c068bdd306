package coordinator

import "errors"

// Predefined error types.
var (
	// ErrNilMachine indicates construction without a domain machine.
	ErrNilMachine = errors.New("machine must not be nil")

	// ErrCoordinatorClosed indicates an operation on a closed coordinator.
	ErrCoordinatorClosed = errors.New("coordinator is closed")

	// ErrActionRequired indicates an action with neither a trigger nor a
	// forward closure; there is nothing to perform.
	ErrActionRequired = errors.New("action needs a trigger or a forward closure")
)
