package history

import (
	"errors"
	"fmt"
)

// Predefined error types.
var (
	// ErrCommandFailed indicates that a command's forward execution failed
	// and nothing was recorded.
	ErrCommandFailed = errors.New("command execution failed")

	// ErrUndoFailed indicates that a command's revert failed. The entry is
	// pushed back so the record is not lost.
	ErrUndoFailed = errors.New("command revert failed")

	// ErrNothingToUndo indicates an undo was requested on an empty stack.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNilCommand indicates a nil command was passed to Apply.
	ErrNilCommand = errors.New("command must not be nil")
)

// Command operations named in CommandError.
const (
	OpApply  = "apply"
	OpRevert = "revert"
)

// CommandError wraps an error with command context.
type CommandError struct {
	Command string
	Op      string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s (%s): %v", e.Command, e.Op, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// WrapCommandError wraps an error with command context.
func WrapCommandError(command, op string, err error) error {
	if err == nil {
		return nil
	}

	return &CommandError{
		Command: command,
		Op:      op,
		Err:     err,
	}
}
