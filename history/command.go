package history

import (
	"context"

	"github.com/google/uuid"
)

// Command is a reversible unit of work. Apply executes the forward action and
// Revert restores the state Apply changed. A command that was applied must be
// revertible; the stack pairs the two calls, never the caller.
type Command interface {
	ID() uuid.UUID
	Name() string
	Apply(ctx context.Context) error
	Revert(ctx context.Context) error
}

// funcCommand adapts a pair of closures into a Command.
type funcCommand struct {
	id     uuid.UUID
	name   string
	apply  func(ctx context.Context) error
	revert func(ctx context.Context) error
}

// Func builds a Command from a pair of closures. A nil apply or revert closure
// is treated as a successful no-op, so one-sided commands compose without
// boilerplate.
func Func(name string, apply, revert func(ctx context.Context) error) Command { //nolint:ireturn
	return &funcCommand{
		id:     uuid.New(),
		name:   name,
		apply:  apply,
		revert: revert,
	}
}

func (c *funcCommand) ID() uuid.UUID {
	return c.id
}

func (c *funcCommand) Name() string {
	return c.name
}

func (c *funcCommand) Apply(ctx context.Context) error {
	if c.apply == nil {
		return nil
	}

	return c.apply(ctx)
}

func (c *funcCommand) Revert(ctx context.Context) error {
	if c.revert == nil {
		return nil
	}

	return c.revert(ctx)
}
