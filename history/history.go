// Package history implements the kernel's reversible command record. Applied
// commands are pushed onto a strict LIFO stack; Undo pops exactly the newest
// entry and runs its revert. A stack may be depth-bounded, in which case the
// oldest entry is evicted first-in-first-out when a push would exceed the
// bound. Failed commands are never recorded and a failed revert puts its
// entry back, so the stack always mirrors the work that actually happened.
//
// The stack's lock guards membership only; commands execute outside it, so a
// command (or anything it calls into, like event listeners) may inspect the
// stack without deadlocking. Callers that interleave Apply and Undo across
// goroutines serialize the pair themselves.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Entry is one applied command on the stack, immutable once pushed.
type Entry struct {
	cmd Command
	at  time.Time
	seq uint64
}

// Command returns the recorded command.
func (e Entry) Command() Command { //nolint:ireturn
	return e.cmd
}

// At returns the time the command was applied.
func (e Entry) At() time.Time {
	return e.at
}

// Seq returns the stack-assigned application ordinal.
func (e Entry) Seq() uint64 {
	return e.seq
}

// Stack is the undo record. The zero value is not usable; construct with
// NewStack.
type Stack struct {
	mu      sync.Mutex
	entries []Entry
	seq     uint64

	maxDepth int
	evicted  func(Entry)
	logger   Logger
	clock    func() time.Time
}

// Option configures a Stack.
type Option func(*Stack)

// WithMaxDepth bounds the stack. When a push would exceed n the oldest entry
// is evicted. Zero or negative means unbounded, the default.
func WithMaxDepth(n int) Option {
	return func(s *Stack) {
		s.maxDepth = n
	}
}

// WithLogger sets the stack logger. The default logs through slog.
func WithLogger(logger Logger) Option {
	return func(s *Stack) {
		s.logger = logger
	}
}

// WithEvicted sets a hook invoked with each entry dropped by the depth bound.
// The hook runs under the stack lock and must not call back into the stack.
func WithEvicted(hook func(Entry)) Option {
	return func(s *Stack) {
		s.evicted = hook
	}
}

// WithClock overrides the entry timestamp source. Tests use this to make
// entry timestamps deterministic.
func WithClock(clock func() time.Time) Option {
	return func(s *Stack) {
		s.clock = clock
	}
}

// NewStack creates an undo stack.
func NewStack(opts ...Option) *Stack {
	s := &Stack{
		clock: time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = NewDefaultLogger()
	}

	return s
}

// Apply runs the command and, only if it succeeds, records it on the stack.
// A failed or panicking command leaves the stack exactly as it was and
// returns a CommandError wrapping ErrCommandFailed and the cause. When the
// stack is bounded and full, the oldest entry is evicted before the push and
// the eviction hook is invoked with it.
func (s *Stack) Apply(ctx context.Context, cmd Command) error {
	if cmd == nil {
		return ErrNilCommand
	}

	err := runRecovered(ctx, cmd.Apply)
	if err != nil {
		commandsTotal.WithLabelValues(outcomeError).Inc()
		s.logger.CommandFailed(ctx, cmd.Name(), err)

		return WrapCommandError(cmd.Name(), OpApply, fmt.Errorf("%w: %w", ErrCommandFailed, err))
	}

	s.mu.Lock()

	if s.maxDepth > 0 && len(s.entries) >= s.maxDepth {
		s.evict(ctx)
	}

	s.seq++

	s.entries = append(s.entries, Entry{
		cmd: cmd,
		at:  s.clock(),
		seq: s.seq,
	})

	depth := len(s.entries)

	s.mu.Unlock()

	commandsTotal.WithLabelValues(outcomeSuccess).Inc()
	stackDepth.Inc()
	s.logger.CommandApplied(ctx, cmd.Name(), depth)

	return nil
}

// Undo pops the newest entry and runs its revert. An empty stack returns
// ErrNothingToUndo. A failed or panicking revert pushes the same entry back
// and returns a CommandError wrapping ErrUndoFailed and the cause, so the
// record survives until the revert can succeed.
func (s *Stack) Undo(ctx context.Context) error {
	s.mu.Lock()

	if len(s.entries) == 0 {
		s.mu.Unlock()
		undosTotal.WithLabelValues(outcomeEmpty).Inc()

		return ErrNothingToUndo
	}

	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	s.mu.Unlock()

	err := runRecovered(ctx, top.cmd.Revert)
	if err != nil {
		s.mu.Lock()
		s.entries = append(s.entries, top)
		s.mu.Unlock()

		undosTotal.WithLabelValues(outcomeError).Inc()
		s.logger.UndoFailed(ctx, top.cmd.Name(), err)

		return WrapCommandError(top.cmd.Name(), OpRevert, fmt.Errorf("%w: %w", ErrUndoFailed, err))
	}

	s.mu.Lock()
	depth := len(s.entries)
	s.mu.Unlock()

	undosTotal.WithLabelValues(outcomeSuccess).Inc()
	stackDepth.Dec()
	s.logger.CommandUndone(ctx, top.cmd.Name(), depth)

	return nil
}

// evict drops the oldest entry. Caller holds the lock.
func (s *Stack) evict(ctx context.Context) {
	oldest := s.entries[0]
	s.entries = append(s.entries[:0], s.entries[1:]...)

	evictionsTotal.Inc()
	stackDepth.Dec()
	s.logger.EntryEvicted(ctx, oldest.cmd.Name())

	if s.evicted != nil {
		s.evicted(oldest)
	}
}

// Depth returns the number of recorded entries.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Peek returns the newest entry without removing it.
func (s *Stack) Peek() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return Entry{}, false
	}

	return s.entries[len(s.entries)-1], true
}

// Entries returns a copy of the record, oldest first.
func (s *Stack) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)

	return out
}

// runRecovered runs one command hook with panic recovery.
func runRecovered(ctx context.Context, f func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command panic: %v", r) //nolint:err113
		}
	}()

	return f(ctx)
}
