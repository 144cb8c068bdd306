// Package router implements the kernel's mediator. Participants are opaque
// identities that never reference each other; each registers reactions to its
// own outgoing signals, and all cross-participant effects run through the
// narrow Conductor handle a reaction receives. Reentrant notification is
// allowed and bounded by a context-carried depth guard.
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"facette.io/natsort"
	"github.com/amp-labs/amp-workflow/contexts"
	"github.com/amp-labs/amp-workflow/statemachine"
)

// Participant identifies a registered sender of routed signals.
type Participant string

// Signal names a routed stimulus.
type Signal string

// Action describes one reversible domain operation the Conductor can perform:
// an optional machine trigger plus optional forward and inverse closures.
// The coordinator package executes Actions; it lives here so reactions can
// build follow-up work without importing the coordinator.
type Action struct {
	Name    string
	Trigger statemachine.Trigger
	Forward func(ctx context.Context) error
	Inverse func(ctx context.Context) error
}

// Conductor is the capability handle reactions receive instead of the
// coordinator itself. Calls made through it join the in-flight operation, so
// reactions may perform follow-up work without deadlocking.
type Conductor interface {
	Perform(ctx context.Context, action Action) error
	UndoLast(ctx context.Context) error
	CurrentState() statemachine.State
	Notify(ctx context.Context, from Participant, sig Signal) error
}

// Reaction runs when its participant emits its signal. Errors propagate to
// the notifier and stop the remaining reactions for that signal.
type Reaction func(ctx context.Context, c Conductor, from Participant, sig Signal) error

// Binding pairs a signal with a reaction.
type Binding struct {
	Signal Signal
	React  Reaction
}

// DefaultMaxDepth is the notification recursion limit unless WithMaxDepth
// overrides it.
const DefaultMaxDepth = 8

// depthKey carries the notification depth through the context so reentrant
// chains are measured end to end, not per router call.
type depthKey struct{}

// Router holds the binding table. The zero value is not usable; construct
// with New.
type Router struct {
	mu       sync.Mutex
	bindings map[Participant][]Binding
	order    []Participant

	maxDepth int
	logger   Logger
}

// Option configures a Router.
type Option func(*Router)

// WithMaxDepth overrides the notification recursion limit.
func WithMaxDepth(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithLogger sets the router logger. The default logs through slog.
func WithLogger(logger Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New creates a router.
func New(opts ...Option) *Router {
	r := &Router{
		bindings: make(map[Participant][]Binding),
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = NewDefaultLogger()
	}

	return r
}

// Register binds reactions to a participant's outgoing signals, replacing any
// prior bindings for that participant. A participant keeps its original
// position in the registration order when re-registered.
func (r *Router) Register(p Participant, bindings []Binding) error {
	if p == "" {
		return ErrParticipantRequired
	}

	for _, binding := range bindings {
		if binding.Signal == "" {
			return fmt.Errorf("participant %s: %w", p, ErrSignalRequired)
		}

		if binding.React == nil {
			return fmt.Errorf("participant %s (%s): %w", p, binding.Signal, ErrNilReaction)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[p]; !exists {
		r.order = append(r.order, p)
	}

	r.bindings[p] = append([]Binding(nil), bindings...)

	r.logger.ParticipantRegistered(p, len(bindings))
	activeParticipants.Set(float64(len(r.order)))

	return nil
}

// Deregister removes a participant and its bindings. Unknown participants are
// a no-op.
func (r *Router) Deregister(p Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[p]; !exists {
		return
	}

	delete(r.bindings, p)

	for i, known := range r.order {
		if known == p {
			r.order = append(r.order[:i], r.order[i+1:]...)

			break
		}
	}

	r.logger.ParticipantDeregistered(p)
	activeParticipants.Set(float64(len(r.order)))
}

// Notify dispatches a participant's signal to its bound reactions in
// registration order. The first reaction error (or recovered panic) stops the
// chain and propagates; reactions are coordination logic, not bus listeners.
//
// The notification depth rides in ctx, so reactions that re-enter Notify
// through the Conductor extend the same chain. A chain deeper than the
// configured limit fails with a CycleError wrapping ErrRoutingCycle; state
// committed by earlier links of the chain stays committed.
func (r *Router) Notify(ctx context.Context, c Conductor, from Participant, sig Signal) error {
	if from == "" {
		return ErrParticipantRequired
	}

	depth := notifyDepth(ctx) + 1
	if depth > r.maxDepth {
		signalsTotal.WithLabelValues(string(from), string(sig), outcomeCycle).Inc()
		r.logger.CycleDetected(ctx, from, sig, depth)

		return &CycleError{
			Participant: from,
			Signal:      sig,
			Depth:       depth,
		}
	}

	ctx = contexts.WithValue(ctx, depthKey{}, depth)

	r.mu.Lock()

	matched := make([]Reaction, 0, len(r.bindings[from]))

	for _, binding := range r.bindings[from] {
		if binding.Signal == sig {
			matched = append(matched, binding.React)
		}
	}

	r.mu.Unlock()

	r.logger.SignalRouted(ctx, from, sig, len(matched))

	for _, react := range matched {
		start := time.Now()
		err := runReaction(ctx, c, from, sig, react)

		reactionDuration.WithLabelValues(string(sig)).Observe(time.Since(start).Seconds())

		if err != nil {
			signalsTotal.WithLabelValues(string(from), string(sig), outcomeError).Inc()
			r.logger.ReactionFailed(ctx, from, sig, err)

			return err
		}
	}

	signalsTotal.WithLabelValues(string(from), string(sig), outcomeRouted).Inc()

	return nil
}

// Bindings returns a copy of a participant's bindings.
func (r *Router) Bindings(p Participant) []Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Binding(nil), r.bindings[p]...)
}

// Participants returns the registered participants in natural sort order.
func (r *Router) Participants() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.order))
	for i, p := range r.order {
		names[i] = string(p)
	}

	natsort.Sort(names)

	out := make([]Participant, len(names))
	for i, name := range names {
		out[i] = Participant(name)
	}

	return out
}

// notifyDepth reads the chain depth carried by ctx, zero for a fresh chain.
func notifyDepth(ctx context.Context) int {
	depth, _ := contexts.GetValue[depthKey, int](ctx, depthKey{})

	return depth
}

// runReaction runs one reaction with panic recovery. Unlike bus listeners the
// recovered panic propagates as an error.
func runReaction(ctx context.Context, c Conductor, from Participant, sig Signal, react Reaction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reaction panic: %v", r) //nolint:err113
		}
	}()

	return react(ctx, c, from, sig)
}
