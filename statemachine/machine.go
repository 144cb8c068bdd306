// Package statemachine implements a finite state machine over a closed rule
// table. States and triggers are opaque names; each (state, trigger) pair maps
// to at most one target state, optionally protected by a guard and followed by
// a side effect. The machine holds no domain data: it answers whether a
// transition may happen and records that it did.
package statemachine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"facette.io/natsort"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/atomic"
)

// State names a workflow state.
type State string

// Trigger names an external stimulus that may cause a transition.
type Trigger string

// Guard decides whether a transition may proceed. Returning false or an error
// vetoes the transition with the state unchanged. Guards must not call back
// into the machine.
type Guard func(ctx context.Context, from State, trigger Trigger) (bool, error)

// Effect runs after a transition commits. An error rolls the state back to
// from. Effects must not call back into the machine.
type Effect func(ctx context.Context, from, to State, trigger Trigger) error

// Rule maps one (from, trigger) pair to a target state.
type Rule struct {
	From    State
	Trigger Trigger
	To      State
	Guard   Guard
	Effect  Effect
}

// ruleKey is the lookup key: at most one rule per key.
type ruleKey struct {
	from    State
	trigger Trigger
}

// Transition records one committed state change. Reverted marks records
// produced by Revert rather than Fire.
type Transition struct {
	From     State
	To       State
	Trigger  Trigger
	At       time.Time
	Seq      uint64
	Reverted bool
}

// EmitFunc observes committed transitions. The machine invokes it outside its
// own lock, after the effect has completed, with the firing call's context.
type EmitFunc func(ctx context.Context, tr Transition)

// Machine is a table-driven state machine. The rule table is fixed at
// construction; only the current state changes. The zero value is not usable;
// construct with New.
type Machine struct {
	mu      sync.Mutex
	current State

	name     string
	initial  State
	rules    map[ruleKey]Rule
	states   []State
	triggers []Trigger

	seq    *atomic.Uint64
	emit   EmitFunc
	logger Logger
	clock  func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithName names the machine in logs and spans.
func WithName(name string) Option {
	return func(m *Machine) {
		m.name = name
	}
}

// WithLogger sets the machine logger. The default logs through slog.
func WithLogger(logger Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithEmit sets the transition hook. The hook runs after the effect, outside
// the machine lock, so it may read the machine; hook ordering across
// concurrent Fire calls follows whoever commits first only when the caller
// serializes.
func WithEmit(emit EmitFunc) Option {
	return func(m *Machine) {
		m.emit = emit
	}
}

// SetEmit replaces the transition hook. A coordinator taking ownership of a
// machine wires the hook to event publication this way; the new hook applies
// from the next committed transition on.
func (m *Machine) SetEmit(emit EmitFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emit = emit
}

// emitHook returns the current transition hook.
func (m *Machine) emitHook() EmitFunc {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.emit
}

// WithClock overrides the transition timestamp source. Tests use this to make
// transition records deterministic.
func WithClock(clock func() time.Time) Option {
	return func(m *Machine) {
		m.clock = clock
	}
}

// New creates a machine in the initial state. It rejects an empty initial
// state, empty state or trigger names, and duplicate (from, trigger) rules.
func New(initial State, rules []Rule, opts ...Option) (*Machine, error) {
	if initial == "" {
		return nil, ErrInitialStateRequired
	}

	table := make(map[ruleKey]Rule, len(rules))
	stateSet := map[State]struct{}{initial: {}}
	triggerSet := make(map[Trigger]struct{})

	for _, rule := range rules {
		if rule.From == "" || rule.To == "" {
			return nil, ErrStateNameRequired
		}

		if rule.Trigger == "" {
			return nil, ErrTriggerNameRequired
		}

		key := ruleKey{from: rule.From, trigger: rule.Trigger}
		if _, ok := table[key]; ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateRule, rule.From, rule.Trigger)
		}

		table[key] = rule
		stateSet[rule.From] = struct{}{}
		stateSet[rule.To] = struct{}{}
		triggerSet[rule.Trigger] = struct{}{}
	}

	m := &Machine{
		current:  initial,
		initial:  initial,
		rules:    table,
		states:   sortedStates(stateSet),
		triggers: sortedTriggers(triggerSet),
		seq:      atomic.NewUint64(0),
		clock:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = NewDefaultLogger()
	}

	return m, nil
}

// Fire attempts the transition for trigger from the current state:
// rule lookup, guard, commit, effect, emit. A missing rule, guard veto, or
// effect failure leaves the state as if Fire was never called and returns a
// TransitionError wrapping ErrInvalidTransition, ErrGuardRejected, or
// ErrSideEffectFailed respectively. On success the committed record is passed
// to the emit hook and returned.
func (m *Machine) Fire(ctx context.Context, trigger Trigger) (Transition, error) {
	ctx, span := startFireSpan(ctx, m.name, trigger)
	defer span.End()

	start := time.Now()

	tr, err := m.fire(ctx, trigger)

	transitionDuration.WithLabelValues(string(trigger)).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return Transition{}, err
	}

	span.SetStatus(codes.Ok, string(tr.To))

	if emit := m.emitHook(); emit != nil {
		emit(ctx, tr)
	}

	return tr, nil
}

// fire runs the locked portion of Fire: lookup through commit.
func (m *Machine) fire(ctx context.Context, trigger Trigger) (Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.current

	rule, ok := m.rules[ruleKey{from: from, trigger: trigger}]
	if !ok {
		transitionsTotal.WithLabelValues(string(from), string(trigger), outcomeInvalid).Inc()
		m.logger.TransitionRejected(ctx, from, trigger, ErrInvalidTransition)

		return Transition{}, WrapTransitionError(from, "", trigger, ErrInvalidTransition)
	}

	if rule.Guard != nil {
		allowed, err := runGuard(ctx, rule.Guard, from, trigger)
		if err != nil {
			transitionsTotal.WithLabelValues(string(from), string(trigger), outcomeGuardRejected).Inc()
			m.logger.TransitionRejected(ctx, from, trigger, err)

			return Transition{}, WrapTransitionError(from, "", trigger,
				fmt.Errorf("%w: %w", ErrGuardRejected, err))
		}

		if !allowed {
			transitionsTotal.WithLabelValues(string(from), string(trigger), outcomeGuardRejected).Inc()
			m.logger.TransitionRejected(ctx, from, trigger, ErrGuardRejected)

			return Transition{}, WrapTransitionError(from, "", trigger, ErrGuardRejected)
		}
	}

	m.current = rule.To

	if rule.Effect != nil {
		if err := runEffect(ctx, rule.Effect, from, rule.To, trigger); err != nil {
			m.current = from

			transitionsTotal.WithLabelValues(string(from), string(trigger), outcomeEffectFailed).Inc()
			m.logger.EffectFailed(ctx, from, rule.To, trigger, err)

			return Transition{}, WrapTransitionError(from, rule.To, trigger,
				fmt.Errorf("%w: %w", ErrSideEffectFailed, err))
		}
	}

	tr := Transition{
		From:    from,
		To:      rule.To,
		Trigger: trigger,
		At:      m.clock(),
		Seq:     m.seq.Inc(),
	}

	transitionsTotal.WithLabelValues(string(from), string(trigger), outcomeSuccess).Inc()
	m.logger.TransitionExecuted(ctx, from, rule.To, trigger)

	return tr, nil
}

// Revert mechanically re-enters the state a committed transition left,
// without guards or effects. It only applies when the machine still sits in
// tr.To; anything else means the record is stale and the call fails with
// ErrInvalidTransition. The emit hook receives the reversed record.
func (m *Machine) Revert(ctx context.Context, tr Transition) error {
	ctx, span := startRevertSpan(ctx, m.name, tr.To, tr.From)
	defer span.End()

	reversed, err := m.revert(ctx, tr)
	if err != nil {
		revertsTotal.WithLabelValues(outcomeInvalid).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	revertsTotal.WithLabelValues(outcomeSuccess).Inc()
	span.SetStatus(codes.Ok, string(reversed.To))

	if emit := m.emitHook(); emit != nil {
		emit(ctx, reversed)
	}

	return nil
}

// revert runs the locked portion of Revert.
func (m *Machine) revert(ctx context.Context, tr Transition) (Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != tr.To {
		return Transition{}, WrapTransitionError(m.current, tr.From, tr.Trigger, ErrInvalidTransition)
	}

	m.current = tr.From
	m.logger.TransitionReverted(ctx, tr.To, tr.From)

	return Transition{
		From:     tr.To,
		To:       tr.From,
		Trigger:  tr.Trigger,
		At:       m.clock(),
		Seq:      m.seq.Inc(),
		Reverted: true,
	}, nil
}

// Name returns the machine name.
func (m *Machine) Name() string {
	return m.name
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current
}

// Initial returns the state the machine was constructed in.
func (m *Machine) Initial() State {
	return m.initial
}

// Can reports whether a rule exists for trigger in the current state. Guards
// are not consulted; they run only on Fire.
func (m *Machine) Can(trigger Trigger) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.rules[ruleKey{from: m.current, trigger: trigger}]

	return ok
}

// PermittedTriggers returns the triggers with a rule in the current state, in
// natural sort order.
func (m *Machine) PermittedTriggers() []Trigger {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()

	names := make([]string, 0, len(m.rules))

	for key := range m.rules {
		if key.from == current {
			names = append(names, string(key.trigger))
		}
	}

	natsort.Sort(names)

	out := make([]Trigger, len(names))
	for i, name := range names {
		out[i] = Trigger(name)
	}

	return out
}

// States returns every state named by the rule table plus the initial state,
// in natural sort order.
func (m *Machine) States() []State {
	out := make([]State, len(m.states))
	copy(out, m.states)

	return out
}

// Triggers returns every trigger named by the rule table, in natural sort
// order.
func (m *Machine) Triggers() []Trigger {
	out := make([]Trigger, len(m.triggers))
	copy(out, m.triggers)

	return out
}

// Visualize renders the rule table as a Mermaid state diagram. Rows are
// natural-sorted so the output is stable across runs.
func (m *Machine) Visualize() string {
	rows := make([]string, 0, len(m.rules))

	for _, rule := range m.rules {
		rows = append(rows, fmt.Sprintf("%s --> %s: %s", rule.From, rule.To, rule.Trigger))
	}

	natsort.Sort(rows)

	var sb strings.Builder

	sb.WriteString("stateDiagram-v2\n")
	sb.WriteString(fmt.Sprintf("    [*] --> %s\n", m.initial))

	for _, row := range rows {
		sb.WriteString("    " + row + "\n")
	}

	return sb.String()
}

// runGuard evaluates a guard with panic recovery. A panicking guard vetoes.
func runGuard(ctx context.Context, guard Guard, from State, trigger Trigger) (allowed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			allowed = false
			err = fmt.Errorf("guard panic: %v", r) //nolint:err113
		}
	}()

	return guard(ctx, from, trigger)
}

// runEffect evaluates an effect with panic recovery. A panicking effect rolls
// back like a failing one.
func runEffect(ctx context.Context, effect Effect, from, to State, trigger Trigger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("effect panic: %v", r) //nolint:err113
		}
	}()

	return effect(ctx, from, to, trigger)
}

func sortedStates(set map[State]struct{}) []State {
	names := make([]string, 0, len(set))
	for state := range set {
		names = append(names, string(state))
	}

	natsort.Sort(names)

	out := make([]State, len(names))
	for i, name := range names {
		out[i] = State(name)
	}

	return out
}

func sortedTriggers(set map[Trigger]struct{}) []Trigger {
	names := make([]string, 0, len(set))
	for trigger := range set {
		names = append(names, string(trigger))
	}

	natsort.Sort(names)

	out := make([]Trigger, len(names))
	for i, name := range names {
		out[i] = Trigger(name)
	}

	return out
}
