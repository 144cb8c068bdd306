// Package coordinator implements the kernel's facade. A Coordinator owns one
// domain state machine, an undo stack, an event bus, and a signal router, and
// is the sole entry point to all four: callers perform reversible actions,
// undo them, subscribe to kernel events, and register routing bindings without
// ever touching the inner components. One mutex serializes every perform and
// undo end to end, which is what enforces the ordering contract: the state
// commit is published before the action is recorded, and the record is
// published before the router fans the signal out.
//
// Reactions invoked by the router receive a narrow Conductor handle instead
// of the Coordinator itself. Conductor calls join the in-flight operation on
// the same goroutine, so follow-up actions nest without deadlocking; the
// router's depth guard bounds the nesting. Bus listeners, by contrast, run as
// observers inside the critical section and must not perform or undo; they
// may read CurrentState, Depth, and the other accessors freely.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amp-labs/amp-workflow/eventbus"
	"github.com/amp-labs/amp-workflow/history"
	"github.com/amp-labs/amp-workflow/router"
	"github.com/amp-labs/amp-workflow/statemachine"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/atomic"
)

// Action is the domain action descriptor Perform executes. It is an alias of
// router.Action so reactions can build follow-up actions without importing
// this package. Trigger may be empty (a pure command, no transition) and
// Forward/Inverse may be nil (a pure transition); an action needs at least a
// trigger or a forward closure.
type Action = router.Action

// RouteFunc maps a committed transition to the router signal announcing it.
// Returning false suppresses routing for that transition.
type RouteFunc func(tr statemachine.Transition) (router.Participant, router.Signal, bool)

// DefaultParticipant is the sender identity the default RouteFunc attributes
// transitions to.
const DefaultParticipant router.Participant = "workflow"

// defaultRoute announces every transition as the workflow participant with
// the trigger name as the signal.
func defaultRoute(tr statemachine.Transition) (router.Participant, router.Signal, bool) {
	return DefaultParticipant, router.Signal(tr.Trigger), true
}

// Coordinator lifecycle states. The lifecycle is a one-way two-state machine:
// Idle until the first perform, Active from then on.
const (
	LifecycleIdle   statemachine.State = "Idle"
	LifecycleActive statemachine.State = "Active"

	lifecycleActivate statemachine.Trigger = "activate"
	lifecycleName                          = "coordinator-lifecycle"
)

// Coordinator is the kernel facade. The zero value is not usable; construct
// with New.
type Coordinator struct {
	mu sync.Mutex

	machine   *statemachine.Machine
	stack     *history.Stack
	bus       *eventbus.Bus
	rt        *router.Router
	lifecycle *statemachine.Machine

	route  RouteFunc
	logger Logger
	closed *atomic.Bool

	historyDepth int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithBus supplies the event bus. The default is a fresh bus with default
// options.
func WithBus(bus *eventbus.Bus) Option {
	return func(c *Coordinator) {
		c.bus = bus
	}
}

// WithRouter supplies the signal router, usually to override its recursion
// limit. The default is a fresh router with depth router.DefaultMaxDepth.
func WithRouter(rt *router.Router) Option {
	return func(c *Coordinator) {
		c.rt = rt
	}
}

// WithHistoryDepth bounds the undo record. When a perform would exceed n the
// oldest entry is evicted and becomes unrevertible. Zero or negative means
// unbounded, the default.
func WithHistoryDepth(n int) Option {
	return func(c *Coordinator) {
		c.historyDepth = n
	}
}

// WithLogger sets the coordinator logger. The default logs through slog.
func WithLogger(logger Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithRoutedSignal overrides how committed transitions map to router signals.
func WithRoutedSignal(route RouteFunc) Option {
	return func(c *Coordinator) {
		if route != nil {
			c.route = route
		}
	}
}

// New creates a coordinator around machine and takes ownership of it: the
// machine's emit hook is rewired to bus publication, and the caller must not
// fire or revert the machine directly afterwards. The undo stack is always
// the coordinator's own; bus and router default to fresh instances unless
// supplied.
func New(machine *statemachine.Machine, opts ...Option) (*Coordinator, error) {
	if machine == nil {
		return nil, ErrNilMachine
	}

	c := &Coordinator{
		machine: machine,
		route:   defaultRoute,
		closed:  atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = NewDefaultLogger()
	}

	if c.bus == nil {
		c.bus = eventbus.NewBus()
	}

	if c.rt == nil {
		c.rt = router.New()
	}

	stackOpts := []history.Option{
		history.WithEvicted(func(e history.Entry) {
			c.logger.HistoryTrimmed(e.Command().Name())
		}),
	}

	if c.historyDepth > 0 {
		stackOpts = append(stackOpts, history.WithMaxDepth(c.historyDepth))
	}

	c.stack = history.NewStack(stackOpts...)

	lifecycle, err := statemachine.New(LifecycleIdle, []statemachine.Rule{
		{From: LifecycleIdle, Trigger: lifecycleActivate, To: LifecycleActive},
	},
		statemachine.WithName(lifecycleName),
		statemachine.WithLogger(statemachine.NopLogger{}),
	)
	if err != nil {
		return nil, err
	}

	c.lifecycle = lifecycle

	machine.SetEmit(c.publishTransition)

	return c, nil
}

// Perform executes one action as a unit: fire the trigger (if any), run the
// forward closure (if any), record the pair for undo, publish, and route the
// mapped signal.
//
// A missing rule, guard veto, or effect failure surfaces as the machine's own
// error with nothing recorded. A forward failure after a committed transition
// unwinds the transition and surfaces history.ErrCommandFailed, again with
// nothing recorded. Routing errors, including router.ErrRoutingCycle, reach
// the caller too, but by then the action is committed and recorded and stays
// that way.
func (c *Coordinator) Perform(ctx context.Context, action Action) error {
	ctx, span := startPerformSpan(ctx, action.Name, action.Trigger)
	defer span.End()

	start := time.Now()

	c.mu.Lock()
	err := c.performLocked(ctx, action)
	c.mu.Unlock()

	operationDuration.WithLabelValues(opPerform).Observe(time.Since(start).Seconds())

	if err != nil {
		operationsTotal.WithLabelValues(opPerform, outcomeError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	operationsTotal.WithLabelValues(opPerform, outcomeSuccess).Inc()
	span.SetStatus(codes.Ok, string(c.machine.Current()))

	return nil
}

// performLocked runs the perform sequence. Caller holds the coordinator lock
// or is a reaction joining the operation that does.
func (c *Coordinator) performLocked(ctx context.Context, action Action) error {
	if c.closed.Load() {
		return ErrCoordinatorClosed
	}

	if action.Trigger == "" && action.Forward == nil {
		return ErrActionRequired
	}

	c.activate(ctx)

	name := action.Name
	if name == "" {
		name = string(action.Trigger)
	}

	var (
		tr    statemachine.Transition
		fired bool
	)

	if action.Trigger != "" {
		var err error

		tr, err = c.machine.Fire(ctx, action.Trigger)
		if err != nil {
			c.logger.ActionFailed(ctx, name, err)

			return err
		}

		fired = true
	}

	cmd := &actionCommand{
		id:      uuid.New(),
		name:    name,
		action:  action,
		machine: c.machine,
		tr:      tr,
		fired:   fired,
	}

	if err := c.stack.Apply(ctx, cmd); err != nil {
		// The transition committed before the forward closure failed; unwind
		// it so a failed perform leaves no trace beyond the event record.
		if fired {
			if rerr := c.machine.Revert(ctx, tr); rerr != nil {
				c.logger.ActionFailed(ctx, name, fmt.Errorf("unwinding transition: %w", rerr))
			}
		}

		c.logger.ActionFailed(ctx, name, err)

		return err
	}

	c.publish(ctx, eventbus.TopicCommandApplied, map[string]any{
		"command": name,
		"depth":   c.stack.Depth(),
	})

	c.logger.ActionPerformed(ctx, name, c.machine.Current())

	if fired {
		if from, sig, ok := c.route(tr); ok {
			return c.rt.Notify(ctx, conductor{c: c}, from, sig)
		}
	}

	return nil
}

// UndoLast reverts the newest recorded action: inverse closure first, then
// the machine re-enters the pre-transition state, then the removal is
// published. An empty record fails with history.ErrNothingToUndo; a failed
// inverse re-records the action and fails with history.ErrUndoFailed. Undone
// actions are announced on the bus but never routed.
func (c *Coordinator) UndoLast(ctx context.Context) error {
	ctx, span := startUndoSpan(ctx)
	defer span.End()

	start := time.Now()

	c.mu.Lock()
	err := c.undoLocked(ctx)
	c.mu.Unlock()

	operationDuration.WithLabelValues(opUndo).Observe(time.Since(start).Seconds())

	if err != nil {
		operationsTotal.WithLabelValues(opUndo, outcomeError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	operationsTotal.WithLabelValues(opUndo, outcomeSuccess).Inc()
	span.SetStatus(codes.Ok, string(c.machine.Current()))

	return nil
}

// undoLocked runs the undo sequence. Caller holds the coordinator lock or is
// a reaction joining the operation that does.
func (c *Coordinator) undoLocked(ctx context.Context) error {
	if c.closed.Load() {
		return ErrCoordinatorClosed
	}

	top, ok := c.stack.Peek()
	if !ok {
		return history.ErrNothingToUndo
	}

	name := top.Command().Name()

	if err := c.stack.Undo(ctx); err != nil {
		c.logger.UndoFailed(ctx, name, err)

		return err
	}

	c.publish(ctx, eventbus.TopicCommandUndone, map[string]any{
		"command": name,
		"depth":   c.stack.Depth(),
	})

	c.logger.UndoExecuted(ctx, name, c.machine.Current())

	return nil
}

// Notify routes a signal through the coordinator's router outside any
// perform, for callers that want to kick off reaction chains directly.
// Reactions receive the usual Conductor handle.
func (c *Coordinator) Notify(ctx context.Context, from router.Participant, sig router.Signal) error {
	ctx, span := startNotifySpan(ctx, from, sig)
	defer span.End()

	start := time.Now()

	c.mu.Lock()
	err := c.notifyLocked(ctx, from, sig)
	c.mu.Unlock()

	operationDuration.WithLabelValues(opNotify).Observe(time.Since(start).Seconds())

	if err != nil {
		operationsTotal.WithLabelValues(opNotify, outcomeError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	operationsTotal.WithLabelValues(opNotify, outcomeSuccess).Inc()
	span.SetStatus(codes.Ok, string(sig))

	return nil
}

// notifyLocked dispatches one signal. Caller holds the coordinator lock or is
// a reaction joining the operation that does.
func (c *Coordinator) notifyLocked(ctx context.Context, from router.Participant, sig router.Signal) error {
	if c.closed.Load() {
		return ErrCoordinatorClosed
	}

	return c.rt.Notify(ctx, conductor{c: c}, from, sig)
}

// Register binds reactions to a participant's outgoing signals, replacing any
// prior bindings for that participant.
func (c *Coordinator) Register(p router.Participant, bindings []router.Binding) error {
	return c.rt.Register(p, bindings)
}

// Deregister removes a participant and its bindings.
func (c *Coordinator) Deregister(p router.Participant) {
	c.rt.Deregister(p)
}

// On subscribes a handler to kernel events matching topic.
// eventbus.TopicAll matches everything.
func (c *Coordinator) On(identity string, topic eventbus.Topic, handler eventbus.Handler) (*eventbus.Subscription, error) {
	return c.bus.Subscribe(identity, topic, handler)
}

// OnChan subscribes a channel consumer to kernel events matching topic. The
// channel buffers without bound and closes when the subscription is removed
// or the coordinator is closed.
func (c *Coordinator) OnChan(identity string, topic eventbus.Topic) (*eventbus.Subscription, <-chan eventbus.Event, error) {
	return c.bus.SubscribeChan(identity, topic)
}

// Off removes a subscription. It is idempotent.
func (c *Coordinator) Off(sub *eventbus.Subscription) {
	c.bus.Unsubscribe(sub)
}

// CurrentState returns the domain machine's current state.
func (c *Coordinator) CurrentState() statemachine.State {
	return c.machine.Current()
}

// Can reports whether the domain machine has a rule for trigger in its
// current state.
func (c *Coordinator) Can(trigger statemachine.Trigger) bool {
	return c.machine.Can(trigger)
}

// PermittedTriggers returns the triggers with a rule in the current state.
func (c *Coordinator) PermittedTriggers() []statemachine.Trigger {
	return c.machine.PermittedTriggers()
}

// Visualize renders the domain machine's rule table as a Mermaid diagram.
func (c *Coordinator) Visualize() string {
	return c.machine.Visualize()
}

// Lifecycle returns the coordinator's own lifecycle state, LifecycleIdle
// before the first perform and LifecycleActive after.
func (c *Coordinator) Lifecycle() statemachine.State {
	return c.lifecycle.Current()
}

// Depth returns the number of undoable actions on record.
func (c *Coordinator) Depth() int {
	return c.stack.Depth()
}

// History returns a copy of the undo record, oldest first.
func (c *Coordinator) History() []history.Entry {
	return c.stack.Entries()
}

// Subscriptions returns the number of live event subscriptions.
func (c *Coordinator) Subscriptions() int {
	return c.bus.Subscriptions()
}

// ListenerErrors returns recorded listener failures joined into a single
// error, or nil if none were recorded.
func (c *Coordinator) ListenerErrors() error {
	return c.bus.Errors()
}

// ClearListenerErrors discards recorded listener failures.
func (c *Coordinator) ClearListenerErrors() {
	c.bus.ClearErrors()
}

// Close shuts the coordinator down after the in-flight operation finishes.
// The bus closes with it, ending channel subscriptions; further Perform,
// UndoLast, and Notify calls fail with ErrCoordinatorClosed. Close is
// idempotent.
func (c *Coordinator) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.bus.Close()
}

// activate fires the one-way lifecycle transition. The first well-formed
// perform flips Idle to Active before its outcome is known; afterwards there
// is no rule to fire and the call is a no-op.
func (c *Coordinator) activate(ctx context.Context) {
	if c.lifecycle.Current() != LifecycleIdle {
		return
	}

	if _, err := c.lifecycle.Fire(ctx, lifecycleActivate); err == nil {
		c.logger.LifecycleActivated(ctx)
	}
}

// publishTransition is the machine's emit hook: every committed transition
// becomes a bus event before anything else can observe the new state.
func (c *Coordinator) publishTransition(ctx context.Context, tr statemachine.Transition) {
	topic := eventbus.TopicStateChanged
	if tr.Reverted {
		topic = eventbus.TopicStateReverted
	}

	c.publish(ctx, topic, map[string]any{
		"from":    string(tr.From),
		"to":      string(tr.To),
		"trigger": string(tr.Trigger),
	})
}

// publish sends one kernel event. Publish only fails on a closed bus; the
// failure is logged, never propagated, so event emission cannot veto an
// already committed operation.
func (c *Coordinator) publish(ctx context.Context, topic eventbus.Topic, payload map[string]any) {
	if err := c.bus.Publish(ctx, eventbus.NewEvent(topic, payload)); err != nil {
		c.logger.PublishFailed(ctx, topic, err)
	}
}

// conductor is the capability handle reactions receive in place of the
// coordinator. Its calls run on the goroutine already inside the critical
// section, so they use the locked internals directly.
type conductor struct {
	c *Coordinator
}

func (h conductor) Perform(ctx context.Context, action Action) error {
	return h.c.performLocked(ctx, action)
}

func (h conductor) UndoLast(ctx context.Context) error {
	return h.c.undoLocked(ctx)
}

func (h conductor) CurrentState() statemachine.State {
	return h.c.machine.Current()
}

func (h conductor) Notify(ctx context.Context, from router.Participant, sig router.Signal) error {
	return h.c.notifyLocked(ctx, from, sig)
}

// actionCommand adapts an Action into the command the undo record keeps. The
// coordinator fires the trigger before recording, so Apply covers only the
// forward closure; Revert runs the inverse closure and then mechanically
// re-enters the pre-transition state.
type actionCommand struct {
	id      uuid.UUID
	name    string
	action  Action
	machine *statemachine.Machine
	tr      statemachine.Transition
	fired   bool
}

func (a *actionCommand) ID() uuid.UUID {
	return a.id
}

func (a *actionCommand) Name() string {
	return a.name
}

func (a *actionCommand) Apply(ctx context.Context) error {
	if a.action.Forward == nil {
		return nil
	}

	return a.action.Forward(ctx)
}

func (a *actionCommand) Revert(ctx context.Context) error {
	if a.action.Inverse != nil {
		if err := a.action.Inverse(ctx); err != nil {
			return err
		}
	}

	if !a.fired {
		return nil
	}

	return a.machine.Revert(ctx, a.tr)
}
