// Package eventbus implements the kernel's synchronous publish/subscribe
// fan-out. Delivery is FIFO in subscription order, the listener set is
// snapshotted at the start of each publish, and listener failures are caught
// and recorded rather than propagated, so one broken listener cannot starve
// the rest.
package eventbus

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/amp-labs/amp-workflow/errors"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// Predefined error types.
var (
	ErrBusClosed        = stderrors.New("event bus is closed")
	ErrIdentityRequired = stderrors.New("subscriber identity is required")
	ErrNilHandler       = stderrors.New("handler must not be nil")
)

// DeliveryError wraps a listener failure with the subscription it came from.
type DeliveryError struct {
	Identity string
	Topic    Topic
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("listener %s on %s: %v", e.Identity, e.Topic, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Handler consumes a published event. A non-nil error is recorded by the bus
// but never stops delivery to the remaining listeners.
type Handler func(ctx context.Context, evt Event) error

// Subscription is the handle returned by Subscribe. It identifies one
// (identity, topic) registration and is the token for Unsubscribe.
type Subscription struct {
	id       uuid.UUID
	identity string
	topic    Topic
}

// ID returns the unique subscription id.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Identity returns the subscriber identity given at Subscribe.
func (s *Subscription) Identity() string {
	return s.identity
}

// Topic returns the topic filter given at Subscribe.
func (s *Subscription) Topic() Topic {
	return s.topic
}

// subKey dedupes registrations: one live subscription per (identity, topic).
type subKey struct {
	identity string
	topic    Topic
}

// entry pairs a subscription with its handler in registration order.
// Channel-backed subscriptions carry the feeding channel and its closer.
type entry struct {
	sub     *Subscription
	handler Handler
	out     <-chan Event
	closer  func()
}

const defaultErrorCap = 64

// Bus is the kernel's in-process event bus. The zero value is not usable;
// construct with NewBus.
type Bus struct {
	mu      sync.Mutex
	entries []*entry
	index   map[subKey]*entry

	seq    *atomic.Uint64
	closed *atomic.Bool

	failMu   sync.Mutex
	failures *errors.Collection

	logger Logger
	clock  func() time.Time
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the bus logger. The default logs through slog.
func WithLogger(logger Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithErrorCap bounds how many listener failures the bus retains. Failures
// past the cap are counted but not stored. The default cap is 64.
func WithErrorCap(n int) Option {
	return func(b *Bus) {
		b.failures = errors.NewBounded(n)
	}
}

// WithClock overrides the publish timestamp source. Tests use this to make
// event timestamps deterministic.
func WithClock(clock func() time.Time) Option {
	return func(b *Bus) {
		b.clock = clock
	}
}

// NewBus creates an event bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		index:    make(map[subKey]*entry),
		seq:      atomic.NewUint64(0),
		closed:   atomic.NewBool(false),
		failures: errors.NewBounded(defaultErrorCap),
		clock:    time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = NewDefaultLogger()
	}

	return b
}

// Subscribe registers a handler for events matching topic. TopicAll matches
// every event. Subscribing the same (identity, topic) pair again is a no-op
// that returns the existing subscription, so a listener is never delivered
// the same event twice.
func (b *Bus) Subscribe(identity string, topic Topic, handler Handler) (*Subscription, error) {
	if identity == "" {
		return nil, ErrIdentityRequired
	}

	if handler == nil {
		return nil, ErrNilHandler
	}

	if b.closed.Load() {
		return nil, ErrBusClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := subKey{identity: identity, topic: topic}
	if existing, ok := b.index[key]; ok {
		return existing.sub, nil
	}

	ent := &entry{
		sub: &Subscription{
			id:       uuid.New(),
			identity: identity,
			topic:    topic,
		},
		handler: handler,
	}

	b.entries = append(b.entries, ent)
	b.index[key] = ent

	b.logger.SubscriptionAdded(identity, topic)
	activeSubscriptions.WithLabelValues(string(topic)).Inc()

	return ent.sub, nil
}

// Unsubscribe removes a subscription. It is idempotent: removing a nil,
// unknown, or already-removed handle is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, ent := range b.entries {
		if ent.sub.id != sub.id {
			continue
		}

		b.entries = append(b.entries[:i], b.entries[i+1:]...)
		delete(b.index, subKey{identity: ent.sub.identity, topic: ent.sub.topic})

		if ent.closer != nil {
			ent.closer()
		}

		b.logger.SubscriptionRemoved(ent.sub.identity, ent.sub.topic)
		activeSubscriptions.WithLabelValues(string(ent.sub.topic)).Dec()

		return
	}
}

// Publish stamps the event with the next sequence ordinal and delivers it
// synchronously to all matching listeners in subscription order. The listener
// set is snapshotted up front, so handlers that subscribe or unsubscribe
// during delivery take effect from the next publish on.
//
// Listener errors and panics are caught, logged, counted, and recorded; they
// never interrupt delivery. Publish only fails if the bus is closed.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	b.mu.Lock()

	evt.seq = b.seq.Inc()
	evt.at = b.clock()

	matched := make([]*entry, 0, len(b.entries))

	for _, ent := range b.entries {
		if ent.sub.topic == TopicAll || ent.sub.topic == evt.topic {
			matched = append(matched, ent)
		}
	}

	b.mu.Unlock()

	b.logger.EventPublished(ctx, evt.topic, evt.seq, len(matched))
	eventsPublishedTotal.WithLabelValues(string(evt.topic)).Inc()

	for _, ent := range matched {
		b.deliver(ctx, ent, evt)
	}

	return nil
}

// deliver runs one handler with panic recovery, recording any failure.
func (b *Bus) deliver(ctx context.Context, ent *entry, evt Event) {
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("listener panic: %v", r) //nolint:err113
			}
		}()

		return ent.handler(ctx, evt)
	}()

	deliveryDuration.WithLabelValues(string(evt.topic)).Observe(time.Since(start).Seconds())

	if err == nil {
		eventsDeliveredTotal.WithLabelValues(string(evt.topic), outcomeSuccess).Inc()

		return
	}

	eventsDeliveredTotal.WithLabelValues(string(evt.topic), outcomeError).Inc()
	listenerFailuresTotal.WithLabelValues(string(evt.topic), ent.sub.identity).Inc()
	b.logger.ListenerFailed(ctx, ent.sub.identity, evt.topic, err)

	b.record(&DeliveryError{
		Identity: ent.sub.identity,
		Topic:    evt.topic,
		Err:      err,
	})
}

// record appends a delivery failure to the bounded failure collection.
func (b *Bus) record(err error) {
	b.failMu.Lock()
	defer b.failMu.Unlock()

	b.failures.Add(err)
}

// Errors returns the recorded listener failures joined into a single error,
// or nil if none were recorded. The record is kept until ClearErrors.
func (b *Bus) Errors() error {
	b.failMu.Lock()
	defer b.failMu.Unlock()

	return b.failures.GetError()
}

// ClearErrors discards all recorded listener failures.
func (b *Bus) ClearErrors() {
	b.failMu.Lock()
	defer b.failMu.Unlock()

	b.failures.Clear()
}

// Subscriptions returns the number of live subscriptions.
func (b *Bus) Subscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.entries)
}

// Close shuts the bus down. Channel subscriptions are closed so their
// consumers can drain and exit; subsequent Publish and Subscribe calls fail
// with ErrBusClosed. Close is idempotent.
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ent := range b.entries {
		if ent.closer != nil {
			ent.closer()
		}
	}
}
