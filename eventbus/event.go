package eventbus

import (
	"maps"
	"time"
)

// Topic names a class of events on the bus. Topics use dotted names so
// subscribers can tell kernel events apart from application ones at a glance.
type Topic string

// Kernel event topics.
const (
	// TopicAll subscribes a listener to every event on the bus.
	TopicAll Topic = "*"

	// TopicStateChanged carries committed workflow transitions
	// with "from", "to" and "trigger" payload fields.
	TopicStateChanged Topic = "workflow.state_changed"

	// TopicStateReverted carries undo transitions with the same
	// payload fields as TopicStateChanged.
	TopicStateReverted Topic = "workflow.state_reverted"

	// TopicCommandApplied is published after a command was executed
	// and recorded in history.
	TopicCommandApplied Topic = "workflow.command_applied"

	// TopicCommandUndone is published after a command was successfully
	// reverted and removed from history.
	TopicCommandUndone Topic = "workflow.command_undone"
)

// Event is an immutable record delivered to listeners. The payload map is
// copied on construction and again on every Payload call, so no listener can
// mutate what a later listener sees. Kernel events carry flat scalar payload
// values; nested reference values are the publisher's responsibility.
//
// The sequence ordinal is assigned by the bus at publish time and is strictly
// increasing per bus instance.
type Event struct {
	topic   Topic
	seq     uint64
	at      time.Time
	payload map[string]any
}

// NewEvent builds an event for the given topic with a defensive copy of the
// payload. The sequence ordinal and timestamp are zero until published.
func NewEvent(topic Topic, payload map[string]any) Event {
	return Event{
		topic:   topic,
		payload: maps.Clone(payload),
	}
}

// Topic returns the event's topic.
func (e Event) Topic() Topic {
	return e.topic
}

// Seq returns the bus-assigned sequence ordinal, or zero if the event has not
// been published yet.
func (e Event) Seq() uint64 {
	return e.seq
}

// At returns the publish timestamp, or the zero time if the event has not
// been published yet.
func (e Event) At() time.Time {
	return e.at
}

// Payload returns a fresh copy of the payload map. Mutating the returned map
// has no effect on the event or on other listeners.
func (e Event) Payload() map[string]any {
	return maps.Clone(e.payload)
}

// Field returns the payload value for key.
func (e Event) Field(key string) (any, bool) {
	val, ok := e.payload[key]

	return val, ok
}

// StringField returns the payload value for key if it is a string.
func (e Event) StringField(key string) (string, bool) {
	val, ok := e.payload[key]
	if !ok {
		return "", false
	}

	s, ok := val.(string)

	return s, ok
}

// IntField returns the payload value for key if it is an int.
func (e Event) IntField(key string) (int, bool) {
	val, ok := e.payload[key]
	if !ok {
		return 0, false
	}

	i, ok := val.(int)

	return i, ok
}
