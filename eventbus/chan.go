package eventbus

import (
	"context"

	"github.com/amp-labs/amp-workflow/channels"
	"github.com/google/uuid"
)

// SubscribeChan registers a channel-backed subscription. Matching events are
// buffered without bound between publish and the consumer, so a slow consumer
// can never block Publish. The returned channel is closed when the
// subscription is removed or the bus is closed; consumers should range over
// it until it closes.
//
// Like Subscribe, an existing (identity, topic) registration is returned
// unchanged together with its original channel.
func (b *Bus) SubscribeChan(identity string, topic Topic) (*Subscription, <-chan Event, error) {
	if identity == "" {
		return nil, nil, ErrIdentityRequired
	}

	if b.closed.Load() {
		return nil, nil, ErrBusClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := subKey{identity: identity, topic: topic}
	if existing, ok := b.index[key]; ok {
		return existing.sub, existing.out, nil
	}

	in, out, _ := channels.Create[Event](-1)

	ent := &entry{
		sub: &Subscription{
			id:       uuid.New(),
			identity: identity,
			topic:    topic,
		},
		handler: func(_ context.Context, evt Event) error {
			return channels.SendCatchPanic(in, evt)
		},
		out:    out,
		closer: func() { channels.CloseChannelIgnorePanic(in) },
	}

	b.entries = append(b.entries, ent)
	b.index[key] = ent

	b.logger.SubscriptionAdded(identity, topic)
	activeSubscriptions.WithLabelValues(string(topic)).Inc()

	return ent.sub, out, nil
}
