package eventbus

import (
	"testing"
	"time"

	"github.com/amp-labs/amp-workflow/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribeChan(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	ctx := tests.GetUniqueContext(t)

	sub, out, err := bus.SubscribeChan("channel-listener", TopicStateChanged)
	require.NoError(t, err)
	require.NotNil(t, sub)

	require.NoError(t, bus.Publish(ctx, NewEvent(TopicStateChanged, map[string]any{"to": "Moderation"})))
	require.NoError(t, bus.Publish(ctx, NewEvent(TopicCommandApplied, nil)))
	require.NoError(t, bus.Publish(ctx, NewEvent(TopicStateChanged, map[string]any{"to": "Published"})))

	first := <-out
	to, _ := first.StringField("to")
	assert.Equal(t, "Moderation", to)

	second := <-out
	to, _ = second.StringField("to")
	assert.Equal(t, "Published", to)
}

func TestBus_SubscribeChan_Duplicate(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)

	sub1, out1, err := bus.SubscribeChan("dup-chan", TopicAll)
	require.NoError(t, err)

	sub2, out2, err := bus.SubscribeChan("dup-chan", TopicAll)
	require.NoError(t, err)

	assert.Equal(t, sub1.ID(), sub2.ID())
	assert.Equal(t, out1, out2)
	assert.Equal(t, 1, bus.Subscriptions())
}

func TestBus_SubscribeChan_UnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	ctx := tests.GetUniqueContext(t)

	sub, out, err := bus.SubscribeChan("closable", TopicStateChanged)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, NewEvent(TopicStateChanged, nil)))

	bus.Unsubscribe(sub)

	// The buffered event is still drained, then the channel closes.
	evt, ok := <-out
	require.True(t, ok)
	assert.Equal(t, TopicStateChanged, evt.Topic())

	_, ok = <-out
	assert.False(t, ok)
}

func TestBus_SubscribeChan_SlowConsumerDoesNotBlockPublish(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	ctx := tests.GetUniqueContext(t)

	_, out, err := bus.SubscribeChan("slow", TopicStateChanged)
	require.NoError(t, err)

	done := make(chan struct{})

	go func() {
		defer close(done)

		// Nobody reads from out while these publish.
		for range 100 {
			_ = bus.Publish(ctx, NewEvent(TopicStateChanged, nil))
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on an unread channel subscription")
	}

	for i := range 100 {
		evt := <-out
		assert.Equal(t, uint64(i+1), evt.Seq())
	}
}

func TestBus_SubscribeChan_CloseClosesChannels(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)

	_, out, err := bus.SubscribeChan("doomed", TopicAll)
	require.NoError(t, err)

	bus.Close()

	_, ok := <-out
	assert.False(t, ok)
}

func TestBus_SubscribeChan_Validation(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)

	_, _, err := bus.SubscribeChan("", TopicAll)
	assert.ErrorIs(t, err, ErrIdentityRequired)
}
