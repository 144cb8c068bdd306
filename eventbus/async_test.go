package eventbus

import (
	"context"
	"testing"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/amp-workflow/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_Async_DeliversThroughPool(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	ctx := tests.GetUniqueContext(t)
	pool := pond.NewPool(1)

	var got []uint64

	handler := bus.Async(pool, "async-listener", func(_ context.Context, evt Event) error {
		got = append(got, evt.Seq())

		return nil
	})

	_, err := bus.Subscribe("async-listener", TopicStateChanged, handler)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, NewEvent(TopicStateChanged, nil)))
	require.NoError(t, bus.Publish(ctx, NewEvent(TopicStateChanged, nil)))

	pool.StopAndWait()

	assert.Equal(t, []uint64{1, 2}, got)
	assert.NoError(t, bus.Errors())
}

func TestBus_Async_FailureIsRecorded(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	ctx := tests.GetUniqueContext(t)
	pool := pond.NewPool(1)

	handler := bus.Async(pool, "async-broken", func(_ context.Context, _ Event) error {
		return errListener
	})

	_, err := bus.Subscribe("async-broken", TopicStateChanged, handler)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, NewEvent(TopicStateChanged, nil)))

	pool.StopAndWait()

	recorded := bus.Errors()
	require.Error(t, recorded)
	assert.ErrorIs(t, recorded, errListener)

	var delivery *DeliveryError

	require.ErrorAs(t, recorded, &delivery)
	assert.Equal(t, "async-broken", delivery.Identity)
}

func TestBus_Async_PanicIsRecovered(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	ctx := tests.GetUniqueContext(t)
	pool := pond.NewPool(1)

	handler := bus.Async(pool, "async-panicky", func(_ context.Context, _ Event) error {
		panic("boom")
	})

	_, err := bus.Subscribe("async-panicky", TopicStateChanged, handler)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, NewEvent(TopicStateChanged, nil)))

	pool.StopAndWait()

	recorded := bus.Errors()
	require.Error(t, recorded)
	assert.Contains(t, recorded.Error(), "panic")
}

func TestBus_Async_DetachesFromPublishContext(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	pool := pond.NewPool(1)

	gate := make(chan struct{})

	var ctxErr error

	handler := bus.Async(pool, "async-detached", func(ctx context.Context, _ Event) error {
		<-gate
		ctxErr = ctx.Err()

		return nil
	})

	_, err := bus.Subscribe("async-detached", TopicStateChanged, handler)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(tests.GetUniqueContext(t))

	require.NoError(t, bus.Publish(ctx, NewEvent(TopicStateChanged, nil)))

	// Cancel the publish context before letting the detached work proceed.
	cancel()
	close(gate)

	pool.StopAndWait()

	assert.NoError(t, ctxErr, "detached work must outlive the publish context")
}

func TestBus_Async_StoppedPoolFailsDelivery(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	ctx := tests.GetUniqueContext(t)
	pool := pond.NewPool(1)
	pool.StopAndWait()

	handler := bus.Async(pool, "async-orphan", func(_ context.Context, _ Event) error {
		return nil
	})

	_, err := bus.Subscribe("async-orphan", TopicStateChanged, handler)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, NewEvent(TopicStateChanged, nil)))

	recorded := bus.Errors()
	require.Error(t, recorded)
	assert.ErrorIs(t, recorded, pond.ErrPoolStopped)
}
