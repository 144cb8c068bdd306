package channels

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	t.Parallel()

	t.Run("buffered", func(t *testing.T) {
		t.Parallel()

		input, output, length := Create[string](3)
		require.Equal(t, 0, length())

		input <- "first"
		input <- "second"
		input <- "third"
		assert.Equal(t, 3, length())

		assert.Equal(t, "first", <-output)
		assert.Equal(t, "second", <-output)
		assert.Equal(t, "third", <-output)
		assert.Equal(t, 0, length())
	})

	t.Run("unbuffered rendezvous", func(t *testing.T) {
		t.Parallel()

		input, output, length := Create[int](0)
		require.Equal(t, 0, length())

		go func() { input <- 42 }()

		select {
		case got := <-output:
			assert.Equal(t, 42, got)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for rendezvous")
		}
	})

	t.Run("negative size buffers without bound", func(t *testing.T) {
		t.Parallel()

		input, output, _ := Create[int](-1)

		// A sender with no receiver must never block.
		for i := range 1000 {
			input <- i
		}

		close(input)

		for i := range 1000 {
			assert.Equal(t, i, <-output)
		}

		_, ok := <-output
		assert.False(t, ok)
	})
}

func TestInfiniteChan(t *testing.T) {
	t.Parallel()

	t.Run("preserves send order", func(t *testing.T) {
		t.Parallel()

		input, output, _ := InfiniteChan[int]()

		sent := []int{5, 3, 9, 1, 7, 2, 8, 4, 6}
		for _, val := range sent {
			input <- val
		}

		close(input)

		received := make([]int, 0, len(sent))
		for val := range output {
			received = append(received, val)
		}

		assert.Equal(t, sent, received)
	})

	t.Run("close drains queued values", func(t *testing.T) {
		t.Parallel()

		input, output, _ := InfiniteChan[string]()

		input <- "first"
		input <- "second"
		close(input)

		assert.Equal(t, "first", <-output)
		assert.Equal(t, "second", <-output)

		_, ok := <-output
		assert.False(t, ok)
	})

	t.Run("close with nothing queued", func(t *testing.T) {
		t.Parallel()

		input, output, _ := InfiniteChan[int]()
		close(input)

		_, ok := <-output
		assert.False(t, ok)
	})

	t.Run("slow consumer sees everything", func(t *testing.T) {
		t.Parallel()

		input, output, _ := InfiniteChan[int]()

		go func() {
			for i := range 10 {
				input <- i
			}

			close(input)
		}()

		time.Sleep(50 * time.Millisecond)

		received := make([]int, 0, 10)
		for val := range output {
			received = append(received, val)
		}

		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, received)
	})

	t.Run("reports queue length", func(t *testing.T) {
		t.Parallel()

		input, output, length := InfiniteChan[int]()

		input <- 1
		input <- 2
		input <- 3

		// Ingestion into the internal queue is asynchronous.
		assert.Eventually(t, func() bool { return length() == 3 },
			time.Second, time.Millisecond)

		assert.Equal(t, 1, <-output)
		assert.Eventually(t, func() bool { return length() == 2 },
			time.Second, time.Millisecond)
	})
}

func TestCloseChannelIgnorePanic(t *testing.T) {
	t.Parallel()

	t.Run("closes normally", func(t *testing.T) {
		t.Parallel()

		ch := make(chan int, 1)
		ch <- 42

		CloseChannelIgnorePanic(ch)

		assert.Equal(t, 42, <-ch)

		_, ok := <-ch
		assert.False(t, ok)
	})

	t.Run("nil channel", func(t *testing.T) {
		t.Parallel()

		var ch chan int

		CloseChannelIgnorePanic(ch)
	})

	t.Run("already closed", func(t *testing.T) {
		t.Parallel()

		ch := make(chan int)
		close(ch)

		CloseChannelIgnorePanic(ch)
		CloseChannelIgnorePanic(ch)
	})
}

func TestSendCatchPanic(t *testing.T) {
	t.Parallel()

	t.Run("sends", func(t *testing.T) {
		t.Parallel()

		ch := make(chan int, 1)

		require.NoError(t, SendCatchPanic(ch, 42))
		assert.Equal(t, 42, <-ch)
	})

	t.Run("nil channel is a no-op", func(t *testing.T) {
		t.Parallel()

		var ch chan int

		assert.NoError(t, SendCatchPanic(ch, 42))
	})

	t.Run("closed channel becomes an error", func(t *testing.T) {
		t.Parallel()

		ch := make(chan int)
		close(ch)

		err := SendCatchPanic(ch, 42)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic")
	})
}

func TestSendContextCatchPanic(t *testing.T) {
	t.Parallel()

	t.Run("sends", func(t *testing.T) {
		t.Parallel()

		ch := make(chan int, 1)

		require.NoError(t, SendContextCatchPanic(t.Context(), ch, 42))
		assert.Equal(t, 42, <-ch)
	})

	t.Run("nil context falls back to plain send", func(t *testing.T) {
		t.Parallel()

		ch := make(chan int, 1)

		err := SendContextCatchPanic(nil, ch, 42) //nolint:usetesting,staticcheck // nil context fallback is the behavior under test
		require.NoError(t, err)
		assert.Equal(t, 42, <-ch)
	})

	t.Run("canceled context aborts a blocked send", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		ch := make(chan int)

		err := SendContextCatchPanic(ctx, ch, 42)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("closed channel becomes an error", func(t *testing.T) {
		t.Parallel()

		ch := make(chan int)
		close(ch)

		err := SendContextCatchPanic(t.Context(), ch, 42)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic")
	})
}
