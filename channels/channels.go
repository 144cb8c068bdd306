package channels

import (
	"context"
	"fmt"

	"go.uber.org/atomic"
)

// Create returns a connected send/receive channel pair with the given
// buffering behavior, plus a function reporting the number of values
// currently buffered.
//
//   - size == 0 creates an unbuffered channel
//   - size > 0 creates a buffered channel of that capacity
//   - size < 0 creates a channel with infinite buffering (see InfiniteChan)
func Create[A any](size int) (chan<- A, <-chan A, func() int) {
	if size < 0 {
		return InfiniteChan[A]()
	}

	ch := make(chan A, size)

	return ch, ch, func() int { return len(ch) }
}

// CloseChannelIgnorePanic closes a channel like normal.
// However, if the channel has already been closed,
// it will suppress the resulting panic.
func CloseChannelIgnorePanic[T any](ch chan<- T) {
	if ch == nil {
		return
	}

	defer func() {
		// Recover from panic if the channel is already closed
		_ = recover()
	}()

	close(ch)
}

// SendCatchPanic sends a value to a channel, converting the panic from a
// send on a closed channel into an error. Sends on a nil channel are a no-op.
func SendCatchPanic[A any](ch chan<- A, value A) (err error) {
	if ch == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic sending to channel: %v", r) //nolint:err113
		}
	}()

	ch <- value

	return nil
}

// SendContextCatchPanic sends a value to a channel, honoring context
// cancellation while waiting and converting a send-on-closed panic into an
// error. A nil context falls back to SendCatchPanic.
func SendContextCatchPanic[A any](ctx context.Context, ch chan<- A, value A) (err error) {
	if ctx == nil {
		return SendCatchPanic(ch, value)
	}

	if ch == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic sending to channel: %v", r) //nolint:err113
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ch <- value:
		return nil
	}
}

// InfiniteChan creates a channel with infinite buffering.
// It returns a send-only channel, a receive-only channel, and a function
// reporting the number of values queued between them.
// The send-only channel can be used to send values without blocking.
// The receive-only channel can be used to receive values in the order they were sent.
//
// Note: Use with caution as it can lead to high memory usage if the sender outpaces
// the receiver. The returned length function exists so long-running processes can
// monitor the internal queue.
func InfiniteChan[A any]() (chan<- A, <-chan A, func() int) {
	// Create input and output channels
	inputCh := make(chan A)
	outputCh := make(chan A)

	queued := atomic.NewInt64(0)

	// Start a goroutine to manage the buffering between input and output
	go func() {
		// Internal queue to store values between receives and sends
		var inputQueue []A

		// outCh returns the output channel only when there's data to send
		// Returns nil when queue is empty to disable this select case
		outCh := func() chan A {
			if len(inputQueue) == 0 {
				return nil
			}

			return outputCh
		}

		// curVal returns the first value in the queue, or zero value if empty
		curVal := func() A {
			if len(inputQueue) == 0 {
				var zero A

				return zero
			}

			return inputQueue[0]
		}

		// Continue until queue is drained and input channel is closed
		for len(inputQueue) > 0 || inputCh != nil {
			select {
			// Receive from input channel and add to queue
			case v, ok := <-inputCh:
				if !ok {
					// Input closed, set to nil to disable this case
					inputCh = nil
				} else {
					// Append received value to queue
					inputQueue = append(inputQueue, v)
					queued.Inc()
				}
			// Send first queued value to output channel
			case outCh() <- curVal():
				// Remove sent value from queue
				inputQueue = inputQueue[1:]
				queued.Dec()
			}
		}

		// Close output channel when all values are sent
		close(outputCh)
	}()

	return inputCh, outputCh, func() int { return int(queued.Load()) }
}
