package eventbus

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/amp-workflow/contexts"
)

// Async wraps a handler so delivery hands the event off to the given worker
// pool and returns immediately. The bus itself never suspends a publish; a
// listener that needs asynchronous work opts into it with this wrapper.
// The identity should match the one used at Subscribe so failures are
// attributed to the right listener.
//
// The handed-off handler runs with a context that keeps the publish call's
// values but ignores its cancellation, since the publish has already returned
// by the time the work runs. Errors and panics from the detached work are
// logged and recorded on the bus exactly like synchronous listener failures.
// The wrapper itself only fails if the pool has been stopped.
func (b *Bus) Async(pool pond.Pool, identity string, handler Handler) Handler {
	return func(ctx context.Context, evt Event) error {
		detached := contexts.WithIgnoreLifecycle(ctx)

		return pool.Go(func() {
			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("listener panic: %v", r) //nolint:err113
					}
				}()

				return handler(detached, evt)
			}()

			if err == nil {
				return
			}

			b.logger.ListenerFailed(detached, identity, evt.Topic(), err)
			b.record(&DeliveryError{
				Identity: identity,
				Topic:    evt.Topic(),
				Err:      err,
			})
		})
	}
}
