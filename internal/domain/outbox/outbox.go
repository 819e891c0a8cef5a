// Package outbox defines the ports for events emitted after a commit.
package outbox

import (
	"context"
	"fmt"
)

// Event is a fact that already happened; EventName routes it to subscribers.
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Handle adapts a handler for one concrete event type. An event of any other
// type is reported as an error instead of being dropped silently.
func Handle[E Event](fn func(ctx context.Context, e E) error) Handler {
	return func(ctx context.Context, e Event) error {
		evt, ok := e.(E)
		if !ok {
			return fmt.Errorf("outbox: unexpected %T for %s", e, e.EventName())
		}
		return fn(ctx, evt)
	}
}
