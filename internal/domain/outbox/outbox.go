package outbox

import "context"

// Event is a named fact about the shop, published after the state it
// describes has been committed.
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

// Bus is both ends of the in-process event channel.
type Bus interface {
	Publisher
	Subscriber
}

// Subscribe registers fn for events of type E under E's name. Events of
// another type published under the same name are ignored.
func Subscribe[E Event](s Subscriber, fn func(ctx context.Context, e E) error) {
	var zero E
	s.Subscribe(zero.EventName(), func(ctx context.Context, e Event) error {
		typed, ok := e.(E)
		if !ok {
			return nil
		}
		return fn(ctx, typed)
	})
}
