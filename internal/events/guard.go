package events

import "context"

// Breaker guards calls to a flaky downstream.
type Breaker interface {
	Do(ctx context.Context, fn func(context.Context) error) error
}

// GuardedPublisher publishes through a circuit breaker so an unreachable
// broker fails fast instead of holding every caller for the write timeout.
type GuardedPublisher struct {
	Next    Publisher
	Breaker Breaker
}

// Publish implements Publisher.
func (g GuardedPublisher) Publish(ctx context.Context, event Event) error {
	if g.Breaker == nil {
		return g.Next.Publish(ctx, event)
	}
	return g.Breaker.Do(ctx, func(ctx context.Context) error {
		return g.Next.Publish(ctx, event)
	})
}
