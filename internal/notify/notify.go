// Package notify delivers best-effort notifications for order events.
// Sinks never return errors to callers: delivery failures are logged and
// swallowed so a notification problem can never fail a request.
package notify

import "context"

// Sink is a fire-and-forget message destination.
type Sink interface {
	Send(ctx context.Context, message string)
}

// Fanout delivers a message to every configured sink independently; one
// destination's failure does not block another.
type Fanout []Sink

func (f Fanout) Send(ctx context.Context, message string) {
	for _, s := range f {
		s.Send(ctx, message)
	}
}
