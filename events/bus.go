package events

import "io"

// SubscriptionOpt represents a subscriber option.
type SubscriptionOpt = func(interface{}) error

// Subscription represents a subscription to one or multiple event types.
type Subscription interface {
	io.Closer

	// Out returns the channel from which to consume events.
	Out() <-chan interface{}
}

// Bus is a type-based event delivery system. The relay publishes one
// event per stage of the watch cycle so that the status API, metrics
// and tests can follow a watcher without parsing log lines.
type Bus interface {
	// Subscribe creates a new Subscription.
	//
	// eventType can be either a pointer to a single event type, or a slice of pointers to
	// subscribe to multiple event types at once, under a single subscription (and channel).
	//
	// Unless the subscription was created with DropWhenFull, failing to drain
	// the channel will block publishers.
	//
	//  sub, err := bus.Subscribe([]interface{}{new(TransferReceived), new(TransferSent)})
	//  defer sub.Close()
	//  for e := range sub.Out() {
	//    switch evt := e.(type) {
	//    case *TransferReceived:
	//      [...]
	//    case *TransferSent:
	//      [...]
	//    }
	//  }
	Subscribe(eventType interface{}, opts ...SubscriptionOpt) (Subscription, error)

	// Emit emits an event onto the bus. The event must be a pointer.
	Emit(evt interface{})
}
