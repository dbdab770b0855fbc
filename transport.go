package courier

import "context"

// OutgoingMessage is what the Publisher hands to the transport after
// serialization, attribute merging and ordering-key derivation.
type OutgoingMessage struct {
	Data        []byte
	Attributes  Attributes
	OrderingKey string
}

// Topic is the transport-side publish handle. Implementations wrap a managed
// pub/sub SDK topic (see the gcppubsub package); the courier core never talks
// to a cloud SDK directly.
type Topic interface {
	// Publish sends the message and blocks until the transport assigns an id.
	Publish(ctx context.Context, m *OutgoingMessage) (string, error)
	// Flush drains any transport-level batching buffer. It must be awaited
	// before process shutdown when batching is enabled, or buffered messages
	// may be lost.
	Flush(ctx context.Context) error
	// Stop releases the handle. No publishes may follow.
	Stop()
}

// Delivery is one delivery attempt of a message presented by the transport.
// Exactly one of Ack or Nack must be invoked exactly once per delivery;
// invoking neither leaks the message until the transport's ack deadline.
type Delivery interface {
	ID() string
	Data() []byte
	Attributes() Attributes
	Ack()
	Nack()
}

// Subscription is the transport-side receive handle. Receive blocks, invoking
// the callback once per delivery, concurrently up to the transport's own
// flow-control limits, until the context is canceled or the stream fails.
type Subscription interface {
	// ID names the subscription
	ID() string
	Receive(ctx context.Context, f func(ctx context.Context, d Delivery)) error
	// Close releases the handle; safe to call multiple times
	Close() error
}
