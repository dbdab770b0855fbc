package courier

import "context"

// Handler processes a single delivered message. The pipeline acknowledges the
// delivery automatically: a nil return acks, a non-nil return nacks and the
// transport redelivers according to its own retry and dead-letter policy.
// Handlers never touch ack/nack directly.
type Handler func(ctx context.Context, e Event) error

// Middleware defines a function type that takes a Handler and returns a modified Handler.
// It is used to intercept and optionally modify the behavior of the Handler function.
// This can include pre-processing or post-processing steps, logging, error handling,
// authentication checks, or any other form of message manipulation.
//
// Middleware functions can be chained together to create a pipeline of handlers
// that process an Event before it reaches the final Handler. Each Middleware
// function in the chain is responsible for calling the next Middleware or the
// final Handler, allowing for flexible and customizable processing.
//
// Example:
//
//	func MyMiddleware(next Handler) Handler {
//	    return func(ctx context.Context, e Event) error {
//	        // Pre-processing logic here
//	        err := next(ctx, e)
//	        // Post-processing logic here
//	        return err
//	    }
//	}
type Middleware func(Handler) Handler

// Message is the courier view of one transport delivery or publication.
type Message struct {
	// ID uniquely identifies the message; assigned by the transport on delivery
	ID string
	// Attributes includes additional service data
	Attributes Attributes
	// Body is message payload
	Body []byte
}

// NewMessage initializes a message
func NewMessage() *Message {
	return &Message{
		Attributes: make(Attributes),
	}
}

// Event is given to a message handler for processing
type Event interface {
	// Subscription is the name of the subscription the message arrived on
	Subscription() string
	// Payload is the decoded message body (JSON by default). When decoding
	// fails the raw body is carried as a string instead; decode failures are
	// never fatal to processing.
	Payload() any
	Message() *Message
}

// ErrorHandler is notified of subscription-transport-level faults (e.g. stream
// disconnects). It is purely observational: reconnection is the transport's job.
type ErrorHandler func(err error)
