package courier

import (
	"context"
	"fmt"
	"reflect"
)

// CreateHandler creates a message handler that uses a Decoder to decode the
// message body into a concrete value, which is then passed to the consumer function
func CreateHandler[T any](
	dec Decoder,
	consumerFunc func(ctx context.Context, target T) error,
	middleware ...Middleware,
) Handler {
	runConsumerFunc := func(ctx context.Context, _ Event, target T) error {
		return consumerFunc(ctx, target)
	}

	return createHandler(dec, runConsumerFunc, middleware...)
}

// CorrelationIDAware is implemented by decode targets that want the message
// correlation id injected after decoding.
type CorrelationIDAware interface {
	SetCorrelationID(id string)
}

func createHandler[T any](
	dec Decoder,
	consumerFunc func(ctx context.Context, event Event, target T) error,
	middleware ...Middleware,
) Handler {
	h := func(ctx context.Context, event Event) error {
		var target T
		var targetPtr any

		targetType := reflect.TypeOf(target)
		if targetType == nil {
			return fmt.Errorf("cannot determine type of target")
		}

		if targetType.Kind() == reflect.Pointer {
			// T is a pointer type
			// Allocate a new instance of the type pointed to by T
			elemType := targetType.Elem()
			targetValue := reflect.New(elemType)
			target = targetValue.Interface().(T)
			targetPtr = target
		} else {
			// T is not a pointer type; use the address of target
			targetPtr = &target
		}

		message := event.Message()
		if err := dec.Decode(message.Body, targetPtr); err != nil {
			return fmt.Errorf("failed to decode message body: %s", err)
		}

		if correlationID := message.Attributes.GetCorrelationID(); correlationID != "" {
			if corIDAware, ok := any(target).(CorrelationIDAware); ok {
				corIDAware.SetCorrelationID(correlationID)
			}
			if corIDAware, ok := targetPtr.(CorrelationIDAware); ok {
				corIDAware.SetCorrelationID(correlationID)
			}
		}

		return consumerFunc(ctx, event, target)
	}

	for _, mw := range middleware {
		h = mw(h)
	}

	return h
}
