package courier

import (
	"fmt"
	"time"
)

// PublishHooks are optional observability callbacks fired around one logical
// publish operation. Every hook is invoked through a safe-call wrapper: a
// panicking hook is logged and never alters the publish outcome or retry
// counting.
type PublishHooks struct {
	// OnStart fires once, before the first attempt.
	OnStart func(payload any)
	// OnSuccess fires once the transport accepted the message.
	OnSuccess func(payload any, messageID string)
	// OnError fires after each failed attempt.
	OnError func(payload any, attempt int, err error)
	// OnRetry fires before each retry wait, with the computed delay.
	OnRetry func(payload any, attempt int, delay time.Duration)
	// OnFailure fires once, after all attempts are exhausted.
	OnFailure func(payload any, err error)
}

func (h PublishHooks) start(log Logger, payload any) {
	if h.OnStart != nil {
		safeHook(log, "OnPublishStart", func() { h.OnStart(payload) })
	}
}

func (h PublishHooks) success(log Logger, payload any, id string) {
	if h.OnSuccess != nil {
		safeHook(log, "OnPublishSuccess", func() { h.OnSuccess(payload, id) })
	}
}

func (h PublishHooks) error(log Logger, payload any, attempt int, err error) {
	if h.OnError != nil {
		safeHook(log, "OnPublishError", func() { h.OnError(payload, attempt, err) })
	}
}

func (h PublishHooks) retry(log Logger, payload any, attempt int, delay time.Duration) {
	if h.OnRetry != nil {
		safeHook(log, "OnPublishRetry", func() { h.OnRetry(payload, attempt, delay) })
	}
}

func (h PublishHooks) failure(log Logger, payload any, err error) {
	if h.OnFailure != nil {
		safeHook(log, "OnPublishFailure", func() { h.OnFailure(payload, err) })
	}
}

// ConsumerHooks are optional observability callbacks fired along the
// per-message pipeline. Like PublishHooks, each is individually isolated: a
// panicking hook never aborts the pipeline and never affects the ack/nack
// decision.
type ConsumerHooks struct {
	// OnReceived fires as soon as the transport hands over a delivery.
	OnReceived func(d Delivery)
	// OnIdempotencyCheck fires after the duplicate check with its verdict.
	OnIdempotencyCheck func(d Delivery, key string, duplicate bool)
	// OnStart fires right before the business handler is invoked.
	OnStart func(e Event)
	// OnSuccess fires when the handler returned nil.
	OnSuccess func(e Event)
	// OnError fires when the handler returned an error.
	OnError func(e Event, err error)
	// OnAck fires after the delivery was acknowledged.
	OnAck func(d Delivery)
	// OnNack fires after the delivery was negatively acknowledged.
	OnNack func(d Delivery)
}

func (h ConsumerHooks) received(log Logger, d Delivery) {
	if h.OnReceived != nil {
		safeHook(log, "OnMessageReceived", func() { h.OnReceived(d) })
	}
}

func (h ConsumerHooks) idempotencyCheck(log Logger, d Delivery, key string, duplicate bool) {
	if h.OnIdempotencyCheck != nil {
		safeHook(log, "OnIdempotencyCheck", func() { h.OnIdempotencyCheck(d, key, duplicate) })
	}
}

func (h ConsumerHooks) start(log Logger, e Event) {
	if h.OnStart != nil {
		safeHook(log, "OnMessageStart", func() { h.OnStart(e) })
	}
}

func (h ConsumerHooks) success(log Logger, e Event) {
	if h.OnSuccess != nil {
		safeHook(log, "OnMessageSuccess", func() { h.OnSuccess(e) })
	}
}

func (h ConsumerHooks) error(log Logger, e Event, err error) {
	if h.OnError != nil {
		safeHook(log, "OnMessageError", func() { h.OnError(e, err) })
	}
}

func (h ConsumerHooks) ack(log Logger, d Delivery) {
	if h.OnAck != nil {
		safeHook(log, "OnMessageAck", func() { h.OnAck(d) })
	}
}

func (h ConsumerHooks) nack(log Logger, d Delivery) {
	if h.OnNack != nil {
		safeHook(log, "OnMessageNack", func() { h.OnNack(d) })
	}
}

// safeHook runs fn, recovering and logging any panic. Hook isolation is
// enforced here, in one place.
func safeHook(log Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("hook panicked", "hook", name, "panic", fmt.Sprint(r))
		}
	}()
	fn()
}
