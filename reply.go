package courier

import (
	"context"
	"fmt"
)

// TopicResolver returns a publisher bound to the named topic. Reply handlers
// use it to route responses to the topic carried in the request's Reply-To
// attribute. Implementations should cache publishers per topic.
type TopicResolver func(topic string) (*Publisher, error)

// CreateReplyHandler creates a handler that replies to the topic named by the
// Reply-To attribute with the value returned by the passed consumerFunc. The
// reply carries a Reply-Message-Id attribute referencing the request message.
// Requests without a Reply-To attribute are processed without replying.
func CreateReplyHandler[REQ any, RESP any](
	dec Decoder,
	resolve TopicResolver,
	consumerFunc func(ctx context.Context, target REQ) (RESP, error),
	middleware ...Middleware,
) Handler {
	runConsumerFunc := func(ctx context.Context, event Event, target REQ) error {
		resp, err := consumerFunc(ctx, target)
		if err != nil {
			return err
		}
		reqMsg := event.Message()
		if replyTo := reqMsg.Attributes.GetReplyTo(); replyTo != "" {
			pub, rErr := resolve(replyTo)
			if rErr != nil {
				return fmt.Errorf("cannot resolve reply topic %q: %w", replyTo, rErr)
			}
			attrs := make(Attributes)
			attrs.SetReplyMessageID(reqMsg.ID)
			if _, pErr := pub.Publish(ctx, resp, attrs); pErr != nil {
				return fmt.Errorf("cannot publish reply for message %q: %w", reqMsg.ID, pErr)
			}
		}
		return nil
	}

	return createHandler(dec, runConsumerFunc, middleware...)
}
