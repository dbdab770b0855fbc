package courier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// OrderingKeyFunc derives the transport ordering key from a payload. An empty
// key means unordered. A returned error is a programming error: it propagates
// immediately without any publish attempt or retry.
type OrderingKeyFunc func(payload any) (string, error)

// Publisher wraps a transport topic handle. Publish serializes the payload,
// merges configured default attributes under call-site attributes, derives an
// optional ordering key and retries the transport publish call with
// exponential backoff and jitter.
type Publisher struct {
	topic      Topic
	encoder    Encoder
	defaults   Attributes
	ordering   OrderingKeyFunc
	retry      RetryPolicy
	hooks      PublishHooks
	log        Logger
	correlate  bool
	instanceID string
}

type publisherOptions struct {
	encoder    Encoder
	defaults   Attributes
	ordering   OrderingKeyFunc
	retry      RetryPolicy
	hooks      PublishHooks
	logger     Logger
	correlate  bool
	instanceID string
}

// PublisherOption provides a way to interact with publisher options
type PublisherOption func(*publisherOptions)

// WithDefaultAttributes sets attributes merged under call-site attributes on
// every publish. Call-site keys win on conflict.
func WithDefaultAttributes(attrs Attributes) PublisherOption {
	return func(o *publisherOptions) {
		o.defaults = attrs.Clone()
	}
}

// WithOrderingKey sets the selector deriving the transport ordering key from the payload
func WithOrderingKey(fn OrderingKeyFunc) PublisherOption {
	return func(o *publisherOptions) {
		o.ordering = fn
	}
}

// WithRetryPolicy overrides the backoff policy applied around the transport
// publish call. Zero fields fall back to defaults.
func WithRetryPolicy(p RetryPolicy) PublisherOption {
	return func(o *publisherOptions) {
		o.retry = p
	}
}

// WithPublishHooks sets the publish lifecycle hooks
func WithPublishHooks(h PublishHooks) PublisherOption {
	return func(o *publisherOptions) {
		o.hooks = h
	}
}

// WithEncoder overrides the payload encoder (default: JSON)
func WithEncoder(enc Encoder) PublisherOption {
	return func(o *publisherOptions) {
		o.encoder = enc
	}
}

// WithPublisherLogger sets the logger
func WithPublisherLogger(log Logger) PublisherOption {
	return func(o *publisherOptions) {
		o.logger = log
	}
}

// WithCorrelationIDStamping makes Publish set a generated Correlation-Id
// attribute when the merged attributes do not carry one already.
func WithCorrelationIDStamping() PublisherOption {
	return func(o *publisherOptions) {
		o.correlate = true
	}
}

// WithInstanceID stamps the Instance-Id attribute on every published message,
// enabling loopback prevention on the consuming side.
func WithInstanceID(id string) PublisherOption {
	return func(o *publisherOptions) {
		o.instanceID = id
	}
}

// NewPublisher wraps the given transport topic handle. The handle is
// exclusively owned by the publisher for its lifetime and released by Stop.
func NewPublisher(topic Topic, options ...PublisherOption) (*Publisher, error) {
	if topic == nil {
		return nil, NilTopic
	}
	opts := &publisherOptions{
		encoder: EncoderFunc(json.Marshal),
		retry:   DefaultRetryPolicy(),
		logger:  NopLogger(),
	}
	for _, o := range options {
		o(opts)
	}
	return &Publisher{
		topic:      topic,
		encoder:    opts.encoder,
		defaults:   opts.defaults,
		ordering:   opts.ordering,
		retry:      opts.retry.normalized(),
		hooks:      opts.hooks,
		log:        opts.logger,
		correlate:  opts.correlate,
		instanceID: opts.instanceID,
	}, nil
}

// Publish serializes the payload and sends it, retrying transport failures up
// to the policy's MaxAttempts and returning the transport-assigned message id.
// After exhaustion the last observed error is returned.
//
// Retries are unconditional on error kind: the loop does not distinguish
// terminal from transient transport errors. Payload encoding happens once,
// before the first attempt, so an encode failure aborts without consuming any
// attempts.
func (p *Publisher) Publish(ctx context.Context, payload any, attributes ...Attributes) (string, error) {
	data, err := p.encoder.Encode(payload)
	if err != nil {
		return "", errors.Wrap(err, "courier: cannot encode payload")
	}

	var callSite Attributes
	if len(attributes) > 0 {
		callSite = attributes[0]
	}
	merged := MergeAttributes(p.defaults, callSite)
	if p.instanceID != "" && merged.GetInstanceID() == "" {
		merged.SetInstanceID(p.instanceID)
	}
	if p.correlate && merged.GetCorrelationID() == "" {
		merged.SetCorrelationID(uuid.NewString())
	}

	var orderingKey string
	if p.ordering != nil {
		orderingKey, err = p.ordering(payload)
		if err != nil {
			return "", errors.Wrap(err, "courier: ordering key selector failed")
		}
	}

	out := &OutgoingMessage{
		Data:        data,
		Attributes:  merged,
		OrderingKey: orderingKey,
	}

	p.hooks.start(p.log, payload)

	var lastErr error
	for attempt := 0; attempt < p.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.retry.Delay(attempt - 1)
			p.hooks.retry(p.log, payload, attempt, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		id, err := p.topic.Publish(ctx, out)
		if err == nil {
			p.hooks.success(p.log, payload, id)
			return id, nil
		}
		lastErr = err
		p.hooks.error(p.log, payload, attempt, err)
		p.log.Warn("publish attempt failed",
			"attempt", attempt,
			"maxAttempts", p.retry.MaxAttempts,
			"error", err.Error(),
		)
	}

	p.hooks.failure(p.log, payload, lastErr)
	return "", errors.Wrapf(lastErr, "courier: publish failed after %d attempts", p.retry.MaxAttempts)
}

// Flush forces the transport's batching buffer to drain. Await it before
// process shutdown when batching is enabled.
func (p *Publisher) Flush(ctx context.Context) error {
	return p.topic.Flush(ctx)
}

// Stop releases the underlying topic handle. The publisher must not be used afterwards.
func (p *Publisher) Stop() {
	p.topic.Stop()
}
