package gcppubsub

import (
	"context"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/hexlane/courier"
)

// BatchingConfig controls the client-side publish batching buffer. Zero
// fields keep the SDK defaults.
type BatchingConfig struct {
	// MaxMessages is the batch message-count threshold
	MaxMessages int
	// MaxBytes is the batch size threshold
	MaxBytes int
	// Delay is how long the client waits before sending a partial batch
	Delay time.Duration
}

// TopicConfig describes the topic handle to open.
type TopicConfig struct {
	Client  ClientConfig
	TopicID string
	// Batching tunes the transport-level batch buffer thresholds
	Batching BatchingConfig
	// EnableOrdering must be set when publishing with ordering keys
	EnableOrdering bool
}

// Topic adapts a Pub/Sub topic to the courier.Topic contract.
type Topic struct {
	client     *pubsub.Client
	topic      *pubsub.Topic
	ownsClient bool
}

// OpenTopic creates its own client and wraps the named topic. Stop closes the
// client.
func OpenTopic(ctx context.Context, cfg TopicConfig) (*Topic, error) {
	client, err := newClient(ctx, cfg.Client)
	if err != nil {
		return nil, err
	}
	t := client.Topic(cfg.TopicID)
	applyBatching(t, cfg.Batching)
	t.EnableMessageOrdering = cfg.EnableOrdering
	return &Topic{client: client, topic: t, ownsClient: true}, nil
}

// WrapTopic adapts an externally-owned topic handle. Stop stops the topic's
// publish flow but leaves the client to its owner.
func WrapTopic(t *pubsub.Topic) *Topic {
	return &Topic{topic: t}
}

func applyBatching(t *pubsub.Topic, cfg BatchingConfig) {
	if cfg.MaxMessages > 0 {
		t.PublishSettings.CountThreshold = cfg.MaxMessages
	}
	if cfg.MaxBytes > 0 {
		t.PublishSettings.ByteThreshold = cfg.MaxBytes
	}
	if cfg.Delay > 0 {
		t.PublishSettings.DelayThreshold = cfg.Delay
	}
}

// Publish hands the message to the client's batching buffer and blocks until
// the service assigns an id.
func (t *Topic) Publish(ctx context.Context, m *courier.OutgoingMessage) (string, error) {
	result := t.topic.Publish(ctx, &pubsub.Message{
		Data:        m.Data,
		Attributes:  m.Attributes,
		OrderingKey: m.OrderingKey,
	})
	return result.Get(ctx)
}

// Flush blocks until all buffered messages are sent.
func (t *Topic) Flush(_ context.Context) error {
	t.topic.Flush()
	return nil
}

// Stop flushes and releases the handle, closing the client when this adapter
// created it.
func (t *Topic) Stop() {
	t.topic.Stop()
	if t.ownsClient {
		_ = t.client.Close()
	}
}
