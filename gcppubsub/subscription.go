package gcppubsub

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/hexlane/courier"
)

// FlowControlConfig bounds how much the client pulls ahead of the handlers.
// Zero fields keep the SDK defaults.
type FlowControlConfig struct {
	MaxMessages int
	MaxBytes    int
}

// SubscriptionConfig describes the subscription handle to open.
type SubscriptionConfig struct {
	Client         ClientConfig
	SubscriptionID string
	// FlowControl is passed through to the client's receive settings
	FlowControl FlowControlConfig
	// MaxAckExtension bounds how long the client keeps extending the ack
	// deadline of an outstanding message
	MaxAckExtension time.Duration
	// NumGoroutines sets how many streams pull from the service
	NumGoroutines int
}

// Subscription adapts a Pub/Sub subscription to the courier.Subscription contract.
type Subscription struct {
	client     *pubsub.Client
	sub        *pubsub.Subscription
	ownsClient bool

	closeOnce sync.Once
	closeErr  error
}

// OpenSubscription creates its own client and wraps the named subscription.
// Close closes the client.
func OpenSubscription(ctx context.Context, cfg SubscriptionConfig) (*Subscription, error) {
	client, err := newClient(ctx, cfg.Client)
	if err != nil {
		return nil, err
	}
	sub := client.Subscription(cfg.SubscriptionID)
	applyFlowControl(sub, cfg)
	return &Subscription{client: client, sub: sub, ownsClient: true}, nil
}

// WrapSubscription adapts an externally-owned subscription handle. Close is a
// no-op for the client.
func WrapSubscription(sub *pubsub.Subscription) *Subscription {
	return &Subscription{sub: sub}
}

func applyFlowControl(sub *pubsub.Subscription, cfg SubscriptionConfig) {
	if cfg.FlowControl.MaxMessages > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = cfg.FlowControl.MaxMessages
	}
	if cfg.FlowControl.MaxBytes > 0 {
		sub.ReceiveSettings.MaxOutstandingBytes = cfg.FlowControl.MaxBytes
	}
	if cfg.MaxAckExtension > 0 {
		sub.ReceiveSettings.MaxExtension = cfg.MaxAckExtension
	}
	if cfg.NumGoroutines > 0 {
		sub.ReceiveSettings.NumGoroutines = cfg.NumGoroutines
	}
}

// ID names the subscription
func (s *Subscription) ID() string {
	return s.sub.ID()
}

// Receive blocks, invoking f once per delivery under the service's own flow
// control, until ctx is canceled or the stream fails.
func (s *Subscription) Receive(ctx context.Context, f func(ctx context.Context, d courier.Delivery)) error {
	return s.sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		f(ctx, &delivery{m: m})
	})
}

// Close releases the handle; safe to call multiple times.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		if s.ownsClient {
			s.closeErr = s.client.Close()
		}
	})
	return s.closeErr
}

type delivery struct {
	m *pubsub.Message
}

func (d *delivery) ID() string { return d.m.ID }

func (d *delivery) Data() []byte { return d.m.Data }

func (d *delivery) Attributes() courier.Attributes {
	return courier.Attributes(d.m.Attributes)
}

func (d *delivery) Ack() { d.m.Ack() }

func (d *delivery) Nack() { d.m.Nack() }
