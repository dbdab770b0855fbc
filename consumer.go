package courier

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/hexlane/courier/idempotency"
)

// IdempotencyKeyFunc derives the deduplication key from a delivery. The
// default uses the transport-assigned message id. A returned error is a
// programming error: the delivery is nacked without invoking the handler.
type IdempotencyKeyFunc func(d Delivery) (string, error)

// Consumer wraps a transport subscription handle and drives the per-message
// pipeline: receive, decode, idempotency gate, handler, ack/nack. Messages are
// processed concurrently up to the transport's own flow-control limits; the
// consumer imposes no additional concurrency cap.
type Consumer struct {
	sub        Subscription
	dec        Decoder
	store      idempotency.Store
	ownsStore  bool
	keyFunc    IdempotencyKeyFunc
	ttl        time.Duration
	hooks      ConsumerHooks
	middleware []Middleware
	log        Logger

	mu      sync.Mutex
	handler Handler
	errFn   ErrorHandler
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type consumerOptions struct {
	decoder     Decoder
	store       idempotency.Store
	redisClient redis.UniversalClient
	redisOpts   *redis.Options
	idempotency bool
	keyFunc     IdempotencyKeyFunc
	ttl         time.Duration
	hooks       ConsumerHooks
	middleware  []Middleware
	logger      Logger
}

// ConsumerOption provides a way to interact with consumer options
type ConsumerOption func(*consumerOptions)

// WithIdempotency enables the duplicate-suppression gate. Without an injected
// store or Redis configuration the consumer creates (and owns) a process-local
// in-memory store.
func WithIdempotency() ConsumerOption {
	return func(o *consumerOptions) {
		o.idempotency = true
	}
}

// WithIdempotencyStore injects a store instance. Implies WithIdempotency.
// Injected stores are shared-by-contract: the consumer never closes them.
func WithIdempotencyStore(store idempotency.Store) ConsumerOption {
	return func(o *consumerOptions) {
		o.idempotency = true
		o.store = store
	}
}

// WithRedisClient uses an externally-owned Redis client for deduplication.
// Implies WithIdempotency. The client is not closed by the consumer.
func WithRedisClient(client redis.UniversalClient) ConsumerOption {
	return func(o *consumerOptions) {
		o.idempotency = true
		o.redisClient = client
	}
}

// WithRedisOptions makes the consumer dial its own Redis connection for
// deduplication. Implies WithIdempotency. The connection is owned by the
// consumer and closed on Stop.
func WithRedisOptions(opt *redis.Options) ConsumerOption {
	return func(o *consumerOptions) {
		o.idempotency = true
		o.redisOpts = opt
	}
}

// WithIdempotencyKey overrides how the deduplication key is derived
// (default: the transport-assigned message id).
func WithIdempotencyKey(fn IdempotencyKeyFunc) ConsumerOption {
	return func(o *consumerOptions) {
		o.keyFunc = fn
	}
}

// WithIdempotencyTTL sets the record lifetime passed to the store on Set.
// Zero applies the store default.
func WithIdempotencyTTL(ttl time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		o.ttl = ttl
	}
}

// WithDecoder overrides the payload decoder (default: JSON)
func WithDecoder(dec Decoder) ConsumerOption {
	return func(o *consumerOptions) {
		o.decoder = dec
	}
}

// WithConsumerHooks sets the per-message lifecycle hooks
func WithConsumerHooks(h ConsumerHooks) ConsumerOption {
	return func(o *consumerOptions) {
		o.hooks = h
	}
}

// WithMiddleware wraps the registered message handler with the given
// middleware, applied so the first listed runs outermost.
func WithMiddleware(mw ...Middleware) ConsumerOption {
	return func(o *consumerOptions) {
		o.middleware = append(o.middleware, mw...)
	}
}

// WithConsumerLogger sets the logger
func WithConsumerLogger(log Logger) ConsumerOption {
	return func(o *consumerOptions) {
		o.logger = log
	}
}

// NewConsumer wraps the given transport subscription handle. The handle is
// exclusively owned by the consumer and closed on Stop.
//
// When idempotency is enabled the backing store is resolved in order:
// injected store, external Redis client, dialed Redis connection, and finally
// a local in-memory store. Stores the consumer creates itself are closed on
// Stop; injected ones never are.
func NewConsumer(ctx context.Context, sub Subscription, options ...ConsumerOption) (*Consumer, error) {
	if sub == nil {
		return nil, NilSubscription
	}
	opts := &consumerOptions{
		decoder: DecoderFunc(json.Unmarshal),
		logger:  NopLogger(),
	}
	for _, o := range options {
		o(opts)
	}

	c := &Consumer{
		sub:        sub,
		dec:        opts.decoder,
		keyFunc:    opts.keyFunc,
		ttl:        opts.ttl,
		hooks:      opts.hooks,
		middleware: opts.middleware,
		log:        opts.logger,
	}
	if c.keyFunc == nil {
		c.keyFunc = func(d Delivery) (string, error) { return d.ID(), nil }
	}

	if opts.idempotency {
		switch {
		case opts.store != nil:
			c.store = opts.store
		case opts.redisClient != nil:
			c.store = idempotency.NewRedisStore(opts.redisClient)
			c.ownsStore = true
		case opts.redisOpts != nil:
			store, err := idempotency.DialRedisStore(ctx, opts.redisOpts)
			if err != nil {
				return nil, err
			}
			c.store = store
			c.ownsStore = true
		default:
			c.store = idempotency.NewMemoryStore()
			c.ownsStore = true
		}
	}

	return c, nil
}

// OnMessage registers the business handler, wrapped in the configured
// middleware chain. Registering after Start is safe; in-flight deliveries keep
// the handler they started with.
func (c *Consumer) OnMessage(h Handler) {
	for i := len(c.middleware) - 1; i >= 0; i-- {
		h = c.middleware[i](h)
	}
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// OnError registers the subscription-transport-level error callback.
func (c *Consumer) OnError(fn ErrorHandler) {
	c.mu.Lock()
	c.errFn = fn
	c.mu.Unlock()
}

// Start attaches the processing pipeline to the transport's delivery stream.
// Repeated calls after the first are no-ops.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	receiveCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	c.log.Info("consumer started", "subscription", c.sub.ID())
	go func() {
		defer close(c.done)
		err := c.sub.Receive(receiveCtx, c.process)
		if err != nil && !errors.Is(err, context.Canceled) {
			c.emitError(errors.Wrapf(err, "courier: subscription %q receive failed", c.sub.ID()))
		}
	}()
	return nil
}

// Stop detaches from the delivery stream, closes the transport subscription
// handle and closes the idempotency store if the consumer created it
// internally. Injected stores are never closed. Stop is idempotent.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	err := c.sub.Close()
	if c.ownsStore {
		if cerr := c.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	c.log.Info("consumer stopped", "subscription", c.sub.ID())
	return err
}

type event struct {
	subscription string
	payload      any
	msg          *Message
}

func (e *event) Subscription() string { return e.subscription }
func (e *event) Payload() any         { return e.payload }
func (e *event) Message() *Message    { return e.msg }

// process runs the full per-message state machine for one delivery. It is
// invoked concurrently by the transport; the idempotency store is the only
// state shared between invocations.
func (c *Consumer) process(ctx context.Context, d Delivery) {
	c.hooks.received(c.log, d)

	e := &event{
		subscription: c.sub.ID(),
		payload:      c.decodePayload(d.Data()),
		msg: &Message{
			ID:         d.ID(),
			Attributes: d.Attributes(),
			Body:       d.Data(),
		},
	}

	if c.store != nil {
		key, err := c.keyFunc(d)
		if err != nil {
			c.hooks.error(c.log, e, err)
			d.Nack()
			c.hooks.nack(c.log, d)
			c.log.Error("idempotency key selector failed",
				"messageId", d.ID(), "error", err.Error())
			return
		}

		duplicate, err := c.store.Has(ctx, key)
		if err != nil {
			// Fail open: an unreachable store must not block processing.
			c.log.Warn("idempotency check failed, proceeding as not-duplicate",
				"key", key, "error", err.Error())
			duplicate = false
		}
		c.hooks.idempotencyCheck(c.log, d, key, duplicate)

		if duplicate {
			d.Ack()
			c.hooks.ack(c.log, d)
			return
		}
		if err := c.store.Set(ctx, key, c.ttl); err != nil {
			c.log.Warn("idempotency record write failed",
				"key", key, "error", err.Error())
		}
	}

	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()

	if handler == nil {
		d.Ack()
		c.hooks.ack(c.log, d)
		return
	}

	c.hooks.start(c.log, e)
	if err := handler(ctx, e); err != nil {
		c.hooks.error(c.log, e, err)
		d.Nack()
		c.hooks.nack(c.log, d)
		return
	}
	c.hooks.success(c.log, e)
	d.Ack()
	c.hooks.ack(c.log, d)
}

func (c *Consumer) decodePayload(data []byte) any {
	var v any
	if err := c.dec.Decode(data, &v); err != nil {
		// Non-fatal fallback: carry the raw bytes as a string.
		c.log.Debug("payload decode failed, falling back to raw string", "error", err.Error())
		return string(data)
	}
	return v
}

func (c *Consumer) emitError(err error) {
	c.mu.Lock()
	fn := c.errFn
	c.mu.Unlock()
	if fn != nil {
		fn(err)
		return
	}
	c.log.Error("subscription error", "subscription", c.sub.ID(), "error", err.Error())
}
