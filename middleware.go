package courier

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// PanicRecoveryMiddleware creates a middleware to recover from panics.
// It converts the panic into a regular error that can be returned and handled.
func PanicRecoveryMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, e Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					// Formatting error message and stack trace
					errMsg := fmt.Sprintf("panic recovered: %v\n%s", r, debug.Stack())
					// Converting the panic to a regular error
					err = errors.New(errMsg)
				}
			}()
			return next(ctx, e)
		}
	}
}

// LoggingMiddleware creates a middleware for logging the results of event processing.
// It logs whether the processing was successful or resulted in an error,
// along with the event's ID and the time taken to process it.
func LoggingMiddleware(logger Logger, options ...LoggingMiddlewareOption) Middleware {
	opts := &loggingMiddlewareOptions{
		logError:      true,
		logAttributes: false,
		logAttributesFunc: func(e Event) string {
			return fmt.Sprintf("%+v", e.Message().Attributes)
		},
		logBodyFunc: func(e Event) string {
			const logBodyMax = 4096
			data := e.Message().Body
			if len(data) > logBodyMax {
				return string(data[:logBodyMax])
			}
			return string(data)
		},
	}

	// Apply options
	for _, opt := range options {
		opt(opts)
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, e Event) error {
			startTime := time.Now()
			err := next(ctx, e)
			duration := time.Since(startTime)

			m := e.Message()
			args := []any{
				"messageId", m.ID,
				"subscription", e.Subscription(),
				"duration", duration,
			}
			if err != nil && opts.logError {
				args = append(args, "error", err.Error())
			}
			if opts.logAttributes {
				args = append(args, "attributes", opts.logAttributesFunc(e))
			}
			logF := logger.Info
			if err != nil {
				logF = logger.Error
			}
			if opts.logBody || err != nil && opts.logBodyOnError {
				args = append(args, "body", opts.logBodyFunc(e))
			}
			logF("event processed", args...)

			return err
		}
	}
}

// loggingMiddlewareOptions holds configuration options for the logging middleware.
type loggingMiddlewareOptions struct {
	logError          bool                 // Whether to log errors.
	logAttributes     bool                 // Whether to log attributes.
	logAttributesFunc func(e Event) string // Function to format the attributes for logging.
	logBody           bool                 // Whether to log the body.
	logBodyOnError    bool                 // Whether to log the body only on errors.
	logBodyFunc       func(e Event) string // Function to format the body for logging.
}

// LoggingMiddlewareOption defines a function type for setting options on loggingMiddlewareOptions.
type LoggingMiddlewareOption func(*loggingMiddlewareOptions)

// WithLogError returns a LoggingMiddlewareOption setting the logError flag.
// If set to true, errors encountered during processing will be logged.
func WithLogError(logError bool) LoggingMiddlewareOption {
	return func(o *loggingMiddlewareOptions) {
		o.logError = logError
	}
}

// WithLogAttributes returns a LoggingMiddlewareOption setting the logAttributes flag.
// If set to true, message attributes will be logged.
func WithLogAttributes(logAttributes bool) LoggingMiddlewareOption {
	return func(o *loggingMiddlewareOptions) {
		o.logAttributes = logAttributes
	}
}

// WithLogAttributesFunc returns a LoggingMiddlewareOption for setting a custom function
// to format the attributes for logging.
func WithLogAttributesFunc(logAttributesFunc func(e Event) string) LoggingMiddlewareOption {
	return func(o *loggingMiddlewareOptions) {
		o.logAttributesFunc = logAttributesFunc
	}
}

// WithLogBody returns a LoggingMiddlewareOption setting the logBody flag.
// If set to true, the body will be logged.
func WithLogBody(logBody bool) LoggingMiddlewareOption {
	return func(o *loggingMiddlewareOptions) {
		o.logBody = logBody
	}
}

// WithLogBodyOnError returns a LoggingMiddlewareOption setting the logBodyOnError flag.
// If set to true, the body will be logged only when an error is encountered.
func WithLogBodyOnError(logBodyOnError bool) LoggingMiddlewareOption {
	return func(o *loggingMiddlewareOptions) {
		o.logBodyOnError = logBodyOnError
	}
}

// WithLogBodyFunc returns a LoggingMiddlewareOption for setting a custom function
// to format the body for logging.
func WithLogBodyFunc(logBodyFunc func(e Event) string) LoggingMiddlewareOption {
	return func(o *loggingMiddlewareOptions) {
		o.logBodyFunc = logBodyFunc
	}
}

// LoopbackPreventionMiddleware returns a Middleware that skips messages
// originating from the specified instance. This is useful in scenarios where
// an application should not process its own outputs to avoid loops in message
// processing, particularly when instances can receive messages they have sent.
// Pair it with the publisher's WithInstanceID option.
func LoopbackPreventionMiddleware(instanceID string, logger ...Logger) Middleware {
	var l Logger
	if len(logger) > 0 {
		l = logger[0]
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, e Event) error {
			if e.Message().Attributes.GetInstanceID() == instanceID {
				if l != nil {
					l.Debug(
						"skipping message handling as it originates from the same instance",
						"instanceId",
						instanceID,
						"subscription",
						e.Subscription(),
						"messageId",
						e.Message().ID,
					)
				}
				return nil
			}
			return next(ctx, e)
		}
	}
}
