package courier

import "time"

// LogErrorHandler logs the passed transport error
func LogErrorHandler(log Logger) ErrorHandler {
	return func(err error) {
		log.Error("courier: subscription error", "error", err.Error())
	}
}

// DelayErrorHandler waits for the specified duration. It combines with other
// handlers to throttle reaction to a flapping subscription stream.
func DelayErrorHandler(duration time.Duration, logger ...Logger) ErrorHandler {
	var log Logger
	if len(logger) > 0 {
		log = logger[0]
	}
	return func(_ error) {
		if log != nil {
			log.Debug("courier.DelayErrorHandler: waiting", "duration", duration)
		}
		time.Sleep(duration)
	}
}

// CombineErrorHandlers combines multiple error handlers by calling them sequentially
func CombineErrorHandlers(handlers ...ErrorHandler) ErrorHandler {
	return func(err error) {
		for _, handler := range handlers {
			handler(err)
		}
	}
}
