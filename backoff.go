package courier

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	defaultInitialDelay = 100 * time.Millisecond
	defaultMaxDelay     = 10 * time.Second
	defaultFactor       = 2.0
	defaultMaxAttempts  = 5
)

// RetryPolicy computes the delay before a publish retry attempt:
//
//	delay = min(MaxDelay, InitialDelay*Factor^attempt) + uniform(0, InitialDelay)
//
// The jitter spreads out retries from publishers that failed at the same moment.
type RetryPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
	MaxAttempts  int
}

// DefaultRetryPolicy returns the policy used when none is configured:
// 100ms initial delay, 10s cap, factor 2, 5 attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
		Factor:       defaultFactor,
		MaxAttempts:  defaultMaxAttempts,
	}
}

// Delay returns the wait before the retry following the given zero-based
// failed attempt. The result never exceeds MaxDelay + InitialDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	backoff := float64(p.InitialDelay) * math.Pow(p.Factor, float64(attempt))
	if maxDelay := float64(p.MaxDelay); backoff > maxDelay {
		backoff = maxDelay
	}
	var jitter time.Duration
	if p.InitialDelay > 0 {
		jitter = time.Duration(rand.Int64N(int64(p.InitialDelay)))
	}
	return time.Duration(backoff) + jitter
}

// normalized fills zero fields with defaults so a partially specified policy
// behaves sensibly.
func (p RetryPolicy) normalized() RetryPolicy {
	if p.InitialDelay <= 0 {
		p.InitialDelay = defaultInitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.Factor <= 0 {
		p.Factor = defaultFactor
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	return p
}
