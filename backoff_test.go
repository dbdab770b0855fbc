package courier_test

import (
	"testing"
	"time"

	. "github.com/hexlane/courier"
)

func TestRetryPolicyDefaults(t *testing.T) {
	p := DefaultRetryPolicy()

	if p.InitialDelay != 100*time.Millisecond {
		t.Errorf("InitialDelay = %v; want 100ms", p.InitialDelay)
	}
	if p.MaxDelay != 10*time.Second {
		t.Errorf("MaxDelay = %v; want 10s", p.MaxDelay)
	}
	if p.Factor != 2 {
		t.Errorf("Factor = %v; want 2", p.Factor)
	}
	if p.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %v; want 5", p.MaxAttempts)
	}
}

func TestRetryPolicyDelayBound(t *testing.T) {
	p := DefaultRetryPolicy()
	bound := p.MaxDelay + p.InitialDelay

	for attempt := 0; attempt < 20; attempt++ {
		d := p.Delay(attempt)
		if d < 0 {
			t.Fatalf("Delay(%d) = %v; negative", attempt, d)
		}
		if d > bound {
			t.Fatalf("Delay(%d) = %v; exceeds maxDelay+initialDelay bound %v", attempt, d, bound)
		}
	}
}

func TestRetryPolicyExponentialGrowth(t *testing.T) {
	p := RetryPolicy{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Hour,
		Factor:       2,
		MaxAttempts:  5,
	}

	// With jitter in [0, initial), Delay(a) lies in [initial*2^a, initial*2^a + initial).
	for attempt := 0; attempt < 5; attempt++ {
		base := p.InitialDelay << attempt
		d := p.Delay(attempt)
		if d < base || d >= base+p.InitialDelay {
			t.Errorf("Delay(%d) = %v; want within [%v, %v)", attempt, d, base, base+p.InitialDelay)
		}
	}
}

func TestRetryPolicyCapsAtMaxDelay(t *testing.T) {
	p := RetryPolicy{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     300 * time.Millisecond,
		Factor:       2,
		MaxAttempts:  5,
	}

	d := p.Delay(10)
	if d < p.MaxDelay || d >= p.MaxDelay+p.InitialDelay {
		t.Errorf("Delay(10) = %v; want within [%v, %v)", d, p.MaxDelay, p.MaxDelay+p.InitialDelay)
	}
}

func TestRetryPolicyNegativeAttempt(t *testing.T) {
	p := DefaultRetryPolicy()
	d := p.Delay(-3)
	if d < p.InitialDelay || d >= 2*p.InitialDelay {
		t.Errorf("Delay(-3) = %v; want within [%v, %v)", d, p.InitialDelay, 2*p.InitialDelay)
	}
}
