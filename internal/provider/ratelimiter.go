package provider

import (
	"context"
	"sync"
	"time"
)

// throttle is a token bucket guarding Kite Connect calls. The historical
// data endpoints allow roughly three requests per second per session.
type throttle struct {
	mu       sync.Mutex
	tokens   int
	burst    int
	interval time.Duration
	last     time.Time
}

func newThrottle(burst int, interval time.Duration) *throttle {
	return &throttle{
		tokens:   burst,
		burst:    burst,
		interval: interval,
		last:     time.Now(),
	}
}

// acquire blocks until a token is available or ctx is cancelled.
func (t *throttle) acquire(ctx context.Context) error {
	for {
		t.mu.Lock()
		t.refill()
		if t.tokens > 0 {
			t.tokens--
			t.mu.Unlock()
			return nil
		}
		t.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.interval):
		}
	}
}

func (t *throttle) refill() {
	earned := int(time.Since(t.last) / t.interval)
	if earned == 0 {
		return
	}
	t.tokens += earned
	if t.tokens > t.burst {
		t.tokens = t.burst
	}
	t.last = t.last.Add(time.Duration(earned) * t.interval)
}
