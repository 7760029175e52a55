package provider

import (
	"context"
	"testing"
	"time"
)

func TestThrottleAllowsBurst(t *testing.T) {
	th := newThrottle(2, time.Minute)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := th.acquire(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Fatal("burst acquires should not block")
	}
}

func TestThrottleRefillsOverTime(t *testing.T) {
	th := newThrottle(1, 5*time.Millisecond)
	ctx := context.Background()

	if err := th.acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := th.acquire(ctx); err != nil {
		t.Fatalf("expected a refilled token, got %v", err)
	}
}

func TestThrottleHonorsContext(t *testing.T) {
	th := newThrottle(1, time.Second)
	_ = th.acquire(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := th.acquire(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatal("acquire should stop once the context is done")
	}
}
