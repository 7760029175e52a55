package cache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

func stubRedisInit(t *testing.T) *string {
	t.Helper()
	origNew := newRedisClient
	origPing := pingRedis
	t.Cleanup(func() {
		newRedisClient = origNew
		pingRedis = origPing
		Client = nil
	})

	captured := new(string)
	newRedisClient = func(opts *redis.Options) *redis.Client {
		*captured = opts.Addr
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return nil
	}
	return captured
}

func TestInitRedisWithCustomAddr(t *testing.T) {
	t.Setenv("REDIS_URL", "redis:9999")
	addr := stubRedisInit(t)

	InitRedis(context.Background())
	if *addr != "redis:9999" {
		t.Fatalf("expected custom addr, got %s", *addr)
	}
}

func TestInitRedisParsesURL(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://some-host:6380/2")
	addr := stubRedisInit(t)

	InitRedis(context.Background())
	if *addr != "some-host:6380" {
		t.Fatalf("expected parsed addr, got %s", *addr)
	}
}

func TestInitRedisDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	addr := stubRedisInit(t)

	InitRedis(context.Background())
	if *addr != "localhost:6379" {
		t.Fatalf("expected default addr, got %s", *addr)
	}
}
