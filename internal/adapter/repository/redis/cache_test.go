package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

func TestCacheSetGetDelete(t *testing.T) {
	client, _ := newTestRedisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "ledger:global", []byte("1250.50"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := cache.Get(ctx, "ledger:global")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "1250.50" {
		t.Fatalf("expected 1250.50, got %s", got)
	}

	if err := cache.Delete(ctx, "ledger:global"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	_, err = cache.Get(ctx, "ledger:global")
	if !errors.Is(err, redislib.Nil) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestCacheExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "ledger:user-1:", []byte("400"), 30*time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(31 * time.Second)

	_, err := cache.Get(ctx, "ledger:user-1:")
	if !errors.Is(err, redislib.Nil) {
		t.Fatalf("expected redis.Nil after TTL, got %v", err)
	}
}

func TestCacheKeysArePrefixed(t *testing.T) {
	client, mr := newTestRedisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "ledger:global", []byte("10"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if !mr.Exists("cache:ledger:global") {
		t.Fatalf("expected key to be stored under cache: prefix, keys: %v", mr.Keys())
	}
}
