package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIdempotencyFirstRequestClaimsKey(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	exists, existing, err := store.CheckAndSet(ctx, "key-1", nil, time.Hour)
	require.NoError(t, err)
	require.False(t, exists, "first request must claim the key, got existing %q", existing)
}

func TestIdempotencyRetryReplaysResponse(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	_, _, err := store.CheckAndSet(ctx, "key-1", nil, time.Hour)
	require.NoError(t, err)

	response := []byte(`{"id":"loan-1","status":"Disbursed"}`)
	require.NoError(t, store.Update(ctx, "key-1", response, time.Hour))

	exists, existing, err := store.CheckAndSet(ctx, "key-1", nil, time.Hour)
	require.NoError(t, err)
	require.True(t, exists, "retry must find the stored response")
	require.Equal(t, response, existing)
}

func TestIdempotencyInFlightRequestSeen(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	_, _, err := store.CheckAndSet(ctx, "key-1", nil, time.Hour)
	require.NoError(t, err)

	// Second request with the same key before the first finishes.
	exists, existing, err := store.CheckAndSet(ctx, "key-1", nil, time.Hour)
	require.NoError(t, err)
	require.True(t, exists, "in-flight key must be reported as existing")
	require.Equal(t, "processing", string(existing))
}

func TestIdempotencyKeyExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	_, _, err := store.CheckAndSet(ctx, "key-1", []byte("done"), time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	exists, _, err := store.CheckAndSet(ctx, "key-1", nil, time.Minute)
	require.NoError(t, err)
	require.False(t, exists, "expired key must be reclaimable")
}
