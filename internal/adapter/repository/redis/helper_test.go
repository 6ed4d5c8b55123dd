package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestRedisClient returns a client backed by an in-process miniredis.
// The miniredis handle is returned too so tests can fast-forward TTLs and
// inspect raw keys.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client, mr
}
