// Package testutil holds shared helpers for tests that need a Redis backend.
package testutil

import (
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const defaultTestRedisAddr = "localhost:6379"

// GetTestRedisOptions returns client options for the Redis test database.
// REDIS_TEST_ADDR overrides the address; DB 1 keeps test keys apart from
// a local development instance.
func GetTestRedisOptions() *redis.Options {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = defaultTestRedisAddr
	}
	return &redis.Options{Addr: addr, DB: 1}
}

// GetTestRedisClient returns a client for GetTestRedisOptions.
func GetTestRedisClient() *redis.Client {
	return redis.NewClient(GetTestRedisOptions())
}

// NewMiniredis starts an in-memory Redis server and a client bound to it.
// Both are closed when the test ends.
func NewMiniredis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, s
}
