package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/celebrum-odds/internal/config"
)

// healthKey is written by HealthCheck. It shares the namespace of the
// opportunity cache so a probe exercises the same keyspace.
const healthKey = "arbitrage:health"

// RedisClient holds the connection used by the opportunity cache and the
// alert cooldown markers.
type RedisClient struct {
	Client *redis.Client
}

// NewRedisConnection connects and pings the configured Redis.
func NewRedisConnection(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"addr": rdb.Options().Addr,
		"db":   cfg.DB,
	}).Info("Successfully connected to Redis")

	return &RedisClient{Client: rdb}, nil
}

func (r *RedisClient) Close() {
	if r.Client != nil {
		_ = r.Client.Close()
		logrus.Info("Redis connection closed")
	}
}

// HealthCheck verifies Redis accepts writes as well as reads. Alert
// de-duplication relies on SETNX, which a read-only replica answers with an
// error even though PING succeeds.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r.Client == nil {
		return errors.New("redis client is not initialized")
	}

	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := r.Client.Set(ctx, healthKey, stamp, 10*time.Second).Err(); err != nil {
		return fmt.Errorf("redis write check failed: %w", err)
	}
	got, err := r.Client.Get(ctx, healthKey).Result()
	if err != nil {
		return fmt.Errorf("redis read check failed: %w", err)
	}
	if got != stamp {
		return fmt.Errorf("redis read check returned %q, want %q", got, stamp)
	}
	return nil
}
