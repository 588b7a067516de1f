package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/config"
	"github.com/couchcryptid/storm-site-risk/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "alerts:"

// client is the subset of *redis.Client the cache uses.
type client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Ping(ctx context.Context) *goredis.StatusCmd
	Close() error
}

// AlertCache stores fetched alert lists in Redis so several monitor
// replicas share one view of the upstream API. It implements nws.AlertCache.
type AlertCache struct {
	rdb client
}

// NewAlertCache connects to the Redis server named in cfg.
func NewAlertCache(cfg *config.Config) *AlertCache {
	return &AlertCache{rdb: goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})}
}

// Get returns the cached alerts for a point key. A missing or expired key is
// a miss, not an error.
func (c *AlertCache) Get(ctx context.Context, key string) ([]domain.RawAlert, bool, error) {
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get %s: %w", key, err)
	}

	var alerts []domain.RawAlert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, false, fmt.Errorf("redis: decode %s: %w", key, err)
	}
	return alerts, true, nil
}

// Put stores alerts under the point key, expiring after ttl.
func (c *AlertCache) Put(ctx context.Context, key string, alerts []domain.RawAlert, ttl time.Duration) error {
	if alerts == nil {
		alerts = []domain.RawAlert{}
	}
	data, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the Redis server is reachable.
func (c *AlertCache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

func (c *AlertCache) Close() error {
	return c.rdb.Close()
}
