package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/config"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "analytics"

// AnalyticsCache stores computed datasets as JSON under dataset-scoped keys.
type AnalyticsCache interface {
	// Key builds the cache key for a dataset and its request parameters.
	Key(dataset string, params ...string) string
	// Get decodes the entry at key into dest and reports whether it existed.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// InvalidateDataset drops every entry of a dataset.
	InvalidateDataset(ctx context.Context, dataset string) (int64, error)
	InvalidateAll(ctx context.Context) (int64, error)
}

type keyer struct {
	prefix string
}

func (k keyer) Key(dataset string, params ...string) string {
	base := k.datasetPrefix(dataset)

	var parts []string
	for _, p := range params {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return base + "default"
	}

	raw := strings.Join(parts, "|")
	hash := sha1.Sum([]byte(raw))
	return base + hex.EncodeToString(hash[:])
}

func (k keyer) datasetPrefix(dataset string) string {
	return fmt.Sprintf("%s:%s:", k.prefix, dataset)
}

type redisAnalyticsCache struct {
	keyer
	client *redis.Client
}

type noopAnalyticsCache struct {
	keyer
}

// NewAnalyticsCache connects to redis when caching is enabled and falls back
// to a cache that never hits otherwise.
func NewAnalyticsCache(cfg config.CacheConfig) (AnalyticsCache, error) {
	if !cfg.Enabled {
		return NewNoopAnalyticsCache(), nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisAnalyticsCache(client, cfg.KeyPrefix), nil
}

func NewRedisAnalyticsCache(client *redis.Client, prefix string) AnalyticsCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &redisAnalyticsCache{
		keyer:  keyer{prefix: prefix},
		client: client,
	}
}

func NewNoopAnalyticsCache() AnalyticsCache {
	return &noopAnalyticsCache{keyer: keyer{prefix: defaultKeyPrefix}}
}

func (c *redisAnalyticsCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}

	return true, nil
}

func (c *redisAnalyticsCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisAnalyticsCache) InvalidateDataset(ctx context.Context, dataset string) (int64, error) {
	return deleteKeysWithPrefix(ctx, c.client, c.datasetPrefix(dataset), scanBatchSize)
}

func (c *redisAnalyticsCache) InvalidateAll(ctx context.Context) (int64, error) {
	return deleteKeysWithPrefix(ctx, c.client, c.prefix+":", scanBatchSize)
}

func (n *noopAnalyticsCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}

func (n *noopAnalyticsCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (n *noopAnalyticsCache) InvalidateDataset(ctx context.Context, dataset string) (int64, error) {
	return 0, nil
}

func (n *noopAnalyticsCache) InvalidateAll(ctx context.Context) (int64, error) {
	return 0, nil
}
