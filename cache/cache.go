// Package cache is the key/value service backing recommendation
// memoization. Entries are immutable until they expire or are explicitly
// invalidated, so a racing recompute at worst duplicates work.
package cache

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/yomuhub/yomu/config"
	"github.com/yomuhub/yomu/log"
	"go.uber.org/zap"
)

type Cache interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key under the prefix. Recommendation keys
	// are limit-scoped, so invalidation has to sweep.
	DeletePrefix(ctx context.Context, prefix string) error
}

// New picks the backend from config: redis when an address is set, the
// in-process store otherwise.
func New(ctx context.Context) (Cache, error) {
	if config.Opts.RedisAddr == "" {
		log.Info("Recommendation cache: in-process", zap.Int("size", config.Opts.MemoryCacheSize))
		return NewMemoryCache(config.Opts.MemoryCacheSize, config.Opts.RecommendationTTL), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Opts.RedisAddr,
		Password: config.Opts.RedisPassword,
		DB:       config.Opts.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to redis")
	}

	log.Info("Recommendation cache: redis", zap.String("addr", config.Opts.RedisAddr))
	return &RedisCache{client: rdb}, nil
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// MemoryCache is the single-process fallback, an expirable LRU with one
// shared TTL. Fine for development and single-node deployments.
type MemoryCache struct {
	lru *lru.LRU[string, []byte]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		lru: lru.NewLRU[string, []byte](size, nil, ttl),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, ok := c.lru.Get(key)
	return val, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.lru.Add(key, value)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
	return nil
}
