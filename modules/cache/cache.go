// Package cache provides a Redis-backed JSON cache for the cache-aside pattern.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds cache configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Addr:   "localhost:6379",
		Prefix: "task:",
		TTL:    5 * time.Minute,
	}
}

// tombstone marks a key written by Invalidate. Readers treat it as a miss.
var tombstone = []byte("\x00invalidated")

// InvalidationTTL is how long a tombstone outlives the write that set it.
const InvalidationTTL = 30 * time.Second

// Cache stores JSON-encoded values in Redis under a key prefix.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  stats
}

type stats struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	sets          atomic.Uint64
	invalidations atomic.Uint64
	skippedFills  atomic.Uint64
	errors        atomic.Uint64
}

// Stats is a point-in-time view of the cache counters.
type Stats struct {
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	Sets          uint64  `json:"sets"`
	Invalidations uint64  `json:"invalidations"`
	SkippedFills  uint64  `json:"skipped_fills"`
	Errors        uint64  `json:"errors"`
	HitRate       float64 `json:"hit_rate"`
	TotalGets     uint64  `json:"total_gets"`
}

// New creates a cache on an existing client.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Connect dials Redis using cfg and verifies the connection.
func Connect(ctx context.Context, cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return New(client, cfg.Prefix, cfg.TTL), nil
}

// Get decodes the value stored under key into dest. It reports false on a
// cache miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.stats.misses.Add(1)
			return false, nil
		}
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache get error: %w", err)
	}
	if bytes.Equal(data, tombstone) {
		c.stats.misses.Add(1)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	c.stats.hits.Add(1)
	return true, nil
}

// Fill runs load and caches its result under key, unless key is written
// by someone else while load runs. Errors from load are returned as is.
// When Redis is unreachable load still runs and the Redis error is
// returned after it succeeds.
func (c *Cache) Fill(ctx context.Context, key string, load func(context.Context) (any, error)) error {
	k := c.prefix + key
	called := false
	var loadErr error

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		called = true
		var value any
		value, loadErr = load(ctx)
		if loadErr != nil {
			return nil
		}
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("cache marshal error: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, data, c.ttl)
			return nil
		})
		return err
	}, k)

	if !called {
		if _, loadErr = load(ctx); loadErr != nil {
			return loadErr
		}
		c.stats.errors.Add(1)
		return fmt.Errorf("cache watch error: %w", err)
	}
	if loadErr != nil {
		return loadErr
	}

	switch {
	case err == nil:
		c.stats.sets.Add(1)
		return nil
	case errors.Is(err, redis.TxFailedErr):
		c.stats.skippedFills.Add(1)
		return nil
	default:
		c.stats.errors.Add(1)
		return fmt.Errorf("cache fill error: %w", err)
	}
}

// Invalidate replaces key with a short-lived tombstone. Unlike DEL, this
// always counts as a write, so a Fill racing with it is discarded.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Set(ctx, c.prefix+key, tombstone, InvalidationTTL).Err(); err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache invalidate error: %w", err)
	}
	c.stats.invalidations.Add(1)
	return nil
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	hits := c.stats.hits.Load()
	misses := c.stats.misses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return Stats{
		Hits:          hits,
		Misses:        misses,
		Sets:          c.stats.sets.Load(),
		Invalidations: c.stats.invalidations.Load(),
		SkippedFills:  c.stats.skippedFills.Load(),
		Errors:        c.stats.errors.Load(),
		HitRate:       hitRate,
		TotalGets:     total,
	}
}

// Ping checks if the Redis connection is healthy.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
