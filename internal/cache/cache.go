// Package cache stores completed channel analysis results in redis, keyed by
// platform+industry. This is a consumer-side collaborator: the pipeline never
// reads or writes it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/adlens/creative-intel/internal/config"
	"github.com/adlens/creative-intel/internal/model"
)

const keyPrefix = "creative:result:"

// CachedResult wraps a stored result with its cache timestamp.
type CachedResult struct {
	Result   model.ChannelAnalysisResult `json:"result"`
	CachedAt time.Time                   `json:"cached_at"`
}

// ResultCache reads and writes analysis results in redis.
type ResultCache struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// New creates a ResultCache from config.
func New(cfg config.CacheConfig) *ResultCache {
	ttl := time.Duration(cfg.TTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ResultCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: ttl,
		now: time.Now,
	}
}

// NewWithClient creates a ResultCache over an existing client (tests).
func NewWithClient(rdb *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{rdb: rdb, ttl: ttl, now: time.Now}
}

// Key renders the cache key for a platform+industry pair.
func Key(platform model.Platform, industry string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, platform, industry)
}

// Get returns the cached result for the pair, or (nil, nil) on a miss.
func (c *ResultCache) Get(ctx context.Context, platform model.Platform, industry string) (*CachedResult, error) {
	raw, err := c.rdb.Get(ctx, Key(platform, industry)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "cache: get result")
	}

	var cached CachedResult
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, eris.Wrap(err, "cache: decode result")
	}
	return &cached, nil
}

// Set stores the result under its pair key with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, result model.ChannelAnalysisResult) error {
	raw, err := json.Marshal(CachedResult{Result: result, CachedAt: c.now().UTC()})
	if err != nil {
		return eris.Wrap(err, "cache: encode result")
	}

	if err := c.rdb.Set(ctx, Key(result.Channel, result.Industry), raw, c.ttl).Err(); err != nil {
		return eris.Wrap(err, "cache: set result")
	}
	return nil
}

// Purge removes the cached result for the pair. Returns whether a key was removed.
func (c *ResultCache) Purge(ctx context.Context, platform model.Platform, industry string) (bool, error) {
	n, err := c.rdb.Del(ctx, Key(platform, industry)).Result()
	if err != nil {
		return false, eris.Wrap(err, "cache: purge result")
	}
	return n > 0, nil
}

// Close releases the underlying redis connection.
func (c *ResultCache) Close() error {
	return c.rdb.Close()
}
