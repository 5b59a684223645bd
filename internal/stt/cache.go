package stt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lexiqai/narration-pipeline/internal/observability"
)

const cacheKeyPrefix = "narration:transcript:"

// Cache stores serialized per-segment results. Whole timelines are never
// cached because they depend on segment order and offsets.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache connects to url (redis://...) and pings it.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{rdb: rdb}, nil
}

// Get returns the cached value, or ok=false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores value under key for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Ping reports whether Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) (bool, error) {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Close closes the connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// CachingTranscriber serves repeated segments from Cache. Cache failures are
// logged and never fail a transcription.
type CachingTranscriber struct {
	Next   Transcriber
	Cache  Cache
	TTL    time.Duration
	Model  string
	Logger zerolog.Logger
}

// Name implements Transcriber.
func (c *CachingTranscriber) Name() string { return c.Next.Name() }

// Transcribe implements Transcriber.
func (c *CachingTranscriber) Transcribe(ctx context.Context, req Request) (*SegmentResult, error) {
	key := CacheKey(c.Next.Name(), c.Model, req)

	if raw, ok, err := c.Cache.Get(ctx, key); err != nil {
		observability.RecordCacheLookup("error")
		c.Logger.Warn().Err(err).Str("key", key).Msg("Transcript cache lookup failed")
	} else if ok {
		var cached SegmentResult
		if err := json.Unmarshal(raw, &cached); err == nil {
			observability.RecordCacheLookup("hit")
			return &cached, nil
		}
		c.Logger.Warn().Str("key", key).Msg("Discarding undecodable cached transcript")
	} else {
		observability.RecordCacheLookup("miss")
	}

	result, err := c.Next.Transcribe(ctx, req)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(result); err == nil {
		if err := c.Cache.Set(ctx, key, raw, c.TTL); err != nil {
			c.Logger.Warn().Err(err).Str("key", key).Msg("Transcript cache store failed")
		}
	}
	return result, nil
}

// CacheKey derives a key from provider, model, language and audio content.
func CacheKey(provider, model string, req Request) string {
	h := sha256.New()
	h.Write([]byte(req.Language))
	h.Write([]byte{0})
	h.Write(req.Audio)
	return cacheKeyPrefix + provider + ":" + model + ":" + hex.EncodeToString(h.Sum(nil))
}
