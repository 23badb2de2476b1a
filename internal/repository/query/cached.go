package query

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"producermap/internal/metrics"
)

// Cache is the byte cache a cached querier reads through. cache.Valkey
// satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type cachedQuerier struct {
	inner Querier
	cache Cache
	ttl   time.Duration
}

// NewCached wraps inner with a read-through cache keyed by the request.
// Failures, including end-of-data, are never cached.
func NewCached(inner Querier, cache Cache, ttl time.Duration) Querier {
	if cache == nil || ttl <= 0 {
		return inner
	}
	return &cachedQuerier{inner: inner, cache: cache, ttl: ttl}
}

func (c *cachedQuerier) Query(ctx context.Context, req Request) (Result, error) {
	key, err := cacheKey(req)
	if err != nil {
		return c.inner.Query(ctx, req)
	}
	if data, err := c.cache.Get(ctx, key); err == nil && data != nil {
		var res Result
		if err := json.Unmarshal(data, &res); err == nil {
			metrics.QueryCache.WithLabelValues("hit").Inc()
			return res, nil
		}
	}
	metrics.QueryCache.WithLabelValues("miss").Inc()

	res, err := c.inner.Query(ctx, req)
	if err != nil {
		return res, err
	}
	if data, err := json.Marshal(res); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}
	return res, nil
}

func cacheKey(req Request) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "query:" + req.Table + ":" + hex.EncodeToString(sum[:]), nil
}
