// Package cache provides a Redis-backed store for recently fetched price series.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/papertrade/internal/models"
	"github.com/trogers1052/papertrade/internal/pricing"
)

const keyPrefix = "papertrade:quote:"

// RedisQuoteCache stores price series as JSON with a TTL
type RedisQuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ pricing.QuoteCache = (*RedisQuoteCache)(nil)

// NewRedisQuoteCache creates a cache on an existing client
func NewRedisQuoteCache(client *redis.Client, ttl time.Duration) *RedisQuoteCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisQuoteCache{client: client, ttl: ttl}
}

// Connect opens a client for addr and verifies it with PING
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// GetSeries implements pricing.QuoteCache
func (c *RedisQuoteCache) GetSeries(ctx context.Context, ticker string) ([]models.PricePoint, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+ticker).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached quote for %s: %w", ticker, err)
	}

	var series []models.PricePoint
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached quote for %s: %w", ticker, err)
	}
	return series, true, nil
}

// SetSeries implements pricing.QuoteCache
func (c *RedisQuoteCache) SetSeries(ctx context.Context, ticker string, series []models.PricePoint) error {
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to encode quote for %s: %w", ticker, err)
	}
	if err := c.client.Set(ctx, keyPrefix+ticker, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache quote for %s: %w", ticker, err)
	}
	return nil
}

// Invalidate drops the cached series for ticker
func (c *RedisQuoteCache) Invalidate(ctx context.Context, ticker string) error {
	return c.client.Del(ctx, keyPrefix+ticker).Err()
}
