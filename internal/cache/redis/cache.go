// Package redis implements the snapshot cache on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

const keyPrefix = "insights:"

// Config controls the Redis connection and entry lifetime.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache stores serialized brand aggregates keyed by website URL. Entries
// expire after the configured TTL, so the cache only ever answers with a
// reasonably fresh snapshot.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Cache. The connection is verified with a ping.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{client: client, ttl: ttl}, nil
}

// SetInsights serializes and stores the aggregate under the website URL.
func (c *Cache) SetInsights(ctx context.Context, websiteURL string, ins insights.BrandInsights) error {
	data, err := json.Marshal(ins)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+websiteURL, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set insights: %w", err)
	}
	return nil
}

// GetInsights returns the cached aggregate and whether it was present.
func (c *Cache) GetInsights(ctx context.Context, websiteURL string) (insights.BrandInsights, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+websiteURL).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return insights.BrandInsights{}, false, nil
		}
		return insights.BrandInsights{}, false, fmt.Errorf("get insights: %w", err)
	}
	var ins insights.BrandInsights
	if err := json.Unmarshal(data, &ins); err != nil {
		return insights.BrandInsights{}, false, fmt.Errorf("unmarshal insights: %w", err)
	}
	return ins, true, nil
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
