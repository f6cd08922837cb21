package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"bloodbank/internal/inventory/models"
	"bloodbank/pkg/platform/sentinel"
)

var (
	redisGetDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bloodbank_summary_cache_get_duration_ms",
		Help:    "Latency of stock summary cache reads in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

// RedisCache stores stock summaries as JSON strings with a TTL, so every
// instance behind a load balancer sees the same invalidations.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisOption func(*RedisCache)

// WithRedisTTL overrides the entry lifetime. Non-positive values are ignored.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisCache {
	c := &RedisCache{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns sentinel.ErrNotFound on a miss.
func (c *RedisCache) Get(ctx context.Context, holder models.Holder) (*models.StockSummary, error) {
	start := time.Now()
	defer func() {
		redisGetDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := c.client.Get(ctx, cacheKey(holder)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get stock summary: %w", err)
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode stock summary: %w", err)
	}
	return rec.toSummary()
}

func (c *RedisCache) Set(ctx context.Context, s *models.StockSummary) error {
	raw, err := json.Marshal(toRecord(s))
	if err != nil {
		return fmt.Errorf("encode stock summary: %w", err)
	}
	return c.client.Set(ctx, cacheKey(s.Holder), raw, c.ttl).Err()
}

// Invalidate drops the cached summaries of every holder in one round trip.
func (c *RedisCache) Invalidate(ctx context.Context, holders ...models.Holder) error {
	if len(holders) == 0 {
		return nil
	}
	keys := make([]string, 0, len(holders))
	for _, h := range holders {
		keys = append(keys, cacheKey(h))
	}
	return c.client.Del(ctx, keys...).Err()
}
