package summary

import (
	"context"
	"maps"
	"sync"
	"time"

	"bloodbank/internal/inventory/models"
	"bloodbank/pkg/platform/sentinel"
)

// DefaultTTL bounds staleness when an invalidation is lost.
const DefaultTTL = 30 * time.Second

type entry struct {
	summary   models.StockSummary
	expiresAt time.Time
}

// InMemoryCache is a process-local cache used when Redis is not configured.
type InMemoryCache struct {
	mu      sync.Mutex
	entries map[models.Holder]entry
	ttl     time.Duration
	clock   func() time.Time
}

type InMemoryOption func(*InMemoryCache)

func WithTTL(ttl time.Duration) InMemoryOption {
	return func(c *InMemoryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(clock func() time.Time) InMemoryOption {
	return func(c *InMemoryCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[models.Holder]entry),
		ttl:     DefaultTTL,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *InMemoryCache) Get(_ context.Context, holder models.Holder) (*models.StockSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[holder]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !c.clock().Before(e.expiresAt) {
		delete(c.entries, holder)
		return nil, sentinel.ErrNotFound
	}
	return cloneSummary(&e.summary), nil
}

func (c *InMemoryCache) Set(_ context.Context, s *models.StockSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[s.Holder] = entry{summary: *cloneSummary(s), expiresAt: c.clock().Add(c.ttl)}
	return nil
}

func (c *InMemoryCache) Invalidate(_ context.Context, holders ...models.Holder) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range holders {
		delete(c.entries, h)
	}
	return nil
}

func cloneSummary(s *models.StockSummary) *models.StockSummary {
	return &models.StockSummary{Holder: s.Holder, Totals: maps.Clone(s.Totals), GeneratedAt: s.GeneratedAt}
}
