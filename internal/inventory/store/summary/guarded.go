package summary

import (
	"context"
	"errors"
	"log/slog"

	"bloodbank/internal/inventory/models"
	"bloodbank/pkg/platform/circuit"
	"bloodbank/pkg/platform/sentinel"
)

// Cache is the contract shared by the Redis and in-process caches.
type Cache interface {
	Get(ctx context.Context, holder models.Holder) (*models.StockSummary, error)
	Set(ctx context.Context, summary *models.StockSummary) error
	Invalidate(ctx context.Context, holders ...models.Holder) error
}

// Guarded stops reads and writes to a failing cache until a probe succeeds.
// While the breaker is open Get and Set return sentinel.ErrUnavailable
// without touching the backend, so summaries are served from the store.
// Invalidate always reaches the backend: a skipped delete would leave a
// stale entry behind once the cache recovers.
type Guarded struct {
	cache   Cache
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(cache Cache, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guarded{cache: cache, breaker: breaker, logger: logger}
}

func (g *Guarded) Get(ctx context.Context, holder models.Holder) (*models.StockSummary, error) {
	if !g.breaker.Allow() {
		return nil, sentinel.ErrUnavailable
	}
	s, err := g.cache.Get(ctx, holder)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		g.failure(ctx, err)
		return nil, err
	}
	g.success(ctx)
	return s, err
}

func (g *Guarded) Set(ctx context.Context, summary *models.StockSummary) error {
	if !g.breaker.Allow() {
		return sentinel.ErrUnavailable
	}
	if err := g.cache.Set(ctx, summary); err != nil {
		g.failure(ctx, err)
		return err
	}
	g.success(ctx)
	return nil
}

func (g *Guarded) Invalidate(ctx context.Context, holders ...models.Holder) error {
	if err := g.cache.Invalidate(ctx, holders...); err != nil {
		g.failure(ctx, err)
		return err
	}
	g.success(ctx)
	return nil
}

func (g *Guarded) failure(ctx context.Context, err error) {
	if _, change := g.breaker.RecordFailure(); change.Opened {
		g.logger.WarnContext(ctx, "summary cache circuit opened",
			"breaker", g.breaker.Name(),
			"error", err,
		)
	}
}

func (g *Guarded) success(ctx context.Context) {
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "summary cache circuit closed", "breaker", g.breaker.Name())
	}
}
