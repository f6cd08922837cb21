package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	inventorymetrics "bloodbank/internal/inventory/metrics"
	"bloodbank/internal/inventory/models"
	id "bloodbank/pkg/domain"
	audit "bloodbank/pkg/platform/audit"
	txcontext "bloodbank/pkg/platform/tx"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

type UnitStore interface {
	Create(ctx context.Context, u *models.BloodUnit) error
	Update(ctx context.Context, u *models.BloodUnit) error
	FindByID(ctx context.Context, unitID id.BloodUnitID) (*models.BloodUnit, error)
	ListByHolder(ctx context.Context, holder models.Holder, group *models.BloodGroup) ([]*models.BloodUnit, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time, status models.Status) ([]*models.BloodUnit, error)
	SumAvailableByHolder(ctx context.Context, holder models.Holder) (map[models.BloodGroup]models.Quantity, error)
}

// SummaryCache holds per-holder stock summaries. Get returns
// sentinel.ErrNotFound on a miss.
type SummaryCache interface {
	Get(ctx context.Context, holder models.Holder) (*models.StockSummary, error)
	Set(ctx context.Context, summary *models.StockSummary) error
	Invalidate(ctx context.Context, holders ...models.Holder) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const tracerName = "bloodbank/internal/inventory/service"

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *inventorymetrics.Metrics
	cache          SummaryCache
	tx             txcontext.Runner
	tracer         trace.Tracer
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *serviceConfig) {
		c.auditPublisher = publisher
	}
}

func WithMetrics(m *inventorymetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithSummaryCache enables read-through caching of stock summaries.
func WithSummaryCache(cache SummaryCache) Option {
	return func(c *serviceConfig) {
		c.cache = cache
	}
}

// WithTxRunner makes each write and its audit event one unit of work. Without
// it writes run directly against the store.
func WithTxRunner(runner txcontext.Runner) Option {
	return func(c *serviceConfig) {
		c.tx = runner
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *serviceConfig) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}
