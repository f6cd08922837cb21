package summary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodbank/internal/inventory/models"
	id "bloodbank/pkg/domain"
	"bloodbank/pkg/platform/circuit"
	"bloodbank/pkg/platform/sentinel"
)

// flakyCache fails every call while down is set.
type flakyCache struct {
	inner *InMemoryCache
	down  bool
	calls int
}

var errCacheDown = errors.New("connection refused")

func (f *flakyCache) Get(ctx context.Context, h models.Holder) (*models.StockSummary, error) {
	f.calls++
	if f.down {
		return nil, errCacheDown
	}
	return f.inner.Get(ctx, h)
}

func (f *flakyCache) Set(ctx context.Context, s *models.StockSummary) error {
	f.calls++
	if f.down {
		return errCacheDown
	}
	return f.inner.Set(ctx, s)
}

func (f *flakyCache) Invalidate(ctx context.Context, hs ...models.Holder) error {
	f.calls++
	if f.down {
		return errCacheDown
	}
	return f.inner.Invalidate(ctx, hs...)
}

type GuardedCacheSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	backend *flakyCache
	cache   *Guarded
	holder  models.Holder
}

func TestGuardedCacheSuite(t *testing.T) {
	suite.Run(t, new(GuardedCacheSuite))
}

func (s *GuardedCacheSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }
	s.backend = &flakyCache{inner: NewInMemory(WithClock(clock))}
	breaker := circuit.New("summary-cache",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(5*time.Second),
		circuit.WithClock(clock),
	)
	s.cache = NewGuarded(s.backend, breaker, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.holder = models.HeldByLab(id.FacilityID(uuid.New()))
}

func (s *GuardedCacheSuite) TestMissIsNotAFailure() {
	for range 5 {
		_, err := s.cache.Get(s.ctx, s.holder)
		s.ErrorIs(err, sentinel.ErrNotFound)
	}
	s.Equal(5, s.backend.calls)
}

func (s *GuardedCacheSuite) TestOpensAndShortCircuits() {
	s.backend.down = true
	for range 2 {
		_, err := s.cache.Get(s.ctx, s.holder)
		s.ErrorIs(err, errCacheDown)
	}

	_, err := s.cache.Get(s.ctx, s.holder)
	s.ErrorIs(err, sentinel.ErrUnavailable)
	s.ErrorIs(s.cache.Set(s.ctx, models.NewStockSummary(s.holder, s.now)), sentinel.ErrUnavailable)
	s.Equal(2, s.backend.calls, "open breaker keeps calls away from the backend")
}

func (s *GuardedCacheSuite) TestInvalidateBypassesOpenBreaker() {
	s.backend.down = true
	_, _ = s.cache.Get(s.ctx, s.holder)
	_, _ = s.cache.Get(s.ctx, s.holder)
	s.backend.down = false

	s.NoError(s.cache.Invalidate(s.ctx, s.holder))
	s.Equal(3, s.backend.calls)

	// the successful delete closed the breaker
	_, err := s.cache.Get(s.ctx, s.holder)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *GuardedCacheSuite) TestRecoversAfterCooldownProbe() {
	s.backend.down = true
	_, _ = s.cache.Get(s.ctx, s.holder)
	_, _ = s.cache.Get(s.ctx, s.holder)

	s.backend.down = false
	s.now = s.now.Add(5 * time.Second)

	summary := models.NewStockSummary(s.holder, s.now)
	summary.Totals[models.BloodGroupBNeg] = 2
	s.Require().NoError(s.cache.Set(s.ctx, summary))

	got, err := s.cache.Get(s.ctx, s.holder)
	s.Require().NoError(err)
	s.Equal(models.Quantity(2), got.Totals[models.BloodGroupBNeg])
}
