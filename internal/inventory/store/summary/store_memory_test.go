package summary

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodbank/internal/inventory/models"
	id "bloodbank/pkg/domain"
	"bloodbank/pkg/platform/sentinel"
)

type InMemoryCacheSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	cache *InMemoryCache
}

func TestInMemoryCacheSuite(t *testing.T) {
	suite.Run(t, new(InMemoryCacheSuite))
}

func (s *InMemoryCacheSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)
	s.cache = NewInMemory(WithTTL(time.Minute), WithClock(func() time.Time { return s.now }))
}

func newHolder() models.Holder {
	return models.HeldByHospital(id.FacilityID(uuid.New()))
}

func (s *InMemoryCacheSuite) TestGetSet() {
	s.Run("miss is not found", func() {
		_, err := s.cache.Get(s.ctx, newHolder())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("hit returns a copy", func() {
		holder := newHolder()
		sum := models.NewStockSummary(holder, s.now)
		sum.Totals[models.BloodGroupONeg] = 7
		s.Require().NoError(s.cache.Set(s.ctx, sum))

		got, err := s.cache.Get(s.ctx, holder)
		s.Require().NoError(err)
		s.Equal(models.Quantity(7), got.Totals[models.BloodGroupONeg])

		got.Totals[models.BloodGroupONeg] = 0
		again, err := s.cache.Get(s.ctx, holder)
		s.Require().NoError(err)
		s.Equal(models.Quantity(7), again.Totals[models.BloodGroupONeg])
	})

	s.Run("entry expires after ttl", func() {
		holder := newHolder()
		s.Require().NoError(s.cache.Set(s.ctx, models.NewStockSummary(holder, s.now)))
		s.now = s.now.Add(time.Minute)
		_, err := s.cache.Get(s.ctx, holder)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryCacheSuite) TestInvalidate() {
	a, b := newHolder(), newHolder()
	s.Require().NoError(s.cache.Set(s.ctx, models.NewStockSummary(a, s.now)))
	s.Require().NoError(s.cache.Set(s.ctx, models.NewStockSummary(b, s.now)))

	s.Require().NoError(s.cache.Invalidate(s.ctx, a))

	_, err := s.cache.Get(s.ctx, a)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.cache.Get(s.ctx, b)
	s.NoError(err)
}

func (s *InMemoryCacheSuite) TestRecordRoundTrip() {
	holder := models.HeldByLab(id.FacilityID(uuid.New()))
	sum := models.NewStockSummary(holder, s.now)
	sum.Totals[models.BloodGroupABPos] = 3

	got, err := toRecord(sum).toSummary()
	s.Require().NoError(err)
	s.True(got.Holder.Equal(holder))
	s.Equal(sum.Totals, got.Totals)
	s.True(got.GeneratedAt.Equal(sum.GeneratedAt))
}

func (s *InMemoryCacheSuite) TestCacheKeySeparatesHolderKinds() {
	facility := id.FacilityID(uuid.New())
	s.NotEqual(cacheKey(models.HeldByLab(facility)), cacheKey(models.HeldByHospital(facility)))
}
