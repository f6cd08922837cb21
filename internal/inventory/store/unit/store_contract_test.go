package unit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodbank/internal/inventory/models"
	id "bloodbank/pkg/domain"
	"bloodbank/pkg/platform/sentinel"
)

// unitStore is the behaviour every backend must provide.
type unitStore interface {
	Create(ctx context.Context, u *models.BloodUnit) error
	Update(ctx context.Context, u *models.BloodUnit) error
	FindByID(ctx context.Context, unitID id.BloodUnitID) (*models.BloodUnit, error)
	ListByHolder(ctx context.Context, holder models.Holder, group *models.BloodGroup) ([]*models.BloodUnit, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time, status models.Status) ([]*models.BloodUnit, error)
	SumAvailableByHolder(ctx context.Context, holder models.Holder) (map[models.BloodGroup]models.Quantity, error)
}

var (
	_ unitStore = (*InMemory)(nil)
	_ unitStore = (*PostgresStore)(nil)
	_ unitStore = (*SQLiteStore)(nil)
)

var baseTime = time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)

// tickingClock advances one second per call so successive writes get
// distinct UpdatedAt values.
func tickingClock() Clock {
	var n atomic.Int64
	return func() time.Time {
		return baseTime.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

// storeContractSuite holds backend-independent tests. Concrete suites embed it
// and set store in SetupTest.
type storeContractSuite struct {
	suite.Suite
	ctx   context.Context
	store unitStore
}

func newFacility() id.FacilityID {
	return id.FacilityID(uuid.New())
}

func newUnit(holder models.Holder, group models.BloodGroup, qty int, expiry time.Time) *models.BloodUnit {
	return &models.BloodUnit{
		ID:         id.NewBloodUnitID(),
		BloodGroup: group,
		Quantity:   models.Quantity(qty),
		ExpiryDate: expiry,
		Holder:     holder,
		Status:     models.StatusAvailable,
	}
}

func (s *storeContractSuite) mustCreate(u *models.BloodUnit) *models.BloodUnit {
	s.Require().NoError(s.store.Create(s.ctx, u))
	return u
}

func (s *storeContractSuite) TestCreateAndFind() {
	s.Run("create stamps timestamps and round-trips", func() {
		lab := models.HeldByLab(newFacility())
		u := s.mustCreate(newUnit(lab, models.BloodGroupOPos, 10, baseTime.AddDate(0, 0, 42)))

		s.False(u.CreatedAt.IsZero())
		s.True(u.CreatedAt.Equal(u.UpdatedAt))

		got, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(u.ID, got.ID)
		s.Equal(models.BloodGroupOPos, got.BloodGroup)
		s.Equal(models.Quantity(10), got.Quantity)
		s.True(u.ExpiryDate.Equal(got.ExpiryDate))
		s.True(got.Holder.Equal(lab))
		s.Equal(models.StatusAvailable, got.Status)
		s.True(u.CreatedAt.Equal(got.CreatedAt))
	})

	s.Run("duplicate id conflicts", func() {
		u := s.mustCreate(newUnit(models.HeldByHospital(newFacility()), models.BloodGroupANeg, 1, baseTime))
		dup := *u
		err := s.store.Create(s.ctx, &dup)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.FindByID(s.ctx, id.NewBloodUnitID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *storeContractSuite) TestUpdate() {
	s.Run("update persists and advances updated_at", func() {
		u := s.mustCreate(newUnit(models.HeldByLab(newFacility()), models.BloodGroupBPos, 5, baseTime.AddDate(0, 0, 10)))
		created := u.CreatedAt
		prev := u.UpdatedAt

		u.Quantity = 3
		s.Require().NoError(s.store.Update(s.ctx, u))
		s.True(u.UpdatedAt.After(prev))
		s.True(u.CreatedAt.Equal(created))

		got, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(models.Quantity(3), got.Quantity)
		s.True(got.UpdatedAt.Equal(u.UpdatedAt))
	})

	s.Run("stale copy conflicts", func() {
		u := s.mustCreate(newUnit(models.HeldByLab(newFacility()), models.BloodGroupBPos, 5, baseTime))
		stale := *u

		u.Quantity = 4
		s.Require().NoError(s.store.Update(s.ctx, u))

		stale.Quantity = 1
		err := s.store.Update(s.ctx, &stale)
		s.ErrorIs(err, sentinel.ErrConflict)

		got, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(models.Quantity(4), got.Quantity)
	})

	s.Run("missing unit is not found", func() {
		u := newUnit(models.HeldByLab(newFacility()), models.BloodGroupBPos, 5, baseTime)
		err := s.store.Update(s.ctx, u)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *storeContractSuite) TestListByHolder() {
	labID := newFacility()
	lab := models.HeldByLab(labID)
	hospital := models.HeldByHospital(newFacility())

	late := s.mustCreate(newUnit(lab, models.BloodGroupOPos, 2, baseTime.AddDate(0, 0, 30)))
	early := s.mustCreate(newUnit(lab, models.BloodGroupOPos, 4, baseTime.AddDate(0, 0, 5)))
	other := s.mustCreate(newUnit(lab, models.BloodGroupABNeg, 1, baseTime.AddDate(0, 0, 1)))
	s.mustCreate(newUnit(hospital, models.BloodGroupOPos, 9, baseTime))
	// same facility id under the other holder kind is a different holder
	s.mustCreate(newUnit(models.HeldByHospital(labID), models.BloodGroupOPos, 7, baseTime))

	s.Run("all groups ordered by expiry", func() {
		units, err := s.store.ListByHolder(s.ctx, lab, nil)
		s.Require().NoError(err)
		s.Require().Len(units, 3)
		s.Equal(other.ID, units[0].ID)
		s.Equal(early.ID, units[1].ID)
		s.Equal(late.ID, units[2].ID)
	})

	s.Run("narrowed to one group", func() {
		group := models.BloodGroupOPos
		units, err := s.store.ListByHolder(s.ctx, lab, &group)
		s.Require().NoError(err)
		s.Require().Len(units, 2)
		for _, u := range units {
			s.Equal(models.BloodGroupOPos, u.BloodGroup)
		}
	})

	s.Run("unknown holder yields nothing", func() {
		units, err := s.store.ListByHolder(s.ctx, models.HeldByLab(newFacility()), nil)
		s.Require().NoError(err)
		s.Empty(units)
	})
}

func (s *storeContractSuite) TestListExpiringBefore() {
	lab := models.HeldByLab(newFacility())
	due := s.mustCreate(newUnit(lab, models.BloodGroupAPos, 1, baseTime.Add(-time.Hour)))
	edge := s.mustCreate(newUnit(lab, models.BloodGroupAPos, 1, baseTime))
	s.mustCreate(newUnit(lab, models.BloodGroupAPos, 1, baseTime.Add(time.Hour)))
	used := s.mustCreate(newUnit(lab, models.BloodGroupAPos, 1, baseTime.Add(-2*time.Hour)))
	used.ApplyMarkUsed()
	s.Require().NoError(s.store.Update(s.ctx, used))

	units, err := s.store.ListExpiringBefore(s.ctx, baseTime, models.StatusAvailable)
	s.Require().NoError(err)

	var ids []id.BloodUnitID
	for _, u := range units {
		if u.Holder.Equal(lab) {
			ids = append(ids, u.ID)
		}
	}
	s.Equal([]id.BloodUnitID{due.ID, edge.ID}, ids)
}

func (s *storeContractSuite) TestSumAvailableByHolder() {
	hospital := models.HeldByHospital(newFacility())
	s.mustCreate(newUnit(hospital, models.BloodGroupONeg, 3, baseTime))
	s.mustCreate(newUnit(hospital, models.BloodGroupONeg, 4, baseTime))
	s.mustCreate(newUnit(hospital, models.BloodGroupAPos, 2, baseTime))
	used := s.mustCreate(newUnit(hospital, models.BloodGroupAPos, 50, baseTime))
	used.ApplyMarkUsed()
	s.Require().NoError(s.store.Update(s.ctx, used))

	totals, err := s.store.SumAvailableByHolder(s.ctx, hospital)
	s.Require().NoError(err)
	s.Equal(models.Quantity(7), totals[models.BloodGroupONeg])
	s.Equal(models.Quantity(2), totals[models.BloodGroupAPos])
	s.NotContains(totals, models.BloodGroupBPos)
}
