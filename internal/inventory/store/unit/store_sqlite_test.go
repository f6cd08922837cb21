package unit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bloodbank/internal/inventory/models"
	txcontext "bloodbank/pkg/platform/tx"
)

type SQLiteStoreSuite struct {
	storeContractSuite
	sqlite *SQLiteStore
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func (s *SQLiteStoreSuite) SetupTest() {
	s.ctx = context.Background()
	path := filepath.Join(s.T().TempDir(), "units.db")
	store, err := OpenSQLite(s.ctx, path, WithSQLiteClock(tickingClock()))
	s.Require().NoError(err)
	s.sqlite = store
	s.store = store
}

func (s *SQLiteStoreSuite) TearDownTest() {
	s.Require().NoError(s.sqlite.Close())
}

func (s *SQLiteStoreSuite) TestRolledBackCreateIsInvisible() {
	runner := txcontext.NewSQLRunner(s.sqlite.DB())
	u := newUnit(models.HeldByLab(newFacility()), models.BloodGroupOPos, 5, baseTime)

	err := runner.RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.Create(ctx, u))
		_, err := s.store.FindByID(ctx, u.ID)
		s.Require().NoError(err)
		return context.Canceled
	})
	s.ErrorIs(err, context.Canceled)

	_, err = s.store.FindByID(s.ctx, u.ID)
	s.Error(err)
}

func (s *SQLiteStoreSuite) TestSchemaRejectsBothRefs() {
	lab := newFacility()
	hospital := newFacility()
	_, err := s.sqlite.DB().ExecContext(s.ctx, `
		INSERT INTO blood_units (id, blood_group, quantity, expiry_date, blood_lab_ref, hospital_ref, status, created_at, updated_at)
		VALUES ('11111111-1111-1111-1111-111111111111', 'O+', 1, 0, ?, ?, 'available', 0, 0)`,
		lab.String(), hospital.String())
	s.Error(err)
}

func (s *SQLiteStoreSuite) TestExpiryOutsideNanosecondRangeIsRefused() {
	far := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)
	u := newUnit(models.HeldByHospital(newFacility()), models.BloodGroupABPos, 1, far)

	s.Require().Error(s.store.Create(s.ctx, u))
	_, err := s.store.FindByID(s.ctx, u.ID)
	s.Error(err, "nothing is written")

	ok := s.mustCreate(newUnit(models.HeldByHospital(newFacility()), models.BloodGroupABPos, 1, baseTime))
	ok.ExpiryDate = far
	s.Require().Error(s.store.Update(s.ctx, ok))
}

func (s *SQLiteStoreSuite) TestFarCutoffIsClamped() {
	u := s.mustCreate(newUnit(models.HeldByLab(newFacility()), models.BloodGroupONeg, 2, baseTime))

	units, err := s.store.ListExpiringBefore(s.ctx, time.Date(2500, 1, 1, 0, 0, 0, 0, time.UTC), models.StatusAvailable)
	s.Require().NoError(err)
	s.Require().Len(units, 1)
	s.Equal(u.ID, units[0].ID)
}
