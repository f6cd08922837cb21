package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "bloodbank/pkg/domain"
	dErrors "bloodbank/pkg/domain-errors"
)

type ValidateSuite struct {
	suite.Suite
	now      time.Time
	lab      id.FacilityID
	hospital id.FacilityID
}

func TestValidateSuite(t *testing.T) {
	suite.Run(t, new(ValidateSuite))
}

func (s *ValidateSuite) SetupTest() {
	s.now = time.Date(2024, 1, 20, 9, 30, 0, 0, time.UTC)
	s.lab = id.FacilityID(uuid.New())
	s.hospital = id.FacilityID(uuid.New())
}

func (s *ValidateSuite) candidate() *Candidate {
	return &Candidate{
		ID:         id.NewBloodUnitID(),
		BloodGroup: BloodGroupOPos,
		Quantity:   5,
	}
}

func ref(f id.FacilityID) *id.FacilityID { return &f }

// TestFacilityPresence verifies that a unit must name a facility.
func (s *ValidateSuite) TestFacilityPresence() {
	s.Run("both references absent fails with missing facility", func() {
		c := s.candidate()
		_, err := ValidateAndNormalize(c, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeMissingFacility))
	})

	s.Run("nil UUID references count as absent", func() {
		c := s.candidate()
		c.BloodLabRef = ref(id.FacilityID{})
		_, err := ValidateAndNormalize(c, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeMissingFacility))
	})

	s.Run("schema errors are reported before a missing facility", func() {
		c := &Candidate{BloodGroup: BloodGroupBPos, Quantity: -1}
		_, err := ValidateAndNormalize(c, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeNegativeQuantity))

		c = &Candidate{BloodGroup: "Z", Quantity: 3}
		_, err = ValidateAndNormalize(c, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidEnumValue))
	})
}

// TestFacilityExclusion verifies that a unit cannot belong to both a lab and a hospital.
func (s *ValidateSuite) TestFacilityExclusion() {
	s.Run("both references present fails with conflicting facility", func() {
		c := &Candidate{
			BloodGroup:  BloodGroupANeg,
			Quantity:    2,
			BloodLabRef: ref(s.lab),
			HospitalRef: ref(s.hospital),
		}
		_, err := ValidateAndNormalize(c, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflictingFacility))
	})

	s.Run("negative quantity wins over conflicting facilities", func() {
		c := &Candidate{
			BloodGroup:  BloodGroupAPos,
			Quantity:    -2,
			BloodLabRef: ref(s.lab),
			HospitalRef: ref(s.hospital),
		}
		_, err := ValidateAndNormalize(c, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeNegativeQuantity))
	})

	s.Run("conflict leaves the candidate untouched", func() {
		c := s.candidate()
		c.BloodLabRef = ref(s.lab)
		c.HospitalRef = ref(s.hospital)
		_, err := ValidateAndNormalize(c, s.now)
		s.Require().Error(err)
		s.Nil(c.ExpiryDate)
		s.Empty(c.Status)
	})
}

// TestExpiryDefault verifies the 42 calendar day default.
func (s *ValidateSuite) TestExpiryDefault() {
	s.Run("absent expiry is set to now plus 42 days across a leap February", func() {
		c := s.candidate()
		c.BloodLabRef = ref(s.lab)

		unit, err := ValidateAndNormalize(c, s.now)
		s.Require().NoError(err)
		want := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
		s.True(unit.ExpiryDate.Equal(want), "got %s", unit.ExpiryDate)
		s.Require().NotNil(c.ExpiryDate)
		s.True(c.ExpiryDate.Equal(want), "candidate is normalized in place")
	})

	s.Run("explicit expiry is preserved", func() {
		explicit := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		c := s.candidate()
		c.HospitalRef = ref(s.hospital)
		c.ExpiryDate = &explicit

		unit, err := ValidateAndNormalize(c, s.now)
		s.Require().NoError(err)
		s.True(unit.ExpiryDate.Equal(explicit))
	})

	s.Run("default follows the local calendar across a DST change", func() {
		loc, err := time.LoadLocation("Europe/Berlin")
		if err != nil {
			s.T().Skip("tzdata not available")
		}
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, loc)
		got := DefaultExpiry(now)
		s.True(got.Equal(time.Date(2024, 4, 12, 12, 0, 0, 0, loc)), "got %s", got)
		s.False(got.Equal(now.Add(42*24*time.Hour)), "not a multiple of 24h")
	})
}

// TestSchemaChecks covers the delegated type and range layer.
func (s *ValidateSuite) TestSchemaChecks() {
	s.Run("negative quantity fails", func() {
		c := &Candidate{BloodGroup: BloodGroupBPos, Quantity: -1, HospitalRef: ref(s.hospital)}
		_, err := ValidateAndNormalize(c, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeNegativeQuantity))
		s.Nil(c.ExpiryDate, "no default on a rejected candidate")
	})

	s.Run("missing blood group fails", func() {
		c := &Candidate{Quantity: 1, HospitalRef: ref(s.hospital)}
		_, err := ValidateAndNormalize(c, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeMissingRequiredField))
	})

	s.Run("unknown blood group fails", func() {
		c := &Candidate{BloodGroup: "C+", Quantity: 1, BloodLabRef: ref(s.lab)}
		_, err := ValidateAndNormalize(c, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidEnumValue))
	})

	s.Run("unknown status fails", func() {
		c := &Candidate{BloodGroup: BloodGroupAPos, Quantity: 1, BloodLabRef: ref(s.lab), Status: "lost"}
		_, err := ValidateAndNormalize(c, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidEnumValue))
	})

	s.Run("zero quantity is allowed", func() {
		c := &Candidate{BloodGroup: BloodGroupAPos, Quantity: 0, BloodLabRef: ref(s.lab)}
		_, err := ValidateAndNormalize(c, s.now)
		s.NoError(err)
	})
}

// TestScenarioLabUnit registers an O+ unit at a lab.
func (s *ValidateSuite) TestScenarioLabUnit() {
	c := &Candidate{BloodGroup: BloodGroupOPos, Quantity: 5, BloodLabRef: ref(s.lab)}

	unit, err := ValidateAndNormalize(c, s.now)
	s.Require().NoError(err)
	s.True(unit.Holder.IsLab())
	s.Equal(s.lab, unit.Holder.Facility())
	s.Nil(unit.Holder.HospitalRef())
	s.Equal(StatusAvailable, unit.Status)
	s.True(unit.ExpiryDate.Equal(s.now.AddDate(0, 0, 42)))
}

// TestOnlyExpiryIsWritten verifies the candidate keeps every field but the
// defaulted expiry date.
func (s *ValidateSuite) TestOnlyExpiryIsWritten() {
	c := &Candidate{BloodGroup: BloodGroupOPos, Quantity: 5, BloodLabRef: ref(s.lab)}
	before := *c

	unit, err := ValidateAndNormalize(c, s.now)
	s.Require().NoError(err)
	s.Equal(StatusAvailable, unit.Status)
	s.Empty(c.Status, "status default lives on the unit only")
	s.Require().NotNil(c.ExpiryDate)

	c.ExpiryDate = nil
	s.Equal(before, *c)
}

// TestIdempotence verifies re-validating a valid unit is a no-op.
func (s *ValidateSuite) TestIdempotence() {
	c := s.candidate()
	c.HospitalRef = ref(s.hospital)
	c.CreatedAt = s.now
	c.UpdatedAt = s.now

	first, err := ValidateAndNormalize(c, s.now)
	s.Require().NoError(err)

	later := s.now.Add(72 * time.Hour)
	second, err := ValidateAndNormalize(first.Candidate(), later)
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *ValidateSuite) TestNilCandidate() {
	_, err := ValidateAndNormalize(nil, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
