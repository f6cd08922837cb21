package models

import (
	"time"

	id "bloodbank/pkg/domain"
	dErrors "bloodbank/pkg/domain-errors"
)

// DefaultShelfLifeDays is how long a unit keeps when no expiry date is given.
const DefaultShelfLifeDays = 42

// Candidate is a blood unit on its way to the store, possibly partially
// populated. It keeps the facility as two optional references because that is
// the shape callers submit; ValidateAndNormalize collapses them into a Holder.
type Candidate struct {
	ID          id.BloodUnitID
	BloodGroup  BloodGroup
	Quantity    Quantity
	ExpiryDate  *time.Time
	BloodLabRef *id.FacilityID
	HospitalRef *id.FacilityID
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateAndNormalize gates every write of a blood unit. Checks run in a fixed
// order and the first failure aborts:
//
//  1. blood group, quantity and status are in range (delegated type checks)
//  2. at least one facility reference (CodeMissingFacility)
//  3. not both facility references (CodeConflictingFacility)
//  4. ExpiryDate defaults to now + DefaultShelfLifeDays calendar days
//
// ExpiryDate is the only candidate field ever written, and only in step 4, so
// a rejected candidate is left exactly as it was submitted. An empty status
// becomes available on the returned unit. The function does no I/O and reads
// no shared state; now is supplied by the caller.
func ValidateAndNormalize(c *Candidate, now time.Time) (*BloodUnit, error) {
	if c == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "blood unit is required")
	}

	if err := checkSchema(c); err != nil {
		return nil, err
	}

	hasLab := present(c.BloodLabRef)
	hasHospital := present(c.HospitalRef)
	if !hasLab && !hasHospital {
		return nil, dErrors.New(dErrors.CodeMissingFacility, "either blood lab or hospital must be specified")
	}
	if hasLab && hasHospital {
		return nil, dErrors.New(dErrors.CodeConflictingFacility, "blood cannot belong to both lab and hospital")
	}

	if c.ExpiryDate == nil {
		expiry := DefaultExpiry(now)
		c.ExpiryDate = &expiry
	}
	status := c.Status
	if status == "" {
		status = StatusAvailable
	}

	holder := HeldByHospital(derefFacility(c.HospitalRef))
	if hasLab {
		holder = HeldByLab(derefFacility(c.BloodLabRef))
	}

	return &BloodUnit{
		ID:         c.ID,
		BloodGroup: c.BloodGroup,
		Quantity:   c.Quantity,
		ExpiryDate: *c.ExpiryDate,
		Holder:     holder,
		Status:     status,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}, nil
}

// DefaultExpiry adds the shelf life in calendar days using now's location, so
// month lengths, leap years and DST shifts follow the local calendar.
func DefaultExpiry(now time.Time) time.Time {
	return now.AddDate(0, 0, DefaultShelfLifeDays)
}

func checkSchema(c *Candidate) error {
	if c.BloodGroup == "" {
		return dErrors.New(dErrors.CodeMissingRequiredField, "blood_group is required")
	}
	if !c.BloodGroup.IsValid() {
		return dErrors.New(dErrors.CodeInvalidEnumValue, "blood_group must be one of A+, A-, B+, B-, AB+, AB-, O+, O-")
	}
	if _, err := ParseQuantity(int(c.Quantity)); err != nil {
		return err
	}
	if c.Status != "" && !c.Status.IsValid() {
		return dErrors.New(dErrors.CodeInvalidEnumValue, "status must be one of available, used, expired")
	}
	return nil
}

func present(ref *id.FacilityID) bool {
	return ref != nil && !ref.IsNil()
}

func derefFacility(ref *id.FacilityID) id.FacilityID {
	if ref == nil {
		return id.FacilityID{}
	}
	return *ref
}
