package models

import (
	"time"

	id "bloodbank/pkg/domain"
	dErrors "bloodbank/pkg/domain-errors"
)

// BloodUnit is the aggregate root for one stock record of blood.
//
// Invariants:
//   - Holder is exactly one facility (lab or hospital), fixed for the lifetime of the unit
//   - ExpiryDate is always set
//   - Quantity is never negative
//   - BloodGroup and Status are valid enum values
//   - Status transitions: available -> used | expired only
//
// A BloodUnit is only produced by ValidateAndNormalize, so every value of this
// type that reaches a store already satisfies the invariants above.
// CreatedAt and UpdatedAt are owned by the store.
type BloodUnit struct {
	ID         id.BloodUnitID
	BloodGroup BloodGroup
	Quantity   Quantity
	ExpiryDate time.Time
	Holder     Holder
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Candidate returns the unit in its write-path shape so it can be mutated and
// re-validated. Validating the returned candidate yields an identical unit.
func (u *BloodUnit) Candidate() *Candidate {
	expiry := u.ExpiryDate
	return &Candidate{
		ID:          u.ID,
		BloodGroup:  u.BloodGroup,
		Quantity:    u.Quantity,
		ExpiryDate:  &expiry,
		BloodLabRef: u.Holder.LabRef(),
		HospitalRef: u.Holder.HospitalRef(),
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (u *BloodUnit) IsAvailable() bool {
	return u.Status == StatusAvailable
}

// IsPastExpiry reports whether the unit's expiry instant has been reached.
func (u *BloodUnit) IsPastExpiry(now time.Time) bool {
	return !u.ExpiryDate.After(now)
}

// CanMarkUsed checks if the unit can be consumed.
func (u *BloodUnit) CanMarkUsed() error {
	if !u.Status.CanTransitionTo(StatusUsed) {
		return dErrors.New(dErrors.CodeInvariantViolation, "unit is not available")
	}
	return nil
}

// ApplyMarkUsed transitions the unit to used.
// Must only be called after CanMarkUsed returns nil.
func (u *BloodUnit) ApplyMarkUsed() {
	u.Status = StatusUsed
}

// CanExpire checks if the unit can be retired as expired at now.
func (u *BloodUnit) CanExpire(now time.Time) error {
	if !u.Status.CanTransitionTo(StatusExpired) {
		return dErrors.New(dErrors.CodeInvariantViolation, "unit is not available")
	}
	if !u.IsPastExpiry(now) {
		return dErrors.New(dErrors.CodeInvariantViolation, "unit has not reached its expiry date")
	}
	return nil
}

// ApplyExpire transitions the unit to expired.
// Must only be called after CanExpire returns nil.
func (u *BloodUnit) ApplyExpire() {
	u.Status = StatusExpired
}

// CanAdjustQuantity checks if stock on this unit may still change.
func (u *BloodUnit) CanAdjustQuantity() error {
	if u.Status.IsRetired() {
		return dErrors.New(dErrors.CodeInvariantViolation, "quantity of a retired unit cannot change")
	}
	return nil
}

// StockSummary is the available quantity per blood group held by one facility.
type StockSummary struct {
	Holder      Holder
	Totals      map[BloodGroup]Quantity
	GeneratedAt time.Time
}

// NewStockSummary returns a summary with every blood group present at zero.
func NewStockSummary(holder Holder, now time.Time) *StockSummary {
	totals := make(map[BloodGroup]Quantity, len(AllBloodGroups))
	for _, g := range AllBloodGroups {
		totals[g] = 0
	}
	return &StockSummary{Holder: holder, Totals: totals, GeneratedAt: now}
}
