package unit

import (
	"database/sql"
	"fmt"
	"time"

	"bloodbank/internal/inventory/models"
	id "bloodbank/pkg/domain"
)

const selectColumns = `id, blood_group, quantity, expiry_date, blood_lab_ref, hospital_ref, status, created_at, updated_at`

// unitRow is the column layout shared by the SQL stores. Times are decoded by
// the store-specific scanner before the row is converted.
type unitRow struct {
	ID          string
	BloodGroup  string
	Quantity    int
	ExpiryDate  time.Time
	BloodLabRef sql.NullString
	HospitalRef sql.NullString
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func toUnit(row unitRow) (*models.BloodUnit, error) {
	unitID, err := id.ParseBloodUnitID(row.ID)
	if err != nil {
		return nil, fmt.Errorf("decode unit id %q: %w", row.ID, err)
	}
	holder, err := holderFromRefs(row.BloodLabRef, row.HospitalRef)
	if err != nil {
		return nil, fmt.Errorf("decode holder of unit %s: %w", row.ID, err)
	}
	return &models.BloodUnit{
		ID:         unitID,
		BloodGroup: models.BloodGroup(row.BloodGroup),
		Quantity:   models.Quantity(row.Quantity),
		ExpiryDate: row.ExpiryDate,
		Holder:     holder,
		Status:     models.Status(row.Status),
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func holderFromRefs(lab, hospital sql.NullString) (models.Holder, error) {
	switch {
	case lab.Valid && !hospital.Valid:
		f, err := id.ParseFacilityID(lab.String)
		if err != nil {
			return models.Holder{}, err
		}
		return models.HeldByLab(f), nil
	case hospital.Valid && !lab.Valid:
		f, err := id.ParseFacilityID(hospital.String)
		if err != nil {
			return models.Holder{}, err
		}
		return models.HeldByHospital(f), nil
	}
	return models.Holder{}, fmt.Errorf("row must reference exactly one facility")
}

func refArgs(holder models.Holder) (lab, hospital sql.NullString) {
	if r := holder.LabRef(); r != nil {
		lab = sql.NullString{String: r.String(), Valid: true}
	}
	if r := holder.HospitalRef(); r != nil {
		hospital = sql.NullString{String: r.String(), Valid: true}
	}
	return lab, hospital
}

// holderColumn names the indexed column that carries the holder's facility.
func holderColumn(holder models.Holder) string {
	if holder.IsLab() {
		return "blood_lab_ref"
	}
	return "hospital_ref"
}
