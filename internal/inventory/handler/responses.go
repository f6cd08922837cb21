package handler

import (
	"time"

	"bloodbank/internal/inventory/models"
)

// UnitResponse is the wire shape of a blood unit. Exactly one of
// BloodLabRef and HospitalRef is set.
type UnitResponse struct {
	ID          string    `json:"id"`
	BloodGroup  string    `json:"blood_group"`
	Quantity    int       `json:"quantity"`
	ExpiryDate  time.Time `json:"expiry_date"`
	BloodLabRef *string   `json:"blood_lab_ref"`
	HospitalRef *string   `json:"hospital_ref"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UnitListResponse struct {
	Units []*UnitResponse `json:"units"`
	Count int             `json:"count"`
}

// SummaryResponse lists available quantity per blood group; every group is
// present, zero when the facility holds none.
type SummaryResponse struct {
	FacilityID  string         `json:"facility_id"`
	Kind        string         `json:"kind"`
	Totals      map[string]int `json:"totals"`
	Total       int            `json:"total"`
	GeneratedAt time.Time      `json:"generated_at"`
}

type ExpireResponse struct {
	Expired int `json:"expired"`
}

func FromUnit(u *models.BloodUnit) *UnitResponse {
	resp := &UnitResponse{
		ID:         u.ID.String(),
		BloodGroup: string(u.BloodGroup),
		Quantity:   u.Quantity.Int(),
		ExpiryDate: u.ExpiryDate,
		Status:     string(u.Status),
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	ref := u.Holder.Facility().String()
	if u.Holder.IsLab() {
		resp.BloodLabRef = &ref
	} else {
		resp.HospitalRef = &ref
	}
	return resp
}

func FromUnits(units []*models.BloodUnit) *UnitListResponse {
	out := &UnitListResponse{Units: make([]*UnitResponse, 0, len(units)), Count: len(units)}
	for _, u := range units {
		out.Units = append(out.Units, FromUnit(u))
	}
	return out
}

func FromSummary(s *models.StockSummary) *SummaryResponse {
	resp := &SummaryResponse{
		FacilityID:  s.Holder.Facility().String(),
		Kind:        string(s.Holder.Kind()),
		Totals:      make(map[string]int, len(s.Totals)),
		GeneratedAt: s.GeneratedAt,
	}
	for group, q := range s.Totals {
		resp.Totals[string(group)] = q.Int()
		resp.Total += q.Int()
	}
	return resp
}
