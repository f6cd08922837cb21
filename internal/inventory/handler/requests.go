package handler

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodbank/internal/inventory/models"
	id "bloodbank/pkg/domain"
	dErrors "bloodbank/pkg/domain-errors"
)

// maxExpiringWindow bounds ?within= so a typo cannot scan the whole table.
const maxExpiringWindow = 365 * 24 * time.Hour

// Explicit expiry dates must fall inside this range. Every store can hold it
// losslessly, including the SQLite store's nanosecond integers.
var (
	minExpiryDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	maxExpiryDate = time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)
)

// RegisterUnitRequest is the body of POST /units. Blood group, quantity and
// status are passed through untouched so the record validator reports them in
// its own order; only presence of quantity, the expiry range and the facility
// references are checked here.
type RegisterUnitRequest struct {
	BloodGroup  string     `json:"blood_group"`
	Quantity    *int       `json:"quantity"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	BloodLabRef *string    `json:"blood_lab_ref,omitempty"`
	HospitalRef *string    `json:"hospital_ref,omitempty"`

	candidate *models.Candidate
}

func (r *RegisterUnitRequest) Validate() error {
	c, err := buildCandidate(r.BloodGroup, r.Quantity, r.ExpiryDate, r.BloodLabRef, r.HospitalRef)
	if err != nil {
		return err
	}
	r.candidate = c
	return nil
}

// ParsedCandidate returns the candidate built by Validate.
func (r *RegisterUnitRequest) ParsedCandidate() *models.Candidate {
	return r.candidate
}

// ReplaceUnitRequest is the body of PUT /units/{id}.
type ReplaceUnitRequest struct {
	BloodGroup  string     `json:"blood_group"`
	Quantity    *int       `json:"quantity"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	BloodLabRef *string    `json:"blood_lab_ref,omitempty"`
	HospitalRef *string    `json:"hospital_ref,omitempty"`
	Status      string     `json:"status,omitempty"`

	candidate *models.Candidate
}

func (r *ReplaceUnitRequest) Validate() error {
	c, err := buildCandidate(r.BloodGroup, r.Quantity, r.ExpiryDate, r.BloodLabRef, r.HospitalRef)
	if err != nil {
		return err
	}
	c.Status = models.Status(strings.TrimSpace(r.Status))
	r.candidate = c
	return nil
}

func (r *ReplaceUnitRequest) ParsedCandidate() *models.Candidate {
	return r.candidate
}

// AdjustQuantityRequest is the body of PATCH /units/{id}/quantity.
type AdjustQuantityRequest struct {
	Quantity *int `json:"quantity"`

	quantity models.Quantity
}

func (r *AdjustQuantityRequest) Validate() error {
	if r.Quantity == nil {
		return dErrors.New(dErrors.CodeMissingRequiredField, "quantity is required")
	}
	q, err := models.ParseQuantity(*r.Quantity)
	if err != nil {
		return err
	}
	r.quantity = q
	return nil
}

func (r *AdjustQuantityRequest) ParsedQuantity() models.Quantity {
	return r.quantity
}

func buildCandidate(group string, quantity *int, expiry *time.Time, labRef, hospitalRef *string) (*models.Candidate, error) {
	if quantity == nil {
		return nil, dErrors.New(dErrors.CodeMissingRequiredField, "quantity is required")
	}
	if expiry != nil && (expiry.Before(minExpiryDate) || !expiry.Before(maxExpiryDate)) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "expiry_date must be between 1900 and 2200")
	}
	lab, err := parseOptionalRef(labRef, "blood_lab_ref")
	if err != nil {
		return nil, err
	}
	hospital, err := parseOptionalRef(hospitalRef, "hospital_ref")
	if err != nil {
		return nil, err
	}
	// accept "o+" and Unicode minus; anything else is left for the validator
	bloodGroup := models.BloodGroup(strings.TrimSpace(group))
	if parsed, err := models.ParseBloodGroup(group); err == nil {
		bloodGroup = parsed
	}
	c := &models.Candidate{
		BloodGroup:  bloodGroup,
		Quantity:    models.Quantity(*quantity),
		BloodLabRef: lab,
		HospitalRef: hospital,
	}
	if expiry != nil {
		e := expiry.UTC()
		c.ExpiryDate = &e
	}
	return c, nil
}

// parseOptionalRef treats null, "" and the nil UUID as an absent reference.
func parseOptionalRef(raw *string, field string) (*id.FacilityID, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" || s == uuid.Nil.String() {
		return nil, nil
	}
	ref, err := id.ParseFacilityID(s)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	return &ref, nil
}

type facilityQuery struct {
	holder models.Holder
	group  *models.BloodGroup
}

// parseFacilityQuery reads the facility path segment plus ?kind= and
// ?blood_group=. kind defaults to hospital.
func parseFacilityQuery(rawFacility string, q url.Values) (facilityQuery, error) {
	facility, err := id.ParseFacilityID(rawFacility)
	if err != nil {
		return facilityQuery{}, err
	}
	kind := models.HolderKindHospital
	if raw := q.Get("kind"); raw != "" {
		kind, err = models.ParseHolderKind(raw)
		if err != nil {
			return facilityQuery{}, err
		}
	}
	holder, err := models.NewHolder(kind, facility)
	if err != nil {
		return facilityQuery{}, err
	}
	out := facilityQuery{holder: holder}
	if raw := q.Get("blood_group"); raw != "" {
		group, err := models.ParseBloodGroup(raw)
		if err != nil {
			return facilityQuery{}, err
		}
		out.group = &group
	}
	return out, nil
}

// parseWithin reads ?within= as a Go duration, defaulting to 72h.
func parseWithin(raw string) (time.Duration, error) {
	if raw == "" {
		return 72 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "within must be a duration such as 72h")
	}
	if d < 0 || d > maxExpiringWindow {
		return 0, dErrors.New(dErrors.CodeBadRequest, "within must be between 0 and 8760h")
	}
	return d, nil
}
