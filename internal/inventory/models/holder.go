package models

import (
	"strings"

	id "bloodbank/pkg/domain"
	dErrors "bloodbank/pkg/domain-errors"
)

// HolderKind says which kind of facility owns a unit.
type HolderKind string

const (
	HolderKindLab      HolderKind = "lab"
	HolderKindHospital HolderKind = "hospital"
)

// ParseHolderKind parses the facility kind used in query strings.
func ParseHolderKind(s string) (HolderKind, error) {
	k := HolderKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case HolderKindLab, HolderKindHospital:
		return k, nil
	case "":
		return "", dErrors.New(dErrors.CodeMissingRequiredField, "kind is required")
	default:
		return "", dErrors.New(dErrors.CodeInvalidEnumValue, "kind must be lab or hospital")
	}
}

// Holder is the facility that holds a unit: either a blood lab or a hospital,
// never both. Fields are unexported so the only way to build one is through
// HeldByLab / HeldByHospital.
type Holder struct {
	kind     HolderKind
	facility id.FacilityID
}

// HeldByLab returns a holder for a blood lab.
func HeldByLab(facility id.FacilityID) Holder {
	return Holder{kind: HolderKindLab, facility: facility}
}

// HeldByHospital returns a holder for a hospital.
func HeldByHospital(facility id.FacilityID) Holder {
	return Holder{kind: HolderKindHospital, facility: facility}
}

// NewHolder builds a holder from an already parsed kind.
func NewHolder(kind HolderKind, facility id.FacilityID) (Holder, error) {
	switch kind {
	case HolderKindLab:
		return HeldByLab(facility), nil
	case HolderKindHospital:
		return HeldByHospital(facility), nil
	}
	return Holder{}, dErrors.New(dErrors.CodeInvalidEnumValue, "kind must be lab or hospital")
}

func (h Holder) Kind() HolderKind        { return h.kind }
func (h Holder) Facility() id.FacilityID { return h.facility }
func (h Holder) IsZero() bool            { return h.kind == "" }
func (h Holder) IsLab() bool             { return h.kind == HolderKindLab }
func (h Holder) IsHospital() bool        { return h.kind == HolderKindHospital }
func (h Holder) Equal(other Holder) bool { return h == other }

// LabRef returns the facility when held by a lab, otherwise nil.
func (h Holder) LabRef() *id.FacilityID {
	if !h.IsLab() {
		return nil
	}
	f := h.facility
	return &f
}

// HospitalRef returns the facility when held by a hospital, otherwise nil.
func (h Holder) HospitalRef() *id.FacilityID {
	if !h.IsHospital() {
		return nil
	}
	f := h.facility
	return &f
}

func (h Holder) String() string {
	if h.IsZero() {
		return ""
	}
	return string(h.kind) + ":" + h.facility.String()
}
