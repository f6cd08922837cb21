package models

import (
	"strings"

	dErrors "bloodbank/pkg/domain-errors"
)

// BloodGroup is the ABO/Rh group of a unit.
// Invariant: the value is one of the eight supported groups.
//
// Construct via ParseBloodGroup at trust boundaries; direct casting bypasses
// validation and is caught again by ValidateAndNormalize.
type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

// AllBloodGroups lists the groups in display order.
var AllBloodGroups = []BloodGroup{
	BloodGroupAPos, BloodGroupANeg,
	BloodGroupBPos, BloodGroupBNeg,
	BloodGroupABPos, BloodGroupABNeg,
	BloodGroupOPos, BloodGroupONeg,
}

var validBloodGroups = func() map[BloodGroup]bool {
	m := make(map[BloodGroup]bool, len(AllBloodGroups))
	for _, g := range AllBloodGroups {
		m[g] = true
	}
	return m
}()

// ParseBloodGroup parses external input. The Unicode minus sign is accepted
// as an alias for "-" since it shows up in copy-pasted lab sheets.
func ParseBloodGroup(s string) (BloodGroup, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeMissingRequiredField, "blood_group is required")
	}
	s = strings.ReplaceAll(s, "−", "-")
	g := BloodGroup(s)
	if !g.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidEnumValue, "blood_group must be one of A+, A-, B+, B-, AB+, AB-, O+, O-")
	}
	return g, nil
}

func (g BloodGroup) IsValid() bool {
	return validBloodGroups[g]
}

func (g BloodGroup) String() string {
	return string(g)
}
