package domain

import (
	"github.com/google/uuid"

	dErrors "bloodbank/pkg/domain-errors"
)

// Typed identifiers keep blood units and facilities from being mixed up at
// compile time. All of them are UUIDs on the wire.
type (
	BloodUnitID uuid.UUID
	FacilityID  uuid.UUID
)

// maxIDLength guards parsing against oversized input before uuid.Parse runs.
const maxIDLength = 64

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	return u, nil
}

// ParseBloodUnitID parses a blood unit identifier at a trust boundary.
func ParseBloodUnitID(s string) (BloodUnitID, error) {
	u, err := parseUUID(s, "unit id")
	if err != nil {
		return BloodUnitID{}, err
	}
	return BloodUnitID(u), nil
}

// NewBloodUnitID allocates a fresh identifier for a unit being registered.
func NewBloodUnitID() BloodUnitID {
	return BloodUnitID(uuid.New())
}

func (id BloodUnitID) String() string { return uuid.UUID(id).String() }
func (id BloodUnitID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ParseFacilityID parses a lab or hospital reference. Existence of the
// facility is not checked here; referential integrity is owned elsewhere.
func ParseFacilityID(s string) (FacilityID, error) {
	u, err := parseUUID(s, "facility id")
	if err != nil {
		return FacilityID{}, err
	}
	return FacilityID(u), nil
}

func (id FacilityID) String() string { return uuid.UUID(id).String() }
func (id FacilityID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id BloodUnitID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *BloodUnitID) UnmarshalText(b []byte) error {
	parsed, err := ParseBloodUnitID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id FacilityID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *FacilityID) UnmarshalText(b []byte) error {
	parsed, err := ParseFacilityID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
