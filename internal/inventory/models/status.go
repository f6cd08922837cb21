package models

import (
	"strings"

	dErrors "bloodbank/pkg/domain-errors"
)

// Status is the lifecycle state of a unit.
// Transitions: available -> used, available -> expired. used and expired are terminal.
type Status string

const (
	StatusAvailable Status = "available"
	StatusUsed      Status = "used"
	StatusExpired   Status = "expired"
)

// ParseStatus parses external input. Empty input is rejected here; callers
// that want the default leave the field unset instead.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if st == "" {
		return "", dErrors.New(dErrors.CodeMissingRequiredField, "status is required")
	}
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidEnumValue, "status must be one of available, used, expired")
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusUsed, StatusExpired:
		return true
	}
	return false
}

// IsRetired reports whether the unit has left usable stock.
func (s Status) IsRetired() bool {
	return s == StatusUsed || s == StatusExpired
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusAvailable && (next == StatusUsed || next == StatusExpired)
}

func (s Status) String() string {
	return string(s)
}
