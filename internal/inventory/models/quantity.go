package models

import dErrors "bloodbank/pkg/domain-errors"

// Quantity is the number of units (bags) held in a record.
// Invariant: never negative.
type Quantity int

// ParseQuantity enforces the non-negative range at construction.
func ParseQuantity(n int) (Quantity, error) {
	if n < 0 {
		return 0, dErrors.New(dErrors.CodeNegativeQuantity, "quantity must be greater than or equal to 0")
	}
	return Quantity(n), nil
}

func (q Quantity) Int() int {
	return int(q)
}
