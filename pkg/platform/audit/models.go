package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and topic routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance for blood
	// product traceability: a unit entering stock, being transfused or discarded.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine stock corrections and replacements.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category   EventCategory
	Timestamp  time.Time
	Action     string
	UnitID     string
	HolderKind string
	FacilityID string
	BloodGroup string
	Quantity   int
	Reason     string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
	// ActorID identifies the caller when known (admin token holder, sweeper).
	ActorID string
}

type AuditEvent string

const (
	EventUnitRegistered       AuditEvent = "blood_unit_registered"
	EventUnitReplaced         AuditEvent = "blood_unit_replaced"
	EventUnitUsed             AuditEvent = "blood_unit_used"
	EventUnitQuantityAdjusted AuditEvent = "blood_unit_quantity_adjusted"
	EventUnitExpired          AuditEvent = "blood_unit_expired"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUnitRegistered: CategoryCompliance,
	EventUnitUsed:       CategoryCompliance,
	EventUnitExpired:    CategoryCompliance,

	EventUnitReplaced:         CategoryOperations,
	EventUnitQuantityAdjusted: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Outbox-backed stores join the transaction in
// ctx so events commit atomically with the write they describe.
type Store interface {
	Append(ctx context.Context, event Event) error
}
