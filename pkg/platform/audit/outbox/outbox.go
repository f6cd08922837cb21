// Package outbox holds the transactional outbox shared by the audit stores
// and the relay worker that forwards entries to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "bloodbank/pkg/platform/audit"
)

// Entry is one pending message. AggregateID is the blood unit id and becomes
// the Kafka record key, so events for one unit stay ordered within a partition.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// Store is the relay side of the outbox.
type Store interface {
	Pending(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Payload is the JSON document published to Kafka.
type Payload struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Timestamp  string `json:"timestamp"`
	Action     string `json:"action"`
	UnitID     string `json:"unit_id,omitempty"`
	HolderKind string `json:"holder_kind,omitempty"`
	FacilityID string `json:"facility_id,omitempty"`
	BloodGroup string `json:"blood_group,omitempty"`
	Quantity   int    `json:"quantity"`
	Reason     string `json:"reason,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	ActorID    string `json:"actor_id,omitempty"`
}

// NewEntry builds the outbox row for an audit event. The category is always
// derived from the action.
func NewEntry(event audit.Event, now time.Time) (Entry, error) {
	eventID := uuid.New()
	category := audit.AuditEvent(event.Action).Category()
	payload := Payload{
		ID:         eventID.String(),
		Category:   string(category),
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:     event.Action,
		UnitID:     event.UnitID,
		HolderKind: event.HolderKind,
		FacilityID: event.FacilityID,
		BloodGroup: event.BloodGroup,
		Quantity:   event.Quantity,
		Reason:     event.Reason,
		RequestID:  event.RequestID,
		ActorID:    event.ActorID,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal audit payload: %w", err)
	}
	aggregateType := "audit"
	aggregateID := eventID.String()
	if event.UnitID != "" {
		aggregateType = "blood_unit"
		aggregateID = event.UnitID
	}
	return Entry{
		ID:            eventID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     event.Action,
		Payload:       raw,
		CreatedAt:     now,
	}, nil
}
