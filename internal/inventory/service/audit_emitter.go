package service

import (
	"context"
	"log/slog"

	"bloodbank/internal/inventory/models"
	audit "bloodbank/pkg/platform/audit"
)

// auditEmitter turns unit changes into audit events. A nil publisher makes
// every emit a no-op.
type auditEmitter struct {
	logger    *slog.Logger
	publisher AuditPublisher
}

func newAuditEmitter(logger *slog.Logger, publisher AuditPublisher) *auditEmitter {
	return &auditEmitter{logger: logger, publisher: publisher}
}

func (e *auditEmitter) emit(ctx context.Context, action audit.AuditEvent, u *models.BloodUnit, reason string) error {
	if e.publisher == nil {
		return nil
	}
	return e.publisher.Emit(ctx, audit.Event{
		Action:     string(action),
		UnitID:     u.ID.String(),
		HolderKind: string(u.Holder.Kind()),
		FacilityID: u.Holder.Facility().String(),
		BloodGroup: string(u.BloodGroup),
		Quantity:   u.Quantity.Int(),
		Reason:     reason,
	})
}
