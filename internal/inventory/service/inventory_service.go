package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	inventorymetrics "bloodbank/internal/inventory/metrics"
	"bloodbank/internal/inventory/models"
	id "bloodbank/pkg/domain"
	dErrors "bloodbank/pkg/domain-errors"
	audit "bloodbank/pkg/platform/audit"
	"bloodbank/pkg/platform/sentinel"
	txcontext "bloodbank/pkg/platform/tx"
	"bloodbank/pkg/requestcontext"
)

// InventoryService owns every write of a blood unit. Each write, including
// status transitions and the expiry sweep, goes through
// models.ValidateAndNormalize before it reaches the store.
type InventoryService struct {
	units        UnitStore
	cache        SummaryCache
	tx           txcontext.Runner
	auditEmitter *auditEmitter
	metrics      *inventorymetrics.Metrics
	logger       *slog.Logger
	tracer       trace.Tracer
	generations  *summaryGenerations
}

// summaryGenerations counts invalidations per holder in this process. A
// summary read from the store is only cached if no invalidation for its holder
// arrived meanwhile; writes made by other replicas are bounded by the cache TTL.
type summaryGenerations struct {
	mu  sync.Mutex
	gen map[models.Holder]uint64
}

func (g *summaryGenerations) current(holder models.Holder) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen[holder]
}

// storeIfCurrent runs store only if no invalidation for holder happened since
// generation was read. bump waits for it, so the invalidation that follows
// always lands after the write.
func (g *summaryGenerations) storeIfCurrent(holder models.Holder, generation uint64, store func() error) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen[holder] != generation {
		return false, nil
	}
	return true, store()
}

func (g *summaryGenerations) bump(holder models.Holder) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen[holder]++
}

func NewInventoryService(units UnitStore, opts ...Option) *InventoryService {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	tx := cfg.tx
	if tx == nil {
		tx = txcontext.NoopRunner{}
	}
	tracer := cfg.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &InventoryService{
		units:        units,
		cache:        cfg.cache,
		tx:           tx,
		auditEmitter: newAuditEmitter(logger, cfg.auditPublisher),
		metrics:      cfg.metrics,
		logger:       logger,
		tracer:       tracer,
		generations:  &summaryGenerations{gen: make(map[models.Holder]uint64)},
	}
}

// RegisterUnit validates a new unit, assigns its id and stores it.
func (s *InventoryService) RegisterUnit(ctx context.Context, c *models.Candidate) (_ *models.BloodUnit, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "inventory.RegisterUnit")
	defer func() { endSpan(span, err) }()
	defer s.observeRegister(start)

	if c == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "blood unit is required")
	}
	c.ID = id.NewBloodUnitID()
	c.CreatedAt, c.UpdatedAt = time.Time{}, time.Time{}

	unit, err := models.ValidateAndNormalize(c, requestcontext.Now(ctx))
	if err != nil {
		s.recordRejection(ctx, err)
		return nil, err
	}
	span.SetAttributes(unitAttributes(unit)...)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.units.Create(txCtx, unit); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "blood unit already exists")
			}
			return wrapUnitErr(err, "register blood unit")
		}
		return s.auditEmitter.emit(txCtx, audit.EventUnitRegistered, unit, "")
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx, unit.Holder)
	if s.metrics != nil {
		s.metrics.IncrementUnitsRegistered()
	}
	s.logger.InfoContext(ctx, "blood unit registered",
		"request_id", requestcontext.RequestID(ctx),
		"unit_id", unit.ID.String(),
		"holder_kind", string(unit.Holder.Kind()),
		"facility_id", unit.Holder.Facility().String(),
	)
	return unit, nil
}

func (s *InventoryService) GetUnit(ctx context.Context, unitID id.BloodUnitID) (_ *models.BloodUnit, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.GetUnit",
		trace.WithAttributes(attribute.String("unit_id", unitID.String())))
	defer func() { endSpan(span, err) }()

	unit, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		return nil, wrapUnitErr(err, "load blood unit")
	}
	return unit, nil
}

// ReplaceUnit overwrites every mutable field of an existing unit. The holder
// is fixed at registration and a change is rejected, as is any status change
// the lifecycle does not allow.
func (s *InventoryService) ReplaceUnit(ctx context.Context, unitID id.BloodUnitID, c *models.Candidate) (_ *models.BloodUnit, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.ReplaceUnit",
		trace.WithAttributes(attribute.String("unit_id", unitID.String())))
	defer func() { endSpan(span, err) }()

	if c == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "blood unit is required")
	}

	var replaced *models.BloodUnit
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.units.FindByID(txCtx, unitID)
		if err != nil {
			return wrapUnitErr(err, "load blood unit")
		}
		if existing.Status.IsRetired() {
			return dErrors.New(dErrors.CodeInvariantViolation, "a retired unit cannot be replaced")
		}

		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		c.UpdatedAt = existing.UpdatedAt
		now := requestcontext.Now(txCtx)
		unit, err := models.ValidateAndNormalize(c, now)
		if err != nil {
			s.recordRejection(txCtx, err)
			return err
		}
		if !unit.Holder.Equal(existing.Holder) {
			return dErrors.New(dErrors.CodeInvariantViolation, "blood unit cannot be reassigned to another facility")
		}
		if err := checkReplaceStatus(existing, unit, now); err != nil {
			return err
		}

		if err := s.units.Update(txCtx, unit); err != nil {
			return wrapUnitErr(err, "replace blood unit")
		}
		replaced = unit
		return s.auditEmitter.emit(txCtx, audit.EventUnitReplaced, unit, "")
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx, replaced.Holder)
	return replaced, nil
}

// MarkUsed records that the unit has been consumed.
func (s *InventoryService) MarkUsed(ctx context.Context, unitID id.BloodUnitID) (_ *models.BloodUnit, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.MarkUsed",
		trace.WithAttributes(attribute.String("unit_id", unitID.String())))
	defer func() { endSpan(span, err) }()

	unit, err := s.transition(ctx, unitID, audit.EventUnitUsed, "", func(u *models.BloodUnit, _ time.Time) error {
		if err := u.CanMarkUsed(); err != nil {
			return err
		}
		u.ApplyMarkUsed()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementUnitsUsed()
	}
	return unit, nil
}

// AdjustQuantity sets the stock held on an available unit.
func (s *InventoryService) AdjustQuantity(ctx context.Context, unitID id.BloodUnitID, quantity models.Quantity) (_ *models.BloodUnit, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.AdjustQuantity",
		trace.WithAttributes(attribute.String("unit_id", unitID.String()), attribute.Int("quantity", quantity.Int())))
	defer func() { endSpan(span, err) }()

	return s.transition(ctx, unitID, audit.EventUnitQuantityAdjusted, "", func(u *models.BloodUnit, _ time.Time) error {
		if err := u.CanAdjustQuantity(); err != nil {
			return err
		}
		u.Quantity = quantity
		return nil
	})
}

// ListByFacility returns the holder's units ordered by expiry, optionally
// narrowed to one blood group.
func (s *InventoryService) ListByFacility(ctx context.Context, holder models.Holder, group *models.BloodGroup) (_ []*models.BloodUnit, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.ListByFacility", trace.WithAttributes(holderAttributes(holder)...))
	defer func() { endSpan(span, err) }()

	if holder.IsZero() {
		return nil, dErrors.New(dErrors.CodeMissingFacility, "either blood lab or hospital must be specified")
	}
	units, err := s.units.ListByHolder(ctx, holder, group)
	if err != nil {
		return nil, wrapUnitErr(err, "list blood units")
	}
	return units, nil
}

// ListExpiring returns available units that expire within the given window.
func (s *InventoryService) ListExpiring(ctx context.Context, within time.Duration) (_ []*models.BloodUnit, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.ListExpiring",
		trace.WithAttributes(attribute.String("within", within.String())))
	defer func() { endSpan(span, err) }()

	if within < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "within must not be negative")
	}
	cutoff := requestcontext.Now(ctx).Add(within)
	units, err := s.units.ListExpiringBefore(ctx, cutoff, models.StatusAvailable)
	if err != nil {
		return nil, wrapUnitErr(err, "list expiring blood units")
	}
	return units, nil
}

// StockSummary returns the available quantity per blood group for a holder.
// Summaries are served from the cache when present; cache failures fall back
// to the store.
func (s *InventoryService) StockSummary(ctx context.Context, holder models.Holder) (_ *models.StockSummary, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "inventory.StockSummary", trace.WithAttributes(holderAttributes(holder)...))
	defer func() { endSpan(span, err) }()
	defer s.observeSummary(start)

	if holder.IsZero() {
		return nil, dErrors.New(dErrors.CodeMissingFacility, "either blood lab or hospital must be specified")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, holder)
		switch {
		case err == nil:
			s.countCache(func(m *inventorymetrics.Metrics) { m.IncrementSummaryCacheHit() })
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return cached, nil
		case errors.Is(err, sentinel.ErrNotFound):
			s.countCache(func(m *inventorymetrics.Metrics) { m.IncrementSummaryCacheMiss() })
		case errors.Is(err, sentinel.ErrUnavailable):
			// cache breaker is open; already logged on the transition
			s.countCache(func(m *inventorymetrics.Metrics) { m.IncrementSummaryCacheError() })
		default:
			s.countCache(func(m *inventorymetrics.Metrics) { m.IncrementSummaryCacheError() })
			s.logger.WarnContext(ctx, "stock summary cache read failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}

	generation := s.generations.current(holder)
	totals, err := s.units.SumAvailableByHolder(ctx, holder)
	if err != nil {
		return nil, wrapUnitErr(err, "summarize stock")
	}
	summary := models.NewStockSummary(holder, requestcontext.Now(ctx))
	for group, qty := range totals {
		summary.Totals[group] = qty
	}

	if s.cache != nil {
		stored, err := s.generations.storeIfCurrent(holder, generation, func() error {
			return s.cache.Set(ctx, summary)
		})
		switch {
		case errors.Is(err, sentinel.ErrUnavailable):
		case err != nil:
			s.logger.WarnContext(ctx, "stock summary cache write failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		case !stored:
			span.SetAttributes(attribute.Bool("cache_skipped", true))
		}
	}
	return summary, nil
}

// ExpireDue retires every available unit whose expiry date has been reached
// and returns how many were retired. Each unit is its own unit of work; a unit
// changed concurrently (for example marked used) is skipped.
func (s *InventoryService) ExpireDue(ctx context.Context) (_ int, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "inventory.ExpireDue")
	defer func() { endSpan(span, err) }()

	now := requestcontext.Now(ctx)
	ctx = requestcontext.WithTime(ctx, now)

	due, err := s.units.ListExpiringBefore(ctx, now, models.StatusAvailable)
	if err != nil {
		return 0, wrapUnitErr(err, "list expired blood units")
	}

	expired := 0
	for _, candidate := range due {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		_, err := s.transition(ctx, candidate.ID, audit.EventUnitExpired, "expiry_date_reached", func(u *models.BloodUnit, now time.Time) error {
			if err := u.CanExpire(now); err != nil {
				return err
			}
			u.ApplyExpire()
			return nil
		})
		switch {
		case err == nil:
			expired++
		case dErrors.HasCode(err, dErrors.CodeConflict), dErrors.HasCode(err, dErrors.CodeInvariantViolation), dErrors.HasCode(err, dErrors.CodeNotFound):
			s.logger.InfoContext(ctx, "skipping unit in expiry sweep",
				"unit_id", candidate.ID.String(),
				"error", err,
			)
		default:
			return expired, err
		}
	}

	span.SetAttributes(attribute.Int("expired", expired))
	if s.metrics != nil {
		s.metrics.AddUnitsExpired(expired)
		s.metrics.ObserveSweep(start)
	}
	return expired, nil
}

// transition loads a unit, applies mutate, re-validates the result and writes
// it back with its audit event in one unit of work.
func (s *InventoryService) transition(
	ctx context.Context,
	unitID id.BloodUnitID,
	event audit.AuditEvent,
	reason string,
	mutate func(u *models.BloodUnit, now time.Time) error,
) (*models.BloodUnit, error) {
	var updated *models.BloodUnit
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.units.FindByID(txCtx, unitID)
		if err != nil {
			return wrapUnitErr(err, "load blood unit")
		}
		now := requestcontext.Now(txCtx)
		if err := mutate(existing, now); err != nil {
			return err
		}
		unit, err := models.ValidateAndNormalize(existing.Candidate(), now)
		if err != nil {
			s.recordRejection(txCtx, err)
			return err
		}
		if err := s.units.Update(txCtx, unit); err != nil {
			return wrapUnitErr(err, "update blood unit")
		}
		updated = unit
		return s.auditEmitter.emit(txCtx, event, unit, reason)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx, updated.Holder)
	return updated, nil
}

// checkReplaceStatus applies the lifecycle rules to a status carried by a
// replacement. Expiring is judged against the replacement's expiry date.
func checkReplaceStatus(existing, replacement *models.BloodUnit, now time.Time) error {
	if replacement.Status == existing.Status {
		return nil
	}
	switch replacement.Status {
	case models.StatusExpired:
		next := *existing
		next.ExpiryDate = replacement.ExpiryDate
		return next.CanExpire(now)
	case models.StatusUsed:
		return existing.CanMarkUsed()
	}
	if !existing.Status.CanTransitionTo(replacement.Status) {
		return dErrors.New(dErrors.CodeInvariantViolation, "status cannot change from "+existing.Status.String()+" to "+replacement.Status.String())
	}
	return nil
}

func (s *InventoryService) invalidateSummary(ctx context.Context, holder models.Holder) {
	if s.cache == nil {
		return
	}
	s.generations.bump(holder)
	if err := s.cache.Invalidate(ctx, holder); err != nil {
		s.logger.WarnContext(ctx, "stock summary cache invalidation failed",
			"request_id", requestcontext.RequestID(ctx),
			"holder_kind", string(holder.Kind()),
			"facility_id", holder.Facility().String(),
			"error", err,
		)
	}
}

func (s *InventoryService) recordRejection(ctx context.Context, err error) {
	code := dErrors.CodeOf(err)
	if s.metrics != nil {
		s.metrics.IncrementValidationRejected(string(code))
	}
	s.logger.InfoContext(ctx, "blood unit rejected",
		"request_id", requestcontext.RequestID(ctx),
		"code", string(code),
	)
}

func (s *InventoryService) countCache(fn func(m *inventorymetrics.Metrics)) {
	if s.metrics != nil {
		fn(s.metrics)
	}
}

func (s *InventoryService) observeRegister(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRegisterUnit(start)
	}
}

func (s *InventoryService) observeSummary(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStockSummary(start)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func holderAttributes(holder models.Holder) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("holder_kind", string(holder.Kind())),
		attribute.String("facility_id", holder.Facility().String()),
	}
}

func unitAttributes(u *models.BloodUnit) []attribute.KeyValue {
	return append(holderAttributes(u.Holder),
		attribute.String("unit_id", u.ID.String()),
		attribute.String("blood_group", string(u.BloodGroup)),
	)
}
