package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bloodbank/internal/inventory/models"
	id "bloodbank/pkg/domain"
	"bloodbank/pkg/platform/httputil"
	"bloodbank/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service is the inventory surface the HTTP layer depends on.
type Service interface {
	RegisterUnit(ctx context.Context, candidate *models.Candidate) (*models.BloodUnit, error)
	GetUnit(ctx context.Context, unitID id.BloodUnitID) (*models.BloodUnit, error)
	ReplaceUnit(ctx context.Context, unitID id.BloodUnitID, candidate *models.Candidate) (*models.BloodUnit, error)
	MarkUsed(ctx context.Context, unitID id.BloodUnitID) (*models.BloodUnit, error)
	AdjustQuantity(ctx context.Context, unitID id.BloodUnitID, quantity models.Quantity) (*models.BloodUnit, error)
	ListByFacility(ctx context.Context, holder models.Holder, group *models.BloodGroup) ([]*models.BloodUnit, error)
	ListExpiring(ctx context.Context, within time.Duration) ([]*models.BloodUnit, error)
	StockSummary(ctx context.Context, holder models.Holder) (*models.StockSummary, error)
	ExpireDue(ctx context.Context) (int, error)
}

// Handler serves the blood unit inventory endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates an inventory handler.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register wires the public inventory routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/units", h.HandleRegisterUnit)
	r.Get("/units/expiring", h.HandleListExpiring)
	r.Get("/units/{id}", h.HandleGetUnit)
	r.Put("/units/{id}", h.HandleReplaceUnit)
	r.Post("/units/{id}/use", h.HandleMarkUsed)
	r.Patch("/units/{id}/quantity", h.HandleAdjustQuantity)
	r.Get("/facilities/{facilityID}/units", h.HandleListByFacility)
	r.Get("/facilities/{facilityID}/summary", h.HandleStockSummary)
}

// RegisterAdmin wires operator routes. The caller mounts them behind the
// admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/units/expire", h.HandleExpireDue)
}

func (h *Handler) HandleRegisterUnit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[RegisterUnitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	unit, err := h.service.RegisterUnit(ctx, req.ParsedCandidate())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to register blood unit",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "blood unit registered",
		"request_id", requestID,
		"unit_id", unit.ID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromUnit(unit))
}

func (h *Handler) HandleGetUnit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	unitID, ok := h.unitIDParam(w, r)
	if !ok {
		return
	}
	unit, err := h.service.GetUnit(ctx, unitID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to get blood unit",
			"request_id", requestID,
			"unit_id", unitID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromUnit(unit))
}

func (h *Handler) HandleReplaceUnit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	unitID, ok := h.unitIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReplaceUnitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	unit, err := h.service.ReplaceUnit(ctx, unitID, req.ParsedCandidate())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to replace blood unit",
			"request_id", requestID,
			"unit_id", unitID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "blood unit replaced",
		"request_id", requestID,
		"unit_id", unit.ID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromUnit(unit))
}

func (h *Handler) HandleMarkUsed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	unitID, ok := h.unitIDParam(w, r)
	if !ok {
		return
	}
	unit, err := h.service.MarkUsed(ctx, unitID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to mark blood unit used",
			"request_id", requestID,
			"unit_id", unitID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromUnit(unit))
}

func (h *Handler) HandleAdjustQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	unitID, ok := h.unitIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AdjustQuantityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	unit, err := h.service.AdjustQuantity(ctx, unitID, req.ParsedQuantity())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to adjust blood unit quantity",
			"request_id", requestID,
			"unit_id", unitID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromUnit(unit))
}

func (h *Handler) HandleListByFacility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	q, err := parseFacilityQuery(chi.URLParam(r, "facilityID"), r.URL.Query())
	if err != nil {
		h.logger.WarnContext(ctx, "invalid facility query",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	units, err := h.service.ListByFacility(ctx, q.holder, q.group)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list blood units",
			"request_id", requestID,
			"holder", q.holder.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromUnits(units))
}

func (h *Handler) HandleStockSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	q, err := parseFacilityQuery(chi.URLParam(r, "facilityID"), r.URL.Query())
	if err != nil {
		h.logger.WarnContext(ctx, "invalid facility query",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.service.StockSummary(ctx, q.holder)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to summarize stock",
			"request_id", requestID,
			"holder", q.holder.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSummary(summary))
}

func (h *Handler) HandleListExpiring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	within, err := parseWithin(r.URL.Query().Get("within"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	units, err := h.service.ListExpiring(ctx, within)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list expiring blood units",
			"request_id", requestID,
			"within", within.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromUnits(units))
}

func (h *Handler) HandleExpireDue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	expired, err := h.service.ExpireDue(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "expiry run failed",
			"request_id", requestID,
			"expired", expired,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "expiry run completed",
		"request_id", requestID,
		"expired", expired,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, &ExpireResponse{Expired: expired})
}

func (h *Handler) unitIDParam(w http.ResponseWriter, r *http.Request) (id.BloodUnitID, bool) {
	unitID, err := id.ParseBloodUnitID(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid unit id",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return id.BloodUnitID{}, false
	}
	return unitID, true
}
