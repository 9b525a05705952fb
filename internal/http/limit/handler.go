package limit

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/respond"
	"github.com/MrJamesThe3rd/fleetspend/internal/limit"
	"github.com/MrJamesThe3rd/fleetspend/internal/money"
)

type Handler struct {
	svc *limit.Service
}

func NewHandler(svc *limit.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type limitResponse struct {
	ID                 uuid.UUID    `json:"id"`
	VehicleID          *uuid.UUID   `json:"vehicle_id"`
	FuelType           *fuel.Type   `json:"fuel_type"`
	LimitType          limit.Period `json:"limit_type"`
	LimitUnit          limit.Unit   `json:"limit_unit"`
	LimitValue         float64      `json:"limit_value"`
	CurrentUsage       float64      `json:"current_usage"`
	UsagePercentage    float64      `json:"usage_percentage"`
	RawUsagePercentage float64      `json:"raw_usage_percentage"`
	PeriodStart        time.Time    `json:"period_start"`
	ResetDate          time.Time    `json:"reset_date"`
	IsActive           bool         `json:"is_active"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          *time.Time   `json:"updated_at,omitempty"`
}

// quantity renders a value in the limit's unit.
func quantity(u limit.Unit, d decimal.Decimal) float64 {
	if u == limit.Liters {
		return money.Liters(d)
	}

	return money.Amount(d)
}

func toResponse(l *limit.Limit) limitResponse {
	display, raw := l.Percentages()

	return limitResponse{
		ID:                 l.ID,
		VehicleID:          l.VehicleID,
		FuelType:           l.FuelType,
		LimitType:          l.Period,
		LimitUnit:          l.Unit,
		LimitValue:         quantity(l.Unit, l.Value),
		CurrentUsage:       quantity(l.Unit, l.CurrentUsage),
		UsagePercentage:    display,
		RawUsagePercentage: raw,
		PeriodStart:        l.PeriodStart,
		ResetDate:          l.ResetDate,
		IsActive:           l.IsActive,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

func toResponseList(ls []*limit.Limit) []limitResponse {
	resp := make([]limitResponse, len(ls))
	for i, l := range ls {
		resp[i] = toResponse(l)
	}

	return resp
}

type limitRequest struct {
	VehicleID  *uuid.UUID      `json:"vehicle_id"`
	FuelType   *string         `json:"fuel_type"`
	LimitType  string          `json:"limit_type"`
	LimitUnit  string          `json:"limit_unit"`
	LimitValue decimal.Decimal `json:"limit_value"`
}

func (req limitRequest) params() limit.Params {
	return limit.Params{
		VehicleID: req.VehicleID,
		FuelType:  req.FuelType,
		Period:    req.LimitType,
		Unit:      req.LimitUnit,
		Value:     req.LimitValue,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ls, err := h.svc.List(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(ls))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req limitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	l, err := h.svc.Create(r.Context(), middleware.AccountID(r.Context()), req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(l))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	var req limitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	l, err := h.svc.Update(r.Context(), middleware.AccountID(r.Context()), id, req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(l))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	if err := h.svc.Delete(r.Context(), middleware.AccountID(r.Context()), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
