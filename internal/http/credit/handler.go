package credit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/credit"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/respond"
	"github.com/MrJamesThe3rd/fleetspend/internal/money"
)

type Handler struct {
	svc *credit.Service
}

func NewHandler(svc *credit.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/credit-status", h.status)
	r.Get("/credit-alerts", h.alerts)
	r.Post("/credit-alerts/{id}/dismiss", h.dismiss)
}

type statusResponse struct {
	CreditLimit     float64     `json:"credit_limit"`
	CurrentUsage    float64     `json:"current_usage"`
	AvailableCredit float64     `json:"available_credit"`
	UsagePercentage float64     `json:"usage_percentage"`
	Status          credit.Band `json:"status"`
}

type alertResponse struct {
	ID              uuid.UUID  `json:"id"`
	AlertType       string     `json:"alert_type"`
	Threshold       int        `json:"threshold"`
	CreditLimit     float64    `json:"credit_limit"`
	CurrentUsage    float64    `json:"current_usage"`
	UsagePercentage float64    `json:"usage_percentage"`
	Dismissed       bool       `json:"dismissed"`
	DismissedAt     *time.Time `json:"dismissed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toAlertResponse(a *credit.Alert) alertResponse {
	return alertResponse{
		ID:              a.ID,
		AlertType:       strconv.Itoa(a.Threshold),
		Threshold:       a.Threshold,
		CreditLimit:     money.Amount(a.CreditLimit),
		CurrentUsage:    money.Amount(a.CurrentUsage),
		UsagePercentage: a.UsagePercentage,
		Dismissed:       a.Dismissed,
		DismissedAt:     a.DismissedAt,
		CreatedAt:       a.CreatedAt,
	}
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, statusResponse{
		CreditLimit:     money.Amount(st.CreditLimit),
		CurrentUsage:    money.Amount(st.CurrentUsage),
		AvailableCredit: money.Amount(st.AvailableCredit),
		UsagePercentage: st.UsagePercentage,
		Status:          st.Band,
	})
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	includeDismissed := false

	if s := r.URL.Query().Get("include_dismissed"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			respond.BadRequest(w, "invalid include_dismissed")
			return
		}

		includeDismissed = v
	}

	alerts, err := h.svc.Alerts(r.Context(), middleware.AccountID(r.Context()), includeDismissed)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]alertResponse, len(alerts))
	for i, a := range alerts {
		resp[i] = toAlertResponse(a)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) dismiss(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	a, err := h.svc.Dismiss(r.Context(), middleware.AccountID(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toAlertResponse(a))
}
