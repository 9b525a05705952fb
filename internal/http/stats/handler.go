package stats

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/respond"
	txhttp "github.com/MrJamesThe3rd/fleetspend/internal/http/transaction"
	"github.com/MrJamesThe3rd/fleetspend/internal/money"
	"github.com/MrJamesThe3rd/fleetspend/internal/stats"
)

type Handler struct {
	svc *stats.Service
	loc *time.Location
}

func NewHandler(svc *stats.Service, loc *time.Location) *Handler {
	return &Handler{svc: svc, loc: loc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/stats", h.get)
	r.Post("/stats", h.post)
}

type statsRequest struct {
	Period    string `json:"period"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type fuelTotalsResponse struct {
	Liters float64 `json:"liters"`
	Amount float64 `json:"amount"`
}

type statsResponse struct {
	VehiclesCount        int                              `json:"vehicles_count"`
	PeriodTotalLiters    float64                          `json:"period_total_liters"`
	PeriodTotalAmount    float64                          `json:"period_total_amount"`
	TotalOpenAmount      float64                          `json:"total_open_amount"`
	OpenInvoicesCount    int                              `json:"open_invoices_count"`
	OverdueInvoicesCount int                              `json:"overdue_invoices_count"`
	FuelBreakdown        map[fuel.Type]fuelTotalsResponse `json:"fuel_breakdown"`
	RecentTransactions   []txhttp.Response                `json:"recent_transactions"`
	TotalTransactions    int                              `json:"total_transactions"`
	StartDate            time.Time                        `json:"start_date"`
	EndDate              time.Time                        `json:"end_date"`
}

func toResponse(st *stats.Stats) statsResponse {
	breakdown := make(map[fuel.Type]fuelTotalsResponse, len(st.FuelBreakdown))
	for ft, totals := range st.FuelBreakdown {
		breakdown[ft] = fuelTotalsResponse{
			Liters: money.Liters(totals.Liters),
			Amount: money.Amount(totals.Amount),
		}
	}

	return statsResponse{
		VehiclesCount:        st.VehiclesCount,
		PeriodTotalLiters:    money.Liters(st.PeriodTotalLiters),
		PeriodTotalAmount:    money.Amount(st.PeriodTotalAmount),
		TotalOpenAmount:      money.Amount(st.TotalOpenAmount),
		OpenInvoicesCount:    st.OpenInvoicesCount,
		OverdueInvoicesCount: st.OverdueInvoicesCount,
		FuelBreakdown:        breakdown,
		RecentTransactions:   txhttp.ToResponseList(st.RecentTransactions),
		TotalTransactions:    st.TotalTransactions,
		StartDate:            st.StartDate,
		EndDate:              st.EndDate,
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	h.compute(w, r, statsRequest{
		Period:    q.Get("period"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	})
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	h.compute(w, r, req)
}

func (h *Handler) compute(w http.ResponseWriter, r *http.Request, req statsRequest) {
	spec, err := stats.ParseSpec(req.Period, req.StartDate, req.EndDate, h.loc)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	st, err := h.svc.Compute(r.Context(), middleware.AccountID(r.Context()), spec)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(st))
}
