package transaction

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/respond"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type Handler struct {
	svc *transaction.Service
	loc *time.Location
}

func NewHandler(svc *transaction.Service, loc *time.Location) *Handler {
	return &Handler{svc: svc, loc: loc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/vehicle/{id}", h.listByVehicle)
	r.Get("/{id}", h.get)
	r.Post("/{id}/cancel", h.cancel)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req ParamsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	params, err := req.ToParams()
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	tx, err := h.svc.Create(r.Context(), middleware.AccountID(r.Context()), params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, ToResponse(tx))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	if s := r.URL.Query().Get("vehicle_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respond.BadRequest(w, "invalid vehicle_id")
			return
		}

		filter.VehicleID = new(id)
	}

	h.writeList(w, r, filter)
}

func (h *Handler) listByVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	filter.VehicleID = new(id)

	h.writeList(w, r, filter)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, filter transaction.ListFilter) {
	txs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponseList(txs))
}

// parseFilter reads status, start_date, end_date (YYYY-MM-DD, end inclusive) and limit.
func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request) (transaction.ListFilter, bool) {
	q := r.URL.Query()
	filter := transaction.ListFilter{
		AccountID: middleware.AccountID(r.Context()),
		Limit:     defaultListLimit,
	}

	if s := q.Get("status"); s != "" {
		status, err := transaction.ParseStatus(s)
		if err != nil {
			respond.Error(w, r, err)
			return filter, false
		}

		filter.Status = new(status)
	}

	if s := q.Get("start_date"); s != "" {
		t, err := time.ParseInLocation(time.DateOnly, s, h.loc)
		if err != nil {
			respond.BadRequest(w, "invalid start_date, expected YYYY-MM-DD")
			return filter, false
		}

		filter.StartDate = new(t)
	}

	if s := q.Get("end_date"); s != "" {
		t, err := time.ParseInLocation(time.DateOnly, s, h.loc)
		if err != nil {
			respond.BadRequest(w, "invalid end_date, expected YYYY-MM-DD")
			return filter, false
		}

		filter.EndDate = new(t.AddDate(0, 0, 1).Add(-time.Nanosecond))
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respond.BadRequest(w, "invalid limit")
			return filter, false
		}

		filter.Limit = min(n, maxListLimit)
	}

	return filter, true
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	tx, err := h.svc.Get(r.Context(), middleware.AccountID(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(tx))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	tx, err := h.svc.Cancel(r.Context(), middleware.AccountID(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(tx))
}
