package invoice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/export"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/respond"
	"github.com/MrJamesThe3rd/fleetspend/internal/invoice"
)

type Handler struct {
	svc    *invoice.Service
	export *export.Service
	loc    *time.Location
	now    func() time.Time
}

func NewHandler(svc *invoice.Service, exportSvc *export.Service, loc *time.Location) *Handler {
	return &Handler{svc: svc, export: exportSvc, loc: loc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/open", h.listOpen)
	r.Post("/generate", h.generate)
	r.Get("/{id}", h.get)
	r.Get("/{id}/details", h.details)
	r.Get("/{id}/statement", h.statement)
	r.Post("/{id}/pay", h.pay)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	invs, err := h.svc.List(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(invs))
}

func (h *Handler) listOpen(w http.ResponseWriter, r *http.Request) {
	invs, err := h.svc.ListOpen(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(invs))
}

// generateRequest takes inclusive YYYY-MM-DD days. Both empty means the previous month.
type generateRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (h *Handler) period(req generateRequest) (invoice.BillingPeriod, error) {
	if req.StartDate == "" && req.EndDate == "" {
		return invoice.PreviousMonth(h.now().In(h.loc)), nil
	}

	start, err := time.ParseInLocation(time.DateOnly, req.StartDate, h.loc)
	if err != nil {
		return invoice.BillingPeriod{}, apperr.Invalid("start_date", "expected YYYY-MM-DD, got %q", req.StartDate)
	}

	end, err := time.ParseInLocation(time.DateOnly, req.EndDate, h.loc)
	if err != nil {
		return invoice.BillingPeriod{}, apperr.Invalid("end_date", "expected YYYY-MM-DD, got %q", req.EndDate)
	}

	return invoice.NewBillingPeriod(start, end.AddDate(0, 0, 1))
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	period, err := h.period(req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	inv, err := h.svc.Generate(r.Context(), middleware.AccountID(r.Context()), period)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(inv))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	inv, err := h.svc.Get(r.Context(), middleware.AccountID(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(inv))
}

func (h *Handler) details(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	d, err := h.svc.Details(r.Context(), middleware.AccountID(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDetailsResponse(d))
}

// statement serves ?format=csv (default, honouring ?charset=) or ?format=txt.
func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	accountID := middleware.AccountID(r.Context())

	switch format := r.URL.Query().Get("format"); format {
	case "txt":
		summary, err := h.export.Summary(r.Context(), accountID, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		if _, err := io.WriteString(w, summary); err != nil {
			slog.Error("failed to write statement", "error", err)
		}
	case "", "csv":
		charset := r.URL.Query().Get("charset")

		var buf bytes.Buffer

		inv, err := h.export.Statement(r.Context(), accountID, id, &buf, charset)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		if charset == "" {
			charset = "utf-8"
		}

		w.Header().Set("Content-Type", "text/csv; charset="+charset)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(inv)))

		if _, err := buf.WriteTo(w); err != nil {
			slog.Error("failed to write statement", "error", err)
		}
	default:
		respond.BadRequest(w, "unknown format "+format)
	}
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	inv, err := h.svc.Pay(r.Context(), middleware.AccountID(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(inv))
}
