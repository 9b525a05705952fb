package matching

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/respond"
	"github.com/MrJamesThe3rd/fleetspend/internal/matching"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.learn)
	r.Get("/suggest", h.suggest)
	r.Delete("/{id}", h.forget)
}

type aliasResponse struct {
	ID            uuid.UUID  `json:"id"`
	RawPattern    string     `json:"raw_pattern"`
	PreferredName string     `json:"preferred_name"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

func toResponse(a *matching.Alias) aliasResponse {
	return aliasResponse{
		ID:            a.ID,
		RawPattern:    a.RawPattern,
		PreferredName: a.PreferredName,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	aliases, err := h.svc.List(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]aliasResponse, len(aliases))
	for i, a := range aliases {
		resp[i] = toResponse(a)
	}

	respond.JSON(w, http.StatusOK, resp)
}

type suggestResponse struct {
	RawName       string `json:"raw_name"`
	PreferredName string `json:"preferred_name"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	rawName := r.URL.Query().Get("raw_name")
	if rawName == "" {
		respond.BadRequest(w, "raw_name query parameter is required")
		return
	}

	preferred, err := h.svc.Suggest(r.Context(), middleware.AccountID(r.Context()), rawName)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, suggestResponse{
		RawName:       rawName,
		PreferredName: preferred,
	})
}

type learnRequest struct {
	RawPattern    string `json:"raw_pattern"`
	PreferredName string `json:"preferred_name"`
}

// learn answers 201 for a new alias and 200 when an existing pattern was re-pointed.
func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	alias, created, err := h.svc.Learn(r.Context(), middleware.AccountID(r.Context()), req.RawPattern, req.PreferredName)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	respond.JSON(w, status, toResponse(alias))
}

func (h *Handler) forget(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	if err := h.svc.Forget(r.Context(), middleware.AccountID(r.Context()), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
