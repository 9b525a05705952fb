package vehicle

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/respond"
	"github.com/MrJamesThe3rd/fleetspend/internal/vehicle"
)

type Handler struct {
	svc *vehicle.Service
}

func NewHandler(svc *vehicle.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type vehicleResponse struct {
	ID           uuid.UUID  `json:"id"`
	LicensePlate string     `json:"license_plate"`
	Model        string     `json:"model"`
	Year         int        `json:"year"`
	FuelType     fuel.Type  `json:"fuel_type"`
	DriverName   *string    `json:"driver_name"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func toResponse(v *vehicle.Vehicle) vehicleResponse {
	return vehicleResponse{
		ID:           v.ID,
		LicensePlate: v.LicensePlate,
		Model:        v.Model,
		Year:         v.Year,
		FuelType:     v.FuelType,
		DriverName:   v.DriverName,
		IsActive:     v.IsActive,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func toResponseList(vs []*vehicle.Vehicle) []vehicleResponse {
	resp := make([]vehicleResponse, len(vs))
	for i, v := range vs {
		resp[i] = toResponse(v)
	}

	return resp
}

type createVehicleRequest struct {
	LicensePlate string  `json:"license_plate"`
	Model        string  `json:"model"`
	Year         int     `json:"year"`
	FuelType     string  `json:"fuel_type"`
	DriverName   *string `json:"driver_name,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	v, err := h.svc.Create(r.Context(), middleware.AccountID(r.Context()), vehicle.CreateParams{
		LicensePlate: req.LicensePlate,
		Model:        req.Model,
		Year:         req.Year,
		FuelType:     req.FuelType,
		DriverName:   req.DriverName,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(v))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	vs, err := h.svc.List(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(vs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	v, err := h.svc.Get(r.Context(), middleware.AccountID(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(v))
}

type updateVehicleRequest struct {
	Model      *string `json:"model,omitempty"`
	Year       *int    `json:"year,omitempty"`
	FuelType   *string `json:"fuel_type,omitempty"`
	DriverName *string `json:"driver_name,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	var req updateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	v, err := h.svc.Update(r.Context(), middleware.AccountID(r.Context()), id, vehicle.UpdateParams{
		Model:      req.Model,
		Year:       req.Year,
		FuelType:   req.FuelType,
		DriverName: req.DriverName,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(v))
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
