package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/account"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/respond"
	"github.com/MrJamesThe3rd/fleetspend/internal/money"
)

type Handler struct {
	svc *account.Service
}

func NewHandler(svc *account.Service) *Handler {
	return &Handler{svc: svc}
}

// PublicRoutes mounts the endpoints reachable without a token.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/login", h.login)
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/change-password", h.changePassword)
	r.Get("/me", h.me)
}

type clientResponse struct {
	ID          uuid.UUID `json:"id"`
	CNPJ        string    `json:"cnpj"`
	CompanyName string    `json:"company_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	CreditLimit float64   `json:"credit_limit"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toClientResponse(a *account.Account) clientResponse {
	return clientResponse{
		ID:          a.ID,
		CNPJ:        a.CNPJ,
		CompanyName: a.CompanyName,
		Email:       a.Email,
		Phone:       a.Phone,
		CreditLimit: money.Amount(a.CreditLimit),
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt,
	}
}

type loginRequest struct {
	CNPJ     string `json:"cnpj"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	Client      clientResponse `json:"client"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	token, a, err := h.svc.Login(r.Context(), req.CNPJ, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Client:      toClientResponse(a),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	if err := h.svc.ChangePassword(r.Context(), middleware.AccountID(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toClientResponse(a))
}
