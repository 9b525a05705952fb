// Package respond writes JSON bodies and maps engine errors to HTTP status codes.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/fleetspend/internal/account"
	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/auth"
	"github.com/MrJamesThe3rd/fleetspend/internal/retry"
)

type errorResponse struct {
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// BadRequest reports a malformed request (unparseable body, id or query parameter).
func BadRequest(w http.ResponseWriter, detail string) {
	JSON(w, http.StatusBadRequest, errorResponse{Detail: detail})
}

// Error writes err with the status its class maps to. Unknown errors are logged and hidden.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperr.ValidationError

	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: verr.Error(), Field: verr.Field})
	case apperr.IsNotFound(err):
		JSON(w, http.StatusNotFound, errorResponse{Detail: err.Error()})
	case errors.Is(err, retry.ErrExhausted):
		slog.Warn("transient failure", "path", r.URL.Path, "error", err)
		JSON(w, http.StatusServiceUnavailable, errorResponse{Detail: "transient failure, please retry"})
	case apperr.IsConflict(err):
		JSON(w, http.StatusConflict, errorResponse{Detail: err.Error()})
	case errors.Is(err, account.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		JSON(w, http.StatusUnauthorized, errorResponse{Detail: err.Error()})
	case errors.Is(err, account.ErrInactive):
		JSON(w, http.StatusForbidden, errorResponse{Detail: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		JSON(w, http.StatusServiceUnavailable, errorResponse{Detail: "request timed out"})
	case apperr.IsIntegrity(err):
		slog.Error("ledger integrity violation", "path", r.URL.Path, "error", err)
		JSON(w, http.StatusInternalServerError, errorResponse{Detail: "ledger integrity check failed"})
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		JSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal error"})
	}
}
