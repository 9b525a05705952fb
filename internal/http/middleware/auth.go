package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/auth"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/respond"
)

type ctxKey struct{}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticate rejects requests without a valid bearer token and stores the acting
// account in the request context.
func Authenticate(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respond.Error(w, r, auth.ErrInvalidToken)
				return
			}

			claims, err := tokens.Verify(header)
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccountID(r.Context(), claims.AccountID)))
		})
	}
}

func WithAccountID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// AccountID returns the authenticated account. It is uuid.Nil outside Authenticate.
func AccountID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxKey{}).(uuid.UUID)
	return id
}
