package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fleetspend/internal/auth"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
)

func TestAuthenticate(t *testing.T) {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	accountID := uuid.New()

	token, err := issuer.Issue(accountID, "12345678000190")
	require.NoError(t, err)

	otherToken, err := auth.NewIssuer("other-secret", time.Hour).Issue(accountID, "12345678000190")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "Valid", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "Missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "Garbage", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{name: "WrongSecret", header: "Bearer " + otherToken, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen uuid.UUID

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = middleware.AccountID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/limits", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			middleware.Authenticate(issuer)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, accountID, seen)
			} else {
				assert.Equal(t, uuid.Nil, seen)
			}
		})
	}
}
