package matching_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	matchinghttp "github.com/MrJamesThe3rd/fleetspend/internal/http/matching"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
	"github.com/MrJamesThe3rd/fleetspend/internal/matching"
)

func newRouter(t *testing.T, accountID uuid.UUID) (http.Handler, *matching.MockRepository) {
	repo := matching.NewMockRepository(gomock.NewController(t))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithAccountID(req.Context(), accountID)))
		})
	})

	matchinghttp.NewHandler(matching.NewService(repo)).Routes(r)

	return r, repo
}

func TestHandler_Learn(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name       string
		body       string
		created    bool
		wantStatus int
	}{
		{name: "NewPattern", body: `{"raw_pattern":"SHELL KM 32","preferred_name":"Posto Shell BR-116"}`, created: true, wantStatus: http.StatusCreated},
		{name: "KnownPattern", body: `{"raw_pattern":"shell km 32","preferred_name":"Shell Rodovia"}`, created: false, wantStatus: http.StatusOK},
		{name: "MissingPreferred", body: `{"raw_pattern":"SHELL"}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "Malformed", body: `{"raw_pattern":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, repo := newRouter(t, accountID)

			if tt.wantStatus < http.StatusBadRequest {
				repo.EXPECT().SaveAlias(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a *matching.Alias) (bool, error) {
					a.ID = uuid.New()
					return tt.created, nil
				})
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus >= http.StatusBadRequest {
				return
			}

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.NotEmpty(t, got["id"])
			assert.NotEmpty(t, got["preferred_name"])
		})
	}
}

func TestHandler_Forget(t *testing.T) {
	accountID, id := uuid.New(), uuid.New()

	tests := []struct {
		name       string
		target     string
		repoErr    error
		callsRepo  bool
		wantStatus int
	}{
		{name: "Deleted", target: "/" + id.String(), callsRepo: true, wantStatus: http.StatusNoContent},
		{name: "OtherAccount", target: "/" + id.String(), repoErr: matching.ErrNotFound, callsRepo: true, wantStatus: http.StatusNotFound},
		{name: "BadID", target: "/nope", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, repo := newRouter(t, accountID)

			if tt.callsRepo {
				repo.EXPECT().DeleteAlias(gomock.Any(), accountID, id).Return(tt.repoErr)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandler_List(t *testing.T) {
	accountID := uuid.New()
	router, repo := newRouter(t, accountID)

	repo.EXPECT().ListAliases(gomock.Any(), accountID).Return([]*matching.Alias{
		{ID: uuid.New(), AccountID: accountID, RawPattern: "SHELL KM 32", PreferredName: "Posto Shell BR-116"},
	}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "SHELL KM 32", got[0]["raw_pattern"])
}

func TestHandler_Suggest_RequiresRawName(t *testing.T) {
	router, _ := newRouter(t, uuid.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/suggest", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
