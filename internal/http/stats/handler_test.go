package stats_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
	statshttp "github.com/MrJamesThe3rd/fleetspend/internal/http/stats"
	"github.com/MrJamesThe3rd/fleetspend/internal/retry"
	"github.com/MrJamesThe3rd/fleetspend/internal/stats"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

type sources struct {
	ledger   *stats.MockLedger
	invoices *stats.MockInvoices
	vehicles *stats.MockVehicles
}

func newRouter(t *testing.T, accountID uuid.UUID) (http.Handler, sources) {
	ctrl := gomock.NewController(t)

	src := sources{
		ledger:   stats.NewMockLedger(ctrl),
		invoices: stats.NewMockInvoices(ctrl),
		vehicles: stats.NewMockVehicles(ctrl),
	}

	svc := stats.NewService(src.ledger, src.invoices, src.vehicles, time.UTC, retry.Options{InitialDelay: time.Millisecond})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithAccountID(req.Context(), accountID)))
		})
	})

	statshttp.NewHandler(svc, time.UTC).Routes(r)

	return r, src
}

func (s sources) expectMarch(accountID uuid.UUID) {
	liters, price := decimal.RequireFromString("50"), decimal.RequireFromString("6")

	s.ledger.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, f transaction.ListFilter) ([]*transaction.Transaction, error) {
			if f.AccountID != accountID || !f.StartDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) ||
				!f.EndDate.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)) {
				return nil, assert.AnError
			}

			return []*transaction.Transaction{{
				ID:            uuid.New(),
				FuelType:      fuel.Diesel,
				Liters:        liters,
				PricePerLiter: price,
				TotalAmount:   liters.Mul(price),
				Date:          time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
				Status:        transaction.StatusCompleted,
			}}, nil
		})
	s.invoices.EXPECT().ListOpen(gomock.Any(), accountID).Return(nil, nil)
	s.vehicles.EXPECT().List(gomock.Any(), accountID).Return(nil, nil)
}

func TestHandler_Stats(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		expect     bool
		wantStatus int
	}{
		{
			name:       "GetCustom",
			method:     http.MethodGet,
			target:     "/stats?period=custom&start_date=2024-03-01&end_date=2024-03-31",
			expect:     true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "PostCustom",
			method:     http.MethodPost,
			target:     "/stats",
			body:       `{"period":"custom","start_date":"2024-03-01","end_date":"2024-03-31"}`,
			expect:     true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "EndBeforeStart",
			method:     http.MethodGet,
			target:     "/stats?period=custom&start_date=2024-03-31&end_date=2024-03-01",
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "CustomWithoutDates",
			method:     http.MethodPost,
			target:     "/stats",
			body:       `{"period":"custom"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "UnknownPeriod",
			method:     http.MethodGet,
			target:     "/stats?period=yearly",
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "MalformedBody",
			method:     http.MethodPost,
			target:     "/stats",
			body:       `{"period":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, src := newRouter(t, accountID)
			if tt.expect {
				src.expectMarch(accountID)
			}

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus != http.StatusOK {
				return
			}

			var body struct {
				TotalTransactions  int                           `json:"total_transactions"`
				PeriodTotalAmount  float64                       `json:"period_total_amount"`
				FuelBreakdown      map[string]map[string]float64 `json:"fuel_breakdown"`
				RecentTransactions []map[string]any              `json:"recent_transactions"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

			assert.Equal(t, 1, body.TotalTransactions)
			assert.Equal(t, 300.0, body.PeriodTotalAmount)
			assert.Equal(t, 50.0, body.FuelBreakdown["diesel"]["liters"])
			assert.Len(t, body.RecentTransactions, 1)
		})
	}
}
