package transaction_test

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
	txhttp "github.com/MrJamesThe3rd/fleetspend/internal/http/transaction"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
	"github.com/MrJamesThe3rd/fleetspend/internal/vehicle"
)

var saoPaulo = time.FixedZone("BRT", -3*60*60)

type mocks struct {
	repo       *transaction.MockRepository
	vehicles   *transaction.MockVehicles
	recomputer *transaction.MockRecomputer
}

func newRouter(t *testing.T, accountID uuid.UUID) (http.Handler, mocks) {
	ctrl := gomock.NewController(t)

	m := mocks{
		repo:       transaction.NewMockRepository(ctrl),
		vehicles:   transaction.NewMockVehicles(ctrl),
		recomputer: transaction.NewMockRecomputer(ctrl),
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithAccountID(req.Context(), accountID)))
		})
	})

	txhttp.NewHandler(transaction.NewService(m.repo, m.vehicles, m.recomputer), saoPaulo).Routes(r)

	return r, m
}

func TestHandler_List(t *testing.T) {
	accountID, vehicleID := uuid.New(), uuid.New()

	tests := []struct {
		name       string
		target     string
		check      func(t *testing.T, f transaction.ListFilter)
		wantStatus int
	}{
		{
			name:   "Defaults",
			target: "/",
			check: func(t *testing.T, f transaction.ListFilter) {
				assert.Equal(t, accountID, f.AccountID)
				assert.Equal(t, 100, f.Limit)
				assert.Nil(t, f.VehicleID)
				assert.Nil(t, f.Status)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "Filters",
			target: "/?vehicle_id=" + vehicleID.String() + "&status=cancelled&start_date=2026-03-01&end_date=2026-03-31&limit=5000",
			check: func(t *testing.T, f transaction.ListFilter) {
				require.NotNil(t, f.VehicleID)
				assert.Equal(t, vehicleID, *f.VehicleID)
				assert.Equal(t, transaction.StatusCancelled, *f.Status)
				assert.True(t, f.StartDate.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, saoPaulo)))
				assert.True(t, f.EndDate.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, saoPaulo).Add(-time.Nanosecond)))
				assert.Equal(t, 1000, f.Limit)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "ByVehicleRoute",
			target: "/vehicle/" + vehicleID.String(),
			check: func(t *testing.T, f transaction.ListFilter) {
				require.NotNil(t, f.VehicleID)
				assert.Equal(t, vehicleID, *f.VehicleID)
			},
			wantStatus: http.StatusOK,
		},
		{name: "UnknownStatus", target: "/?status=refunded", wantStatus: http.StatusUnprocessableEntity},
		{name: "BadDate", target: "/?start_date=01/03/2026", wantStatus: http.StatusBadRequest},
		{name: "BadVehicle", target: "/?vehicle_id=abc", wantStatus: http.StatusBadRequest},
		{name: "EndBeforeStart", target: "/?start_date=2026-03-31&end_date=2026-03-01", wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := newRouter(t, accountID)

			if tt.check != nil {
				m.repo.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ any, f transaction.ListFilter) ([]*transaction.Transaction, error) {
						tt.check(t, f)
						return nil, nil
					})
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_Create(t *testing.T) {
	accountID := uuid.New()
	v := &vehicle.Vehicle{ID: uuid.New(), AccountID: accountID, LicensePlate: "ABC1D23", FuelType: fuel.Diesel, IsActive: true}

	router, m := newRouter(t, accountID)

	m.vehicles.EXPECT().GetByPlate(gomock.Any(), accountID, "ABC1D23").Return(v, nil)
	m.repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, tx *transaction.Transaction) error {
			tx.ID = uuid.New()
			return nil
		})
	m.recomputer.EXPECT().Recompute(gomock.Any(), accountID).Return(nil)

	body := `{"license_plate":"ABC1D23","liters":"120.5","price_per_liter":6.099,"station_name":"Posto Shell","transaction_date":"2026-03-05T07:42:00-03:00"}`

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got txhttp.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

	assert.Equal(t, v.ID, got.VehicleID)
	assert.Equal(t, fuel.Diesel, got.FuelType)
	assert.Equal(t, 734.93, got.TotalAmount)
	assert.Equal(t, 120.5, got.Liters)
	assert.Equal(t, transaction.StatusCompleted, got.Status)
}

func TestHandler_Create_Invalid(t *testing.T) {
	router, _ := newRouter(t, uuid.New())

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "Malformed", body: `{"liters":`, wantStatus: http.StatusBadRequest},
		{name: "UnknownFuel", body: `{"fuel_type":"kerosene","liters":1,"price_per_liter":1}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "ZeroLiters", body: `{"license_plate":"ABC1D23","liters":0,"price_per_liter":6,"station_name":"X","transaction_date":"2026-03-05T07:42:00Z"}`, wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestToParamsDTO_RoundTrip(t *testing.T) {
	p := transaction.CreateParams{
		LicensePlate:  "ABC1D23",
		FuelType:      new(fuel.Ethanol),
		Liters:        decimal.RequireFromString("30.125"),
		PricePerLiter: decimal.RequireFromString("4.1990"),
		StationName:   "Posto Central",
		Date:          time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC),
		Status:        transaction.StatusCompleted,
	}

	raw, err := json.Marshal(txhttp.ToParamsDTO(p))
	require.NoError(t, err)

	var dto txhttp.ParamsDTO
	require.NoError(t, json.Unmarshal(raw, &dto))

	got, err := dto.ToParams()
	require.NoError(t, err)

	assert.True(t, p.Liters.Equal(got.Liters))
	assert.True(t, p.PricePerLiter.Equal(got.PricePerLiter))
	assert.Equal(t, fuel.Ethanol, *got.FuelType)
	assert.True(t, p.Date.Equal(got.Date))
}
