package limit_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/limit"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

var saoPaulo = time.FixedZone("BRT", -3*60*60)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, saoPaulo)
}

func TestWindowFor(t *testing.T) {
	// Thursday 2024-03-14 15:00
	now := at(2024, 3, 14, 15)

	tests := []struct {
		period    limit.Period
		wantStart time.Time
		wantEnd   time.Time
	}{
		{period: limit.Daily, wantStart: at(2024, 3, 14, 0), wantEnd: at(2024, 3, 15, 0)},
		{period: limit.Weekly, wantStart: at(2024, 3, 11, 0), wantEnd: at(2024, 3, 18, 0)},
		{period: limit.Monthly, wantStart: at(2024, 3, 1, 0), wantEnd: at(2024, 4, 1, 0)},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			start, end := limit.WindowFor(tt.period, now)
			assert.True(t, tt.wantStart.Equal(start), "start %s", start)
			assert.True(t, tt.wantEnd.Equal(end), "end %s", end)
		})
	}

	t.Run("SundayBelongsToPreviousWeek", func(t *testing.T) {
		start, _ := limit.WindowFor(limit.Weekly, at(2024, 3, 17, 23))
		assert.True(t, at(2024, 3, 11, 0).Equal(start))
	})

	t.Run("MondayStartsWeek", func(t *testing.T) {
		start, _ := limit.WindowFor(limit.Weekly, at(2024, 3, 18, 0))
		assert.True(t, at(2024, 3, 18, 0).Equal(start))
	})

	t.Run("DecemberRollsIntoJanuary", func(t *testing.T) {
		_, end := limit.WindowFor(limit.Monthly, at(2024, 12, 20, 10))
		assert.True(t, at(2025, 1, 1, 0).Equal(end))
	})
}

func purchase(vehicleID uuid.UUID, ft fuel.Type, when time.Time, liters, total string, status transaction.Status) *transaction.Transaction {
	return &transaction.Transaction{
		ID:          uuid.New(),
		VehicleID:   vehicleID,
		FuelType:    ft,
		Liters:      decimal.RequireFromString(liters),
		TotalAmount: decimal.RequireFromString(total),
		Date:        when,
		Status:      status,
	}
}

func TestEvaluate(t *testing.T) {
	truck, van := uuid.New(), uuid.New()
	start, reset := limit.WindowFor(limit.Monthly, at(2024, 3, 10, 12))

	ledger := []*transaction.Transaction{
		purchase(truck, fuel.Diesel, at(2024, 3, 2, 9), "100", "600.00", transaction.StatusCompleted),
		purchase(truck, fuel.Diesel, at(2024, 3, 5, 9), "50", "300.00", transaction.StatusPending),
		purchase(truck, fuel.Diesel, at(2024, 3, 6, 9), "80", "480.00", transaction.StatusCancelled),
		purchase(van, fuel.Gasoline, at(2024, 3, 7, 9), "40", "240.00", transaction.StatusCompleted),
		purchase(truck, fuel.Diesel, at(2024, 2, 28, 9), "999", "9999.00", transaction.StatusCompleted),
		purchase(truck, fuel.Diesel, at(2024, 4, 1, 0), "999", "9999.00", transaction.StatusCompleted),
	}

	tests := []struct {
		name        string
		limit       limit.Limit
		vehicleOK   bool
		wantUsage   string
		wantDisplay float64
		wantRaw     float64
	}{
		{
			name:      "AllVehiclesAllFuelsCurrency",
			limit:     limit.Limit{Period: limit.Monthly, Unit: limit.Currency, Value: decimal.NewFromInt(2000)},
			vehicleOK: true,
			wantUsage: "1140", wantDisplay: 57, wantRaw: 57,
		},
		{
			name:      "VehicleScopedLiters",
			limit:     limit.Limit{VehicleID: &truck, Period: limit.Monthly, Unit: limit.Liters, Value: decimal.NewFromInt(100)},
			vehicleOK: true,
			wantUsage: "150", wantDisplay: 100, wantRaw: 150,
		},
		{
			name:      "FuelScoped",
			limit:     limit.Limit{FuelType: new(fuel.Gasoline), Period: limit.Monthly, Unit: limit.Currency, Value: decimal.NewFromInt(480)},
			vehicleOK: true,
			wantUsage: "240", wantDisplay: 50, wantRaw: 50,
		},
		{
			name:      "OrphanedVehicle",
			limit:     limit.Limit{VehicleID: &truck, Period: limit.Monthly, Unit: limit.Liters, Value: decimal.NewFromInt(100)},
			vehicleOK: false,
			wantUsage: "0", wantDisplay: 0, wantRaw: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.limit
			l.PeriodStart, l.ResetDate = start, reset

			u := limit.Evaluate(&l, ledger, at(2024, 3, 10, 12), tt.vehicleOK)
			assert.Equal(t, tt.wantUsage, u.Current.String())
			assert.InDelta(t, tt.wantDisplay, u.Percentage, 0.0001)
			assert.InDelta(t, tt.wantRaw, u.RawPercentage, 0.0001)
			assert.False(t, u.Rolled)
		})
	}
}

func TestEvaluate_ResetsAtResetDate(t *testing.T) {
	truck := uuid.New()
	l := limit.Limit{Period: limit.Daily, Unit: limit.Liters, Value: decimal.NewFromInt(100)}
	l.PeriodStart, l.ResetDate = limit.WindowFor(limit.Daily, at(2024, 3, 10, 12))

	ledger := []*transaction.Transaction{
		purchase(truck, fuel.Diesel, at(2024, 3, 10, 8), "90", "540", transaction.StatusCompleted),
	}

	before := limit.Evaluate(&l, ledger, at(2024, 3, 10, 23), true)
	assert.Equal(t, "90", before.Current.String())

	after := limit.Evaluate(&l, ledger, l.ResetDate, true)
	require.True(t, after.Rolled)
	assert.True(t, decimal.Zero.Equal(after.Current))
	assert.True(t, at(2024, 3, 11, 0).Equal(after.PeriodStart))
	assert.True(t, at(2024, 3, 12, 0).Equal(after.ResetDate))

	ledger = append(ledger, purchase(truck, fuel.Diesel, at(2024, 3, 11, 7), "20", "120", transaction.StatusCompleted))

	next := limit.Evaluate(&l, ledger, at(2024, 3, 11, 9), true)
	assert.Equal(t, "20", next.Current.String())
}

func TestLimit_AsOf(t *testing.T) {
	l := &limit.Limit{Period: limit.Daily, CurrentUsage: decimal.NewFromInt(40), Value: decimal.NewFromInt(50)}
	l.PeriodStart, l.ResetDate = limit.WindowFor(limit.Daily, at(2024, 3, 10, 12))

	assert.Same(t, l, l.AsOf(at(2024, 3, 10, 13)))

	view := l.AsOf(at(2024, 3, 12, 1))
	assert.True(t, view.CurrentUsage.IsZero())
	assert.True(t, at(2024, 3, 12, 0).Equal(view.PeriodStart))
	assert.Equal(t, "40", l.CurrentUsage.String(), "original untouched")

	display, raw := l.Percentages()
	assert.InDelta(t, 80, display, 0.0001)
	assert.InDelta(t, 80, raw, 0.0001)
}

func TestParse(t *testing.T) {
	_, err := limit.ParsePeriod("yearly")
	assert.Error(t, err)

	_, err = limit.ParseUnit("gallons")
	assert.Error(t, err)

	p, err := limit.ParsePeriod("weekly")
	require.NoError(t, err)
	assert.Equal(t, limit.Weekly, p)
}
