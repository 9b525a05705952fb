package stats_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/invoice"
	"github.com/MrJamesThe3rd/fleetspend/internal/retry"
	"github.com/MrJamesThe3rd/fleetspend/internal/stats"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
	"github.com/MrJamesThe3rd/fleetspend/internal/vehicle"
)

var accountID = uuid.New()

type sources struct {
	ledger   *stats.MockLedger
	invoices *stats.MockInvoices
	vehicles *stats.MockVehicles
}

func newService(t *testing.T, now time.Time) (*stats.Service, sources) {
	ctrl := gomock.NewController(t)

	src := sources{
		ledger:   stats.NewMockLedger(ctrl),
		invoices: stats.NewMockInvoices(ctrl),
		vehicles: stats.NewMockVehicles(ctrl),
	}

	svc := stats.NewService(src.ledger, src.invoices, src.vehicles, time.UTC, retry.Options{InitialDelay: time.Millisecond})
	svc.SetClock(func() time.Time { return now })

	return svc, src
}

func row(ft fuel.Type, day int, liters, price string, status transaction.Status) *transaction.Transaction {
	l, p := decimal.RequireFromString(liters), decimal.RequireFromString(price)

	return &transaction.Transaction{
		ID:            uuid.New(),
		FuelType:      ft,
		Liters:        l,
		PricePerLiter: p,
		TotalAmount:   l.Mul(p).Round(2),
		Date:          time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC),
		Status:        status,
	}
}

func TestParseSpec(t *testing.T) {
	spec, err := stats.ParseSpec("custom", "2024-03-01", "2024-03-31", time.UTC)
	require.NoError(t, err)

	start, end, err := spec.Window(time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC), end)

	spec, err = stats.ParseSpec("", "", "", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, stats.Monthly, spec.Period)

	_, err = stats.ParseSpec("custom", "2024-03-01", "", time.UTC)
	assert.True(t, apperr.IsValidation(err))

	_, err = stats.ParseSpec("custom", "01/03/2024", "2024-03-31", time.UTC)
	assert.True(t, apperr.IsValidation(err))

	_, err = stats.ParseSpec("yearly", "", "", time.UTC)
	assert.True(t, apperr.IsValidation(err))
}

func TestSpec_Window(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC) // Thursday

	tests := []struct {
		period    stats.Period
		wantStart time.Time
		wantEnd   time.Time
	}{
		{stats.Daily, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 14, 23, 59, 59, 999999999, time.UTC)},
		{stats.Weekly, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 17, 23, 59, 59, 999999999, time.UTC)},
		{stats.Monthly, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			start, end, err := stats.Spec{Period: tt.period}.Window(now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}

	_, _, err := stats.Spec{
		Period:    stats.Custom,
		StartDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}.Window(now)
	assert.True(t, apperr.IsValidation(err))

	start, end, err := stats.Spec{
		Period:    stats.Custom,
		StartDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}.Window(now)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour-time.Nanosecond, end.Sub(start), "single day range covers the whole day")
}

func TestService_Compute(t *testing.T) {
	now := time.Date(2024, 4, 20, 10, 0, 0, 0, time.UTC)
	svc, src := newService(t, now)

	spec := stats.Spec{
		Period:    stats.Custom,
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	ledger := []*transaction.Transaction{
		row(fuel.Diesel, 30, "100", "6.00", transaction.StatusCompleted),
		row(fuel.Gasoline, 25, "40", "5.50", transaction.StatusCompleted),
		row(fuel.Diesel, 20, "50", "6.00", transaction.StatusPending),
		row(fuel.Diesel, 15, "10", "6.00", transaction.StatusCompleted),
		row(fuel.Diesel, 10, "10", "6.00", transaction.StatusCompleted),
		row(fuel.Diesel, 1, "10", "6.00", transaction.StatusCompleted),
	}

	src.ledger.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f transaction.ListFilter) ([]*transaction.Transaction, error) {
			assert.Equal(t, accountID, f.AccountID)
			assert.True(t, f.ExcludeCancelled)
			assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *f.StartDate)
			assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC), *f.EndDate)

			return ledger, nil
		})
	src.invoices.EXPECT().ListOpen(gomock.Any(), accountID).Return([]*invoice.Invoice{
		{TotalAmount: decimal.NewFromInt(1000), Status: invoice.StatusOpen, DueDate: now.AddDate(0, 0, 5)},
		{TotalAmount: decimal.RequireFromString("250.50"), Status: invoice.StatusOpen, DueDate: now.AddDate(0, 0, -5)},
	}, nil)
	src.vehicles.EXPECT().List(gomock.Any(), accountID).Return([]*vehicle.Vehicle{{}, {}, {}}, nil)

	got, err := svc.Compute(context.Background(), accountID, spec)
	require.NoError(t, err)

	assert.Equal(t, 3, got.VehiclesCount)
	assert.Equal(t, 6, got.TotalTransactions)
	assert.Equal(t, "220", got.PeriodTotalLiters.String())
	assert.Equal(t, "1300", got.PeriodTotalAmount.String())
	assert.Equal(t, "1250.5", got.TotalOpenAmount.String())
	assert.Equal(t, 2, got.OpenInvoicesCount)
	assert.Equal(t, 1, got.OverdueInvoicesCount)

	require.Len(t, got.FuelBreakdown, 2)
	assert.Equal(t, "180", got.FuelBreakdown[fuel.Diesel].Liters.String())
	assert.Equal(t, "220", got.FuelBreakdown[fuel.Gasoline].Amount.String())

	require.Len(t, got.RecentTransactions, stats.RecentLimit)
	assert.Equal(t, ledger[0].ID, got.RecentTransactions[0].ID)
}

func TestService_Compute_EmptyWindow(t *testing.T) {
	svc, src := newService(t, time.Now())

	src.ledger.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)
	src.invoices.EXPECT().ListOpen(gomock.Any(), accountID).Return(nil, nil)
	src.vehicles.EXPECT().List(gomock.Any(), accountID).Return(nil, nil)

	got, err := svc.Compute(context.Background(), accountID, stats.Spec{Period: stats.Daily})
	require.NoError(t, err)
	assert.Empty(t, got.FuelBreakdown)
	assert.NotNil(t, got.FuelBreakdown)
	assert.Zero(t, got.TotalTransactions)
	assert.True(t, got.PeriodTotalAmount.IsZero())
}

func TestService_Compute_CancellationChangesTotals(t *testing.T) {
	svc, src := newService(t, time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC))

	a := row(fuel.Diesel, 2, "10", "6.00", transaction.StatusCompleted)
	b := row(fuel.Diesel, 3, "20", "6.00", transaction.StatusCompleted)

	src.invoices.EXPECT().ListOpen(gomock.Any(), accountID).Return(nil, nil).Times(2)
	src.vehicles.EXPECT().List(gomock.Any(), accountID).Return(nil, nil).Times(2)

	gomock.InOrder(
		src.ledger.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*transaction.Transaction{b, a}, nil),
		src.ledger.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*transaction.Transaction{a}, nil),
	)

	before, err := svc.Compute(context.Background(), accountID, stats.Spec{Period: stats.Monthly})
	require.NoError(t, err)

	after, err := svc.Compute(context.Background(), accountID, stats.Spec{Period: stats.Monthly})
	require.NoError(t, err)

	assert.Equal(t, "180", before.PeriodTotalAmount.String())
	assert.Equal(t, "60", after.PeriodTotalAmount.String())
	assert.Equal(t, 1, after.TotalTransactions)
}

func TestService_Compute_SourceError(t *testing.T) {
	svc, src := newService(t, time.Now())

	src.ledger.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	src.invoices.EXPECT().ListOpen(gomock.Any(), accountID).Return(nil, nil).AnyTimes()
	src.vehicles.EXPECT().List(gomock.Any(), accountID).Return(nil, nil).AnyTimes()

	_, err := svc.Compute(context.Background(), accountID, stats.Spec{Period: stats.Weekly})
	assert.Error(t, err)
}

func TestService_Compute_Cancelled(t *testing.T) {
	svc, src := newService(t, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src.ledger.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*transaction.Transaction{row(fuel.Diesel, 1, "1", "1", transaction.StatusCompleted)}, nil).AnyTimes()
	src.invoices.EXPECT().ListOpen(gomock.Any(), accountID).Return(nil, nil).AnyTimes()
	src.vehicles.EXPECT().List(gomock.Any(), accountID).Return(nil, nil).AnyTimes()

	_, err := svc.Compute(ctx, accountID, stats.Spec{Period: stats.Monthly})
	assert.ErrorIs(t, err, context.Canceled)
}
