package transaction_test

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
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
	"github.com/MrJamesThe3rd/fleetspend/internal/vehicle"
)

type mocks struct {
	repo       *transaction.MockRepository
	vehicles   *transaction.MockVehicles
	recomputer *transaction.MockRecomputer
}

func newService(t *testing.T) (*transaction.Service, mocks) {
	ctrl := gomock.NewController(t)

	m := mocks{
		repo:       transaction.NewMockRepository(ctrl),
		vehicles:   transaction.NewMockVehicles(ctrl),
		recomputer: transaction.NewMockRecomputer(ctrl),
	}

	return transaction.NewService(m.repo, m.vehicles, m.recomputer), m
}

var (
	accountID = uuid.New()
	truck     = &vehicle.Vehicle{ID: uuid.New(), AccountID: accountID, LicensePlate: "ABC1D23", FuelType: fuel.Diesel, IsActive: true}
	day       = time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)
)

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		params    transaction.CreateParams
		setupMock func(m mocks)
		wantTotal string
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Success",
			params: transaction.CreateParams{
				LicensePlate:  "ABC1D23",
				Liters:        decimal.RequireFromString("45.5"),
				PricePerLiter: decimal.RequireFromString("5.899"),
				StationName:   "Posto Central",
				Date:          day,
			},
			setupMock: func(m mocks) {
				m.vehicles.EXPECT().GetByPlate(gomock.Any(), accountID, "ABC1D23").Return(truck, nil)
				m.repo.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						tx.ID = uuid.New()
						return nil
					})
				m.recomputer.EXPECT().Recompute(gomock.Any(), accountID).Return(nil)
			},
			wantTotal: "268.4",
		},
		{
			name: "RecomputeFailureDoesNotFailCreate",
			params: transaction.CreateParams{
				VehicleID:     &truck.ID,
				Liters:        decimal.NewFromInt(10),
				PricePerLiter: decimal.NewFromInt(6),
				StationName:   "Posto Central",
				Date:          day,
			},
			setupMock: func(m mocks) {
				m.vehicles.EXPECT().Get(gomock.Any(), accountID, truck.ID).Return(truck, nil)
				m.repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
				m.recomputer.EXPECT().Recompute(gomock.Any(), accountID).Return(errors.New("lock timeout"))
			},
			wantTotal: "60",
		},
		{
			name: "ZeroLiters",
			params: transaction.CreateParams{
				LicensePlate:  "ABC1D23",
				PricePerLiter: decimal.NewFromInt(6),
				StationName:   "Posto",
				Date:          day,
			},
			wantErr: true,
		},
		{
			name: "NegativePrice",
			params: transaction.CreateParams{
				LicensePlate:  "ABC1D23",
				Liters:        decimal.NewFromInt(10),
				PricePerLiter: decimal.NewFromInt(-1),
				StationName:   "Posto",
				Date:          day,
			},
			wantErr: true,
		},
		{
			name: "UnknownVehicle",
			params: transaction.CreateParams{
				LicensePlate:  "ZZZ9999",
				Liters:        decimal.NewFromInt(10),
				PricePerLiter: decimal.NewFromInt(6),
				StationName:   "Posto",
				Date:          day,
			},
			setupMock: func(m mocks) {
				m.vehicles.EXPECT().GetByPlate(gomock.Any(), accountID, "ZZZ9999").Return(nil, vehicle.ErrNotFound)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			got, err := svc.Create(context.Background(), accountID, tt.params)
			if tt.wantErr {
				assert.True(t, apperr.IsValidation(err), "got %v", err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, got.TotalAmount.String())
			assert.Equal(t, transaction.StatusCompleted, got.Status)
			assert.Equal(t, fuel.Diesel, got.FuelType)
			assert.Equal(t, truck.ID, got.VehicleID)
		})
	}
}

func TestService_Cancel(t *testing.T) {
	id := uuid.New()
	invoiceID := uuid.New()

	locked := func(t *testing.T, m mocks) *transaction.MockCancelTx {
		ltx := transaction.NewMockCancelTx(gomock.NewController(t))
		m.repo.EXPECT().BeginCancel(gomock.Any(), accountID).Return(ltx, nil)
		ltx.EXPECT().Rollback().Return(nil)

		return ltx
	}

	t.Run("Success", func(t *testing.T) {
		svc, m := newService(t)
		ltx := transaction.NewMockCancelTx(gomock.NewController(t))

		gomock.InOrder(
			m.repo.EXPECT().BeginCancel(gomock.Any(), accountID).Return(ltx, nil),
			ltx.EXPECT().GetTransaction(gomock.Any(), id).
				Return(&transaction.Transaction{ID: id, Status: transaction.StatusCompleted}, nil),
			ltx.EXPECT().CancelTransaction(gomock.Any(), id).Return(nil),
			ltx.EXPECT().Commit().Return(nil),
			ltx.EXPECT().Rollback().Return(nil),
		)
		m.recomputer.EXPECT().Recompute(gomock.Any(), accountID).Return(nil)

		got, err := svc.Cancel(context.Background(), accountID, id)
		require.NoError(t, err)
		assert.Equal(t, transaction.StatusCancelled, got.Status)
	})

	t.Run("BilledWhileWaitingForLock", func(t *testing.T) {
		svc, m := newService(t)
		ltx := locked(t, m)
		ltx.EXPECT().GetTransaction(gomock.Any(), id).
			Return(&transaction.Transaction{ID: id, Status: transaction.StatusCompleted, InvoiceID: &invoiceID}, nil)

		_, err := svc.Cancel(context.Background(), accountID, id)
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("AlreadyCancelled", func(t *testing.T) {
		svc, m := newService(t)
		ltx := locked(t, m)
		ltx.EXPECT().GetTransaction(gomock.Any(), id).
			Return(&transaction.Transaction{ID: id, Status: transaction.StatusCancelled}, nil)

		_, err := svc.Cancel(context.Background(), accountID, id)
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, m := newService(t)
		ltx := locked(t, m)
		ltx.EXPECT().GetTransaction(gomock.Any(), id).Return(nil, transaction.ErrNotFound)

		_, err := svc.Cancel(context.Background(), accountID, id)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("LockFailure", func(t *testing.T) {
		svc, m := newService(t)
		m.repo.EXPECT().BeginCancel(gomock.Any(), accountID).Return(nil, apperr.Conflict("acquiring advisory lock", nil))

		_, err := svc.Cancel(context.Background(), accountID, id)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("CommitFailureSkipsRecompute", func(t *testing.T) {
		svc, m := newService(t)
		ltx := locked(t, m)
		ltx.EXPECT().GetTransaction(gomock.Any(), id).
			Return(&transaction.Transaction{ID: id, Status: transaction.StatusCompleted}, nil)
		ltx.EXPECT().CancelTransaction(gomock.Any(), id).Return(nil)
		ltx.EXPECT().Commit().Return(errors.New("connection reset"))

		_, err := svc.Cancel(context.Background(), accountID, id)
		require.Error(t, err)
	})
}

func TestService_List(t *testing.T) {
	svc, m := newService(t)

	filter := transaction.ListFilter{AccountID: accountID}
	m.repo.EXPECT().ListTransactions(gomock.Any(), filter).
		Return([]*transaction.Transaction{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

	got, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	start, end := day, day.AddDate(0, 0, -1)
	_, err = svc.List(context.Background(), transaction.ListFilter{AccountID: accountID, StartDate: &start, EndDate: &end})
	assert.True(t, apperr.IsValidation(err))
}

func feedRow(station string, liters string) transaction.CreateParams {
	return transaction.CreateParams{
		LicensePlate:  "ABC1D23",
		Liters:        decimal.RequireFromString(liters),
		PricePerLiter: decimal.RequireFromString("5.99"),
		StationName:   station,
		Date:          day,
	}
}

func TestService_ImportBatch_NoConflicts(t *testing.T) {
	svc, m := newService(t)
	itx := transaction.NewMockImportTx(gomock.NewController(t))

	params := []transaction.CreateParams{feedRow("Posto Central", "40")}

	m.vehicles.EXPECT().GetByPlate(gomock.Any(), accountID, "ABC1D23").Return(truck, nil)
	m.repo.EXPECT().BeginImport(gomock.Any(), accountID).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), gomock.Len(1)).Return(nil, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Len(1)).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)
	m.recomputer.EXPECT().Recompute(gomock.Any(), accountID).Return(nil)

	result, err := svc.ImportBatch(context.Background(), accountID, params)
	require.NoError(t, err)
	assert.Len(t, result.Imported, 1)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
}

func TestService_ImportBatch_WithConflicts(t *testing.T) {
	svc, m := newService(t)
	itx := transaction.NewMockImportTx(gomock.NewController(t))

	params := []transaction.CreateParams{
		feedRow("Posto Central", "40"),
		feedRow("Posto Central", "12.5"),
	}

	existing := &transaction.Transaction{
		ID:           uuid.New(),
		LicensePlate: "ABC1D23",
		StationName:  "POSTO CENTRAL",
		Liters:       decimal.RequireFromString("40.000"),
		Date:         day,
	}

	m.vehicles.EXPECT().GetByPlate(gomock.Any(), accountID, "ABC1D23").Return(truck, nil).Times(2)
	m.repo.EXPECT().BeginImport(gomock.Any(), accountID).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), gomock.Len(2)).Return([]*transaction.Transaction{existing}, nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), accountID, params)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Len(t, result.New, 1)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, params[0], result.Conflicts[0].Incoming)
	assert.Equal(t, existing, result.Conflicts[0].Existing)
}

func TestService_ImportBatch_Empty(t *testing.T) {
	svc, _ := newService(t)

	result, err := svc.ImportBatch(context.Background(), accountID, []transaction.CreateParams{})
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
}

func TestService_ImportBatch_BadRowNamesTheRow(t *testing.T) {
	svc, m := newService(t)

	bad := feedRow("Posto", "0")
	m.vehicles.EXPECT().GetByPlate(gomock.Any(), accountID, "ABC1D23").Return(truck, nil)

	_, err := svc.ImportBatch(context.Background(), accountID, []transaction.CreateParams{feedRow("Posto", "10"), bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestService_CreateBatch(t *testing.T) {
	svc, m := newService(t)
	itx := transaction.NewMockImportTx(gomock.NewController(t))

	params := []transaction.CreateParams{feedRow("Posto Central", "40")}

	m.vehicles.EXPECT().GetByPlate(gomock.Any(), accountID, "ABC1D23").Return(truck, nil)
	m.repo.EXPECT().BeginImport(gomock.Any(), accountID).Return(itx, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Any()).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)
	m.recomputer.EXPECT().Recompute(gomock.Any(), accountID).Return(nil)

	txs, err := svc.CreateBatch(context.Background(), accountID, params)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "239.6", txs[0].TotalAmount.String())
	assert.Equal(t, "ABC1D23", txs[0].LicensePlate)
}

func TestTransaction_CheckIntegrity(t *testing.T) {
	tx := &transaction.Transaction{
		Liters:        decimal.NewFromInt(10),
		PricePerLiter: decimal.RequireFromString("5.5"),
		TotalAmount:   decimal.NewFromInt(55),
	}
	assert.NoError(t, tx.CheckIntegrity())

	tx.TotalAmount = decimal.NewFromInt(56)
	assert.True(t, apperr.IsIntegrity(tx.CheckIntegrity()))
}
