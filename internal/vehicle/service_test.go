package vehicle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/vehicle"
)

func TestNormalizePlate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "abc-1234", want: "ABC1234"},
		{in: "BRA2E19", want: "BRA2E19"},
		{in: " xyz 9a87 ", want: "XYZ9A87"},
		{in: "AB12345", wantErr: true},
		{in: "ABCD123", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := vehicle.NormalizePlate(tt.in)
			if tt.wantErr {
				assert.True(t, apperr.IsValidation(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Create(t *testing.T) {
	accountID := uuid.New()

	type testCase struct {
		name      string
		params    vehicle.CreateParams
		setupMock func(m *vehicle.MockRepository)
		wantErr   bool
	}

	valid := vehicle.CreateParams{LicensePlate: "abc1d23", Model: "Volvo FH", Year: 2022, FuelType: "diesel"}

	tests := []testCase{
		{
			name:   "Success",
			params: valid,
			setupMock: func(m *vehicle.MockRepository) {
				m.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, v *vehicle.Vehicle) error {
						assert.Equal(t, "ABC1D23", v.LicensePlate)
						assert.Equal(t, fuel.Diesel, v.FuelType)
						assert.Equal(t, accountID, v.AccountID)
						v.ID = uuid.New()

						return nil
					})
			},
		},
		{
			name:    "BadPlate",
			params:  vehicle.CreateParams{LicensePlate: "12", Model: "x", Year: 2020, FuelType: "diesel"},
			wantErr: true,
		},
		{
			name:    "UnknownFuel",
			params:  vehicle.CreateParams{LicensePlate: "ABC1234", Model: "x", Year: 2020, FuelType: "kerosene"},
			wantErr: true,
		},
		{
			name:    "YearOutOfRange",
			params:  vehicle.CreateParams{LicensePlate: "ABC1234", Model: "x", Year: 1900, FuelType: "diesel"},
			wantErr: true,
		},
		{
			name:   "RepoError",
			params: valid,
			setupMock: func(m *vehicle.MockRepository) {
				m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := vehicle.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := vehicle.NewService(repo, vehicle.NewMockRecomputer(ctrl)).Create(context.Background(), accountID, tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
		})
	}
}

func TestService_Delete_TriggersRecompute(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := vehicle.NewMockRepository(ctrl)
	rec := vehicle.NewMockRecomputer(ctrl)

	accountID, id := uuid.New(), uuid.New()

	gomock.InOrder(
		repo.EXPECT().Deactivate(gomock.Any(), accountID, id).Return(nil),
		rec.EXPECT().Recompute(gomock.Any(), accountID).Return(nil),
	)

	require.NoError(t, vehicle.NewService(repo, rec).Delete(context.Background(), accountID, id))
}

func TestService_Delete_NotFoundSkipsRecompute(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := vehicle.NewMockRepository(ctrl)
	accountID, id := uuid.New(), uuid.New()

	repo.EXPECT().Deactivate(gomock.Any(), accountID, id).Return(vehicle.ErrNotFound)

	err := vehicle.NewService(repo, vehicle.NewMockRecomputer(ctrl)).Delete(context.Background(), accountID, id)
	assert.True(t, apperr.IsNotFound(err))
}

func TestService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := vehicle.NewMockRepository(ctrl)
	accountID, id := uuid.New(), uuid.New()

	repo.EXPECT().Get(gomock.Any(), accountID, id).
		Return(&vehicle.Vehicle{ID: id, AccountID: accountID, Model: "Old", Year: 2020, FuelType: fuel.Diesel}, nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	got, err := vehicle.NewService(repo, nil).Update(context.Background(), accountID, id, vehicle.UpdateParams{
		Model:      new("New"),
		FuelType:   new("ethanol"),
		DriverName: new("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Model)
	assert.Equal(t, fuel.Ethanol, got.FuelType)
	assert.Nil(t, got.DriverName)
}
