package vehicle

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=vehicle
type Repository interface {
	Create(ctx context.Context, v *Vehicle) error
	Get(ctx context.Context, accountID, id uuid.UUID) (*Vehicle, error)
	GetByPlate(ctx context.Context, accountID uuid.UUID, plate string) (*Vehicle, error)
	List(ctx context.Context, accountID uuid.UUID) ([]*Vehicle, error)
	Update(ctx context.Context, v *Vehicle) error
	Deactivate(ctx context.Context, accountID, id uuid.UUID) error
}

// Recomputer refreshes the account's cached limit usage and credit state.
type Recomputer interface {
	Recompute(ctx context.Context, accountID uuid.UUID) error
}

type Service struct {
	repo       Repository
	recomputer Recomputer
	now        func() time.Time
}

func NewService(repo Repository, recomputer Recomputer) *Service {
	return &Service{repo: repo, recomputer: recomputer, now: time.Now}
}

type CreateParams struct {
	LicensePlate string
	Model        string
	Year         int
	FuelType     string
	DriverName   *string
}

type UpdateParams struct {
	Model      *string
	Year       *int
	FuelType   *string
	DriverName *string
}

func (s *Service) validateYear(year int) error {
	if year < 1980 || year > s.now().Year()+1 {
		return apperr.Invalid("year", "year %d is out of range", year)
	}

	return nil
}

func (s *Service) Create(ctx context.Context, accountID uuid.UUID, params CreateParams) (*Vehicle, error) {
	plate, err := NormalizePlate(params.LicensePlate)
	if err != nil {
		return nil, err
	}

	model := strings.TrimSpace(params.Model)
	if model == "" {
		return nil, apperr.Invalid("model", "is required")
	}

	if err := s.validateYear(params.Year); err != nil {
		return nil, err
	}

	ft, err := fuel.Parse(params.FuelType)
	if err != nil {
		return nil, err
	}

	v := &Vehicle{
		AccountID:    accountID,
		LicensePlate: plate,
		Model:        model,
		Year:         params.Year,
		FuelType:     ft,
		DriverName:   trimOptional(params.DriverName),
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	return v, nil
}

func (s *Service) Update(ctx context.Context, accountID, id uuid.UUID, params UpdateParams) (*Vehicle, error) {
	v, err := s.repo.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	if params.Model != nil {
		model := strings.TrimSpace(*params.Model)
		if model == "" {
			return nil, apperr.Invalid("model", "is required")
		}

		v.Model = model
	}

	if params.Year != nil {
		if err := s.validateYear(*params.Year); err != nil {
			return nil, err
		}

		v.Year = *params.Year
	}

	if params.FuelType != nil {
		ft, err := fuel.Parse(*params.FuelType)
		if err != nil {
			return nil, err
		}

		v.FuelType = ft
	}

	if params.DriverName != nil {
		v.DriverName = trimOptional(params.DriverName)
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}

	return v, nil
}

// Delete deactivates the vehicle. Limits scoped to it drop to zero usage on the recompute.
func (s *Service) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, accountID, id); err != nil {
		return err
	}

	if err := s.recomputer.Recompute(ctx, accountID); err != nil {
		slog.Error("recomputing after vehicle removal", "account_id", accountID, "error", err)
	}

	return nil
}

func (s *Service) Get(ctx context.Context, accountID, id uuid.UUID) (*Vehicle, error) {
	return s.repo.Get(ctx, accountID, id)
}

func (s *Service) GetByPlate(ctx context.Context, accountID uuid.UUID, plate string) (*Vehicle, error) {
	normalized, err := NormalizePlate(plate)
	if err != nil {
		return nil, err
	}

	return s.repo.GetByPlate(ctx, accountID, normalized)
}

func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]*Vehicle, error) {
	return s.repo.List(ctx, accountID)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}
