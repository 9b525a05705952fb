package limit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/vehicle"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=limit
type Repository interface {
	Create(ctx context.Context, l *Limit) error
	Get(ctx context.Context, accountID, id uuid.UUID) (*Limit, error)
	List(ctx context.Context, accountID uuid.UUID) ([]*Limit, error)
	Update(ctx context.Context, l *Limit) error
	Deactivate(ctx context.Context, accountID, id uuid.UUID) error
}

type Vehicles interface {
	Get(ctx context.Context, accountID, id uuid.UUID) (*vehicle.Vehicle, error)
}

// Recomputer refreshes the account's cached limit usage and credit state.
type Recomputer interface {
	Recompute(ctx context.Context, accountID uuid.UUID) error
}

type Service struct {
	repo       Repository
	vehicles   Vehicles
	recomputer Recomputer
	loc        *time.Location
	now        func() time.Time
}

func NewService(repo Repository, vehicles Vehicles, recomputer Recomputer, loc *time.Location) *Service {
	return &Service{repo: repo, vehicles: vehicles, recomputer: recomputer, loc: loc, now: time.Now}
}

// Params is the full, client-writable part of a limit. Usage is never client-writable.
type Params struct {
	VehicleID *uuid.UUID
	FuelType  *string
	Period    string
	Unit      string
	Value     decimal.Decimal
}

type scope struct {
	vehicleID *uuid.UUID
	fuelType  *fuel.Type
	period    Period
	unit      Unit
}

func (s *Service) validate(ctx context.Context, accountID uuid.UUID, p Params) (scope, error) {
	if !p.Value.IsPositive() {
		return scope{}, apperr.Invalid("limit_value", "must be greater than zero")
	}

	period, err := ParsePeriod(p.Period)
	if err != nil {
		return scope{}, err
	}

	unit, err := ParseUnit(p.Unit)
	if err != nil {
		return scope{}, err
	}

	ft, err := fuel.ParseOptional(p.FuelType)
	if err != nil {
		return scope{}, err
	}

	if p.VehicleID != nil {
		if _, err := s.vehicles.Get(ctx, accountID, *p.VehicleID); err != nil {
			return scope{}, err
		}
	}

	return scope{vehicleID: p.VehicleID, fuelType: ft, period: period, unit: unit}, nil
}

func (s *Service) Create(ctx context.Context, accountID uuid.UUID, params Params) (*Limit, error) {
	sc, err := s.validate(ctx, accountID, params)
	if err != nil {
		return nil, err
	}

	start, reset := WindowFor(sc.period, s.now().In(s.loc))

	l := &Limit{
		AccountID:    accountID,
		VehicleID:    sc.vehicleID,
		FuelType:     sc.fuelType,
		Period:       sc.period,
		Unit:         sc.unit,
		Value:        params.Value,
		CurrentUsage: decimal.Zero,
		PeriodStart:  start,
		ResetDate:    reset,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	return s.refresh(ctx, l), nil
}

// Update replaces the limit's scope and value. Changing the period restarts the window.
func (s *Service) Update(ctx context.Context, accountID, id uuid.UUID, params Params) (*Limit, error) {
	l, err := s.repo.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	sc, err := s.validate(ctx, accountID, params)
	if err != nil {
		return nil, err
	}

	if sc.period != l.Period {
		l.PeriodStart, l.ResetDate = WindowFor(sc.period, s.now().In(s.loc))
	}

	l.VehicleID = sc.vehicleID
	l.FuelType = sc.fuelType
	l.Period = sc.period
	l.Unit = sc.unit
	l.Value = params.Value

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}

	return s.refresh(ctx, l), nil
}

func (s *Service) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, accountID, id)
}

// List returns the active limits as of now. When a stored window has ended, usage is
// recomputed first so purchases already in the new window are counted.
func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]*Limit, error) {
	limits, err := s.repo.List(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)

	if anyRolled(limits, now) {
		if err := s.recomputer.Recompute(ctx, accountID); err != nil {
			slog.Error("recomputing rolled limits", "account_id", accountID, "error", err)
		} else if limits, err = s.repo.List(ctx, accountID); err != nil {
			return nil, err
		}
	}

	for i, l := range limits {
		limits[i] = l.AsOf(now)
	}

	return limits, nil
}

func anyRolled(limits []*Limit, now time.Time) bool {
	for _, l := range limits {
		if _, _, rolled := l.Window(now); rolled {
			return true
		}
	}

	return false
}

// refresh recomputes usage so the returned limit carries it. A failed recompute leaves the
// stored zero usage, which the next recompute corrects.
func (s *Service) refresh(ctx context.Context, l *Limit) *Limit {
	if err := s.recomputer.Recompute(ctx, l.AccountID); err != nil {
		slog.Error("recomputing limit usage", "account_id", l.AccountID, "limit_id", l.ID, "error", err)
		return l
	}

	fresh, err := s.repo.Get(ctx, l.AccountID, l.ID)
	if err != nil {
		slog.Error("reloading limit", "limit_id", l.ID, "error", err)
		return l
	}

	return fresh
}
