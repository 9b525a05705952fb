package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/money"
	"github.com/MrJamesThe3rd/fleetspend/internal/vehicle"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, accountID, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)

	BeginCancel(ctx context.Context, accountID uuid.UUID) (CancelTx, error)
	BeginImport(ctx context.Context, accountID uuid.UUID) (ImportTx, error)
}

// CancelTx holds the account's billing lock, so a purchase cannot be billed while it is
// being cancelled.
type CancelTx interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	CancelTransaction(ctx context.Context, id uuid.UUID) error
	Commit() error
	Rollback() error
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, txs []*Transaction) ([]*Transaction, error)
	CreateTransactions(ctx context.Context, txs []*Transaction) error
	Commit() error
	Rollback() error
}

// Vehicles resolves the vehicle a purchase belongs to.
type Vehicles interface {
	Get(ctx context.Context, accountID, id uuid.UUID) (*vehicle.Vehicle, error)
	GetByPlate(ctx context.Context, accountID uuid.UUID, plate string) (*vehicle.Vehicle, error)
}

// Recomputer refreshes the account's cached limit usage and credit state.
type Recomputer interface {
	Recompute(ctx context.Context, accountID uuid.UUID) error
}

type Service struct {
	repo       Repository
	vehicles   Vehicles
	recomputer Recomputer
}

func NewService(repo Repository, vehicles Vehicles, recomputer Recomputer) *Service {
	return &Service{repo: repo, vehicles: vehicles, recomputer: recomputer}
}

// CreateParams describes an incoming purchase. VehicleID wins over LicensePlate when both are set.
type CreateParams struct {
	VehicleID     *uuid.UUID
	LicensePlate  string
	FuelType      *fuel.Type
	Liters        decimal.Decimal
	PricePerLiter decimal.Decimal
	StationID     string
	StationName   string
	Date          time.Time
	Status        Status
}

type ListFilter struct {
	AccountID        uuid.UUID
	VehicleID        *uuid.UUID
	Status           *Status
	StartDate        *time.Time
	EndDate          *time.Time
	ExcludeCancelled bool
	UnbilledOnly     bool
	OldestFirst      bool
	Limit            int
}

func validate(p CreateParams) error {
	if !p.Liters.IsPositive() {
		return apperr.Invalid("liters", "must be greater than zero")
	}

	if !p.PricePerLiter.IsPositive() {
		return apperr.Invalid("price_per_liter", "must be greater than zero")
	}

	if strings.TrimSpace(p.StationName) == "" {
		return apperr.Invalid("station_name", "is required")
	}

	if p.Date.IsZero() {
		return apperr.Invalid("transaction_date", "is required")
	}

	if p.Status == StatusCancelled {
		return apperr.Invalid("status", "a purchase cannot be recorded as cancelled")
	}

	return nil
}

func (s *Service) build(ctx context.Context, accountID uuid.UUID, p CreateParams) (*Transaction, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	var (
		v   *vehicle.Vehicle
		err error
	)

	if p.VehicleID != nil {
		v, err = s.vehicles.Get(ctx, accountID, *p.VehicleID)
	} else {
		v, err = s.vehicles.GetByPlate(ctx, accountID, p.LicensePlate)
	}

	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Invalid("vehicle", "no active vehicle matches %q", p.LicensePlate)
		}

		return nil, fmt.Errorf("resolving vehicle: %w", err)
	}

	fuelType := v.FuelType
	if p.FuelType != nil {
		fuelType = *p.FuelType
	}

	status := p.Status
	if status == "" {
		status = StatusCompleted
	}

	liters := p.Liters.Round(money.LitersPlaces)
	price := p.PricePerLiter.Round(money.PricePlaces)

	return &Transaction{
		AccountID:     accountID,
		VehicleID:     v.ID,
		LicensePlate:  v.LicensePlate,
		FuelType:      fuelType,
		Liters:        liters,
		PricePerLiter: price,
		TotalAmount:   money.Total(liters, price),
		StationID:     strings.TrimSpace(p.StationID),
		StationName:   strings.TrimSpace(p.StationName),
		Date:          p.Date,
		Status:        status,
	}, nil
}

// Create appends a purchase to the ledger and refreshes the account's governance state.
func (s *Service) Create(ctx context.Context, accountID uuid.UUID, params CreateParams) (*Transaction, error) {
	tx, err := s.build(ctx, accountID, params)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.recompute(ctx, accountID)

	return tx, nil
}

// Cancel marks a purchase cancelled. Billed purchases are frozen.
func (s *Service) Cancel(ctx context.Context, accountID, id uuid.UUID) (*Transaction, error) {
	ltx, err := s.repo.BeginCancel(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer ltx.Rollback()

	tx, err := ltx.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if tx.Status == StatusCancelled {
		return nil, apperr.Invalid("status", "transaction is already cancelled")
	}

	if tx.InvoiceID != nil {
		return nil, apperr.Invalid("status", "transaction is billed on an invoice and cannot be cancelled")
	}

	if err := ltx.CancelTransaction(ctx, id); err != nil {
		return nil, err
	}

	if err := ltx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel: %w", err)
	}

	tx.Status = StatusCancelled

	s.recompute(ctx, accountID)

	return tx, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, apperr.Invalid("end_date", "must not be before start_date")
	}

	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) Get(ctx context.Context, accountID, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, accountID, id)
}

func (s *Service) recompute(ctx context.Context, accountID uuid.UUID) {
	if err := s.recomputer.Recompute(ctx, accountID); err != nil {
		slog.Error("recomputing governance state", "account_id", accountID, "error", err)
	}
}

type ImportResult struct {
	Imported  []*Transaction
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Transaction
}

// DuplicateKey identifies a purchase for duplicate detection: same plate, station, timestamp and volume.
type DuplicateKey struct {
	Plate   string
	Station string
	Date    int64
	Liters  string
}

func KeyOf(plate, station string, date time.Time, liters decimal.Decimal) DuplicateKey {
	return DuplicateKey{
		Plate:   strings.ToUpper(plate),
		Station: strings.ToUpper(strings.TrimSpace(station)),
		Date:    date.Unix(),
		Liters:  liters.StringFixed(money.LitersPlaces),
	}
}

// ImportBatch stores a station feed. When any row duplicates an existing purchase nothing is
// written and the conflicts are returned for confirmation.
func (s *Service) ImportBatch(ctx context.Context, accountID uuid.UUID, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	txs, err := s.buildAll(ctx, accountID, params)
	if err != nil {
		return nil, err
	}

	itx, err := s.repo.BeginImport(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[DuplicateKey]*Transaction, len(duplicates))
	for _, d := range duplicates {
		lookup[KeyOf(d.LicensePlate, d.StationName, d.Date, d.Liters)] = d
	}

	var (
		newParams []CreateParams
		newTxs    []*Transaction
		conflicts []Conflict
	)

	for i, p := range params {
		existing, found := lookup[KeyOf(txs[i].LicensePlate, txs[i].StationName, txs[i].Date, txs[i].Liters)]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
		newTxs = append(newTxs, txs[i])
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	if err := itx.CreateTransactions(ctx, newTxs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	s.recompute(ctx, accountID)

	return &ImportResult{Imported: newTxs}, nil
}

// CreateBatch stores already confirmed rows without duplicate detection.
func (s *Service) CreateBatch(ctx context.Context, accountID uuid.UUID, params []CreateParams) ([]*Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	txs, err := s.buildAll(ctx, accountID, params)
	if err != nil {
		return nil, err
	}

	itx, err := s.repo.BeginImport(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	if err := itx.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	s.recompute(ctx, accountID)

	return txs, nil
}

func (s *Service) buildAll(ctx context.Context, accountID uuid.UUID, params []CreateParams) ([]*Transaction, error) {
	txs := make([]*Transaction, len(params))

	for i, p := range params {
		tx, err := s.build(ctx, accountID, p)
		if err != nil {
			var verr *apperr.ValidationError
			if errors.As(err, &verr) {
				return nil, apperr.Invalid(verr.Field, "row %d: %s", i+1, verr.Message)
			}

			return nil, err
		}

		txs[i] = tx
	}

	return txs, nil
}
