package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/database"
	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/vehicle"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectVehicleColumns = `id, account_id, license_plate, model, year, fuel_type, driver_name, is_active, created_at, updated_at`

func scanVehicle(s scanner) (*vehicle.Vehicle, error) {
	var v vehicle.Vehicle

	var fuelType string

	if err := s.Scan(&v.ID, &v.AccountID, &v.LicensePlate, &v.Model, &v.Year, &fuelType,
		&v.DriverName, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}

	v.FuelType = fuel.Type(fuelType)

	return &v, nil
}

func (s *Store) Create(ctx context.Context, v *vehicle.Vehicle) error {
	query := `
		INSERT INTO vehicles (account_id, license_plate, model, year, fuel_type, driver_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		v.AccountID, v.LicensePlate, v.Model, v.Year, v.FuelType, v.DriverName,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "vehicles_active_plate_key") {
			return apperr.Invalid("license_plate", "a vehicle with plate %s already exists", v.LicensePlate)
		}

		return fmt.Errorf("creating vehicle: %w", err)
	}

	return nil
}

func (s *Store) get(ctx context.Context, where string, args ...any) (*vehicle.Vehicle, error) {
	query := `SELECT ` + selectVehicleColumns + ` FROM vehicles WHERE is_active AND ` + where

	v, err := scanVehicle(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vehicle.ErrNotFound
		}

		return nil, fmt.Errorf("getting vehicle: %w", err)
	}

	return v, nil
}

func (s *Store) Get(ctx context.Context, accountID, id uuid.UUID) (*vehicle.Vehicle, error) {
	return s.get(ctx, `account_id = $1 AND id = $2`, accountID, id)
}

func (s *Store) GetByPlate(ctx context.Context, accountID uuid.UUID, plate string) (*vehicle.Vehicle, error) {
	return s.get(ctx, `account_id = $1 AND license_plate = $2`, accountID, plate)
}

func (s *Store) List(ctx context.Context, accountID uuid.UUID) ([]*vehicle.Vehicle, error) {
	query := `SELECT ` + selectVehicleColumns + `
		FROM vehicles
		WHERE account_id = $1 AND is_active
		ORDER BY license_plate`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*vehicle.Vehicle

	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning vehicle: %w", err)
		}

		vehicles = append(vehicles, v)
	}

	return vehicles, rows.Err()
}

func (s *Store) Update(ctx context.Context, v *vehicle.Vehicle) error {
	query := `
		UPDATE vehicles
		SET model = $1, year = $2, fuel_type = $3, driver_name = $4, updated_at = NOW()
		WHERE account_id = $5 AND id = $6 AND is_active
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		v.Model, v.Year, v.FuelType, v.DriverName, v.AccountID, v.ID,
	).Scan(&v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vehicle.ErrNotFound
		}

		return fmt.Errorf("updating vehicle: %w", err)
	}

	return nil
}

func (s *Store) Deactivate(ctx context.Context, accountID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE vehicles SET is_active = FALSE, updated_at = NOW() WHERE account_id = $1 AND id = $2 AND is_active`,
		accountID, id)
	if err != nil {
		return fmt.Errorf("deactivating vehicle: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return vehicle.ErrNotFound
	}

	return nil
}
