package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/limit"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

const selectLimitColumns = `
	id, account_id, vehicle_id, fuel_type, limit_type, limit_unit, limit_value, current_usage,
	period_start, reset_date, is_active, created_at, updated_at
`

func scanLimit(s scanner) (*limit.Limit, error) {
	var l limit.Limit

	var fuelType *string

	var period, unit string

	if err := s.Scan(&l.ID, &l.AccountID, &l.VehicleID, &fuelType, &period, &unit, &l.Value, &l.CurrentUsage,
		&l.PeriodStart, &l.ResetDate, &l.IsActive, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}

	if fuelType != nil {
		l.FuelType = new(fuel.Type(*fuelType))
	}

	l.Period = limit.Period(period)
	l.Unit = limit.Unit(unit)

	return &l, nil
}

// Active lists the account's active limits, oldest first.
func Active(ctx context.Context, q Querier, accountID uuid.UUID) ([]*limit.Limit, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+selectLimitColumns+`
		FROM limits
		WHERE account_id = $1 AND is_active
		ORDER BY created_at ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing limits: %w", err)
	}
	defer rows.Close()

	var limits []*limit.Limit

	for rows.Next() {
		l, err := scanLimit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning limit: %w", err)
		}

		limits = append(limits, l)
	}

	return limits, rows.Err()
}

// SaveUsage stores the cached usage and window of a limit owned by l.AccountID.
func SaveUsage(ctx context.Context, q Querier, l *limit.Limit) error {
	res, err := q.ExecContext(ctx, `
		UPDATE limits
		SET current_usage = $1, period_start = $2, reset_date = $3
		WHERE id = $4 AND account_id = $5`,
		l.CurrentUsage, l.PeriodStart, l.ResetDate, l.ID, l.AccountID)
	if err != nil {
		return fmt.Errorf("saving limit usage: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return limit.ErrNotFound
	}

	return nil
}

func (s *Store) Create(ctx context.Context, l *limit.Limit) error {
	query := `
		INSERT INTO limits (account_id, vehicle_id, fuel_type, limit_type, limit_unit, limit_value,
			current_usage, period_start, reset_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		l.AccountID, l.VehicleID, l.FuelType, l.Period, l.Unit, l.Value,
		l.CurrentUsage, l.PeriodStart, l.ResetDate,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating limit: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, accountID, id uuid.UUID) (*limit.Limit, error) {
	l, err := scanLimit(s.db.QueryRowContext(ctx, `SELECT `+selectLimitColumns+`
		FROM limits WHERE account_id = $1 AND id = $2 AND is_active`, accountID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, limit.ErrNotFound
		}

		return nil, fmt.Errorf("getting limit: %w", err)
	}

	return l, nil
}

func (s *Store) List(ctx context.Context, accountID uuid.UUID) ([]*limit.Limit, error) {
	return Active(ctx, s.db, accountID)
}

// Update writes the client-editable fields. Usage is left to the recompute.
func (s *Store) Update(ctx context.Context, l *limit.Limit) error {
	query := `
		UPDATE limits
		SET vehicle_id = $1, fuel_type = $2, limit_type = $3, limit_unit = $4, limit_value = $5,
			period_start = $6, reset_date = $7, updated_at = NOW()
		WHERE account_id = $8 AND id = $9 AND is_active
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		l.VehicleID, l.FuelType, l.Period, l.Unit, l.Value, l.PeriodStart, l.ResetDate, l.AccountID, l.ID,
	).Scan(&l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return limit.ErrNotFound
		}

		return fmt.Errorf("updating limit: %w", err)
	}

	return nil
}

func (s *Store) Deactivate(ctx context.Context, accountID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE limits SET is_active = FALSE, updated_at = NOW() WHERE account_id = $1 AND id = $2 AND is_active`,
		accountID, id)
	if err != nil {
		return fmt.Errorf("deleting limit: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return limit.ErrNotFound
	}

	return nil
}
