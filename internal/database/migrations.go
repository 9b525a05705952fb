package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration is one forward-only schema step.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func exec(queries ...string) func(*sql.Tx) error {
	return func(tx *sql.Tx) error {
		for _, q := range queries {
			if _, err := tx.Exec(q); err != nil {
				return err
			}
		}

		return nil
	}
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Accounts and vehicles",
		Up: exec(
			`CREATE TABLE IF NOT EXISTS accounts (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				cnpj TEXT NOT NULL UNIQUE,
				company_name TEXT NOT NULL,
				email TEXT NOT NULL,
				phone TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL,
				credit_limit NUMERIC(14,2) NOT NULL CHECK (credit_limit > 0),
				invoice_seq INTEGER NOT NULL DEFAULT 0,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS vehicles (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				account_id UUID NOT NULL REFERENCES accounts(id),
				license_plate TEXT NOT NULL,
				model TEXT NOT NULL,
				year INTEGER NOT NULL,
				fuel_type TEXT NOT NULL,
				driver_name TEXT,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS vehicles_active_plate_key
				ON vehicles(account_id, license_plate) WHERE is_active`,
		),
	},
	{
		Version:     2,
		Description: "Fuel transaction ledger and invoices",
		Up: exec(
			`CREATE TABLE IF NOT EXISTS fuel_transactions (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				account_id UUID NOT NULL REFERENCES accounts(id),
				vehicle_id UUID NOT NULL REFERENCES vehicles(id),
				license_plate TEXT NOT NULL,
				fuel_type TEXT NOT NULL,
				liters NUMERIC(12,3) NOT NULL CHECK (liters > 0),
				price_per_liter NUMERIC(10,4) NOT NULL CHECK (price_per_liter > 0),
				total_amount NUMERIC(14,2) NOT NULL,
				station_id TEXT NOT NULL DEFAULT '',
				station_name TEXT NOT NULL,
				transaction_date TIMESTAMPTZ NOT NULL,
				status TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS fuel_transactions_account_date_idx
				ON fuel_transactions(account_id, transaction_date)`,
			`CREATE TABLE IF NOT EXISTS invoices (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				account_id UUID NOT NULL REFERENCES accounts(id),
				invoice_number TEXT NOT NULL,
				period_start TIMESTAMPTZ NOT NULL,
				period_end TIMESTAMPTZ NOT NULL,
				total_amount NUMERIC(14,2) NOT NULL,
				total_liters NUMERIC(14,3) NOT NULL,
				due_date TIMESTAMPTZ NOT NULL,
				status TEXT NOT NULL,
				paid_at TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CONSTRAINT invoices_account_number_key UNIQUE (account_id, invoice_number),
				CONSTRAINT invoices_account_period_key UNIQUE (account_id, period_start, period_end)
			)`,
			`CREATE TABLE IF NOT EXISTS invoice_transactions (
				invoice_id UUID NOT NULL REFERENCES invoices(id),
				transaction_id UUID NOT NULL REFERENCES fuel_transactions(id),
				position INTEGER NOT NULL,
				PRIMARY KEY (invoice_id, transaction_id),
				CONSTRAINT invoice_transactions_transaction_key UNIQUE (transaction_id)
			)`,
		),
	},
	{
		Version:     3,
		Description: "Limits, credit state and alerts",
		Up: exec(
			`CREATE TABLE IF NOT EXISTS limits (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				account_id UUID NOT NULL REFERENCES accounts(id),
				vehicle_id UUID,
				fuel_type TEXT,
				limit_type TEXT NOT NULL,
				limit_unit TEXT NOT NULL,
				limit_value NUMERIC(14,3) NOT NULL CHECK (limit_value > 0),
				current_usage NUMERIC(14,3) NOT NULL DEFAULT 0,
				period_start TIMESTAMPTZ NOT NULL,
				reset_date TIMESTAMPTZ NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ
			)`,
			`CREATE INDEX IF NOT EXISTS limits_account_idx ON limits(account_id) WHERE is_active`,
			`CREATE TABLE IF NOT EXISTS credit_states (
				account_id UUID PRIMARY KEY REFERENCES accounts(id),
				current_usage NUMERIC(14,2) NOT NULL,
				usage_percentage DOUBLE PRECISION NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS credit_alerts (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				account_id UUID NOT NULL REFERENCES accounts(id),
				threshold INTEGER NOT NULL,
				credit_limit NUMERIC(14,2) NOT NULL,
				current_usage NUMERIC(14,2) NOT NULL,
				usage_percentage DOUBLE PRECISION NOT NULL,
				dismissed BOOLEAN NOT NULL DEFAULT FALSE,
				dismissed_at TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS credit_alerts_account_idx ON credit_alerts(account_id, created_at DESC)`,
		),
	},
	{
		Version:     4,
		Description: "Station name aliases",
		Up: exec(
			`CREATE TABLE IF NOT EXISTS station_aliases (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				account_id UUID NOT NULL REFERENCES accounts(id),
				raw_pattern TEXT NOT NULL,
				preferred_name TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
		),
	},
	{
		Version:     5,
		Description: "One station alias per account and pattern",
		Up: exec(
			`DELETE FROM station_aliases a
			USING station_aliases b
			WHERE a.account_id = b.account_id
			  AND LOWER(a.raw_pattern) = LOWER(b.raw_pattern)
			  AND (a.created_at, a.id) < (b.created_at, b.id)`,
			`ALTER TABLE station_aliases ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ`,
			`CREATE UNIQUE INDEX IF NOT EXISTS station_aliases_account_pattern_key
				ON station_aliases(account_id, LOWER(raw_pattern))`,
		),
	},
}

// Migrate applies every migration newer than the recorded schema version.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		slog.Info("applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}

func apply(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.Up(tx); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
		m.Version, m.Description,
	); err != nil {
		return err
	}

	return tx.Commit()
}
