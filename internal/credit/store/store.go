package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/account"
	"github.com/MrJamesThe3rd/fleetspend/internal/credit"
	"github.com/MrJamesThe3rd/fleetspend/internal/invoice"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
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

// exposureQuery sums what the account owes: open invoices (overdue included) plus every
// non-cancelled purchase that is not billed yet.
const exposureQuery = `
	SELECT a.credit_limit,
		COALESCE((SELECT SUM(i.total_amount) FROM invoices i
			WHERE i.account_id = a.id AND i.status = $2), 0)
		+ COALESCE((SELECT SUM(t.total_amount) FROM fuel_transactions t
			WHERE t.account_id = a.id AND t.status <> $3
			AND NOT EXISTS (SELECT 1 FROM invoice_transactions it WHERE it.transaction_id = t.id)), 0)
	FROM accounts a
	WHERE a.id = $1
`

// Exposure returns the account's credit limit and current usage.
func Exposure(ctx context.Context, q Querier, accountID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var creditLimit, usage decimal.Decimal

	err := q.QueryRowContext(ctx, exposureQuery, accountID, invoice.StatusOpen, transaction.StatusCancelled).
		Scan(&creditLimit, &usage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, decimal.Zero, account.ErrNotFound
		}

		return decimal.Zero, decimal.Zero, fmt.Errorf("computing credit exposure: %w", err)
	}

	return creditLimit, usage, nil
}

// PreviousPercentage returns the last stored utilization, 0 for an account never evaluated.
func PreviousPercentage(ctx context.Context, q Querier, accountID uuid.UUID) (float64, error) {
	var pct float64

	err := q.QueryRowContext(ctx, `SELECT usage_percentage FROM credit_states WHERE account_id = $1`, accountID).Scan(&pct)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("reading credit state: %w", err)
	}

	return pct, nil
}

// SaveState stores the utilization the next evaluation compares against.
func SaveState(ctx context.Context, q Querier, accountID uuid.UUID, status credit.Status) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO credit_states (account_id, current_usage, usage_percentage, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (account_id) DO UPDATE
		SET current_usage = EXCLUDED.current_usage,
			usage_percentage = EXCLUDED.usage_percentage,
			updated_at = EXCLUDED.updated_at`,
		accountID, status.CurrentUsage, status.UsagePercentage)
	if err != nil {
		return fmt.Errorf("saving credit state: %w", err)
	}

	return nil
}

func InsertAlert(ctx context.Context, q Querier, a *credit.Alert) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO credit_alerts (account_id, threshold, credit_limit, current_usage, usage_percentage)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		a.AccountID, a.Threshold, a.CreditLimit, a.CurrentUsage, a.UsagePercentage,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating credit alert: %w", err)
	}

	return nil
}

const selectAlertColumns = `
	id, account_id, threshold, credit_limit, current_usage, usage_percentage, dismissed, dismissed_at, created_at
`

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(s scanner) (*credit.Alert, error) {
	var a credit.Alert

	if err := s.Scan(&a.ID, &a.AccountID, &a.Threshold, &a.CreditLimit, &a.CurrentUsage,
		&a.UsagePercentage, &a.Dismissed, &a.DismissedAt, &a.CreatedAt); err != nil {
		return nil, err
	}

	return &a, nil
}

func (s *Store) Exposure(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	return Exposure(ctx, s.db, accountID)
}

func (s *Store) ListAlerts(ctx context.Context, accountID uuid.UUID, includeDismissed bool) ([]*credit.Alert, error) {
	query := `SELECT ` + selectAlertColumns + ` FROM credit_alerts WHERE account_id = $1`
	if !includeDismissed {
		query += ` AND NOT dismissed`
	}

	query += ` ORDER BY created_at DESC, threshold DESC`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing credit alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*credit.Alert

	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning credit alert: %w", err)
		}

		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// DismissAlert is idempotent: the first dismissal time is kept.
func (s *Store) DismissAlert(ctx context.Context, accountID, id uuid.UUID) (*credit.Alert, error) {
	query := `
		UPDATE credit_alerts
		SET dismissed = TRUE, dismissed_at = COALESCE(dismissed_at, NOW())
		WHERE account_id = $1 AND id = $2
		RETURNING ` + selectAlertColumns

	a, err := scanAlert(s.db.QueryRowContext(ctx, query, accountID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credit.ErrAlertNotFound
		}

		return nil, fmt.Errorf("dismissing credit alert: %w", err)
	}

	return a, nil
}
