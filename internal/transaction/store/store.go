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
}

// Scanner is satisfied by both *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// SelectColumns and FromLedger select ledger rows with their invoice link.
const (
	SelectColumns = `
	t.id, t.account_id, t.vehicle_id, t.license_plate, t.fuel_type, t.liters, t.price_per_liter,
	t.total_amount, t.station_id, t.station_name, t.transaction_date, t.status, it.invoice_id, t.created_at
`
	FromLedger = `
	FROM fuel_transactions t
	LEFT JOIN invoice_transactions it ON it.transaction_id = t.id
`
)

// Scan reads a row selected with SelectColumns.
func Scan(s Scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var fuelType, status string

	if err := s.Scan(
		&tx.ID, &tx.AccountID, &tx.VehicleID, &tx.LicensePlate, &fuelType, &tx.Liters, &tx.PricePerLiter,
		&tx.TotalAmount, &tx.StationID, &tx.StationName, &tx.Date, &status, &tx.InvoiceID, &tx.CreatedAt,
	); err != nil {
		return nil, err
	}

	tx.FuelType = fuel.Type(fuelType)
	tx.Status = transaction.Status(status)

	return &tx, nil
}

// Query is the single ledger read path shared by listing, governance, billing and stats.
func Query(ctx context.Context, q Querier, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + SelectColumns + FromLedger + ` WHERE t.account_id = $1`
	args := []any{filter.AccountID}
	argIdx := 2

	if filter.VehicleID != nil {
		query += fmt.Sprintf(" AND t.vehicle_id = $%d", argIdx)

		args = append(args, *filter.VehicleID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND t.transaction_date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND t.transaction_date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.ExcludeCancelled {
		query += fmt.Sprintf(" AND t.status <> '%s'", transaction.StatusCancelled)
	}

	if filter.UnbilledOnly {
		query += " AND it.invoice_id IS NULL"
	}

	if filter.OldestFirst {
		query += " ORDER BY t.transaction_date ASC, t.created_at ASC"
	} else {
		query += " ORDER BY t.transaction_date DESC, t.created_at DESC"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

const insertTransaction = `
	INSERT INTO fuel_transactions (account_id, vehicle_id, license_plate, fuel_type, liters, price_per_liter,
		total_amount, station_id, station_name, transaction_date, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id, created_at
`

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insert(ctx context.Context, e execer, tx *transaction.Transaction) error {
	err := e.QueryRowContext(ctx, insertTransaction,
		tx.AccountID, tx.VehicleID, tx.LicensePlate, tx.FuelType, tx.Liters, tx.PricePerLiter,
		tx.TotalAmount, tx.StationID, tx.StationName, tx.Date, tx.Status,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	return insert(ctx, s.db, tx)
}

func (s *Store) GetTransaction(ctx context.Context, accountID, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + SelectColumns + FromLedger + ` WHERE t.account_id = $1 AND t.id = $2`

	tx, err := Scan(s.db.QueryRowContext(ctx, query, accountID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	return Query(ctx, s.db, filter)
}

type cancelTx struct {
	tx        *sql.Tx
	accountID uuid.UUID
}

// BeginCancel takes the account's billing lock, the one invoice generation holds, so a purchase
// is either billed before the cancel reads it or never seen as billable again.
func (s *Store) BeginCancel(ctx context.Context, accountID uuid.UUID) (transaction.CancelTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, database.Classify("beginning cancel tx", err)
	}

	if err := database.AdvisoryLock(ctx, dbTx, database.BillingLockKey(accountID.String())); err != nil {
		dbTx.Rollback()
		return nil, err
	}

	return &cancelTx{tx: dbTx, accountID: accountID}, nil
}

func (c *cancelTx) Commit() error {
	return database.Classify("committing cancel", c.tx.Commit())
}

func (c *cancelTx) Rollback() error { return c.tx.Rollback() }

func (c *cancelTx) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + SelectColumns + FromLedger + ` WHERE t.account_id = $1 AND t.id = $2 FOR UPDATE OF t`

	tx, err := Scan(c.tx.QueryRowContext(ctx, query, c.accountID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

// CancelTransaction refuses rows that are already cancelled or billed.
func (c *cancelTx) CancelTransaction(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE fuel_transactions t
		SET status = $1
		WHERE t.account_id = $2 AND t.id = $3 AND t.status <> $1
		  AND NOT EXISTS (SELECT 1 FROM invoice_transactions it WHERE it.transaction_id = t.id)
	`

	res, err := c.tx.ExecContext(ctx, query, transaction.StatusCancelled, c.accountID, id)
	if err != nil {
		return database.Classify("cancelling transaction", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Conflict("cancelling transaction", nil)
	}

	return nil
}

type importTx struct {
	tx        *sql.Tx
	accountID uuid.UUID
}

// BeginImport serializes imports per account so concurrent feeds cannot both miss a duplicate.
func (s *Store) BeginImport(ctx context.Context, accountID uuid.UUID) (transaction.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	if err := database.AdvisoryLock(ctx, dbTx, database.LockKey("import", accountID.String())); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx, accountID: accountID}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) FindDuplicates(ctx context.Context, incoming []*transaction.Transaction) ([]*transaction.Transaction, error) {
	if len(incoming) == 0 {
		return nil, nil
	}

	minDate := incoming[0].Date
	maxDate := incoming[0].Date

	for _, p := range incoming[1:] {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}

		if p.Date.After(maxDate) {
			maxDate = p.Date
		}
	}

	existing, err := Query(ctx, itx.tx, transaction.ListFilter{
		AccountID:        itx.accountID,
		StartDate:        &minDate,
		EndDate:          &maxDate,
		ExcludeCancelled: true,
		OldestFirst:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}

	keySet := make(map[transaction.DuplicateKey]struct{}, len(incoming))
	for _, p := range incoming {
		keySet[transaction.KeyOf(p.LicensePlate, p.StationName, p.Date, p.Liters)] = struct{}{}
	}

	var duplicates []*transaction.Transaction

	for _, tx := range existing {
		if _, found := keySet[transaction.KeyOf(tx.LicensePlate, tx.StationName, tx.Date, tx.Liters)]; found {
			duplicates = append(duplicates, tx)
		}
	}

	return duplicates, nil
}

func (itx *importTx) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	for _, tx := range txs {
		if err := insert(ctx, itx.tx, tx); err != nil {
			return err
		}
	}

	return nil
}
