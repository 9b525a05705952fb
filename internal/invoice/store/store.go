package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/database"
	"github.com/MrJamesThe3rd/fleetspend/internal/invoice"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
	txstore "github.com/MrJamesThe3rd/fleetspend/internal/transaction/store"
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

const selectInvoiceColumns = `
	i.id, i.account_id, i.invoice_number, i.period_start, i.period_end, i.total_amount, i.total_liters,
	i.due_date, i.status, i.paid_at, i.created_at,
	COALESCE(array_to_string(ARRAY(
		SELECT it.transaction_id FROM invoice_transactions it WHERE it.invoice_id = i.id ORDER BY it.position
	), ','), '')
`

func scanInvoice(s scanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice

	var status, ids string

	if err := s.Scan(&inv.ID, &inv.AccountID, &inv.Number, &inv.PeriodStart, &inv.PeriodEnd,
		&inv.TotalAmount, &inv.TotalLiters, &inv.DueDate, &status, &inv.PaidAt, &inv.CreatedAt, &ids); err != nil {
		return nil, err
	}

	inv.Status = invoice.Status(status)

	if ids != "" {
		for _, raw := range strings.Split(ids, ",") {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("parsing pinned transaction id: %w", err)
			}

			inv.TransactionIDs = append(inv.TransactionIDs, id)
		}
	}

	return &inv, nil
}

func (s *Store) list(ctx context.Context, where string, args ...any) ([]*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + ` FROM invoices i WHERE ` + where + ` ORDER BY i.period_start DESC, i.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}

		invoices = append(invoices, inv)
	}

	return invoices, rows.Err()
}

func (s *Store) Get(ctx context.Context, accountID, id uuid.UUID) (*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + ` FROM invoices i WHERE i.account_id = $1 AND i.id = $2`

	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, accountID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}

		return nil, fmt.Errorf("getting invoice: %w", err)
	}

	return inv, nil
}

func (s *Store) List(ctx context.Context, accountID uuid.UUID) ([]*invoice.Invoice, error) {
	return s.list(ctx, `i.account_id = $1`, accountID)
}

func (s *Store) ListUnpaid(ctx context.Context, accountID uuid.UUID) ([]*invoice.Invoice, error) {
	return s.list(ctx, `i.account_id = $1 AND i.status = $2`, accountID, invoice.StatusOpen)
}

// Transactions returns the pinned purchases in billing order.
func (s *Store) Transactions(ctx context.Context, invoiceID uuid.UUID) ([]*transaction.Transaction, error) {
	query := `SELECT ` + txstore.SelectColumns + txstore.FromLedger + `
		WHERE it.invoice_id = $1
		ORDER BY it.position`

	rows, err := s.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("listing invoice transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := txstore.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

func (s *Store) MarkPaid(ctx context.Context, accountID, id uuid.UUID, paidAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET status = $1, paid_at = $2 WHERE account_id = $3 AND id = $4 AND status = $5`,
		invoice.StatusPaid, paidAt, accountID, id, invoice.StatusOpen)
	if err != nil {
		return database.Classify("marking invoice paid", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Conflict("marking invoice paid", invoice.ErrAlreadyPaid)
	}

	return nil
}

type generationTx struct {
	tx        *sql.Tx
	accountID uuid.UUID
	period    invoice.BillingPeriod
}

// BeginGeneration takes the account's billing lock. The unique period and transaction
// constraints back it up, so a race can only surface as a retryable conflict.
func (s *Store) BeginGeneration(ctx context.Context, accountID uuid.UUID, period invoice.BillingPeriod) (invoice.GenerationTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, database.Classify("beginning invoice generation", err)
	}

	if err := database.AdvisoryLock(ctx, dbTx, database.BillingLockKey(accountID.String())); err != nil {
		dbTx.Rollback()
		return nil, err
	}

	return &generationTx{tx: dbTx, accountID: accountID, period: period}, nil
}

func (g *generationTx) Commit() error {
	return database.Classify("committing invoice", g.tx.Commit())
}

func (g *generationTx) Rollback() error { return g.tx.Rollback() }

func (g *generationTx) FindByPeriod(ctx context.Context) (*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + `
		FROM invoices i
		WHERE i.account_id = $1 AND i.period_start = $2 AND i.period_end = $3`

	inv, err := scanInvoice(g.tx.QueryRowContext(ctx, query, g.accountID, g.period.Start, g.period.End))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("finding invoice for period: %w", err)
	}

	return inv, nil
}

func (g *generationTx) ListBillable(ctx context.Context) ([]*transaction.Transaction, error) {
	end := g.period.End.Add(-time.Nanosecond)

	return txstore.Query(ctx, g.tx, transaction.ListFilter{
		AccountID:        g.accountID,
		StartDate:        &g.period.Start,
		EndDate:          &end,
		ExcludeCancelled: true,
		UnbilledOnly:     true,
		OldestFirst:      true,
	})
}

func (g *generationTx) NextSequence(ctx context.Context) (int, error) {
	var seq int

	err := g.tx.QueryRowContext(ctx,
		`UPDATE accounts SET invoice_seq = invoice_seq + 1 WHERE id = $1 RETURNING invoice_seq`,
		g.accountID).Scan(&seq)
	if err != nil {
		return 0, database.Classify("allocating invoice number", err)
	}

	return seq, nil
}

func (g *generationTx) Create(ctx context.Context, inv *invoice.Invoice) error {
	err := g.tx.QueryRowContext(ctx, `
		INSERT INTO invoices (account_id, invoice_number, period_start, period_end, total_amount, total_liters, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		inv.AccountID, inv.Number, inv.PeriodStart, inv.PeriodEnd, inv.TotalAmount, inv.TotalLiters, inv.DueDate, inv.Status,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return database.Classify("creating invoice", err)
	}

	for pos, txID := range inv.TransactionIDs {
		if _, err := g.tx.ExecContext(ctx,
			`INSERT INTO invoice_transactions (invoice_id, transaction_id, position) VALUES ($1, $2, $3)`,
			inv.ID, txID, pos+1); err != nil {
			return database.Classify("attaching transaction to invoice", err)
		}
	}

	return nil
}
