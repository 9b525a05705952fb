package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/credit"
	creditstore "github.com/MrJamesThe3rd/fleetspend/internal/credit/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/database"
	"github.com/MrJamesThe3rd/fleetspend/internal/governance"
	"github.com/MrJamesThe3rd/fleetspend/internal/limit"
	limitstore "github.com/MrJamesThe3rd/fleetspend/internal/limit/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
	txstore "github.com/MrJamesThe3rd/fleetspend/internal/transaction/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type recomputeTx struct {
	tx        *sql.Tx
	accountID uuid.UUID
}

// Begin opens the recompute transaction and blocks until the account's lock is free.
func (s *Store) Begin(ctx context.Context, accountID uuid.UUID) (governance.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, database.Classify("beginning recompute", err)
	}

	if err := database.AdvisoryLock(ctx, dbTx, database.LockKey("governance", accountID.String())); err != nil {
		dbTx.Rollback()
		return nil, err
	}

	return &recomputeTx{tx: dbTx, accountID: accountID}, nil
}

func (r *recomputeTx) Commit() error {
	return database.Classify("committing recompute", r.tx.Commit())
}

func (r *recomputeTx) Rollback() error { return r.tx.Rollback() }

func (r *recomputeTx) Limits(ctx context.Context) ([]*limit.Limit, error) {
	return limitstore.Active(ctx, r.tx, r.accountID)
}

func (r *recomputeTx) Ledger(ctx context.Context, since time.Time) ([]*transaction.Transaction, error) {
	return txstore.Query(ctx, r.tx, transaction.ListFilter{
		AccountID:        r.accountID,
		StartDate:        &since,
		ExcludeCancelled: true,
		OldestFirst:      true,
	})
}

func (r *recomputeTx) ActiveVehicles(ctx context.Context) (map[uuid.UUID]bool, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT id FROM vehicles WHERE account_id = $1 AND is_active`, r.accountID)
	if err != nil {
		return nil, fmt.Errorf("listing active vehicles: %w", err)
	}
	defer rows.Close()

	active := make(map[uuid.UUID]bool)

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning vehicle id: %w", err)
		}

		active[id] = true
	}

	return active, rows.Err()
}

func (r *recomputeTx) SaveLimitUsage(ctx context.Context, l *limit.Limit) error {
	return database.Classify("saving limit usage", limitstore.SaveUsage(ctx, r.tx, l))
}

func (r *recomputeTx) Exposure(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	return creditstore.Exposure(ctx, r.tx, r.accountID)
}

func (r *recomputeTx) PreviousPercentage(ctx context.Context) (float64, error) {
	return creditstore.PreviousPercentage(ctx, r.tx, r.accountID)
}

func (r *recomputeTx) SaveCreditState(ctx context.Context, status credit.Status) error {
	return database.Classify("saving credit state", creditstore.SaveState(ctx, r.tx, r.accountID, status))
}

func (r *recomputeTx) InsertAlert(ctx context.Context, a *credit.Alert) error {
	return database.Classify("creating credit alert", creditstore.InsertAlert(ctx, r.tx, a))
}
