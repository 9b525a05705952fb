package database

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func New(connStr string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(max(maxConns/5, 1))
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// LockKey hashes parts into a pg_advisory_xact_lock key.
func LockKey(parts ...string) int64 {
	h := fnv.New64a()

	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}

	return int64(h.Sum64())
}

// BillingLockKey is held by invoice generation for an account. Writes that change what is
// billable take it too, so they serialize with generation.
func BillingLockKey(accountID string) int64 {
	return LockKey("invoice", accountID)
}

// AdvisoryLock takes a transaction-scoped advisory lock. It is released on commit or rollback.
func AdvisoryLock(ctx context.Context, tx *sql.Tx, key int64) error {
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
		return Classify("acquiring advisory lock", err)
	}

	return nil
}
