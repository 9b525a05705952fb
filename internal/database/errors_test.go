package database_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/database"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantConflict bool
	}{
		{name: "Serialization", err: &pgconn.PgError{Code: "40001"}, wantConflict: true},
		{name: "Deadlock", err: &pgconn.PgError{Code: "40P01"}, wantConflict: true},
		{name: "UniqueWrapped", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), wantConflict: true},
		{name: "LockTimeout", err: &pgconn.PgError{Code: "55P03"}, wantConflict: true},
		{name: "Syntax", err: &pgconn.PgError{Code: "42601"}},
		{name: "Plain", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := database.Classify("op", tt.err)
			assert.Equal(t, tt.wantConflict, apperr.IsConflict(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, database.Classify("op", nil))
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "invoices_account_period_key"}

	assert.True(t, database.IsUniqueViolation(err, ""))
	assert.True(t, database.IsUniqueViolation(err, "invoices_account_period_key"))
	assert.False(t, database.IsUniqueViolation(err, "other"))
	assert.False(t, database.IsUniqueViolation(errors.New("x"), ""))
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, database.LockKey("a", "b"), database.LockKey("a", "b"))
	assert.NotEqual(t, database.LockKey("ab"), database.LockKey("a", "b"))
}

func TestBillingLockKey(t *testing.T) {
	id := "6f1c1d0e-8a7e-4d5b-9c1a-2f3e4d5c6b7a"

	assert.Equal(t, database.LockKey("invoice", id), database.BillingLockKey(id))
	assert.NotEqual(t, database.LockKey("governance", id), database.BillingLockKey(id))
	assert.NotEqual(t, database.LockKey("import", id), database.BillingLockKey(id))
}
