package store_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/limit"
	"github.com/MrJamesThe3rd/fleetspend/internal/limit/store"
)

// execRecorder answers ExecContext with a fixed row count and remembers the statement.
type execRecorder struct {
	store.Querier

	query    string
	args     []any
	affected int64
}

func (e *execRecorder) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	e.query, e.args = query, args
	return driver.RowsAffected(e.affected), nil
}

func TestSaveUsage(t *testing.T) {
	l := &limit.Limit{
		ID:           uuid.New(),
		AccountID:    uuid.New(),
		CurrentUsage: decimal.NewFromInt(60),
		PeriodStart:  time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		ResetDate:    time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
	}

	t.Run("ScopedToAccount", func(t *testing.T) {
		q := &execRecorder{affected: 1}

		require.NoError(t, store.SaveUsage(context.Background(), q, l))
		assert.Contains(t, q.query, "account_id = $5")
		require.Len(t, q.args, 5)
		assert.Equal(t, l.ID, q.args[3])
		assert.Equal(t, l.AccountID, q.args[4])
	})

	t.Run("OtherAccountsLimit", func(t *testing.T) {
		q := &execRecorder{affected: 0}

		err := store.SaveUsage(context.Background(), q, l)
		assert.True(t, apperr.IsNotFound(err))
	})
}
