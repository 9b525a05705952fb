package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/retry"
)

var fast = retry.Options{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

func TestDo(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		check     func(t *testing.T, err error)
	}{
		{
			name:      "SucceedsFirstTime",
			errs:      []error{nil},
			wantCalls: 1,
			check:     func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:      "ConflictThenSuccess",
			errs:      []error{apperr.Conflict("op", nil), nil},
			wantCalls: 2,
			check:     func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:      "ConflictExhausted",
			errs:      []error{apperr.Conflict("op", nil), apperr.Conflict("op", nil), apperr.Conflict("op", nil)},
			wantCalls: 3,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, retry.ErrExhausted)
				assert.True(t, apperr.IsConflict(err))
			},
		},
		{
			name:      "IntegrityRetriedOnce",
			errs:      []error{apperr.Integrity("a"), apperr.Integrity("b")},
			wantCalls: 2,
			check: func(t *testing.T, err error) {
				assert.True(t, apperr.IsIntegrity(err))
				assert.NotErrorIs(t, err, retry.ErrExhausted)
			},
		},
		{
			name:      "ValidationNotRetried",
			errs:      []error{apperr.Invalid("f", "bad")},
			wantCalls: 1,
			check:     func(t *testing.T, err error) { assert.True(t, apperr.IsValidation(err)) },
		},
		{
			name:      "PlainErrorNotRetried",
			errs:      []error{errors.New("boom")},
			wantCalls: 1,
			check:     func(t *testing.T, err error) { assert.EqualError(t, err, "boom") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retry.Do(context.Background(), "test", fast, func(context.Context) error {
				err := tt.errs[calls]
				calls++

				return err
			})

			assert.Equal(t, tt.wantCalls, calls)
			tt.check(t, err)
		})
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	err := retry.Do(ctx, "test", retry.Options{InitialDelay: time.Hour}, func(context.Context) error {
		cancel()
		return apperr.Conflict("op", nil)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
