// Package retry runs storage operations that may hit transient conflicts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
)

// ErrExhausted is returned once every attempt has failed with a retryable error.
var ErrExhausted = errors.New("transient failure: retries exhausted")

// Options controls the backoff. Zero values fall back to the defaults.
type Options struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}

	if o.InitialDelay <= 0 {
		o.InitialDelay = 20 * time.Millisecond
	}

	if o.MaxDelay <= 0 {
		o.MaxDelay = time.Second
	}

	if o.Multiplier <= 0 {
		o.Multiplier = 2.0
	}

	return o
}

// Do runs op until it succeeds or fails with a non-retryable error.
//
// Conflicts are retried up to MaxAttempts. Integrity errors are retried once,
// then returned as they are. Validation and not-found errors are returned
// verbatim on the first attempt.
func Do(ctx context.Context, name string, opts Options, op func(ctx context.Context) error) error {
	opts = opts.withDefaults()
	delay := opts.InitialDelay
	integrityRetried := false

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		switch {
		case apperr.IsIntegrity(err):
			if integrityRetried {
				return err
			}

			integrityRetried = true
		case apperr.IsConflict(err):
			if attempt >= opts.MaxAttempts {
				return fmt.Errorf("%s: %w after %d attempts: %w", name, ErrExhausted, attempt, err)
			}
		default:
			return err
		}

		slog.Warn("operation failed, retrying",
			"operation", name,
			"attempt", attempt,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay = min(time.Duration(float64(delay)*opts.Multiplier), opts.MaxDelay)
		}
	}
}
