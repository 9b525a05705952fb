package invoice

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
)

type AccountLister interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Scheduler bills the previous calendar month for every active account. Generation is
// idempotent, so every tick after the first one in a month is a no-op.
type Scheduler struct {
	accounts AccountLister
	invoices *Service
	interval time.Duration
	loc      *time.Location
	now      func() time.Time
}

func NewScheduler(accounts AccountLister, invoices *Service, interval time.Duration, loc *time.Location) *Scheduler {
	return &Scheduler{accounts: accounts, invoices: invoices, interval: interval, loc: loc, now: time.Now}
}

// Run bills once immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce returns the number of invoices billed, existing ones included.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	period := PreviousMonth(s.now().In(s.loc))

	ids, err := s.accounts.ListActiveIDs(ctx)
	if err != nil {
		slog.Error("listing accounts for billing", "error", err)
		return 0
	}

	billed := 0

	for _, id := range ids {
		if ctx.Err() != nil {
			return billed
		}

		_, err := s.invoices.Generate(ctx, id, period)

		switch {
		case err == nil:
			billed++
		case apperr.IsValidation(err):
			slog.Debug("nothing to bill", "account_id", id, "period_start", period.Start)
		default:
			slog.Error("generating invoice", "account_id", id, "period_start", period.Start, "error", err)
		}
	}

	return billed
}
