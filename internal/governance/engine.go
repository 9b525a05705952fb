// Package governance is the write path that keeps an account's cached limit usage, credit
// state and credit alerts in step with the ledger.
//
// Every recompute runs in one database transaction holding the account's advisory lock, so
// recomputes for one account are serialized while different accounts proceed in parallel,
// and limit usage, credit state and new alerts commit together or not at all.
package governance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/credit"
	"github.com/MrJamesThe3rd/fleetspend/internal/limit"
	"github.com/MrJamesThe3rd/fleetspend/internal/retry"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

//go:generate mockgen -source=engine.go -destination=repository_mock.go -package=governance
type Repository interface {
	Begin(ctx context.Context, accountID uuid.UUID) (Tx, error)
}

// Tx is one serialized recompute for a single account.
type Tx interface {
	Limits(ctx context.Context) ([]*limit.Limit, error)
	Ledger(ctx context.Context, since time.Time) ([]*transaction.Transaction, error)
	ActiveVehicles(ctx context.Context) (map[uuid.UUID]bool, error)
	SaveLimitUsage(ctx context.Context, l *limit.Limit) error
	Exposure(ctx context.Context) (decimal.Decimal, decimal.Decimal, error)
	PreviousPercentage(ctx context.Context) (float64, error)
	SaveCreditState(ctx context.Context, status credit.Status) error
	InsertAlert(ctx context.Context, a *credit.Alert) error
	Commit() error
	Rollback() error
}

// Result is what one recompute stored.
type Result struct {
	Limits []*limit.Limit
	Credit credit.Status
	Alerts []*credit.Alert
}

type Engine struct {
	repo  Repository
	loc   *time.Location
	retry retry.Options
	now   func() time.Time
}

func NewEngine(repo Repository, loc *time.Location, opts retry.Options) *Engine {
	return &Engine{repo: repo, loc: loc, retry: opts, now: time.Now}
}

// Recompute satisfies the services that only need the side effect.
func (e *Engine) Recompute(ctx context.Context, accountID uuid.UUID) error {
	_, err := e.RecomputeCreditStatus(ctx, accountID)
	return err
}

// RecomputeCreditStatus re-evaluates every active limit and the credit status, raising an alert
// for each threshold crossed since the stored utilization. Conflicts are retried.
func (e *Engine) RecomputeCreditStatus(ctx context.Context, accountID uuid.UUID) (*Result, error) {
	var res *Result

	err := retry.Do(ctx, "recompute governance", e.retry, func(ctx context.Context) error {
		var err error

		res, err = e.recompute(ctx, accountID)

		return err
	})
	if err != nil {
		return nil, err
	}

	for _, a := range res.Alerts {
		slog.Info("credit threshold crossed",
			"account_id", accountID,
			"threshold", a.Threshold,
			"usage_percentage", a.UsagePercentage)
	}

	return res, nil
}

func (e *Engine) recompute(ctx context.Context, accountID uuid.UUID) (*Result, error) {
	now := e.now().In(e.loc)

	tx, err := e.repo.Begin(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	limits, err := e.evaluateLimits(ctx, tx, now)
	if err != nil {
		return nil, err
	}

	creditLimit, usage, err := tx.Exposure(ctx)
	if err != nil {
		return nil, err
	}

	status := credit.NewStatus(creditLimit, usage)

	prev, err := tx.PreviousPercentage(ctx)
	if err != nil {
		return nil, err
	}

	alerts := credit.CheckAndRaise(accountID, prev, status)
	for _, a := range alerts {
		if err := tx.InsertAlert(ctx, a); err != nil {
			return nil, err
		}
	}

	if err := tx.SaveCreditState(ctx, status); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing recompute: %w", err)
	}

	return &Result{Limits: limits, Credit: status, Alerts: alerts}, nil
}

func (e *Engine) evaluateLimits(ctx context.Context, tx Tx, now time.Time) ([]*limit.Limit, error) {
	limits, err := tx.Limits(ctx)
	if err != nil {
		return nil, err
	}

	if len(limits) == 0 {
		return nil, nil
	}

	since, _, _ := limits[0].Window(now)
	for _, l := range limits[1:] {
		if start, _, _ := l.Window(now); start.Before(since) {
			since = start
		}
	}

	ledger, err := tx.Ledger(ctx, since)
	if err != nil {
		return nil, err
	}

	for _, row := range ledger {
		if err := row.CheckIntegrity(); err != nil {
			return nil, err
		}
	}

	active, err := tx.ActiveVehicles(ctx)
	if err != nil {
		return nil, err
	}

	for _, l := range limits {
		vehicleActive := l.VehicleID == nil || active[*l.VehicleID]

		u := limit.Evaluate(l, ledger, now, vehicleActive)
		if !u.Rolled && u.Current.Equal(l.CurrentUsage) {
			continue
		}

		l.CurrentUsage = u.Current
		l.PeriodStart = u.PeriodStart
		l.ResetDate = u.ResetDate

		if err := tx.SaveLimitUsage(ctx, l); err != nil {
			return nil, err
		}
	}

	return limits, nil
}
